package handler

import (
	"net/http"

	"github.com/idverse-gateway/internal/config"
	"github.com/idverse-gateway/internal/pkg/random"
)

// DefaultsHandler serves pre-filled verification request fields for clients.
type DefaultsHandler struct {
	defaults config.VerifyDefaults
}

func NewDefaultsHandler(defaults config.VerifyDefaults) *DefaultsHandler {
	return &DefaultsHandler{defaults: defaults}
}

// Get returns the configured defaults. The transaction field gets a random
// suffix so repeated submissions from the same defaults stay distinguishable.
func (h *DefaultsHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"phoneCode":         h.defaults.PhoneCode,
		"phoneNumber":       h.defaults.PhoneNumber,
		"referenceId":       h.defaults.ReferenceID,
		"transactionId":     random.AppendSuffix(h.defaults.Transaction),
		"name":              h.defaults.Name,
		"suppliedFirstName": h.defaults.SuppliedFirstName,
	})
}
