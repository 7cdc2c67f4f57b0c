package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/idverse-gateway/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// VerifyEnvelope wraps verification submission responses.
type VerifyEnvelope struct {
	Status        string `json:"status"`
	Message       string `json:"message,omitempty"`
	TransactionID string `json:"transactionId,omitempty"`
	RecordID      string `json:"recordId,omitempty"`
}

// UpdateEnvelope wraps status-update and webhook acks.
type UpdateEnvelope struct {
	Status         string `json:"status"`
	ResolvedStatus string `json:"resolvedStatus,omitempty"`
	TransactionID  string `json:"transactionId,omitempty"`
	Event          string `json:"event,omitempty"`
	RecordID       string `json:"recordId,omitempty"`
	Message        string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Status: "error", Message: msg})
}

// httpError maps domain sentinels onto HTTP statuses.
func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, domain.ErrProviderAuth):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
