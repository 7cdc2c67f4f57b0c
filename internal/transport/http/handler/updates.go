package handler

import (
	"encoding/json"
	"net/http"

	"github.com/idverse-gateway/internal/application/reconcile"
)

// UpdateHandler handles manual status updates and authenticated webhooks.
// Both share the reconciliation logic; only the auth requirement differs
// and is enforced in the router.
type UpdateHandler struct {
	svc reconcile.Service
}

func NewUpdateHandler(svc reconcile.Service) *UpdateHandler { return &UpdateHandler{svc: svc} }

func (h *UpdateHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var ev reconcile.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if ev.TransactionID == "" {
		writeError(w, http.StatusBadRequest, "transactionId is required")
		return
	}
	if ev.Event == "" && ev.Status == "" {
		writeError(w, http.StatusBadRequest, "either event or status must be provided")
		return
	}

	rec, err := h.svc.HandleEvent(r.Context(), ev)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, UpdateEnvelope{
		Status:         "success",
		ResolvedStatus: rec.Status,
		TransactionID:  rec.TransactionID,
		RecordID:       rec.RecordID,
	})
}

// Webhook is the provider callback. The event name is required here; the
// bearer token was already checked by middleware.
func (h *UpdateHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	var ev reconcile.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if ev.TransactionID == "" || ev.Event == "" {
		writeError(w, http.StatusBadRequest, "transactionId and event are required")
		return
	}

	rec, err := h.svc.HandleEvent(r.Context(), ev)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, UpdateEnvelope{
		Status:        "success",
		TransactionID: rec.TransactionID,
		Event:         ev.Event,
		RecordID:      rec.RecordID,
	})
}
