package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/idverse-gateway/internal/application/verification"
	"github.com/idverse-gateway/internal/domain"
	"github.com/idverse-gateway/internal/pkg/validate"
)

// VerifyHandler handles verification submission and lookup endpoints.
type VerifyHandler struct {
	svc verification.Service
}

func NewVerifyHandler(svc verification.Service) *VerifyHandler { return &VerifyHandler{svc: svc} }

func (h *VerifyHandler) Verify(w http.ResponseWriter, r *http.Request) {
	h.verify(w, r, false)
}

// VerifyTest accepts the same body as Verify plus a dryRun query parameter.
// dryRun skips the provider call and records a mock success.
func (h *VerifyHandler) VerifyTest(w http.ResponseWriter, r *http.Request) {
	h.verify(w, r, r.URL.Query().Get("dryRun") == "true")
}

func (h *VerifyHandler) verify(w http.ResponseWriter, r *http.Request, dryRun bool) {
	var req verification.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := h.svc.Verify(r.Context(), req, dryRun)
	if err != nil {
		httpError(w, err)
		return
	}
	if rec.Status == domain.StatusFailure {
		writeJSON(w, http.StatusBadRequest, VerifyEnvelope{
			Status:        "error",
			Message:       rec.ErrorMessage,
			TransactionID: rec.TransactionID,
			RecordID:      rec.RecordID,
		})
		return
	}
	writeJSON(w, http.StatusOK, VerifyEnvelope{
		Status:        "success",
		TransactionID: rec.TransactionID,
		RecordID:      rec.RecordID,
	})
}

func (h *VerifyHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.svc.List(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *VerifyHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *VerifyHandler) StatusByReference(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.LatestStatusByReference(r.Context(), chi.URLParam(r, "referenceId"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *VerifyHandler) StatusByTransaction(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.LatestStatusByTransaction(r.Context(), chi.URLParam(r, "transactionId"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
