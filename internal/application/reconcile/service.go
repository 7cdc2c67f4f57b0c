package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/idverse-gateway/internal/domain"
	"github.com/idverse-gateway/internal/pkg/id"
)

// msgTxnNotFound flags a callback that arrived before (or without) any record
// for its transaction id. The callback still succeeds.
const msgTxnNotFound = "Transaction ID not found at time of status update"

// Event is an inbound webhook or manual status update. At least one of Event
// and Status must be present; Event wins when both are.
type Event struct {
	TransactionID string `json:"transactionId" validate:"required"`
	Event         string `json:"event,omitempty"`
	Status        string `json:"status,omitempty"`
}

// RecordStore is the slice of the verification log the reconciler uses.
type RecordStore interface {
	Put(ctx context.Context, rec *domain.VerificationRecord) error
	LatestByTransactionAndStatus(ctx context.Context, transactionID, status string) (*domain.VerificationRecord, error)
}

type Service interface {
	// HandleEvent appends exactly one record for the event, copying phone and
	// reference from the most recent matching prior record when one exists.
	HandleEvent(ctx context.Context, ev Event) (*domain.VerificationRecord, error)
}

type service struct {
	records RecordStore
}

func NewService(records RecordStore) Service {
	return &service{records: records}
}

func (s *service) HandleEvent(ctx context.Context, ev Event) (*domain.VerificationRecord, error) {
	resolved := StatusFromEvent(ev.Event, ev.Status)
	if resolved == "" {
		return nil, domain.ErrBadRequest
	}

	rec := &domain.VerificationRecord{
		RecordID:      id.New(),
		TransactionID: ev.TransactionID,
		Status:        resolved,
		CreatedAt:     time.Now().UTC(),
	}

	if raw, err := json.Marshal(ev); err == nil {
		rec.APIResponse = string(raw)
	}

	prior, err := s.findPrior(ctx, ev.TransactionID)
	if err != nil {
		return nil, err
	}
	if prior != nil {
		rec.PhoneNumber = prior.PhoneNumber
		rec.ReferenceID = prior.ReferenceID
	} else {
		slog.Warn("status update for unknown transaction", "transaction_id", ev.TransactionID)
		rec.ErrorMessage = msgTxnNotFound
	}

	if err := s.records.Put(ctx, rec); err != nil {
		return nil, err
	}
	slog.Info("status reconciled",
		"transaction_id", ev.TransactionID, "status", resolved, "record_id", rec.RecordID)
	return rec, nil
}

// findPrior prefers the sent record over a failed one so a late callback maps
// back to the attempt that actually reached the handset. Only a genuine
// absence counts as "no prior record"; a store failure propagates so the
// event is not persisted against the wrong fields.
func (s *service) findPrior(ctx context.Context, transactionID string) (*domain.VerificationRecord, error) {
	for _, status := range []string{domain.StatusSMSSent, domain.StatusFailure} {
		rec, err := s.records.LatestByTransactionAndStatus(ctx, transactionID, status)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}
	return nil, nil
}

// StatusFromEvent derives the human status label. A camelCase event name is
// split at uppercase boundaries and upper-cased with single spaces, so
// "completedPass" becomes "COMPLETED PASS". An explicit status is used only
// when no event name is present. Returns "" when neither is set.
func StatusFromEvent(event, status string) string {
	event = strings.TrimSpace(event)
	if event != "" {
		return splitCamelUpper(event)
	}
	return strings.TrimSpace(status)
}

func splitCamelUpper(s string) string {
	var b strings.Builder
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteByte(' ')
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}
