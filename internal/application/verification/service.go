package verification

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/idverse-gateway/internal/domain"
	"github.com/idverse-gateway/internal/infrastructure/idverse"
	"github.com/idverse-gateway/internal/infrastructure/sns"
	"github.com/idverse-gateway/internal/pkg/id"
	"github.com/idverse-gateway/internal/pkg/random"
)

// dryRunResponse is recorded instead of a provider response when dryRun is set.
const dryRunResponse = `{"mock":true,"status":"success"}`

// Request is an inbound verification submission.
type Request struct {
	PhoneCode         string `json:"phoneCode" validate:"required,phonecode"`
	PhoneNumber       string `json:"phoneNumber" validate:"required,phonenum"`
	ReferenceID       string `json:"referenceId" validate:"required"`
	TransactionID     string `json:"transactionId,omitempty" validate:"omitempty,txnid"`
	Name              string `json:"name,omitempty"`
	SuppliedFirstName string `json:"suppliedFirstName,omitempty"`
}

// StatusResult is the latest known status for a reference or transaction id.
type StatusResult struct {
	Status       string    `json:"status"`
	Timestamp    time.Time `json:"timestamp"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
}

// RecordStore is the narrow view of the verification log the orchestrator needs.
type RecordStore interface {
	Put(ctx context.Context, rec *domain.VerificationRecord) error
	Get(ctx context.Context, recordID string) (*domain.VerificationRecord, error)
	List(ctx context.Context) ([]domain.VerificationRecord, error)
	LatestByReference(ctx context.Context, referenceID string) (*domain.VerificationRecord, error)
	LatestByTransaction(ctx context.Context, transactionID string) (*domain.VerificationRecord, error)
}

// Sender performs the outbound provider call.
type Sender interface {
	SendVerification(ctx context.Context, p idverse.Payload) (string, error)
}

type Service interface {
	// Verify runs a single verification attempt. Provider failures are
	// captured into the persisted record, never returned; the error is
	// non-nil only when the record itself cannot be stored.
	Verify(ctx context.Context, req Request, dryRun bool) (*domain.VerificationRecord, error)
	List(ctx context.Context) ([]domain.VerificationRecord, error)
	Get(ctx context.Context, recordID string) (*domain.VerificationRecord, error)
	LatestStatusByReference(ctx context.Context, referenceID string) (*StatusResult, error)
	LatestStatusByTransaction(ctx context.Context, transactionID string) (*StatusResult, error)
}

type service struct {
	records RecordStore
	sender  Sender
	alerts  sns.AlertPublisher
}

func NewService(records RecordStore, sender Sender, alerts sns.AlertPublisher) Service {
	return &service{records: records, sender: sender, alerts: alerts}
}

func (s *service) Verify(ctx context.Context, req Request, dryRun bool) (*domain.VerificationRecord, error) {
	ensureTransactionID(&req)

	rec := &domain.VerificationRecord{
		RecordID: id.New(),
		// Phone code and number are stored combined.
		PhoneNumber:   req.PhoneCode + req.PhoneNumber,
		ReferenceID:   req.ReferenceID,
		TransactionID: req.TransactionID,
		CreatedAt:     time.Now().UTC(),
	}

	if dryRun {
		rec.Status = domain.StatusSMSSent
		rec.APIResponse = dryRunResponse
	} else {
		apiResponse, err := s.sender.SendVerification(ctx, idverse.Payload{
			PhoneCode:         req.PhoneCode,
			PhoneNumber:       req.PhoneNumber,
			ReferenceID:       req.ReferenceID,
			TransactionID:     req.TransactionID,
			Name:              req.Name,
			SuppliedFirstName: req.SuppliedFirstName,
		})
		if err != nil {
			slog.Error("verification failed",
				"reference_id", req.ReferenceID, "transaction_id", req.TransactionID, "err", err)
			rec.Status = domain.StatusFailure
			rec.ErrorMessage = err.Error()
			s.alert(ctx, req, err)
		} else {
			slog.Info("verification SMS sent",
				"reference_id", req.ReferenceID, "transaction_id", req.TransactionID)
			rec.Status = domain.StatusSMSSent
			rec.APIResponse = apiResponse
		}
	}

	if err := s.records.Put(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *service) List(ctx context.Context) ([]domain.VerificationRecord, error) {
	return s.records.List(ctx)
}

func (s *service) Get(ctx context.Context, recordID string) (*domain.VerificationRecord, error) {
	return s.records.Get(ctx, recordID)
}

func (s *service) LatestStatusByReference(ctx context.Context, referenceID string) (*StatusResult, error) {
	rec, err := s.records.LatestByReference(ctx, referenceID)
	if err != nil {
		return nil, err
	}
	return toStatus(rec), nil
}

func (s *service) LatestStatusByTransaction(ctx context.Context, transactionID string) (*StatusResult, error) {
	rec, err := s.records.LatestByTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	return toStatus(rec), nil
}

func (s *service) alert(ctx context.Context, req Request, cause error) {
	if s.alerts == nil {
		return
	}
	msg := "Verification failed for reference " + req.ReferenceID +
		" (transaction " + req.TransactionID + "): " + cause.Error()
	if err := s.alerts.PublishAlert(ctx, msg); err != nil {
		slog.Warn("could not publish failure alert", "reference_id", req.ReferenceID, "err", err)
	}
}

func toStatus(rec *domain.VerificationRecord) *StatusResult {
	return &StatusResult{
		Status:       rec.Status,
		Timestamp:    rec.CreatedAt,
		ErrorMessage: rec.ErrorMessage,
	}
}

// ensureTransactionID assigns a generated transaction id when the caller left
// it blank. Generated ids satisfy the same bounds validated on supplied ones.
func ensureTransactionID(req *Request) {
	if strings.TrimSpace(req.TransactionID) == "" {
		req.TransactionID = random.TransactionID()
	}
}
