package domain

import "time"

// Status vocabulary for verification records. The store is an append-only log:
// status transitions are new records, and "current status" for a key is the
// record with the greatest record_id (ULIDs sort by creation time).
const (
	StatusSMSSent = "SMS SENT"
	StatusFailure = "FAILURE"
)

// VerificationRecord is one entry in the append-only verification log.
// PK: record_id (ULID). GSIs: transaction_id-index and reference_id-index,
// both with record_id as the range key for latest-first queries.
// Records are immutable after creation.
//
// The GSI key attributes are omitted when empty (DynamoDB rejects empty index
// keys); records reconciled against an unknown transaction simply stay out of
// the reference index.
type VerificationRecord struct {
	RecordID      string    `json:"id" dynamodbav:"record_id"`
	PhoneNumber   string    `json:"phone_number" dynamodbav:"phone_number,omitempty"`
	ReferenceID   string    `json:"reference_id" dynamodbav:"reference_id,omitempty"`
	TransactionID string    `json:"transaction_id" dynamodbav:"transaction_id,omitempty"`
	APIResponse   string    `json:"api_response,omitempty" dynamodbav:"api_response,omitempty"`
	Status        string    `json:"status" dynamodbav:"status"`
	ErrorMessage  string    `json:"error_message,omitempty" dynamodbav:"error_message,omitempty"`
	CreatedAt     time.Time `json:"created_at" dynamodbav:"created_at"`
}
