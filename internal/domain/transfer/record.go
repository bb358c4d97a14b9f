package transfer

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidTransferID = errors.New("transfer id cannot be empty")
	ErrSameAccount       = errors.New("source and destination accounts must differ")
)

// Status is the outcome stored on a transfer record
type Status string

const (
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// Record is the immutable outcome of one transfer attempt
type Record struct {
	TransferID      string    `json:"transfer_id" bson:"transfer_id"`
	FromAccountID   uuid.UUID `json:"from_account_id" bson:"from_account_id"`
	ToAccountID     uuid.UUID `json:"to_account_id" bson:"to_account_id"`
	ToAccountNumber string    `json:"to_account_number" bson:"to_account_number"`
	Amount          int64     `json:"amount" bson:"amount"` // Stored in cents/minor units
	Status          Status    `json:"status" bson:"status"`
	FailureReason   string    `json:"failure_reason,omitempty" bson:"failure_reason,omitempty"`
	CorrelationID   string    `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	Timestamp       time.Time `json:"timestamp" bson:"timestamp"`
}

// IsCompleted reports whether both legs of the transfer were applied
func (r *Record) IsCompleted() bool {
	return r.Status == StatusCompleted
}

// Matches reports whether the record describes the same movement of money.
// Records written without a destination number match on source and amount.
func (r *Record) Matches(fromAccountID uuid.UUID, toAccountNumber string, amount int64) bool {
	if r.FromAccountID != fromAccountID || r.Amount != amount {
		return false
	}
	return r.ToAccountNumber == "" || r.ToAccountNumber == toAccountNumber
}

// Involves reports whether the account is either side of the transfer
func (r *Record) Involves(accountID uuid.UUID) bool {
	return r.FromAccountID == accountID || r.ToAccountID == accountID
}
