package transfer

import (
	"context"

	"github.com/google/uuid"
)

// Log is the append-only store of transfer records.
// Append refuses a second COMPLETED record for the same transfer id with
// ErrDuplicateTransfer; FAILED records never conflict.
type Log interface {
	Append(ctx context.Context, record *Record) error
	FindByTransferID(ctx context.Context, transferID string) (*Record, error)
	FindByAccountID(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*Record, error)
}

// ErrTransferNotFound indicates no completed record exists for the id
type ErrTransferNotFound struct {
	TransferID string
}

func (e ErrTransferNotFound) Error() string {
	return "transfer not found: " + e.TransferID
}

// Is implements the errors.Is interface for ErrTransferNotFound
func (e ErrTransferNotFound) Is(target error) bool {
	t, ok := target.(ErrTransferNotFound)
	if !ok {
		return false
	}
	return t.TransferID == "" || e.TransferID == t.TransferID
}

// ErrDuplicateTransfer indicates a completed record already exists for the id
type ErrDuplicateTransfer struct {
	TransferID string
}

func (e ErrDuplicateTransfer) Error() string {
	return "duplicate completed transfer: " + e.TransferID
}

// Is implements the errors.Is interface for ErrDuplicateTransfer
func (e ErrDuplicateTransfer) Is(target error) bool {
	t, ok := target.(ErrDuplicateTransfer)
	if !ok {
		return false
	}
	return t.TransferID == "" || e.TransferID == t.TransferID
}

// ErrTransferConflict means a leg could not be applied within the retry budget.
// Balances are restored before it is returned.
type ErrTransferConflict struct {
	TransferID string
	Err        error
}

func (e ErrTransferConflict) Error() string {
	if e.Err != nil {
		return "transfer " + e.TransferID + " aborted after conflicting updates: " + e.Err.Error()
	}
	return "transfer " + e.TransferID + " aborted after conflicting updates"
}

func (e ErrTransferConflict) Unwrap() error {
	return e.Err
}

// Is matches any ErrTransferConflict when the target carries no transfer id
func (e ErrTransferConflict) Is(target error) bool {
	t, ok := target.(ErrTransferConflict)
	if !ok {
		return false
	}
	return t.TransferID == "" || e.TransferID == t.TransferID
}

// ErrTransferIDReused means a completed record exists for the transfer id but
// it moved money between different accounts or for a different amount
type ErrTransferIDReused struct {
	TransferID string
}

func (e ErrTransferIDReused) Error() string {
	return "transfer id " + e.TransferID + " was already used for a different transfer"
}

// Is matches any ErrTransferIDReused when the target carries no transfer id
func (e ErrTransferIDReused) Is(target error) bool {
	t, ok := target.(ErrTransferIDReused)
	if !ok {
		return false
	}
	return t.TransferID == "" || e.TransferID == t.TransferID
}
