package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/secure-transfer-ledger/internal/domain/account"
	"github.com/secure-transfer-ledger/internal/domain/shared"
	"github.com/secure-transfer-ledger/internal/domain/transfer"
)

// TransferService moves funds between two accounts
type TransferService interface {
	Transfer(ctx context.Context, request *shared.TransferRequest) (*transfer.Record, error)
}

// TransferValidator checks a request before any account is touched
type TransferValidator interface {
	Validate(request *shared.TransferRequest) error
	// FindCompleted returns the COMPLETED record for the request's transfer id, or nil
	FindCompleted(ctx context.Context, request *shared.TransferRequest) (*transfer.Record, error)
}

// BalanceManager applies single-account balance changes with bounded retries
type BalanceManager interface {
	ResolveAccounts(ctx context.Context, request *shared.TransferRequest) (from, to *account.Account, err error)
	Debit(ctx context.Context, accountID uuid.UUID, amount int64) error
	Credit(ctx context.Context, accountID uuid.UUID, amount int64) error
	// Compensate credits back a debit that could not be completed, using the larger retry budget
	Compensate(ctx context.Context, accountID uuid.UUID, amount int64) error
}

// FailureRecorder appends FAILED transfer records
type FailureRecorder interface {
	RecordFailure(ctx context.Context, request *shared.TransferRequest, toAccountID uuid.UUID, reason shared.FailureReason) error
}
