package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/secure-transfer-ledger/internal/domain/account"
	"github.com/secure-transfer-ledger/internal/domain/shared"
	"github.com/secure-transfer-ledger/internal/domain/transfer"
)

var (
	ErrPasswordMismatch    = errors.New("new password and confirmation do not match")
	ErrWeakPassword        = errors.New("password must be at least 8 characters")
	ErrAsyncTransferClosed = errors.New("asynchronous transfers are not enabled")
)

// AccountService defines the interface for account operations
type AccountService interface {
	// CreateAccount registers a new account holder.
	// An empty accountNumber gets a generated one.
	// Returns ErrDuplicateEmail or ErrDuplicateAccountNumber on uniqueness violations
	CreateAccount(ctx context.Context, ownerName, email, password, accountNumber string, initialBalance int64) (*account.Account, error)

	// GetAccountByID retrieves an account by its ID
	// Returns ErrAccountNotFound if the account doesn't exist
	GetAccountByID(ctx context.Context, id uuid.UUID) (*account.Account, error)

	// ChangePassword replaces the password after checking the current one.
	// Returns auth.ErrInvalidCredentials when currentPassword is wrong
	ChangePassword(ctx context.Context, id uuid.UUID, currentPassword, newPassword, confirmPassword string) error
}

// TransferService defines the interface for transfer operations
type TransferService interface {
	// Transfer runs the transfer and waits for its outcome
	Transfer(ctx context.Context, request *shared.TransferRequest) (*transfer.Record, error)

	// SubmitTransfer queues the transfer for the transfer processor
	SubmitTransfer(ctx context.Context, request *shared.TransferRequest) error

	// GetTransferByID returns the completed record for a transfer id
	// Returns ErrTransferNotFound when the transfer has not completed
	GetTransferByID(ctx context.Context, transferID string) (*transfer.Record, error)

	// GetTransfersByAccountID lists records touching the account, newest first
	GetTransfersByAccountID(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*transfer.Record, error)
}
