package account

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Repository defines account persistence operations.
// ConditionalUpdate is the only write path for existing accounts: it applies
// the mutation only while the stored version equals expectedVersion and the
// resulting balance stays non-negative, and returns the new version.
type Repository interface {
	Create(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByAccountNumber(ctx context.Context, accountNumber string) (*Account, error)
	ConditionalUpdate(ctx context.Context, id uuid.UUID, expectedVersion int, m Mutation) (int, error)
}

// ErrConcurrentModification indicates optimistic lock failure
type ErrConcurrentModification struct {
	AccountID uuid.UUID
}

func (e ErrConcurrentModification) Error() string {
	return "concurrent modification detected for account: " + e.AccountID.String()
}

// Is matches any ErrConcurrentModification when the target carries no account ID
func (e ErrConcurrentModification) Is(target error) bool {
	t, ok := target.(ErrConcurrentModification)
	if !ok {
		return false
	}
	return t.AccountID == uuid.Nil || e.AccountID == t.AccountID
}

// ErrAccountNotFound indicates missing account. Key holds the lookup value
// when the account was searched by email or account number.
type ErrAccountNotFound struct {
	AccountID uuid.UUID
	Key       string
}

func (e ErrAccountNotFound) Error() string {
	if e.Key != "" {
		return "account not found: " + e.Key
	}
	return "account not found: " + e.AccountID.String()
}

// Is implements the errors.Is interface for ErrAccountNotFound
func (e ErrAccountNotFound) Is(target error) bool {
	t, ok := target.(ErrAccountNotFound)
	if !ok {
		return false
	}
	if t.AccountID == uuid.Nil && t.Key == "" {
		return true
	}
	return e.AccountID == t.AccountID && e.Key == t.Key
}

// ErrDuplicateEmail indicates email uniqueness violation
type ErrDuplicateEmail struct {
	Email string
}

func (e ErrDuplicateEmail) Error() string {
	return "account with email already exists: " + e.Email
}

// ErrDuplicateAccountNumber indicates account number uniqueness violation
type ErrDuplicateAccountNumber struct {
	AccountNumber string
}

func (e ErrDuplicateAccountNumber) Error() string {
	return "account with account number already exists: " + e.AccountNumber
}

// ErrUpdateRetriesExhausted is returned when version conflicts outlast the retry budget
type ErrUpdateRetriesExhausted struct {
	AccountID uuid.UUID
	Attempts  int
}

func (e ErrUpdateRetriesExhausted) Error() string {
	return fmt.Sprintf("account %s: conditional update gave up after %d attempts", e.AccountID, e.Attempts)
}
