package account

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrInsufficientFunds    = errors.New("insufficient funds for transfer")
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrEmptyOwnerName       = errors.New("owner name cannot be empty")
	ErrInvalidEmail         = errors.New("email address is invalid")
	ErrEmptyAccountNumber   = errors.New("account number cannot be empty")
	ErrEmptyPasswordDigest  = errors.New("password digest cannot be empty")
	ErrNegativeLoginCounter = errors.New("failed login count cannot be negative")
	ErrBalanceOverflow      = errors.New("balance would exceed the supported maximum")
)

// MaxTransferAmount is the largest amount, in minor units, a single transfer may move
const MaxTransferAmount int64 = 1_000_000_000_000_000

// Account represents a bank account together with its login credentials
type Account struct {
	ID               uuid.UUID  `json:"id"`
	OwnerName        string     `json:"owner_name"`
	Email            string     `json:"email"`
	PasswordDigest   string     `json:"-"`
	FailedLoginCount int        `json:"failed_login_count"`
	LockedUntil      *time.Time `json:"locked_until,omitempty"`
	AccountNumber    string     `json:"account_number"`
	Balance          int64      `json:"balance"` // Stored in cents/minor units
	Version          int        `json:"version"` // For optimistic locking
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// NewAccount creates a new unlocked account with the given parameters
func NewAccount(ownerName, email, passwordDigest, accountNumber string, initialBalance int64) (*Account, error) {
	if strings.TrimSpace(ownerName) == "" {
		return nil, ErrEmptyOwnerName
	}
	email = NormalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}
	if strings.TrimSpace(accountNumber) == "" {
		return nil, ErrEmptyAccountNumber
	}
	if passwordDigest == "" {
		return nil, ErrEmptyPasswordDigest
	}
	if initialBalance < 0 {
		return nil, ErrInvalidAmount
	}

	now := time.Now().UTC()
	return &Account{
		ID:             uuid.New(),
		OwnerName:      strings.TrimSpace(ownerName),
		Email:          email,
		PasswordDigest: passwordDigest,
		AccountNumber:  strings.TrimSpace(accountNumber),
		Balance:        initialBalance,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// NormalizeEmail is the canonical form used for storage and lookups
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsLocked reports whether a stored lock deadline is still in the future
func (a *Account) IsLocked(now time.Time) bool {
	return a.LockedUntil != nil && now.Before(*a.LockedUntil)
}

// EffectiveFailedLoginCount returns the failure count that applies at now.
// An elapsed lock means the account starts over from zero.
func (a *Account) EffectiveFailedLoginCount(now time.Time) int {
	if a.LockedUntil != nil && !now.Before(*a.LockedUntil) {
		return 0
	}
	return a.FailedLoginCount
}

// HasLoginState reports whether there is any lockout state to clear
func (a *Account) HasLoginState() bool {
	return a.FailedLoginCount != 0 || a.LockedUntil != nil
}

// CanWithdraw checks if the account has sufficient funds for a debit
func (a *Account) CanWithdraw(amount int64) bool {
	return a.Balance >= amount
}

// Apply applies a mutation in place and bumps the version.
// The account is left untouched when the mutation is rejected.
func (a *Account) Apply(m Mutation, now time.Time) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if m.BalanceDelta > 0 && a.Balance > math.MaxInt64-m.BalanceDelta {
		return ErrBalanceOverflow
	}
	if a.Balance+m.BalanceDelta < 0 {
		return ErrInsufficientFunds
	}

	a.Balance += m.BalanceDelta
	if m.Lockout != nil {
		a.FailedLoginCount = m.Lockout.FailedLoginCount
		a.LockedUntil = copyTime(m.Lockout.LockedUntil)
	}
	if m.PasswordDigest != nil {
		a.PasswordDigest = *m.PasswordDigest
	}
	a.Version++
	a.UpdatedAt = now
	return nil
}

// Clone returns a deep copy safe to hand out of a store
func (a *Account) Clone() *Account {
	c := *a
	c.LockedUntil = copyTime(a.LockedUntil)
	return &c
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
