package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/secure-transfer-ledger/internal/domain/account"
	"github.com/secure-transfer-ledger/internal/domain/auth"
	"github.com/secure-transfer-ledger/internal/domain/shared"
	"github.com/secure-transfer-ledger/internal/platform/security"
)

const (
	minPasswordLength      = 8
	accountNumberAttempts  = 3
	passwordChangeAttempts = 3
	generatedAccountDigits = 12
	generatedAccountPrefix = "ACC-"
)

// AccountServiceImpl implements the AccountService interface
type AccountServiceImpl struct {
	accountRepo account.Repository
	hasher      security.PasswordHasher
	logger      *slog.Logger
}

// NewAccountService creates a new account service
func NewAccountService(logger *slog.Logger, accountRepo account.Repository, hasher security.PasswordHasher) AccountService {
	return &AccountServiceImpl{
		accountRepo: accountRepo,
		hasher:      hasher,
		logger:      logger,
	}
}

// CreateAccount hashes the password and stores the account. Uniqueness is
// enforced by the store, so two concurrent registrations cannot both win.
func (s *AccountServiceImpl) CreateAccount(ctx context.Context, ownerName, email, password, accountNumber string, initialBalance int64) (*account.Account, error) {
	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	generated := strings.TrimSpace(accountNumber) == ""
	for attempt := 1; ; attempt++ {
		number := accountNumber
		if generated {
			number = newAccountNumber()
		}

		acc, err := account.NewAccount(ownerName, email, digest, number, initialBalance)
		if err != nil {
			return nil, err
		}

		err = s.accountRepo.Create(ctx, acc)
		if err == nil {
			s.logger.Info("Account created", "account_id", acc.ID.String(), "account_number", acc.AccountNumber)
			return acc, nil
		}

		var duplicateNumber account.ErrDuplicateAccountNumber
		if generated && errors.As(err, &duplicateNumber) && attempt < accountNumberAttempts {
			s.logger.Warn("Generated account number already taken, retrying", "account_number", number)
			continue
		}
		return nil, err
	}
}

// GetAccountByID retrieves an account by its ID, returns ErrAccountNotFound if not found
func (s *AccountServiceImpl) GetAccountByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	return s.accountRepo.GetByID(ctx, id)
}

// ChangePassword re-reads the account on a version conflict, so a concurrent
// login that clears the lockout counter does not lose the new digest.
func (s *AccountServiceImpl) ChangePassword(ctx context.Context, id uuid.UUID, currentPassword, newPassword, confirmPassword string) error {
	if newPassword != confirmPassword {
		return ErrPasswordMismatch
	}
	if len(newPassword) < minPasswordLength {
		return ErrWeakPassword
	}

	digest, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	for attempt := 1; attempt <= passwordChangeAttempts; attempt++ {
		acc, err := s.accountRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if !s.hasher.Verify(currentPassword, acc.PasswordDigest) {
			return auth.ErrInvalidCredentials
		}

		_, err = s.accountRepo.ConditionalUpdate(ctx, id, acc.Version, account.SetPassword(digest))
		if err == nil {
			s.logger.Info("Password changed", "account_id", id.String())
			return nil
		}
		if !errors.Is(err, account.ErrConcurrentModification{}) {
			return err
		}
	}

	return shared.ErrTransientStoreFailure{
		Op:  "change password",
		Err: account.ErrUpdateRetriesExhausted{AccountID: id, Attempts: passwordChangeAttempts},
	}
}

// newAccountNumber derives a random account number from a fresh UUID
func newAccountNumber() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return generatedAccountPrefix + raw[:generatedAccountDigits]
}
