// Package postgres provides the PostgreSQL implementation of the account store.
// Every write to an existing account goes through a single versioned UPDATE
// so concurrent logins and transfers never overwrite each other.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/secure-transfer-ledger/internal/domain/account"
	"github.com/secure-transfer-ledger/internal/platform/persistence"
)

const (
	uniqueViolationCode   = "23505"
	numericOutOfRangeCode = "22003"
)

const accountColumns = `id, owner_name, email, password_digest, failed_login_count, locked_until,
		account_number, balance, version, created_at, updated_at`

const (
	createAccountQuery = `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	getAccountByIDQuery = `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE id = $1
	`
	getAccountByEmailQuery = `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE email = $1
	`
	getAccountByNumberQuery = `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE account_number = $1
	`
	// The balance guard lives in the WHERE clause so a debit can never
	// race past zero between the read and the write.
	conditionalUpdateQuery = `
		UPDATE accounts
		SET balance = balance + $1,
			failed_login_count = CASE WHEN $2::boolean THEN $3::integer ELSE failed_login_count END,
			locked_until = CASE WHEN $2::boolean THEN $4::timestamptz ELSE locked_until END,
			password_digest = CASE WHEN $5::boolean THEN $6::text ELSE password_digest END,
			version = version + 1,
			updated_at = NOW()
		WHERE id = $7 AND version = $8 AND balance + $1 >= 0
		RETURNING version
	`
	accountStateQuery = `
		SELECT version, balance
		FROM accounts
		WHERE id = $1
	`
)

// AccountRepository implements the account.Repository interface for PostgreSQL
type AccountRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewAccountRepository creates a new PostgreSQL account repository.
func NewAccountRepository(logger *slog.Logger, db *persistence.PostgresDB) *AccountRepository {
	return &AccountRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// Create stores a new account. Unique email and account number are enforced by the schema.
func (r *AccountRepository) Create(ctx context.Context, acc *account.Account) error {
	_, err := r.querier.Exec(ctx, createAccountQuery,
		acc.ID,
		acc.OwnerName,
		acc.Email,
		acc.PasswordDigest,
		acc.FailedLoginCount,
		acc.LockedUntil,
		acc.AccountNumber,
		acc.Balance,
		acc.Version,
		acc.CreatedAt,
		acc.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			if pgErr.ConstraintName == "accounts_email_key" {
				return account.ErrDuplicateEmail{Email: acc.Email}
			}
			return account.ErrDuplicateAccountNumber{AccountNumber: acc.AccountNumber}
		}
		r.logger.Error("Failed to create account", "error", err)
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// GetByID retrieves an account by its ID
func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	acc, err := scanAccount(r.querier.QueryRow(ctx, getAccountByIDQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{AccountID: id}
		}
		r.logger.Error("Failed to get account", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return acc, nil
}

// GetByEmail retrieves an account by its normalized email
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*account.Account, error) {
	email = account.NormalizeEmail(email)
	acc, err := scanAccount(r.querier.QueryRow(ctx, getAccountByEmailQuery, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{Key: email}
		}
		r.logger.Error("Failed to get account by email", "error", err)
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}
	return acc, nil
}

// GetByAccountNumber retrieves an account by its account number
func (r *AccountRepository) GetByAccountNumber(ctx context.Context, accountNumber string) (*account.Account, error) {
	acc, err := scanAccount(r.querier.QueryRow(ctx, getAccountByNumberQuery, accountNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{Key: accountNumber}
		}
		r.logger.Error("Failed to get account by number", "account_number", accountNumber, "error", err)
		return nil, fmt.Errorf("failed to get account by number: %w", err)
	}
	return acc, nil
}

// ConditionalUpdate applies m only if the row is still at expectedVersion and the
// balance stays non-negative. It returns the new version.
func (r *AccountRepository) ConditionalUpdate(ctx context.Context, id uuid.UUID, expectedVersion int, m account.Mutation) (int, error) {
	if err := m.Validate(); err != nil {
		return 0, err
	}

	var (
		setLockout     bool
		failedCount    int
		lockedUntil    *time.Time
		setPassword    bool
		passwordDigest string
	)
	if m.Lockout != nil {
		setLockout = true
		failedCount = m.Lockout.FailedLoginCount
		lockedUntil = m.Lockout.LockedUntil
	}
	if m.PasswordDigest != nil {
		setPassword = true
		passwordDigest = *m.PasswordDigest
	}

	var newVersion int
	err := r.querier.QueryRow(ctx, conditionalUpdateQuery,
		m.BalanceDelta,
		setLockout,
		failedCount,
		lockedUntil,
		setPassword,
		passwordDigest,
		id,
		expectedVersion,
	).Scan(&newVersion)
	if err == nil {
		return newVersion, nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == numericOutOfRangeCode {
		return 0, account.ErrBalanceOverflow
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		r.logger.Error("Failed to update account", "id", id.String(), "error", err)
		return 0, fmt.Errorf("failed to update account: %w", err)
	}

	return 0, r.explainRejectedUpdate(ctx, id, expectedVersion)
}

// explainRejectedUpdate tells apart the three reasons an update matched no row
func (r *AccountRepository) explainRejectedUpdate(ctx context.Context, id uuid.UUID, expectedVersion int) error {
	var (
		version int
		balance int64
	)
	err := r.querier.QueryRow(ctx, accountStateQuery, id).Scan(&version, &balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return account.ErrAccountNotFound{AccountID: id}
		}
		r.logger.Error("Failed to read account state", "id", id.String(), "error", err)
		return fmt.Errorf("failed to read account state: %w", err)
	}

	if version != expectedVersion {
		return account.ErrConcurrentModification{AccountID: id}
	}
	return account.ErrInsufficientFunds
}

func scanAccount(row pgx.Row) (*account.Account, error) {
	var acc account.Account
	err := row.Scan(
		&acc.ID,
		&acc.OwnerName,
		&acc.Email,
		&acc.PasswordDigest,
		&acc.FailedLoginCount,
		&acc.LockedUntil,
		&acc.AccountNumber,
		&acc.Balance,
		&acc.Version,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}
