package components

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/secure-transfer-ledger/internal/domain/account"
	"github.com/secure-transfer-ledger/internal/domain/shared"
	"github.com/secure-transfer-ledger/internal/domain/transfer"
	"github.com/secure-transfer-ledger/internal/transfer_processor/service"
)

// BalanceManagerImpl implements the BalanceManager interface on top of the
// account store's conditional update
type BalanceManagerImpl struct {
	accountRepo          account.Repository
	logger               *slog.Logger
	maxAttempts          int
	compensationAttempts int
}

// NewBalanceManager creates a new BalanceManagerImpl
func NewBalanceManager(accountRepo account.Repository, logger *slog.Logger, maxAttempts, compensationAttempts int) service.BalanceManager {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if compensationAttempts <= 0 {
		compensationAttempts = 10
	}
	return &BalanceManagerImpl{
		accountRepo:          accountRepo,
		logger:               logger,
		maxAttempts:          maxAttempts,
		compensationAttempts: compensationAttempts,
	}
}

// ResolveAccounts loads the source by id and the destination by account number
func (m *BalanceManagerImpl) ResolveAccounts(ctx context.Context, request *shared.TransferRequest) (*account.Account, *account.Account, error) {
	from, err := m.accountRepo.GetByID(ctx, request.FromAccountID)
	if err != nil {
		return nil, nil, m.lookupError("load source account", err)
	}

	to, err := m.accountRepo.GetByAccountNumber(ctx, request.ToAccountNumber)
	if err != nil {
		return nil, nil, m.lookupError("load destination account", err)
	}

	if from.ID == to.ID {
		return nil, nil, transfer.ErrSameAccount
	}

	return from, to, nil
}

func (m *BalanceManagerImpl) Debit(ctx context.Context, accountID uuid.UUID, amount int64) error {
	return m.apply(ctx, accountID, account.Debit(amount), m.maxAttempts)
}

func (m *BalanceManagerImpl) Credit(ctx context.Context, accountID uuid.UUID, amount int64) error {
	return m.apply(ctx, accountID, account.Credit(amount), m.maxAttempts)
}

func (m *BalanceManagerImpl) Compensate(ctx context.Context, accountID uuid.UUID, amount int64) error {
	return m.apply(ctx, accountID, account.Credit(amount), m.compensationAttempts)
}

// apply re-reads the account and retries the conditional update while other
// writers keep moving its version
func (m *BalanceManagerImpl) apply(ctx context.Context, accountID uuid.UUID, mutation account.Mutation, attempts int) error {
	if mutation.BalanceDelta == 0 {
		return account.ErrInvalidAmount
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return shared.ErrTransientStoreFailure{Op: "update balance", Err: err}
		}

		current, err := m.accountRepo.GetByID(ctx, accountID)
		if err != nil {
			return m.lookupError("load account for balance update", err)
		}

		if mutation.BalanceDelta < 0 && !current.CanWithdraw(-mutation.BalanceDelta) {
			return account.ErrInsufficientFunds
		}

		_, err = m.accountRepo.ConditionalUpdate(ctx, accountID, current.Version, mutation)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, account.ErrConcurrentModification{}):
			m.logger.Debug("Version conflict on balance update, retrying",
				"account_id", accountID.String(),
				"attempt", attempt,
				"expected_version", current.Version,
			)
			continue
		case errors.Is(err, account.ErrInsufficientFunds),
			errors.Is(err, account.ErrAccountNotFound{}),
			errors.Is(err, account.ErrBalanceOverflow):
			return err
		default:
			m.logger.Error("Balance update failed", "account_id", accountID.String(), "error", err)
			return shared.ErrTransientStoreFailure{Op: "update balance", Err: err}
		}
	}

	m.logger.Warn("Balance update retries exhausted", "account_id", accountID.String(), "attempts", attempts)
	return account.ErrUpdateRetriesExhausted{AccountID: accountID, Attempts: attempts}
}

func (m *BalanceManagerImpl) lookupError(op string, err error) error {
	if errors.Is(err, account.ErrAccountNotFound{}) {
		return err
	}
	m.logger.Error("Account lookup failed", "op", op, "error", err)
	return shared.ErrTransientStoreFailure{Op: op, Err: err}
}
