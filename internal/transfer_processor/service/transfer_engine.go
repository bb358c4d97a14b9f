package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/secure-transfer-ledger/internal/domain/account"
	"github.com/secure-transfer-ledger/internal/domain/shared"
	"github.com/secure-transfer-ledger/internal/domain/transfer"
)

// TransferEngine debits the source, credits the destination and appends one
// COMPLETED record. Each leg is its own conditional update; a failed credit is
// undone by crediting the source back, so no interleaving of concurrent
// transfers can leave money created, destroyed or a balance below zero.
type TransferEngine struct {
	validator       TransferValidator
	balances        BalanceManager
	failureRecorder FailureRecorder
	log             transfer.Log
	logger          *slog.Logger
	now             func() time.Time
}

func NewTransferEngine(
	validator TransferValidator,
	balances BalanceManager,
	failureRecorder FailureRecorder,
	log transfer.Log,
	logger *slog.Logger,
) *TransferEngine {
	return &TransferEngine{
		validator:       validator,
		balances:        balances,
		failureRecorder: failureRecorder,
		log:             log,
		logger:          logger,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// Transfer executes the request. Retrying with the same transfer id after a
// success returns the original record without touching any balance.
func (s *TransferEngine) Transfer(ctx context.Context, request *shared.TransferRequest) (*transfer.Record, error) {
	logger := s.logger
	if request.CorrelationID != "" {
		logger = s.logger.With("correlation_id", request.CorrelationID)
	}
	logger = logger.With("transfer_id", request.TransferID)

	// 1. Validate and short-circuit on an already completed transfer
	if err := s.validator.Validate(request); err != nil {
		logger.Warn("Transfer request rejected", "error", err)
		return nil, err
	}

	existing, err := s.validator.FindCompleted(ctx, request)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if !existing.Matches(request.FromAccountID, request.ToAccountNumber, request.Amount) {
			logger.Warn("Transfer id already used for a different transfer")
			return nil, transfer.ErrTransferIDReused{TransferID: request.TransferID}
		}
		logger.Info("Transfer already completed, returning recorded outcome")
		return existing, nil
	}

	// 2. Resolve both sides
	from, to, err := s.balances.ResolveAccounts(ctx, request)
	if err != nil {
		logger.Warn("Failed to resolve transfer accounts", "error", err)
		return nil, err
	}
	logger = logger.With("from_account_id", from.ID.String(), "to_account_id", to.ID.String())

	// 3. Debit the source
	if err := s.balances.Debit(ctx, from.ID, request.Amount); err != nil {
		return nil, s.handleDebitError(ctx, logger, request, to.ID, err)
	}

	// From here on the transfer is finished or undone even if the caller goes away
	legCtx := context.WithoutCancel(ctx)

	// 4. Credit the destination, compensating the source on failure
	if err := s.balances.Credit(legCtx, to.ID, request.Amount); err != nil {
		return nil, s.handleCreditError(legCtx, logger, request, from.ID, to.ID, err)
	}

	// 5. Record the outcome
	record := &transfer.Record{
		TransferID:      request.TransferID,
		FromAccountID:   from.ID,
		ToAccountID:     to.ID,
		ToAccountNumber: request.ToAccountNumber,
		Amount:          request.Amount,
		Status:          transfer.StatusCompleted,
		CorrelationID:   request.CorrelationID,
		Timestamp:       s.now(),
	}
	if err := s.log.Append(legCtx, record); err != nil {
		return s.handleAppendError(legCtx, logger, request, from.ID, to.ID, err)
	}

	logger.Info("Transfer completed", "amount", request.Amount)
	return record, nil
}

func (s *TransferEngine) handleDebitError(ctx context.Context, logger *slog.Logger, request *shared.TransferRequest, toID uuid.UUID, err error) error {
	var exhausted account.ErrUpdateRetriesExhausted

	switch {
	case errors.Is(err, account.ErrInsufficientFunds):
		logger.Info("Transfer rejected for insufficient funds", "amount", request.Amount)
		return err
	case errors.Is(err, account.ErrAccountNotFound{}):
		logger.Warn("Source account disappeared before debit", "error", err)
		return err
	case errors.As(err, &exhausted):
		logger.Warn("Debit kept conflicting, aborting transfer", "attempts", exhausted.Attempts)
		s.recordFailure(ctx, logger, request, toID, shared.FailureReasonDebitConflict)
		return transfer.ErrTransferConflict{TransferID: request.TransferID, Err: err}
	case errors.Is(err, shared.ErrTransientStoreFailure{}):
		logger.Error("Debit failed", "error", err)
		return err
	default:
		logger.Error("Debit failed", "error", err)
		return shared.ErrTransientStoreFailure{Op: "debit", Err: err}
	}
}

func (s *TransferEngine) handleCreditError(ctx context.Context, logger *slog.Logger, request *shared.TransferRequest, fromID, toID uuid.UUID, creditErr error) error {
	logger.Warn("Credit failed, compensating source", "error", creditErr)

	if err := s.balances.Compensate(ctx, fromID, request.Amount); err != nil {
		logger.Error("Compensation failed, source account is short until reconciled",
			"amount", request.Amount,
			"credit_error", creditErr,
			"compensation_error", err)
		s.recordFailure(ctx, logger, request, toID, shared.FailureReasonCompensationFailed)
		return transfer.ErrTransferConflict{TransferID: request.TransferID, Err: errors.Join(creditErr, err)}
	}

	switch {
	case errors.Is(creditErr, account.ErrAccountNotFound{}):
		s.recordFailure(ctx, logger, request, toID, shared.FailureReasonAccountNotFound)
		return creditErr
	case errors.Is(creditErr, account.ErrBalanceOverflow):
		s.recordFailure(ctx, logger, request, toID, shared.FailureReasonInvalidAmount)
		return creditErr
	case errors.Is(creditErr, shared.ErrTransientStoreFailure{}):
		s.recordFailure(ctx, logger, request, toID, shared.FailureReasonTransientStore)
		return creditErr
	default:
		s.recordFailure(ctx, logger, request, toID, shared.FailureReasonCreditConflict)
		return transfer.ErrTransferConflict{TransferID: request.TransferID, Err: creditErr}
	}
}

// handleAppendError undoes both legs when the record cannot be written. A
// duplicate means a concurrent call with the same transfer id won; its record
// is the outcome.
func (s *TransferEngine) handleAppendError(ctx context.Context, logger *slog.Logger, request *shared.TransferRequest, fromID, toID uuid.UUID, appendErr error) (*transfer.Record, error) {
	if err := s.reverse(ctx, fromID, toID, request.Amount); err != nil {
		// Both legs stay applied without a COMPLETED record of their own; the
		// FAILED record is what reconciliation finds them by.
		logger.Error("Failed to reverse transfer after record append failed",
			"amount", request.Amount,
			"append_error", appendErr,
			"reverse_error", err)
		s.recordFailure(ctx, logger, request, toID, shared.FailureReasonReversalFailed)
		return nil, transfer.ErrTransferConflict{TransferID: request.TransferID, Err: errors.Join(appendErr, err)}
	}

	if errors.Is(appendErr, transfer.ErrDuplicateTransfer{}) {
		logger.Info("Concurrent duplicate transfer completed first, reversed this execution")
		winner, err := s.log.FindByTransferID(ctx, request.TransferID)
		if err != nil {
			return nil, shared.ErrTransientStoreFailure{Op: "load winning transfer record", Err: err}
		}
		if !winner.Matches(request.FromAccountID, request.ToAccountNumber, request.Amount) {
			logger.Warn("Transfer id was claimed by a different transfer, reversed this execution")
			return nil, transfer.ErrTransferIDReused{TransferID: request.TransferID}
		}
		return winner, nil
	}

	logger.Error("Failed to append transfer record, reversed both legs", "error", appendErr)
	return nil, shared.ErrTransientStoreFailure{Op: "append transfer record", Err: appendErr}
}

// reverse takes the amount back from the destination and returns it to the source
func (s *TransferEngine) reverse(ctx context.Context, fromID, toID uuid.UUID, amount int64) error {
	if err := s.balances.Debit(ctx, toID, amount); err != nil {
		return fmt.Errorf("reverse credit on destination: %w", err)
	}
	if err := s.balances.Compensate(ctx, fromID, amount); err != nil {
		return fmt.Errorf("reverse debit on source: %w", err)
	}
	return nil
}

func (s *TransferEngine) recordFailure(ctx context.Context, logger *slog.Logger, request *shared.TransferRequest, toID uuid.UUID, reason shared.FailureReason) {
	if err := s.failureRecorder.RecordFailure(ctx, request, toID, reason); err != nil {
		logger.Error("Failed to record transfer failure", "reason", string(reason), "error", err)
	}
}
