package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/secure-transfer-ledger/internal/domain/account"
	"github.com/secure-transfer-ledger/internal/domain/shared"
	"github.com/secure-transfer-ledger/internal/domain/transfer"
	"github.com/secure-transfer-ledger/internal/transfer_processor/service"
)

type TransferValidatorImpl struct {
	transferLog transfer.Log
	logger      *slog.Logger
}

func NewTransferValidator(transferLog transfer.Log, logger *slog.Logger) service.TransferValidator {
	return &TransferValidatorImpl{
		transferLog: transferLog,
		logger:      logger,
	}
}

// Validate checks transfer request validity
func (v *TransferValidatorImpl) Validate(request *shared.TransferRequest) error {
	if strings.TrimSpace(request.TransferID) == "" {
		return transfer.ErrInvalidTransferID
	}
	if request.Amount <= 0 {
		return account.ErrInvalidAmount
	}
	if request.Amount > account.MaxTransferAmount {
		return fmt.Errorf("%w: exceeds maximum of %d", account.ErrInvalidAmount, account.MaxTransferAmount)
	}
	return nil
}

// FindCompleted looks up an earlier successful execution of the same transfer id
func (v *TransferValidatorImpl) FindCompleted(ctx context.Context, request *shared.TransferRequest) (*transfer.Record, error) {
	record, err := v.transferLog.FindByTransferID(ctx, request.TransferID)
	if err != nil {
		if errors.Is(err, transfer.ErrTransferNotFound{}) {
			return nil, nil
		}
		v.logger.Error("Failed to check transfer log for idempotency", "transfer_id", request.TransferID, "error", err)
		return nil, shared.ErrTransientStoreFailure{Op: "idempotency check", Err: err}
	}
	return record, nil
}
