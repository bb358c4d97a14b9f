package components

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/secure-transfer-ledger/internal/domain/shared"
	"github.com/secure-transfer-ledger/internal/domain/transfer"
	"github.com/secure-transfer-ledger/internal/transfer_processor/service"
)

type FailureRecorderImpl struct {
	transferLog transfer.Log
	logger      *slog.Logger
}

func NewFailureRecorder(transferLog transfer.Log, logger *slog.Logger) service.FailureRecorder {
	return &FailureRecorderImpl{
		transferLog: transferLog,
		logger:      logger,
	}
}

// RecordFailure appends a FAILED record. Several FAILED records may exist for
// one transfer id; none of them blocks a later COMPLETED record.
func (r *FailureRecorderImpl) RecordFailure(ctx context.Context, request *shared.TransferRequest, toAccountID uuid.UUID, reason shared.FailureReason) error {
	logger := r.logger
	if request.CorrelationID != "" {
		logger = r.logger.With("correlation_id", request.CorrelationID)
	}

	record := &transfer.Record{
		TransferID:      request.TransferID,
		FromAccountID:   request.FromAccountID,
		ToAccountID:     toAccountID,
		ToAccountNumber: request.ToAccountNumber,
		Amount:          request.Amount,
		Status:          transfer.StatusFailed,
		FailureReason:   string(reason),
		CorrelationID:   request.CorrelationID,
		Timestamp:       time.Now().UTC(),
	}

	if err := r.transferLog.Append(ctx, record); err != nil {
		logger.Error("Failed to append FAILED transfer record", "transfer_id", request.TransferID, "error", err)
		return err
	}

	logger.Info("Recorded failed transfer", "transfer_id", request.TransferID, "reason", string(reason))
	return nil
}
