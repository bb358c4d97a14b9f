package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/secure-transfer-ledger/internal/domain/account"
	"github.com/secure-transfer-ledger/internal/domain/shared"
	"github.com/secure-transfer-ledger/internal/domain/transfer"
	"github.com/secure-transfer-ledger/internal/platform/messaging/producers"
	"github.com/secure-transfer-ledger/internal/transfer_processor/service"
)

// TransferEventHandler handles incoming transfer request messages from Kafka
type TransferEventHandler struct {
	transferService service.TransferService
	producer        producers.DeadLetterPublisher
	logger          *slog.Logger
}

// NewTransferEventHandler creates a new handler
func NewTransferEventHandler(
	logger *slog.Logger,
	transferService service.TransferService,
	producer producers.DeadLetterPublisher,
) *TransferEventHandler {
	return &TransferEventHandler{
		transferService: transferService,
		producer:        producer,
		logger:          logger,
	}
}

// HandleMessage processes Kafka messages. Returning nil commits the offset;
// transient failures return an error so the consumer retries the message.
func (h *TransferEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var request shared.TransferRequest
	if err := json.Unmarshal(value, &request); err != nil {
		h.logger.Error("Failed to unmarshal transfer request from Kafka message",
			"error", err,
			"message_key", string(key),
		)
		if h.deadLetter(ctx, h.logger, key, value, shared.FailureReasonMalformedMessage, err) {
			return nil
		}
		// Allow Kafka retries
		return fmt.Errorf("failed to unmarshal message value: %w", err)
	}

	logger := h.logger
	if request.CorrelationID != "" {
		logger = h.logger.With("correlation_id", request.CorrelationID)
	}

	logger.Info("Received transfer request for processing",
		"transfer_id", request.TransferID,
		"from_account_id", request.FromAccountID.String(),
		"to_account_number", request.ToAccountNumber,
		"amount", request.Amount,
	)

	record, err := h.transferService.Transfer(ctx, &request)
	if err != nil {
		reason, terminal := classify(err)
		if !terminal {
			logger.Error("Transfer failed, message will be retried",
				"transfer_id", request.TransferID,
				"error", err,
			)
			return fmt.Errorf("transfer %s failed: %w", request.TransferID, err)
		}

		logger.Warn("Transfer rejected", "transfer_id", request.TransferID, "reason", string(reason), "error", err)
		if h.deadLetter(ctx, logger, key, value, reason, err) {
			return nil
		}
		return fmt.Errorf("transfer %s rejected and dead-lettering failed: %w", request.TransferID, err)
	}

	logger.Info("Successfully processed transfer", "transfer_id", record.TransferID, "status", string(record.Status))
	return nil // Success, commit offset
}

// deadLetter reports whether the message was parked on the DLQ
func (h *TransferEventHandler) deadLetter(ctx context.Context, logger *slog.Logger, key, value []byte, reason shared.FailureReason, cause error) bool {
	if h.producer == nil {
		return false
	}

	dlqReason := fmt.Sprintf("%s: %s", reason, cause.Error())
	if err := h.producer.PublishToDLQ(ctx, string(key), value, dlqReason); err != nil {
		logger.Error("Failed to publish message to DLQ",
			"dlq_error", err,
			"original_error", cause,
			"message_key", string(key),
		)
		return false
	}

	logger.Info("Published unprocessable message to DLQ", "message_key", string(key), "reason", dlqReason)
	return true
}

// classify maps an engine error to a failure reason and whether retrying the
// same message could ever change the outcome
func classify(err error) (shared.FailureReason, bool) {
	switch {
	case errors.Is(err, account.ErrInsufficientFunds):
		return shared.FailureReasonInsufficientFunds, true
	case errors.Is(err, account.ErrAccountNotFound{}):
		return shared.FailureReasonAccountNotFound, true
	case errors.Is(err, account.ErrInvalidAmount), errors.Is(err, account.ErrBalanceOverflow):
		return shared.FailureReasonInvalidAmount, true
	case errors.Is(err, transfer.ErrInvalidTransferID):
		return shared.FailureReasonInvalidTransferID, true
	case errors.Is(err, transfer.ErrSameAccount):
		return shared.FailureReasonSameAccount, true
	case errors.Is(err, transfer.ErrTransferIDReused{}):
		return shared.FailureReasonTransferIDReused, true
	case errors.Is(err, transfer.ErrTransferConflict{}):
		return shared.FailureReasonCreditConflict, true
	case errors.Is(err, shared.ErrTransientStoreFailure{}):
		return shared.FailureReasonTransientStore, false
	default:
		return shared.FailureReasonUnknownError, false
	}
}
