package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/secure-transfer-ledger/internal/domain/account"
	"github.com/secure-transfer-ledger/internal/domain/shared"
	"github.com/secure-transfer-ledger/internal/domain/transfer"
	"github.com/secure-transfer-ledger/internal/platform/messaging/producers"
	processor "github.com/secure-transfer-ledger/internal/transfer_processor/service"
)

// TransferServiceImpl implements the TransferService interface
type TransferServiceImpl struct {
	engine      processor.TransferService
	publisher   producers.MessagePublisher
	transferLog transfer.Log
	logger      *slog.Logger
}

// NewTransferService creates a new transfer service. A nil publisher disables
// SubmitTransfer.
func NewTransferService(
	logger *slog.Logger,
	engine processor.TransferService,
	publisher producers.MessagePublisher,
	transferLog transfer.Log,
) TransferService {
	return &TransferServiceImpl{
		engine:      engine,
		publisher:   publisher,
		transferLog: transferLog,
		logger:      logger,
	}
}

func (s *TransferServiceImpl) Transfer(ctx context.Context, request *shared.TransferRequest) (*transfer.Record, error) {
	return s.engine.Transfer(ctx, request)
}

// SubmitTransfer rejects what the processor would dead-letter anyway, then
// publishes the request keyed by transfer id
func (s *TransferServiceImpl) SubmitTransfer(ctx context.Context, request *shared.TransferRequest) error {
	if s.publisher == nil {
		return ErrAsyncTransferClosed
	}
	if strings.TrimSpace(request.TransferID) == "" {
		return transfer.ErrInvalidTransferID
	}
	if request.Amount <= 0 {
		return account.ErrInvalidAmount
	}

	if err := s.publisher.Publish(ctx, request.TransferID, request); err != nil {
		s.logger.Error("Failed to queue transfer request",
			"transfer_id", request.TransferID,
			"correlation_id", request.CorrelationID,
			"error", err,
		)
		return shared.ErrTransientStoreFailure{Op: "queue transfer", Err: err}
	}

	s.logger.Info("Transfer request queued",
		"transfer_id", request.TransferID,
		"correlation_id", request.CorrelationID,
	)
	return nil
}

func (s *TransferServiceImpl) GetTransferByID(ctx context.Context, transferID string) (*transfer.Record, error) {
	return s.transferLog.FindByTransferID(ctx, transferID)
}

func (s *TransferServiceImpl) GetTransfersByAccountID(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*transfer.Record, error) {
	return s.transferLog.FindByAccountID(ctx, accountID, limit, offset)
}
