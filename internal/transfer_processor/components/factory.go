package components

import (
	"log/slog"

	"github.com/secure-transfer-ledger/internal/config"
	"github.com/secure-transfer-ledger/internal/domain/account"
	"github.com/secure-transfer-ledger/internal/domain/transfer"
	"github.com/secure-transfer-ledger/internal/transfer_processor/service"
)

// CreateTransferService wires the transfer engine with all its dependencies
// and puts it behind the worker pool.
func CreateTransferService(
	accountRepo account.Repository,
	transferLog transfer.Log,
	logger *slog.Logger,
	cfg *config.Config,
) service.TransferService {
	validator := NewTransferValidator(transferLog, logger)
	balances := NewBalanceManager(accountRepo, logger, cfg.Transfer.MaxRetryAttempts, cfg.Transfer.CompensationRetryAttempts)
	failureRecorder := NewFailureRecorder(transferLog, logger)

	baseService := service.NewTransferEngine(
		validator,
		balances,
		failureRecorder,
		transferLog,
		logger,
	)

	workerPoolService, err := service.NewWorkerPoolTransferService(
		baseService,
		service.WorkerPoolConfig{
			Size: cfg.WorkerPool.Size,
		},
		logger.With("component", "worker_pool"),
	)

	if err != nil {
		logger.Error("Failed to create worker pool service, falling back to base service", "error", err)
		return baseService
	}

	logger.Info("Created worker pool transfer service", "pool_size", cfg.WorkerPool.Size)
	return workerPoolService
}
