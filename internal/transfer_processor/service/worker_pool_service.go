package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/secure-transfer-ledger/internal/domain/shared"
	"github.com/secure-transfer-ledger/internal/domain/transfer"
)

// WorkerPoolTransferService bounds how many transfers run at once
type WorkerPoolTransferService struct {
	baseService TransferService
	pool        *ants.Pool
	logger      *slog.Logger
}

const defaultShutdownTimeout = 30 * time.Second

type WorkerPoolConfig struct {
	Size int
}

type transferResult struct {
	record *transfer.Record
	err    error
}

func NewWorkerPoolTransferService(
	baseService TransferService,
	config WorkerPoolConfig,
	logger *slog.Logger,
) (*WorkerPoolTransferService, error) {
	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, err
	}

	return &WorkerPoolTransferService{
		baseService: baseService,
		pool:        pool,
		logger:      logger,
	}, nil
}

// Transfer runs the request on a pooled worker and waits for its outcome.
// If ctx ends first the caller gets ctx.Err(); the worker still finishes the
// transfer, since a debited source must be credited or compensated.
func (s *WorkerPoolTransferService) Transfer(ctx context.Context, request *shared.TransferRequest) (*transfer.Record, error) {
	logger := s.logger
	if request.CorrelationID != "" {
		logger = s.logger.With("correlation_id", request.CorrelationID)
	}

	logger.Debug("Submitting transfer to worker pool",
		"transfer_id", request.TransferID,
		"from_account_id", request.FromAccountID.String(),
	)

	// Buffered so the worker never blocks after the caller gave up
	resultChan := make(chan transferResult, 1)

	// Copy the request to avoid data races with the caller
	requestCopy := *request

	err := s.pool.Submit(func() {
		record, err := s.baseService.Transfer(ctx, &requestCopy)
		resultChan <- transferResult{record: record, err: err}
	})
	if err != nil {
		logger.Error("Failed to submit transfer to worker pool",
			"transfer_id", request.TransferID,
			"error", err,
		)
		return nil, shared.ErrTransientStoreFailure{Op: "submit transfer", Err: err}
	}

	select {
	case result := <-resultChan:
		return result.record, result.err
	case <-ctx.Done():
		logger.Warn("Caller stopped waiting for transfer", "transfer_id", request.TransferID, "error", ctx.Err())
		return nil, ctx.Err()
	}
}

// Shutdown stops accepting transfers and waits for running ones to finish,
// bounded by ctx's deadline or defaultShutdownTimeout when ctx has none.
// Stores must stay open until it returns.
func (s *WorkerPoolTransferService) Shutdown(ctx context.Context) error {
	timeout := defaultShutdownTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if timeout <= 0 {
		timeout = time.Millisecond
	}

	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running(), "timeout", timeout)
	if err := s.pool.ReleaseTimeout(timeout); err != nil {
		s.logger.Error("Worker pool did not drain before timeout", "running_workers", s.pool.Running(), "error", err)
		return fmt.Errorf("drain worker pool: %w", err)
	}
	return nil
}

// Running returns the number of running workers in the pool.
func (s *WorkerPoolTransferService) Running() int {
	return s.pool.Running()
}

// Capacity returns the capacity of the worker pool.
func (s *WorkerPoolTransferService) Capacity() int {
	return s.pool.Cap()
}
