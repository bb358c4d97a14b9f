// Package data selects and opens the account store and transfer log backends.
package data

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/secure-transfer-ledger/internal/config"
	"github.com/secure-transfer-ledger/internal/data/memory"
	mongostore "github.com/secure-transfer-ledger/internal/data/mongo"
	pgstore "github.com/secure-transfer-ledger/internal/data/postgres"
	"github.com/secure-transfer-ledger/internal/domain/account"
	"github.com/secure-transfer-ledger/internal/domain/transfer"
	"github.com/secure-transfer-ledger/internal/platform/persistence"
)

// Stores bundles the opened backends with what is needed to ping and close them
type Stores struct {
	Accounts  account.Repository
	Transfers transfer.Log

	postgres *persistence.PostgresDB
	mongo    *persistence.MongoDB
}

// OpenStores opens the backends selected by STORAGE_DRIVER. The memory driver
// keeps everything in-process, so state is lost on restart and not shared
// between binaries.
func OpenStores(ctx context.Context, logger *slog.Logger, cfg *config.Config) (*Stores, error) {
	if cfg.UsesMemoryStorage() {
		logger.Warn("Using in-memory storage; balances and transfers are not persisted")
		return &Stores{
			Accounts:  memory.NewAccountStore(),
			Transfers: memory.NewTransferLog(),
		}, nil
	}

	postgresDB, err := persistence.NewPostgresDB(ctx, logger, &cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}

	mongoDB, err := persistence.NewMongoDB(ctx, logger, &cfg.MongoDB)
	if err != nil {
		postgresDB.Close()
		return nil, fmt.Errorf("failed to initialize MongoDB: %w", err)
	}

	transferLog := mongostore.NewTransferLog(logger, mongoDB.Database())
	if err := transferLog.EnsureIndexes(ctx); err != nil {
		postgresDB.Close()
		_ = mongoDB.Close(ctx)
		return nil, fmt.Errorf("failed to create transfer log indexes: %w", err)
	}

	return &Stores{
		Accounts:  pgstore.NewAccountRepository(logger, postgresDB),
		Transfers: transferLog,
		postgres:  postgresDB,
		mongo:     mongoDB,
	}, nil
}

// Pingers returns the reachability checks of the opened backends, keyed by name
func (s *Stores) Pingers() map[string]func(ctx context.Context) error {
	checks := make(map[string]func(ctx context.Context) error, 2)
	if s.postgres != nil {
		checks["postgres"] = s.postgres.Ping
	}
	if s.mongo != nil {
		checks["mongodb"] = s.mongo.Ping
	}
	return checks
}

// Close releases the backends. It is a no-op for the memory driver.
func (s *Stores) Close(ctx context.Context) error {
	if s.postgres != nil {
		s.postgres.Close()
	}
	if s.mongo != nil {
		return s.mongo.Close(ctx)
	}
	return nil
}
