package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/secure-transfer-ledger/internal/api_gateway"
	"github.com/secure-transfer-ledger/internal/api_gateway/handler"
	"github.com/secure-transfer-ledger/internal/api_gateway/service"
	"github.com/secure-transfer-ledger/internal/config"
	"github.com/secure-transfer-ledger/internal/credential_gate"
	"github.com/secure-transfer-ledger/internal/data"
	"github.com/secure-transfer-ledger/internal/logger"
	"github.com/secure-transfer-ledger/internal/platform/messaging/producers"
	"github.com/secure-transfer-ledger/internal/platform/observability"
	"github.com/secure-transfer-ledger/internal/platform/persistence"
	"github.com/secure-transfer-ledger/internal/platform/ratelimit"
	"github.com/secure-transfer-ledger/internal/platform/security"
	"github.com/secure-transfer-ledger/internal/transfer_processor/components"
	processor "github.com/secure-transfer-ledger/internal/transfer_processor/service"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("api_gateway")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	if err := observability.InitSentry(cfg.Sentry.DSN, cfg.Application.Env, cfg.Application.Name); err != nil {
		log.Warn("Failed to initialize Sentry, continuing without error reporting", "error", err)
	}
	defer observability.FlushSentry()

	// Initialize stores with app context
	stores, err := data.OpenStores(appCtx, log, cfg)
	if err != nil {
		log.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	healthChecks := make(map[string]handler.Pinger)
	for name, ping := range stores.Pingers() {
		healthChecks[name] = handler.PingFunc(ping)
	}

	// Login throttling is optional
	redisClient, err := persistence.NewRedisClient(appCtx, log, &cfg.Redis)
	if err != nil {
		log.Error("Failed to initialize Redis", "error", err)
		os.Exit(1)
	}

	// Async transfers need Kafka; sync transfers keep working without it
	var publisher producers.MessagePublisher
	var kafkaProducer *producers.TransferRequestProducer
	if !cfg.UsesMemoryStorage() {
		kafkaProducer, err = producers.NewTransferRequestProducer(appCtx, log, &cfg.Kafka)
		if err != nil {
			log.Warn("Kafka unavailable, asynchronous transfers disabled", "error", err)
		} else {
			publisher = kafkaProducer
		}
	}

	hasher := security.NewBcryptHasher(cfg.Security.BcryptCost)
	tokens := security.NewJWTManager(cfg.Security.JWTSecret, cfg.Security.TokenTTL, cfg.Application.Name)

	// Initialize services
	gate := credential_gate.NewGate(log.With("component", "credential_gate"), stores.Accounts, hasher, tokens,
		credential_gate.PolicyFromConfig(cfg.Lockout))
	engine := components.CreateTransferService(stores.Accounts, stores.Transfers, log.With("component", "transfer_engine"), cfg)
	accountService := service.NewAccountService(log, stores.Accounts, hasher)
	transferService := service.NewTransferService(log, engine, publisher, stores.Transfers)

	deps := api_gateway.Dependencies{
		Accounts:        accountService,
		Transfers:       transferService,
		Login:           gate,
		TokenVerifier:   tokens,
		LoginRateLimit:  cfg.Redis.LoginRateLimit,
		LoginRateWindow: cfg.Redis.LoginRateWindow,
		HealthChecks:    healthChecks,
	}
	if redisClient != nil {
		deps.RateLimiter = ratelimit.NewRedisLimiter(redisClient, cfg.Application.Name)
		healthChecks["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	// Initialize REST server
	server := api_gateway.NewServer(log, cfg, deps)
	log.Info("REST server initialized", "storage", cfg.Storage.Driver)

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Stop accepting requests before the stores go away
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	// Stores close only after running transfers have finished
	shutdownPool(shutdownCtx, log, engine)

	if kafkaProducer != nil {
		if err = kafkaProducer.Close(); err != nil {
			log.Error("Error closing Kafka producer", "error", err)
		}
	}

	if redisClient != nil {
		closeRedis(log, redisClient)
	}

	if err = stores.Close(shutdownCtx); err != nil {
		log.Error("Error closing storage", "error", err)
	}

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	} else {
		log.Info("Server shutdown completed successfully")
	}
}

// shutdownPool waits for running transfers when the engine runs behind the worker pool
func shutdownPool(ctx context.Context, log *slog.Logger, engine processor.TransferService) {
	if wpService, ok := engine.(*processor.WorkerPoolTransferService); ok {
		if err := wpService.Shutdown(ctx); err != nil {
			log.Error("Worker pool still had running transfers at shutdown", "error", err)
		}
	}
}

func closeRedis(log *slog.Logger, client *redis.Client) {
	if err := client.Close(); err != nil {
		log.Error("Error closing Redis client", "error", err)
	}
}
