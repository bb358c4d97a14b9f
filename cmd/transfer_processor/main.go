package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/secure-transfer-ledger/internal/config"
	"github.com/secure-transfer-ledger/internal/data"
	"github.com/secure-transfer-ledger/internal/logger"
	"github.com/secure-transfer-ledger/internal/platform/messaging/consumers"
	"github.com/secure-transfer-ledger/internal/platform/messaging/producers"
	"github.com/secure-transfer-ledger/internal/platform/observability"
	"github.com/secure-transfer-ledger/internal/transfer_processor/components"
	"github.com/secure-transfer-ledger/internal/transfer_processor/consumer"
	"github.com/secure-transfer-ledger/internal/transfer_processor/service"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("transfer_processor")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	log.Info("Starting Transfer Processor",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

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
	if cfg.UsesMemoryStorage() {
		log.Warn("Memory storage is private to this process; transfers will not see gateway accounts")
	}

	// Initialize Kafka consumer
	kafkaConsumer := consumers.NewKafkaConsumer(log, &cfg.Kafka)

	// Initialize Kafka DLQ producer
	dlqProducer, err := producers.NewDLQProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize DLQ Kafka producer", "error", err)
		os.Exit(1)
	}

	// Initialize transfer engine behind the worker pool
	transferService := components.CreateTransferService(
		stores.Accounts,
		stores.Transfers,
		log.With("component", "transfer_engine"),
		cfg,
	)

	// Initialize transfer event handler
	transferEventHandler := consumer.NewTransferEventHandler(
		log,
		transferService,
		dlqProducer,
	)

	log.Info("Starting Kafka consumer",
		"topic", cfg.Kafka.TransferTopic,
		"group", cfg.Kafka.ConsumerGroup,
	)
	consumerDone := kafkaConsumer.Subscribe(appCtx, transferEventHandler.HandleMessage)

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or an unexpected consumer exit
	var serviceErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case <-consumerDone:
		serviceErr = fmt.Errorf("kafka consumer stopped unexpectedly")
		log.Error("Service error occurred", "error", serviceErr)
	}

	// Cancel the application context; the in-flight message finishes first
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	log.Info("Waiting for the consumer to stop...")
	select {
	case <-consumerDone:
		log.Info("Consumer stopped")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	// Drain the worker pool so started transfers reach a final state
	if wpService, ok := transferService.(*service.WorkerPoolTransferService); ok {
		if err := wpService.Shutdown(shutdownCtx); err != nil {
			log.Error("Worker pool still had running transfers at shutdown", "error", err)
		}
	}

	if err = dlqProducer.Close(); err != nil {
		log.Error("Error closing DLQ Kafka producer", "error", err)
	}

	if err = kafkaConsumer.Close(); err != nil {
		log.Error("Error closing Kafka consumer", "error", err)
	}

	if err = stores.Close(shutdownCtx); err != nil {
		log.Error("Error closing storage", "error", err)
	}

	// Final status
	if serviceErr != nil {
		log.Error("Transfer Processor shutdown with errors", "error", serviceErr)
	} else {
		log.Info("Transfer Processor shutdown completed successfully")
	}
}
