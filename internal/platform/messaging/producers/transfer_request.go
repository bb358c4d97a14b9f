package producers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/secure-transfer-ledger/internal/config"
	"github.com/segmentio/kafka-go"
)

// TransferRequestProducer publishes transfer requests for the transfer processor.
// Messages are keyed by transfer id so retries of one transfer land on the
// same partition and are applied in order.
type TransferRequestProducer struct {
	logger *slog.Logger
	writer KafkaWriter // Interface for testability
	topic  string
}

// NewTransferRequestProducer creates the producer and ensures the topic exists
func NewTransferRequestProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*TransferRequestProducer, error) {
	if cfg.TransferTopic == "" {
		return nil, fmt.Errorf("kafka transfer topic is not configured")
	}

	conn, err := kafka.DialContext(ctx, "tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for transfer producer: %w", err)
	}
	defer conn.Close()

	if err := ensureTopic(conn, cfg.TransferTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger); err != nil {
		return nil, fmt.Errorf("failed to ensure transfer topic %s exists: %w", cfg.TransferTopic, err)
	}

	// Synchronous writes: a 202 is only returned once the broker has the request
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.TransferTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: cfg.MaxWait,
	}

	return &TransferRequestProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.TransferTopic,
	}, nil
}

func (p *TransferRequestProducer) Publish(ctx context.Context, key string, value interface{}) error {
	if key == "" {
		return errors.New("transfer request key must not be empty")
	}

	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal transfer request: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
		Time:  time.Now().UTC(),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish transfer request",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish transfer request to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published transfer request", "topic", p.topic, "key", key)
	return nil
}

func (p *TransferRequestProducer) Close() error {
	p.logger.Info("Closing transfer request producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
