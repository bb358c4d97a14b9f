package consumers

import (
	"context"
	"log/slog"
	"time"

	"github.com/secure-transfer-ledger/internal/config"
	"github.com/segmentio/kafka-go"
)

// maxRetryDelay caps the backoff between attempts on the same message
const maxRetryDelay = 30 * time.Second

type MessageHandler func(ctx context.Context, key []byte, value []byte) error

// Consumer defines the message queue consumer interface
type Consumer interface {
	Subscribe(ctx context.Context, handler MessageHandler) <-chan struct{}
	Close() error
}

// messageReader is the part of *kafka.Reader the consumer loop needs
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConsumer implements Consumer using a Kafka consumer group
type KafkaConsumer struct {
	reader     messageReader
	logger     *slog.Logger
	topic      string
	groupID    string
	retryDelay time.Duration
}

func NewKafkaConsumer(logger *slog.Logger, cfg *config.KafkaConfig) *KafkaConsumer {
	startOffset := kafka.FirstOffset
	if cfg.StartOffset == kafka.LastOffset {
		startOffset = kafka.LastOffset
	}

	return &KafkaConsumer{
		logger:     logger,
		topic:      cfg.TransferTopic,
		groupID:    cfg.ConsumerGroup,
		retryDelay: time.Second,
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     []string{cfg.Brokers},
			Topic:       cfg.TransferTopic,
			GroupID:     cfg.ConsumerGroup,
			MinBytes:    cfg.MinBytes,
			MaxBytes:    cfg.MaxBytes,
			MaxWait:     cfg.MaxWait,
			StartOffset: startOffset,
		}),
	}
}

// Subscribe starts the fetch loop in the background. A message is committed
// only after the handler returns nil, and the next message is not fetched
// until then. The returned channel closes when the loop exits.
func (c *KafkaConsumer) Subscribe(ctx context.Context, handler MessageHandler) <-chan struct{} {
	done := make(chan struct{})
	logger := c.logger.With("topic", c.topic, "group_id", c.groupID)
	logger.Info("Subscribed to Kafka topic")

	go func() {
		defer close(done)
		for {
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					logger.Info("Context canceled, stopping consumer")
					return
				}
				logger.Error("Failed to fetch message from Kafka", "error", err)
				select {
				case <-ctx.Done():
					return
				case <-time.After(c.retryDelay):
				}
				continue
			}

			logger.Debug("Received message from Kafka",
				"partition", msg.Partition,
				"offset", msg.Offset,
				"key", string(msg.Key),
			)

			if !c.handleUntilDone(ctx, logger, handler, msg) {
				logger.Info("Context canceled before message was handled, leaving offset uncommitted",
					"partition", msg.Partition,
					"offset", msg.Offset,
				)
				return
			}

			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				logger.Error("Failed to commit message after successful processing",
					"partition", msg.Partition,
					"offset", msg.Offset,
					"key", string(msg.Key),
					"error", err,
				)
			}
		}
	}()

	return done
}

// handleUntilDone re-runs the handler on msg with exponential backoff until it
// succeeds. It reports false if ctx ended first.
func (c *KafkaConsumer) handleUntilDone(ctx context.Context, logger *slog.Logger, handler MessageHandler, msg kafka.Message) bool {
	delay := c.retryDelay
	if delay <= 0 {
		delay = time.Second
	}
	for attempt := 1; ; attempt++ {
		err := handler(ctx, msg.Key, msg.Value)
		if err == nil {
			return true
		}

		logger.Error("Failed to process message, retrying before moving on",
			"partition", msg.Partition,
			"offset", msg.Offset,
			"key", string(msg.Key),
			"attempt", attempt,
			"retry_in", delay,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return false
		case <-time.After(delay):
		}

		delay *= 2
		if delay > maxRetryDelay {
			delay = maxRetryDelay
		}
	}
}

func (c *KafkaConsumer) Close() error {
	if c.reader != nil {
		return c.reader.Close()
	}
	return nil
}
