package producers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/secure-transfer-ledger/internal/logger"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDLQProducer_PublishToDLQ(t *testing.T) {
	ctx := context.Background()
	fixedNow := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

	t.Run("SuccessfulPublishToDLQ", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := newDLQProducer(logger.NewNopLogger(), mockWriter, "transfers_dlq", "transfers")
		producer.now = func() time.Time { return fixedNow }

		originalMessageValue := []byte(`{"transfer_id":"tx-1"}`)
		reason := "INSUFFICIENT_FUNDS: insufficient funds for transfer"

		mockWriter.On("WriteMessages", ctx, mock.MatchedBy(func(msgs []kafka.Message) bool {
			if len(msgs) != 1 || string(msgs[0].Key) != "tx-1" {
				return false
			}
			if len(msgs[0].Headers) != 1 || msgs[0].Headers[0].Key != dlqReasonHeader || string(msgs[0].Headers[0].Value) != reason {
				return false
			}
			var letter DeadLetter
			if err := json.Unmarshal(msgs[0].Value, &letter); err != nil {
				return false
			}
			return letter == DeadLetter{
				SourceTopic:   "transfers",
				OriginalKey:   "tx-1",
				OriginalValue: string(originalMessageValue),
				DLQReason:     reason,
				Timestamp:     fixedNow.Format(time.RFC3339Nano),
			}
		})).Return(nil).Once()

		require.NoError(t, producer.PublishToDLQ(ctx, "tx-1", originalMessageValue, reason))
		mockWriter.AssertExpectations(t)
	})

	t.Run("PublishToDLQReturnsErrorOnWriterError", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := newDLQProducer(logger.NewNopLogger(), mockWriter, "transfers_dlq", "transfers")
		writerError := errors.New("kafka DLQ write error")

		mockWriter.On("WriteMessages", ctx, mock.AnythingOfType("[]kafka.Message")).Return(writerError).Once()

		err := producer.PublishToDLQ(ctx, "fail-key", []byte("fail_payload"), "writer_error")
		assert.ErrorIs(t, err, writerError)
		mockWriter.AssertExpectations(t)
	})

	t.Run("DisabledProducer", func(t *testing.T) {
		var producer *DLQProducer

		err := producer.PublishToDLQ(ctx, "some-key", []byte("some_payload"), "disabled_test")
		require.Error(t, err)
		assert.Equal(t, "DLQ producer not initialized", err.Error())
	})
}

func TestDLQProducer_Close(t *testing.T) {
	t.Run("SuccessfulClose", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		mockWriter.On("Close").Return(nil).Once()

		require.NoError(t, newDLQProducer(logger.NewNopLogger(), mockWriter, "dlq", "src").Close())
		mockWriter.AssertExpectations(t)
	})

	t.Run("CloseReturnsErrorOnWriterError", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		closeError := errors.New("kafka DLQ close error")
		mockWriter.On("Close").Return(closeError).Once()

		assert.ErrorIs(t, newDLQProducer(logger.NewNopLogger(), mockWriter, "dlq", "src").Close(), closeError)
	})

	t.Run("CloseWhenDisabled", func(t *testing.T) {
		var producer *DLQProducer
		assert.NoError(t, producer.Close())
	})
}
