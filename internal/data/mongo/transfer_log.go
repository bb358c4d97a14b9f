package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/secure-transfer-ledger/internal/domain/transfer"
)

const (
	// TransferCollectionName is the name of the transfer record collection in MongoDB
	TransferCollectionName = "transfers"

	completedTransferIndex = "uniq_completed_transfer_id"
)

// TransferLog implements transfer.Log on MongoDB. The at-most-one COMPLETED
// record rule is enforced by a unique partial index, not by a read-then-write.
type TransferLog struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewTransferLog creates a new MongoDB transfer log
func NewTransferLog(logger *slog.Logger, db *mongo.Database) *TransferLog {
	return &TransferLog{
		db:     db,
		logger: logger,
	}
}

// EnsureIndexes creates the indexes the log relies on. It is safe to call on every start.
func (l *TransferLog) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "transfer_id", Value: 1}},
			Options: options.Index().
				SetName(completedTransferIndex).
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": transfer.StatusCompleted}),
		},
		{Keys: bson.D{{Key: "from_account_id", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "to_account_id", Value: 1}, {Key: "timestamp", Value: -1}}},
	}

	if _, err := l.collection().Indexes().CreateMany(ctx, models); err != nil {
		l.logger.Error("Failed to create transfer indexes", "error", err)
		return fmt.Errorf("failed to create transfer indexes: %w", err)
	}
	return nil
}

// Append inserts a record. A second COMPLETED record for the same transfer id
// is rejected by the index and reported as ErrDuplicateTransfer.
func (l *TransferLog) Append(ctx context.Context, record *transfer.Record) error {
	_, err := l.collection().InsertOne(ctx, record)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return transfer.ErrDuplicateTransfer{TransferID: record.TransferID}
		}
		l.logger.Error("Failed to append transfer record",
			"transfer_id", record.TransferID,
			"status", string(record.Status),
			"error", err)
		return fmt.Errorf("failed to append transfer record: %w", err)
	}
	return nil
}

// FindByTransferID returns the COMPLETED record for the id
func (l *TransferLog) FindByTransferID(ctx context.Context, transferID string) (*transfer.Record, error) {
	filter := bson.M{"transfer_id": transferID, "status": transfer.StatusCompleted}

	var record transfer.Record
	if err := l.collection().FindOne(ctx, filter).Decode(&record); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, transfer.ErrTransferNotFound{TransferID: transferID}
		}
		l.logger.Error("Failed to get transfer record", "transfer_id", transferID, "error", err)
		return nil, fmt.Errorf("failed to get transfer record: %w", err)
	}
	return &record, nil
}

// FindByAccountID returns records where the account is either side, newest first
func (l *TransferLog) FindByAccountID(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*transfer.Record, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"from_account_id": accountID},
		bson.M{"to_account_id": accountID},
	}}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := l.collection().Find(ctx, filter, opts)
	if err != nil {
		l.logger.Error("Failed to list transfer records", "account_id", accountID.String(), "error", err)
		return nil, fmt.Errorf("failed to list transfer records: %w", err)
	}
	defer cursor.Close(ctx)

	records := []*transfer.Record{}
	if err := cursor.All(ctx, &records); err != nil {
		l.logger.Error("Failed to decode transfer records", "account_id", accountID.String(), "error", err)
		return nil, fmt.Errorf("failed to decode transfer records: %w", err)
	}
	return records, nil
}

func (l *TransferLog) collection() *mongo.Collection {
	return l.db.Collection(TransferCollectionName)
}
