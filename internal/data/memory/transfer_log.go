package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/secure-transfer-ledger/internal/domain/transfer"
)

// TransferLog is an append-only transfer.Log kept in memory
type TransferLog struct {
	mu        sync.RWMutex
	records   []*transfer.Record
	completed map[string]*transfer.Record
}

func NewTransferLog() *TransferLog {
	return &TransferLog{completed: make(map[string]*transfer.Record)}
}

func (l *TransferLog) Append(ctx context.Context, record *transfer.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	stored := *record

	l.mu.Lock()
	defer l.mu.Unlock()

	if stored.IsCompleted() {
		if _, exists := l.completed[stored.TransferID]; exists {
			return transfer.ErrDuplicateTransfer{TransferID: stored.TransferID}
		}
		l.completed[stored.TransferID] = &stored
	}
	l.records = append(l.records, &stored)
	return nil
}

func (l *TransferLog) FindByTransferID(ctx context.Context, transferID string) (*transfer.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	rec, ok := l.completed[transferID]
	if !ok {
		return nil, transfer.ErrTransferNotFound{TransferID: transferID}
	}
	c := *rec
	return &c, nil
}

// FindByAccountID returns records touching the account, newest first
func (l *TransferLog) FindByAccountID(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*transfer.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.RLock()
	var matched []*transfer.Record
	for _, rec := range l.records {
		if rec.Involves(accountID) {
			c := *rec
			matched = append(matched, &c)
		}
	}
	l.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})

	if offset >= len(matched) {
		return []*transfer.Record{}, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

// Len returns the number of stored records of any status
func (l *TransferLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}
