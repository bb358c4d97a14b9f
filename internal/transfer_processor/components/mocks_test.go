package components

import (
	"context"

	"github.com/google/uuid"
	"github.com/secure-transfer-ledger/internal/domain/account"
	"github.com/secure-transfer-ledger/internal/domain/transfer"
	"github.com/stretchr/testify/mock"
)

type MockAccountRepo struct {
	mock.Mock
}

func (m *MockAccountRepo) Create(ctx context.Context, acc *account.Account) error {
	args := m.Called(ctx, acc)
	return args.Error(0)
}

func (m *MockAccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepo) GetByEmail(ctx context.Context, email string) (*account.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepo) GetByAccountNumber(ctx context.Context, accountNumber string) (*account.Account, error) {
	args := m.Called(ctx, accountNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepo) ConditionalUpdate(ctx context.Context, id uuid.UUID, expectedVersion int, mutation account.Mutation) (int, error) {
	args := m.Called(ctx, id, expectedVersion, mutation)
	return args.Int(0), args.Error(1)
}

type MockTransferLog struct {
	mock.Mock
}

func (m *MockTransferLog) Append(ctx context.Context, record *transfer.Record) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockTransferLog) FindByTransferID(ctx context.Context, transferID string) (*transfer.Record, error) {
	args := m.Called(ctx, transferID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transfer.Record), args.Error(1)
}

func (m *MockTransferLog) FindByAccountID(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*transfer.Record, error) {
	args := m.Called(ctx, accountID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*transfer.Record), args.Error(1)
}
