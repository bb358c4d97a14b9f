// Package memory provides in-process implementations of the account store and
// the transfer log. Each store serializes its own operations with a mutex; no
// lock is ever held across calls made by the credential gate or the engine.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/secure-transfer-ledger/internal/domain/account"
)

// AccountStore is a map-backed account.Repository with the same conditional
// update semantics as the PostgreSQL store.
type AccountStore struct {
	mu       sync.RWMutex
	byID     map[uuid.UUID]*account.Account
	byEmail  map[string]uuid.UUID
	byNumber map[string]uuid.UUID
	now      func() time.Time
}

// NewAccountStore returns an empty store
func NewAccountStore() *AccountStore {
	return &AccountStore{
		byID:     make(map[uuid.UUID]*account.Account),
		byEmail:  make(map[string]uuid.UUID),
		byNumber: make(map[string]uuid.UUID),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *AccountStore) Create(ctx context.Context, acc *account.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	email := account.NormalizeEmail(acc.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[email]; ok {
		return account.ErrDuplicateEmail{Email: email}
	}
	if _, ok := s.byNumber[acc.AccountNumber]; ok {
		return account.ErrDuplicateAccountNumber{AccountNumber: acc.AccountNumber}
	}

	stored := acc.Clone()
	stored.Email = email
	s.byID[stored.ID] = stored
	s.byEmail[email] = stored.ID
	s.byNumber[stored.AccountNumber] = stored.ID
	return nil
}

func (s *AccountStore) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.byID[id]
	if !ok {
		return nil, account.ErrAccountNotFound{AccountID: id}
	}
	return acc.Clone(), nil
}

func (s *AccountStore) GetByEmail(ctx context.Context, email string) (*account.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	email = account.NormalizeEmail(email)

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, account.ErrAccountNotFound{Key: email}
	}
	return s.byID[id].Clone(), nil
}

func (s *AccountStore) GetByAccountNumber(ctx context.Context, accountNumber string) (*account.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byNumber[accountNumber]
	if !ok {
		return nil, account.ErrAccountNotFound{Key: accountNumber}
	}
	return s.byID[id].Clone(), nil
}

func (s *AccountStore) ConditionalUpdate(ctx context.Context, id uuid.UUID, expectedVersion int, m account.Mutation) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.byID[id]
	if !ok {
		return 0, account.ErrAccountNotFound{AccountID: id}
	}
	if acc.Version != expectedVersion {
		return 0, account.ErrConcurrentModification{AccountID: id}
	}
	if err := acc.Apply(m, s.now()); err != nil {
		return 0, err
	}
	return acc.Version, nil
}

// TotalBalance sums every balance in one consistent snapshot
func (s *AccountStore) TotalBalance() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64
	for _, acc := range s.byID {
		total += acc.Balance
	}
	return total
}
