package wallet

import (
	"context"
	"errors"
	"sync"
)

// MemoryStore keeps wallets in process. Each wallet row carries at most one lock
// owner; writes are staged on the owning transaction and applied on commit.
type MemoryStore struct {
	mu      sync.Mutex
	wallets map[string]Wallet
	byUser  map[string]string
	owners  map[string]*memoryTx
}

// NewMemoryStore constructs an in-memory store for tests and local development.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		wallets: make(map[string]Wallet),
		byUser:  make(map[string]string),
		owners:  make(map[string]*memoryTx),
	}
}

func (s *MemoryStore) Create(_ context.Context, wallet Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.wallets[wallet.ID]; exists {
		return errors.New("wallet exists")
	}
	if _, exists := s.byUser[wallet.UserID]; exists {
		return errors.New("user already owns a wallet")
	}
	s.wallets[wallet.ID] = wallet
	s.byUser[wallet.UserID] = wallet.ID
	return nil
}

func (s *MemoryStore) GetByUser(_ context.Context, userID string) (Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byUser[userID]
	if !ok {
		return Wallet{}, ErrNotFound
	}
	return s.wallets[id], nil
}

func (s *MemoryStore) DeleteByUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byUser[userID]
	if !ok {
		return ErrNotFound
	}
	if _, held := s.owners[id]; held {
		return ErrLockNotAvailable
	}
	delete(s.byUser, userID)
	delete(s.wallets, id)
	return nil
}

func (s *MemoryStore) Begin(_ context.Context) (Tx, error) {
	return &memoryTx{store: s, staged: make(map[string]Wallet, 2)}, nil
}

// Seed overwrites the stored balances of the wallet owned by userID.
func (s *MemoryStore) Seed(userID string, hard, soft int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.byUser[userID]; ok {
		w := s.wallets[id]
		w.HardCurrency = hard
		w.SoftCurrency = soft
		s.wallets[id] = w
	}
}

type memoryTx struct {
	store  *MemoryStore
	staged map[string]Wallet
	done   bool
}

func (t *memoryTx) LockForUpdate(_ context.Context, walletID string) (Wallet, error) {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.done {
		return Wallet{}, ErrTxDone
	}
	if w, ok := t.staged[walletID]; ok {
		return w, nil
	}
	w, ok := s.wallets[walletID]
	if !ok {
		return Wallet{}, ErrNotFound
	}
	if owner, held := s.owners[walletID]; held && owner != t {
		return Wallet{}, ErrLockNotAvailable
	}
	s.owners[walletID] = t
	t.staged[walletID] = w
	return w, nil
}

func (t *memoryTx) SetBalance(_ context.Context, walletID string, currency Currency, amount int64) error {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.done {
		return ErrTxDone
	}
	w, ok := t.staged[walletID]
	if !ok || s.owners[walletID] != t {
		return ErrNotLocked
	}
	if !currency.Valid() {
		return errors.New("unsupported currency")
	}
	t.staged[walletID] = w.WithBalance(currency, amount)
	return nil
}

func (t *memoryTx) Commit(_ context.Context) error {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.done {
		return ErrTxDone
	}
	for id, w := range t.staged {
		if _, exists := s.wallets[id]; exists {
			s.wallets[id] = w
		}
	}
	t.release()
	return nil
}

func (t *memoryTx) Rollback(_ context.Context) error {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.done {
		return ErrTxDone
	}
	t.release()
	return nil
}

// release drops every lock owned by t. Callers hold the store mutex.
func (t *memoryTx) release() {
	for id := range t.staged {
		if t.store.owners[id] == t {
			delete(t.store.owners, id)
		}
	}
	t.staged = nil
	t.done = true
}
