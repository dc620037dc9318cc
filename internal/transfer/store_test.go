package transfer

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/congo-pay/gemwallet/internal/wallet"
)

var errInjected = errors.New("injected failure")

// faultyStore wraps the memory store and fails chosen steps on demand.
type faultyStore struct {
	*wallet.MemoryStore

	mu         sync.Mutex
	reads      int
	begins     int
	writes     int
	rollbacks  int
	lockOrder  []string
	failBegin  bool
	failLocks  map[string]int
	failWrites map[string]bool
	failCommit bool
}

func newFaultyStore() *faultyStore {
	return &faultyStore{
		MemoryStore: wallet.NewMemoryStore(),
		failLocks:   make(map[string]int),
		failWrites:  make(map[string]bool),
	}
}

func (s *faultyStore) GetByUser(ctx context.Context, userID string) (wallet.Wallet, error) {
	s.mu.Lock()
	s.reads++
	s.mu.Unlock()
	return s.MemoryStore.GetByUser(ctx, userID)
}

func (s *faultyStore) Begin(ctx context.Context) (wallet.Tx, error) {
	s.mu.Lock()
	s.begins++
	fail := s.failBegin
	s.mu.Unlock()
	if fail {
		return nil, errInjected
	}
	tx, err := s.MemoryStore.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &faultyTx{Tx: tx, store: s}, nil
}

type faultyTx struct {
	wallet.Tx
	store *faultyStore
}

func (t *faultyTx) LockForUpdate(ctx context.Context, walletID string) (wallet.Wallet, error) {
	s := t.store
	s.mu.Lock()
	s.lockOrder = append(s.lockOrder, walletID)
	if s.failLocks[walletID] > 0 {
		s.failLocks[walletID]--
		s.mu.Unlock()
		return wallet.Wallet{}, wallet.ErrLockNotAvailable
	}
	s.mu.Unlock()
	return t.Tx.LockForUpdate(ctx, walletID)
}

func (t *faultyTx) SetBalance(ctx context.Context, walletID string, c wallet.Currency, amount int64) error {
	s := t.store
	s.mu.Lock()
	s.writes++
	fail := s.failWrites[walletID]
	s.mu.Unlock()
	if fail {
		return errInjected
	}
	return t.Tx.SetBalance(ctx, walletID, c, amount)
}

func (t *faultyTx) Commit(ctx context.Context) error {
	s := t.store
	s.mu.Lock()
	fail := s.failCommit
	s.mu.Unlock()
	if fail {
		return errInjected
	}
	return t.Tx.Commit(ctx)
}

func (t *faultyTx) Rollback(ctx context.Context) error {
	s := t.store
	s.mu.Lock()
	s.rollbacks++
	s.mu.Unlock()
	return t.Tx.Rollback(ctx)
}

// addWallet registers a wallet for userID with the given balances.
func addWallet(t *testing.T, store interface {
	Create(context.Context, wallet.Wallet) error
}, userID string, hard, soft int64) wallet.Wallet {
	t.Helper()
	w := wallet.Wallet{ID: uuid.NewString(), UserID: userID, HardCurrency: hard, SoftCurrency: soft}
	require.NoError(t, store.Create(context.Background(), w))
	return w
}

func balances(t *testing.T, store WalletReader, userID string) wallet.Wallet {
	t.Helper()
	w, err := store.GetByUser(context.Background(), userID)
	require.NoError(t, err)
	return w
}
