package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInvalidCurrency is returned for a currency outside the supported set.
	ErrInvalidCurrency = errors.New("unsupported currency")
	// ErrInvalidAmount is returned for non-positive amounts.
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrBalanceOverflow is returned when a credit would exceed the largest representable balance.
	ErrBalanceOverflow = errors.New("balance would overflow")
)

// Service exposes wallet operations outside the transfer protocol.
type Service struct {
	store Store
}

// NewService builds a wallet service instance.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Open provisions the wallet of a freshly registered user with starter balances.
func (s *Service) Open(ctx context.Context, userID string) (Wallet, error) {
	w := Wallet{
		ID:           uuid.NewString(),
		UserID:       userID,
		HardCurrency: rand.Int64N(95) + 5,
		SoftCurrency: rand.Int64N(990) + 10,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.Create(ctx, w); err != nil {
		return Wallet{}, fmt.Errorf("create wallet: %w", err)
	}
	return w, nil
}

// Get returns the wallet owned by userID.
func (s *Service) Get(ctx context.Context, userID string) (Wallet, error) {
	return s.store.GetByUser(ctx, userID)
}

// Close removes the wallet owned by userID.
func (s *Service) Close(ctx context.Context, userID string) error {
	return s.store.DeleteByUser(ctx, userID)
}

// Credit adds amount of currency to the wallet owned by userID.
func (s *Service) Credit(ctx context.Context, userID string, currency Currency, amount int64) (Wallet, error) {
	if amount <= 0 {
		return Wallet{}, ErrInvalidAmount
	}
	if !currency.Valid() {
		return Wallet{}, ErrInvalidCurrency
	}

	current, err := s.store.GetByUser(ctx, userID)
	if err != nil {
		return Wallet{}, err
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return Wallet{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	locked, err := tx.LockForUpdate(ctx, current.ID)
	if err != nil {
		return Wallet{}, err
	}
	if !locked.CanCredit(currency, amount) {
		return Wallet{}, ErrBalanceOverflow
	}
	updated := locked.WithBalance(currency, locked.Balance(currency)+amount)
	if err := tx.SetBalance(ctx, locked.ID, currency, updated.Balance(currency)); err != nil {
		return Wallet{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Wallet{}, err
	}
	return updated, nil
}
