package wallet

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"
)

func TestServiceOpenSeedsStarterBalances(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store)
	ctx := context.Background()

	userID := uuid.NewString()
	w, err := svc.Open(ctx, userID)
	if err != nil {
		t.Fatalf("open wallet: %v", err)
	}
	if w.HardCurrency < 5 || w.HardCurrency > 99 {
		t.Fatalf("hard currency out of range: %d", w.HardCurrency)
	}
	if w.SoftCurrency < 10 || w.SoftCurrency > 999 {
		t.Fatalf("soft currency out of range: %d", w.SoftCurrency)
	}

	fetched, err := svc.Get(ctx, userID)
	if err != nil {
		t.Fatalf("get wallet: %v", err)
	}
	if fetched.ID != w.ID {
		t.Fatalf("expected wallet %s, got %s", w.ID, fetched.ID)
	}

	if _, err := svc.Open(ctx, userID); err == nil {
		t.Fatalf("expected second wallet for same user to fail")
	}
}

func TestServiceCredit(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store)
	ctx := context.Background()

	userID := uuid.NewString()
	if _, err := svc.Open(ctx, userID); err != nil {
		t.Fatalf("open wallet: %v", err)
	}
	store.Seed(userID, 10, 100)

	w, err := svc.Credit(ctx, userID, SoftCurrency, 50)
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
	if w.SoftCurrency != 150 || w.HardCurrency != 10 {
		t.Fatalf("unexpected balances after credit: %+v", w)
	}

	stored, _ := svc.Get(ctx, userID)
	if stored.SoftCurrency != 150 {
		t.Fatalf("credit not persisted, got %d", stored.SoftCurrency)
	}

	if _, err := svc.Credit(ctx, userID, SoftCurrency, 0); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
	if _, err := svc.Credit(ctx, userID, Currency("gold"), 5); !errors.Is(err, ErrInvalidCurrency) {
		t.Fatalf("expected invalid currency, got %v", err)
	}
	if _, err := svc.Credit(ctx, uuid.NewString(), HardCurrency, 5); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestServiceCreditRejectsOverflow(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store)
	ctx := context.Background()

	userID := uuid.NewString()
	if _, err := svc.Open(ctx, userID); err != nil {
		t.Fatalf("open wallet: %v", err)
	}
	store.Seed(userID, 10, 0)

	if _, err := svc.Credit(ctx, userID, SoftCurrency, math.MaxInt64); err != nil {
		t.Fatalf("credit up to the limit: %v", err)
	}
	if _, err := svc.Credit(ctx, userID, SoftCurrency, 1); !errors.Is(err, ErrBalanceOverflow) {
		t.Fatalf("expected ErrBalanceOverflow, got %v", err)
	}

	stored, _ := svc.Get(ctx, userID)
	if stored.SoftCurrency != math.MaxInt64 {
		t.Fatalf("overflowing credit changed the balance to %d", stored.SoftCurrency)
	}
	if _, err := svc.Credit(ctx, userID, HardCurrency, 1); err != nil {
		t.Fatalf("other currency should still accept credits: %v", err)
	}
}

func TestMemoryStoreLockIsExclusive(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	w := Wallet{ID: uuid.NewString(), UserID: "user-0000001", SoftCurrency: 10}
	if err := store.Create(ctx, w); err != nil {
		t.Fatalf("create: %v", err)
	}

	first, _ := store.Begin(ctx)
	second, _ := store.Begin(ctx)

	if _, err := first.LockForUpdate(ctx, w.ID); err != nil {
		t.Fatalf("first lock: %v", err)
	}
	if _, err := second.LockForUpdate(ctx, w.ID); !errors.Is(err, ErrLockNotAvailable) {
		t.Fatalf("expected lock not available, got %v", err)
	}
	if err := second.SetBalance(ctx, w.ID, SoftCurrency, 99); !errors.Is(err, ErrNotLocked) {
		t.Fatalf("expected write without lock to be refused, got %v", err)
	}

	if err := first.Rollback(ctx); err != nil {
		t.Fatalf("rollback: %v", err)
	}
	if _, err := second.LockForUpdate(ctx, w.ID); err != nil {
		t.Fatalf("lock after release: %v", err)
	}
	if err := second.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := second.Commit(ctx); !errors.Is(err, ErrTxDone) {
		t.Fatalf("expected closed tx, got %v", err)
	}
}

func TestMemoryStoreRollbackDiscardsWrites(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	w := Wallet{ID: uuid.NewString(), UserID: "user-0000002", HardCurrency: 7}
	if err := store.Create(ctx, w); err != nil {
		t.Fatalf("create: %v", err)
	}

	tx, _ := store.Begin(ctx)
	if _, err := tx.LockForUpdate(ctx, w.ID); err != nil {
		t.Fatalf("lock: %v", err)
	}
	if err := tx.SetBalance(ctx, w.ID, HardCurrency, 1); err != nil {
		t.Fatalf("set balance: %v", err)
	}

	mid, _ := store.GetByUser(ctx, w.UserID)
	if mid.HardCurrency != 7 {
		t.Fatalf("uncommitted write visible: %d", mid.HardCurrency)
	}

	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("rollback: %v", err)
	}
	after, _ := store.GetByUser(ctx, w.UserID)
	if after.HardCurrency != 7 {
		t.Fatalf("rolled back write applied: %d", after.HardCurrency)
	}
}
