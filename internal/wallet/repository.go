package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound is returned when no wallet matches the lookup.
	ErrNotFound = errors.New("wallet not found")

	// ErrLockNotAvailable is returned when another transaction already holds the wallet lock.
	ErrLockNotAvailable = errors.New("wallet lock not available")

	// ErrNotLocked is returned when a write targets a wallet the transaction has not locked.
	ErrNotLocked = errors.New("wallet not locked by transaction")

	// ErrTxDone is returned when a transaction is used after commit or rollback.
	ErrTxDone = errors.New("transaction already closed")
)

// lockNotAvailableCode is the SQLSTATE Postgres raises for FOR UPDATE NOWAIT conflicts.
const lockNotAvailableCode = "55P03"

// Store persists wallets and opens units of work over them.
type Store interface {
	Create(ctx context.Context, wallet Wallet) error
	// GetByUser reads a wallet outside any transaction. The result may be stale.
	GetByUser(ctx context.Context, userID string) (Wallet, error)
	DeleteByUser(ctx context.Context, userID string) error
	Begin(ctx context.Context) (Tx, error)
}

// Tx is a unit of work. Balance writes are only accepted for wallets locked through the same Tx.
type Tx interface {
	// LockForUpdate takes an exclusive lock on the wallet without waiting and returns
	// the row as seen under the lock.
	LockForUpdate(ctx context.Context, walletID string) (Wallet, error)
	SetBalance(ctx context.Context, walletID string, currency Currency, amount int64) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// PostgresStore stores wallets in PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore builds a store backed by PostgreSQL.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create inserts a wallet record.
func (s *PostgresStore) Create(ctx context.Context, wallet Wallet) error {
	walletID, err := uuid.Parse(wallet.ID)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `INSERT INTO wallets (id, user_id, hard_currency, soft_currency, created_at)
        VALUES ($1, $2, $3, $4, $5)`, walletID, wallet.UserID, wallet.HardCurrency, wallet.SoftCurrency, wallet.CreatedAt.UTC())
	return err
}

// GetByUser fetches the wallet owned by userID.
func (s *PostgresStore) GetByUser(ctx context.Context, userID string) (Wallet, error) {
	row := s.db.QueryRow(ctx, `SELECT id, user_id, hard_currency, soft_currency, created_at
        FROM wallets WHERE user_id = $1`, userID)
	w, err := scanWallet(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Wallet{}, ErrNotFound
	}
	return w, err
}

// DeleteByUser removes the wallet owned by userID.
func (s *PostgresStore) DeleteByUser(ctx context.Context, userID string) error {
	cmd, err := s.db.Exec(ctx, `DELETE FROM wallets WHERE user_id = $1`, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Begin opens a read committed transaction.
func (s *PostgresStore) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("begin wallet tx: %w", err)
	}
	return &postgresTx{tx: tx, locked: make(map[string]struct{}, 2)}, nil
}

type postgresTx struct {
	tx     pgx.Tx
	locked map[string]struct{}
}

func (t *postgresTx) LockForUpdate(ctx context.Context, walletID string) (Wallet, error) {
	id, err := uuid.Parse(walletID)
	if err != nil {
		return Wallet{}, err
	}
	row := t.tx.QueryRow(ctx, `SELECT id, user_id, hard_currency, soft_currency, created_at
        FROM wallets WHERE id = $1 FOR UPDATE NOWAIT`, id)
	w, err := scanWallet(row)
	if err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return Wallet{}, ErrNotFound
		case errors.As(err, &pgErr) && pgErr.Code == lockNotAvailableCode:
			return Wallet{}, ErrLockNotAvailable
		}
		return Wallet{}, err
	}
	t.locked[w.ID] = struct{}{}
	return w, nil
}

func (t *postgresTx) SetBalance(ctx context.Context, walletID string, currency Currency, amount int64) error {
	if _, ok := t.locked[walletID]; !ok {
		return ErrNotLocked
	}
	column, err := balanceColumn(currency)
	if err != nil {
		return err
	}
	cmd, err := t.tx.Exec(ctx, `UPDATE wallets SET `+column+` = $1 WHERE id = $2`, amount, walletID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *postgresTx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		if errors.Is(err, pgx.ErrTxClosed) {
			return ErrTxDone
		}
		return err
	}
	return nil
}

func (t *postgresTx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil {
		if errors.Is(err, pgx.ErrTxClosed) {
			return ErrTxDone
		}
		return err
	}
	return nil
}

func balanceColumn(c Currency) (string, error) {
	switch c {
	case HardCurrency:
		return "hard_currency", nil
	case SoftCurrency:
		return "soft_currency", nil
	default:
		return "", fmt.Errorf("unsupported currency %q", c)
	}
}

func scanWallet(row pgx.Row) (Wallet, error) {
	var (
		w         Wallet
		id        uuid.UUID
		createdAt time.Time
	)
	if err := row.Scan(&id, &w.UserID, &w.HardCurrency, &w.SoftCurrency, &createdAt); err != nil {
		return Wallet{}, err
	}
	w.ID = id.String()
	w.CreatedAt = createdAt.UTC()
	return w, nil
}
