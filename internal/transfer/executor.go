package transfer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/congo-pay/gemwallet/internal/wallet"
)

const (
	tracerName      = "github.com/congo-pay/gemwallet/internal/transfer"
	rollbackTimeout = 5 * time.Second
)

// Store is the part of the wallet store the executor needs.
type Store interface {
	WalletReader
	Begin(ctx context.Context) (wallet.Tx, error)
}

// Runner performs a single transfer attempt.
type Runner interface {
	Execute(ctx context.Context, req Request) error
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, req Request) error

func (f RunnerFunc) Execute(ctx context.Context, req Request) error { return f(ctx, req) }

// Executor applies one transfer inside a single store transaction.
type Executor struct {
	validator *Validator
	store     Store
	logger    *slog.Logger
	tracer    trace.Tracer
}

// NewExecutor builds an executor over store.
func NewExecutor(store Store, logger *slog.Logger) *Executor {
	return &Executor{
		validator: NewValidator(store),
		store:     store,
		logger:    logger,
		tracer:    otel.Tracer(tracerName),
	}
}

// Execute validates req, locks both wallets in wallet id order, writes the debit and
// the credit and commits. Every failure after Begin rolls the transaction back first.
func (e *Executor) Execute(ctx context.Context, req Request) (err error) {
	ctx, span := e.tracer.Start(ctx, "transfer.execute", trace.WithAttributes(
		attribute.String("transfer.currency", string(req.Currency)),
		attribute.String("transfer.giver_id", req.GiverID),
		attribute.String("transfer.recipient_id", req.RecipientID),
		attribute.Int64("transfer.amount", req.Amount),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, KindOf(err).String())
		}
		span.End()
	}()

	giver, recipient, err := e.validator.Validate(ctx, req)
	if err != nil {
		return err
	}
	if giver.ID == recipient.ID {
		return ErrSelfTransfer
	}

	tx, err := e.store.Begin(ctx)
	if err != nil {
		e.logger.Error("transfer: begin transaction", slog.Any("error", err))
		return fail(ErrTransactionCreationFailed, err)
	}

	// Locks are taken by ascending wallet id whatever the roles, so two transfers
	// over the same pair in opposite directions cannot each hold one lock.
	order := [2]string{giver.ID, recipient.ID}
	if order[1] < order[0] {
		order[0], order[1] = order[1], order[0]
	}
	locked := make(map[string]wallet.Wallet, 2)
	for _, id := range order {
		w, lockErr := tx.LockForUpdate(ctx, id)
		if lockErr != nil {
			e.rollback(ctx, tx)
			e.logger.Warn("transfer: lock wallet", slog.String("wallet_id", id), slog.Any("error", lockErr))
			return fail(ErrLockAcquisitionFailed, lockErr)
		}
		locked[id] = w
	}

	// The lock is the serialization point. Balances are taken from the rows read under
	// the lock, not from the validation snapshots, so a writer that committed between
	// validation and locking cannot be overwritten.
	lockedGiver, lockedRecipient := locked[giver.ID], locked[recipient.ID]
	giverBalance := lockedGiver.Balance(req.Currency) - req.Amount
	if giverBalance < 0 {
		e.rollback(ctx, tx)
		return ErrInsufficientFunds
	}
	if !lockedRecipient.CanCredit(req.Currency, req.Amount) {
		e.rollback(ctx, tx)
		return ErrBalanceOverflow
	}
	recipientBalance := lockedRecipient.Balance(req.Currency) + req.Amount

	if err := tx.SetBalance(ctx, giver.ID, req.Currency, giverBalance); err != nil {
		e.rollback(ctx, tx)
		e.logger.Error("transfer: update giver wallet", slog.String("wallet_id", giver.ID), slog.Any("error", err))
		return fail(ErrUpdateGiverWalletFailed, err)
	}
	if err := tx.SetBalance(ctx, recipient.ID, req.Currency, recipientBalance); err != nil {
		e.rollback(ctx, tx)
		e.logger.Error("transfer: update recipient wallet", slog.String("wallet_id", recipient.ID), slog.Any("error", err))
		return fail(ErrUpdateRecipientWalletFailed, err)
	}

	if err := tx.Commit(ctx); err != nil {
		e.rollback(ctx, tx)
		e.logger.Error("transfer: commit", slog.Any("error", err))
		return fail(ErrCommitFailed, err)
	}
	return nil
}

func (e *Executor) rollback(ctx context.Context, tx wallet.Tx) {
	rbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
	defer cancel()
	if err := tx.Rollback(rbCtx); err != nil && !errors.Is(err, wallet.ErrTxDone) {
		e.logger.Warn("transfer: rollback", slog.Any("error", err))
	}
}
