package transfer

import (
	"context"

	"github.com/congo-pay/gemwallet/internal/wallet"
)

// Request describes one transfer of Amount units of Currency between two users.
type Request struct {
	Currency    wallet.Currency
	GiverID     string
	RecipientID string
	Amount      int64
}

// WalletReader is the read side of the wallet store used for validation.
type WalletReader interface {
	GetByUser(ctx context.Context, userID string) (wallet.Wallet, error)
}

// Validator checks a request and loads both parties' wallets.
type Validator struct {
	wallets WalletReader
}

// NewValidator builds a validator reading from wallets.
func NewValidator(wallets WalletReader) *Validator {
	return &Validator{wallets: wallets}
}

// Validate returns unlocked snapshots of the giver and recipient wallets.
//
// The solvency check here is advisory: the snapshot can be stale by the time the
// executor holds the locks, so the executor checks again under lock.
func (v *Validator) Validate(ctx context.Context, req Request) (giver, recipient wallet.Wallet, err error) {
	if !req.Currency.Valid() {
		return wallet.Wallet{}, wallet.Wallet{}, ErrInvalidCurrency
	}
	if req.Amount <= 0 {
		return wallet.Wallet{}, wallet.Wallet{}, ErrInvalidAmount
	}

	giver, err = v.wallets.GetByUser(ctx, req.GiverID)
	if err != nil {
		return wallet.Wallet{}, wallet.Wallet{}, fail(ErrUserInfoUnavailable, err)
	}
	if giver.Balance(req.Currency)-req.Amount < 0 {
		return wallet.Wallet{}, wallet.Wallet{}, ErrInsufficientFunds
	}

	recipient, err = v.wallets.GetByUser(ctx, req.RecipientID)
	if err != nil {
		return wallet.Wallet{}, wallet.Wallet{}, fail(ErrUserInfoUnavailable, err)
	}

	return giver, recipient, nil
}
