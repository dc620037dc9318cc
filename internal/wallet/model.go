package wallet

import (
	"math"
	"time"
)

// Currency names one of the transferable balance fields of a Wallet.
type Currency string

const (
	HardCurrency Currency = "hardCurrency"
	SoftCurrency Currency = "softCurrency"
)

// Currencies lists every supported currency.
var Currencies = []Currency{HardCurrency, SoftCurrency}

// Valid reports whether c belongs to the supported set.
func (c Currency) Valid() bool {
	switch c {
	case HardCurrency, SoftCurrency:
		return true
	default:
		return false
	}
}

// Wallet holds the balances owned by a single user.
type Wallet struct {
	ID           string
	UserID       string
	HardCurrency int64
	SoftCurrency int64
	CreatedAt    time.Time
}

// Balance returns the amount held for currency. Unknown currencies read as zero.
func (w Wallet) Balance(c Currency) int64 {
	switch c {
	case HardCurrency:
		return w.HardCurrency
	case SoftCurrency:
		return w.SoftCurrency
	default:
		return 0
	}
}

// WithBalance returns a copy of w with the balance for c replaced.
func (w Wallet) WithBalance(c Currency, amount int64) Wallet {
	switch c {
	case HardCurrency:
		w.HardCurrency = amount
	case SoftCurrency:
		w.SoftCurrency = amount
	}
	return w
}

// CanCredit reports whether amount can be added to the balance for c without
// exceeding the largest representable balance.
func (w Wallet) CanCredit(c Currency, amount int64) bool {
	return amount >= 0 && w.Balance(c) <= math.MaxInt64-amount
}
