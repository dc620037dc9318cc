package transfer

import (
	"errors"
	"fmt"
)

// Kind classifies a transfer failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidCurrency
	KindInvalidAmount
	KindSelfTransfer
	KindUserInfoUnavailable
	KindInsufficientFunds
	KindBalanceOverflow
	KindTransactionCreationFailed
	KindLockAcquisitionFailed
	KindUpdateGiverWalletFailed
	KindUpdateRecipientWalletFailed
	KindCommitFailed
	KindMaxRetryExceeded
)

var kindNames = map[Kind]string{
	KindUnknown:                     "unknown",
	KindInvalidCurrency:             "invalid_currency",
	KindInvalidAmount:               "invalid_amount",
	KindSelfTransfer:                "self_transfer",
	KindUserInfoUnavailable:         "user_info_unavailable",
	KindInsufficientFunds:           "insufficient_funds",
	KindBalanceOverflow:             "balance_overflow",
	KindTransactionCreationFailed:   "transaction_creation_failed",
	KindLockAcquisitionFailed:       "lock_acquisition_failed",
	KindUpdateGiverWalletFailed:     "update_giver_wallet_failed",
	KindUpdateRecipientWalletFailed: "update_recipient_wallet_failed",
	KindCommitFailed:                "commit_failed",
	KindMaxRetryExceeded:            "max_retry_exceeded",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the failure type returned by every transfer operation.
type Error struct {
	Kind    Kind
	Message string
	// MaxAttempts is set on KindMaxRetryExceeded.
	MaxAttempts int
	Err         error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Kind == KindMaxRetryExceeded && e.MaxAttempts > 0 {
		msg = fmt.Sprintf("%s (%d attempts)", msg, e.MaxAttempts)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so the Err* values work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Retryable reports whether repeating the transfer after a delay may succeed.
func (e *Error) Retryable() bool { return e.Kind == KindLockAcquisitionFailed }

var (
	ErrInvalidCurrency             = &Error{Kind: KindInvalidCurrency, Message: "wrong type of currency"}
	ErrInvalidAmount               = &Error{Kind: KindInvalidAmount, Message: "transfer amount must be >= 1"}
	ErrSelfTransfer                = &Error{Kind: KindSelfTransfer, Message: "giver and recipient must differ"}
	ErrUserInfoUnavailable         = &Error{Kind: KindUserInfoUnavailable, Message: "unable to load wallet for user"}
	ErrInsufficientFunds           = &Error{Kind: KindInsufficientFunds, Message: "insufficient funds in giver wallet"}
	ErrBalanceOverflow             = &Error{Kind: KindBalanceOverflow, Message: "recipient balance would overflow"}
	ErrTransactionCreationFailed   = &Error{Kind: KindTransactionCreationFailed, Message: "failed to create database transaction"}
	ErrLockAcquisitionFailed       = &Error{Kind: KindLockAcquisitionFailed, Message: "failed to acquire locks on wallets"}
	ErrUpdateGiverWalletFailed     = &Error{Kind: KindUpdateGiverWalletFailed, Message: "failed to update giver wallet balance"}
	ErrUpdateRecipientWalletFailed = &Error{Kind: KindUpdateRecipientWalletFailed, Message: "failed to update recipient wallet balance"}
	ErrCommitFailed                = &Error{Kind: KindCommitFailed, Message: "failed to commit transfer"}
	ErrMaxRetryExceeded            = &Error{Kind: KindMaxRetryExceeded, Message: "transfer failed, max retry attempts reached"}
)

// fail builds a fresh error of the same kind as base wrapping cause.
func fail(base *Error, cause error) *Error {
	return &Error{Kind: base.Kind, Message: base.Message, Err: cause}
}

// KindOf extracts the failure kind from err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsRetryable reports whether err is a transfer failure worth retrying.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable()
}
