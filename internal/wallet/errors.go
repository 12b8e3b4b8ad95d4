package wallet

import (
	"errors"

	"github.com/swiftryde/swiftryde-wallet/internal/paystack"
	"gorm.io/gorm"
)

// Withdrawal rejections surfaced to the caller.
var (
	ErrInvalidAmount       = errors.New("withdrawal amount below minimum")
	ErrWalletLocked        = errors.New("a withdrawal is already in flight for this wallet")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrNotEligible         = errors.New("withdrawal cooldown has not elapsed")
	ErrInvalidBankDetails  = errors.New("could not resolve bank account")
)

// Reconciliation outcomes.
var (
	ErrWalletNotFound   = errors.New("wallet not found")
	ErrBalanceInvariant = errors.New("wallet balance invariant violated")
)

// IsFatal reports an invariant violation. Fatal errors abort the mutation
// and go straight to the DLQ for operator attention; the number is never
// silently fixed.
func IsFatal(err error) bool {
	return errors.Is(err, ErrBalanceInvariant)
}

// IsRetryable decides whether a failed queue event should be redelivered.
// Validation, state and idempotency outcomes are final; unknown references
// and duplicate keys are drops; everything else (persistence outage,
// provider 5xx) is transient and retried.
func IsRetryable(err error) bool {
	switch {
	case err == nil:
		return false
	case IsFatal(err):
		return false
	case errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrWalletLocked),
		errors.Is(err, ErrInsufficientBalance),
		errors.Is(err, ErrNotEligible),
		errors.Is(err, ErrInvalidBankDetails),
		errors.Is(err, ErrWalletNotFound):
		return false
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, gorm.ErrDuplicatedKey):
		return false
	}

	var apiErr *paystack.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}

	return true
}
