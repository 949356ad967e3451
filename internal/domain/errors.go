package domain

import "errors"

// Sentinel errors for the ledger engine. Services return these (possibly
// wrapped); the handler layer maps them to HTTP status codes.
var (
	// ErrInvalidAmount: non-positive amount supplied to a balance operation.
	ErrInvalidAmount = errors.New("amount must be greater than zero")

	// ErrInsufficientFunds: debit exceeds the current spendable balance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvalidPlan: plan term not positive, rate negative, or plan choice
	// does not exist on the asset.
	ErrInvalidPlan = errors.New("invalid investment plan")

	// ErrNotFound: referenced user, asset or position does not exist, or the
	// position is not owned by the caller.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyClosed: redeem attempted on a non-active position.
	ErrAlreadyClosed = errors.New("position already closed")

	// ErrConcurrentModification: a conditional update lost a race and the
	// operation was rolled back. Safe to retry.
	ErrConcurrentModification = errors.New("concurrent modification")

	// ErrConfiguration: referral percentage outside [0,100].
	ErrConfiguration = errors.New("invalid referral configuration")
)
