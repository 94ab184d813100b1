package ledger

import "errors"

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrConsumerRemaining is returned when an operation would reap an account
	// that other assets still depend on.
	ErrConsumerRemaining = errors.New("account cannot be reaped while consumers remain")
	// ErrNotExpendable is returned when a keep-alive transfer would take the
	// account below its minimum balance.
	ErrNotExpendable = errors.New("transfer would kill a kept-alive account")
	ErrBelowMinimum  = errors.New("resulting balance is below the minimum balance")
	ErrNoProvider    = errors.New("account has no provider and cannot hold this asset")
	ErrUnknownAsset  = errors.New("unknown asset")
	ErrAssetExists   = errors.New("asset already exists")
	ErrOverflow      = errors.New("balance overflow")
	ErrZeroMinimum   = errors.New("minimum balance must be non-zero")
)
