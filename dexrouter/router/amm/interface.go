// Package amm defines the capability every swap venue exposes to the router.
// Each venue (constant-product pools, fixed-rate stable pools, ...) implements
// these interfaces with its own pricing and settlement.
package amm

import (
	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/models"
)

// AMM is a swap venue the router can quote and trade against.
type AMM interface {
	// Name returns the stable venue identifier used in quotes and swap reports.
	Name() models.VenueID

	// CanHandlePair reports whether the venue could trade in for out at all.
	// It must be consistent with what ExecuteSwap accepts.
	CanHandlePair(in, out models.AssetKind) bool

	// QuotePrice returns the output the venue would pay for amountIn, net of its
	// own fees. ok is false when there is no liquidity, no pool, or amountIn is zero.
	// It must not change any state.
	QuotePrice(in, out models.AssetKind, amountIn models.Balance) (amountOut models.Balance, ok bool)

	// ExecuteSwap performs the trade and returns the amount credited to the
	// recipient. The venue enforces MinAmountOut itself.
	ExecuteSwap(p SwapParams) (models.Balance, error)
}

// SwapParams carries a single swap to a venue.
type SwapParams struct {
	// Who pays AmountIn of AssetIn
	Who      models.AccountID
	AssetIn  models.AssetKind
	AssetOut models.AssetKind
	// AmountIn is already net of the router fee
	AmountIn     models.Balance
	MinAmountOut models.Balance
	Recipient    models.AccountID
	// KeepAlive forbids reaping Who
	KeepAlive bool
}
