package router

import (
	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/models"
)

// Quote is one venue's answer for the requested trade. It only lives for the
// duration of a single swap or preview.
type Quote struct {
	Venue     models.VenueID
	AmountOut models.Balance
}

// FeeCollector takes the router fee from the payer before the trade executes.
type FeeCollector interface {
	// CollectFee moves amount of asset away from payer. Errors abort the swap
	// and are returned to the caller unchanged.
	CollectFee(payer models.AccountID, asset models.AssetKind, amount models.Balance) error
}

// RoutingStrategy picks the venue that executes a swap.
type RoutingStrategy interface {
	// SelectBest returns the chosen venue. quotes are in registration order.
	// ok is false for an empty quote set or when the strategy declines them all.
	SelectBest(quotes []Quote, in, out models.AssetKind) (venue models.VenueID, ok bool)
}

// EventSink receives the outcome of every successful swap.
type EventSink interface {
	Emit(outcome models.SwapOutcome)
}

type discardSink struct{}

func (discardSink) Emit(models.SwapOutcome) {}
