package stable

import (
	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/models"
	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/router/amm"
	stablevenue "github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/venue/stable"
)

const VenueID models.VenueID = "stable"

// Adapter implements amm.AMM for the fixed-rate stable venue
type Adapter struct {
	venue *stablevenue.Venue
}

func NewAdapter(venue *stablevenue.Venue) *Adapter {
	return &Adapter{venue: venue}
}

var _ amm.AMM = (*Adapter)(nil)

func (a *Adapter) Name() models.VenueID { return VenueID }

func (a *Adapter) CanHandlePair(in, out models.AssetKind) bool {
	return a.venue.Supports(in, out)
}

func (a *Adapter) QuotePrice(in, out models.AssetKind, amountIn models.Balance) (models.Balance, bool) {
	return a.venue.Quote(in, out, amountIn)
}

func (a *Adapter) ExecuteSwap(p amm.SwapParams) (models.Balance, error) {
	return a.venue.Swap(p.Who, p.AssetIn, p.AssetOut, p.AmountIn, p.MinAmountOut, p.Recipient, p.KeepAlive)
}
