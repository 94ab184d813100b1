package xyk

import (
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/models"
	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/router/amm"
	xykvenue "github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/venue/xyk"
)

// VenueID identifies the constant-product venue in quotes and swap reports.
const VenueID models.VenueID = "xyk"

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Str("component", "xyk-adapter").Logger()
}

// SetLogger replaces the package logger.
func SetLogger(l zerolog.Logger) {
	log = l.With().Str("component", "xyk-adapter").Logger()
}

// Adapter implements amm.AMM on top of the constant-product venue
type Adapter struct {
	venue *xykvenue.Venue
	name  models.VenueID
}

// NewAdapter wraps venue under the default "xyk" id
func NewAdapter(venue *xykvenue.Venue) *Adapter {
	return &Adapter{venue: venue, name: VenueID}
}

// NewNamedAdapter wraps venue under a custom id, for routers that register
// more than one constant-product venue
func NewNamedAdapter(venue *xykvenue.Venue, name models.VenueID) *Adapter {
	return &Adapter{venue: venue, name: name}
}

var _ amm.AMM = (*Adapter)(nil)

func (a *Adapter) Name() models.VenueID { return a.name }

// CanHandlePair is true when a pool exists for the pair in either direction
func (a *Adapter) CanHandlePair(in, out models.AssetKind) bool {
	return a.venue.PoolExists(in, out)
}

// QuotePrice asks the venue for a read-only quote including the LP fee
func (a *Adapter) QuotePrice(in, out models.AssetKind, amountIn models.Balance) (models.Balance, bool) {
	amountOut, ok := a.venue.QuoteExactTokensForTokens(in, out, amountIn, true)
	log.Debug().
		Str("assetIn", in.String()).
		Str("assetOut", out.String()).
		Uint64("amountIn", uint64(amountIn)).
		Uint64("amountOut", uint64(amountOut)).
		Bool("ok", ok).
		Msg("Quoted constant-product pool")
	return amountOut, ok
}

// ExecuteSwap trades through the pool. Venue and ledger errors are returned unchanged
func (a *Adapter) ExecuteSwap(p amm.SwapParams) (models.Balance, error) {
	amountOut, err := a.venue.SwapExactTokensForTokens(
		p.Who, p.AssetIn, p.AssetOut,
		p.AmountIn, p.MinAmountOut,
		p.Recipient, p.KeepAlive,
	)
	if err != nil {
		log.Debug().Err(err).
			Str("assetIn", p.AssetIn.String()).
			Str("assetOut", p.AssetOut.String()).
			Msg("Constant-product swap failed")
		return 0, err
	}
	return amountOut, nil
}
