package router

import (
	"github.com/holiman/uint256"

	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/models"
)

// BestPriceStrategy picks the highest output. Equal outputs go to the venue
// registered first.
type BestPriceStrategy struct{}

func (BestPriceStrategy) SelectBest(quotes []Quote, _, _ models.AssetKind) (models.VenueID, bool) {
	best, ok := bestQuote(quotes)
	return best.Venue, ok
}

func (BestPriceStrategy) String() string { return "best-price" }

func bestQuote(quotes []Quote) (Quote, bool) {
	if len(quotes) == 0 {
		return Quote{}, false
	}
	best := quotes[0]
	for _, q := range quotes[1:] {
		// strictly greater keeps the earliest venue on ties
		if q.AmountOut > best.AmountOut {
			best = q
		}
	}
	return best, true
}

// MinimumOutputStrategy behaves like BestPriceStrategy but declines when even
// the best quote pays less than Floor.
type MinimumOutputStrategy struct {
	Floor models.Balance
}

func (s MinimumOutputStrategy) SelectBest(quotes []Quote, _, _ models.AssetKind) (models.VenueID, bool) {
	best, ok := bestQuote(quotes)
	if !ok || best.AmountOut < s.Floor {
		return "", false
	}
	return best.Venue, true
}

func (s MinimumOutputStrategy) String() string { return "minimum-output" }

// PreferredVenueStrategy routes to Venue whenever its quote is within
// ToleranceBps of the best quote, and falls back to the best price otherwise.
type PreferredVenueStrategy struct {
	Venue        models.VenueID
	ToleranceBps uint32
}

func (s PreferredVenueStrategy) SelectBest(quotes []Quote, _, _ models.AssetKind) (models.VenueID, bool) {
	best, ok := bestQuote(quotes)
	if !ok {
		return "", false
	}
	for _, q := range quotes {
		if q.Venue != s.Venue {
			continue
		}
		// q.AmountOut * 10000 >= best.AmountOut * (10000 - tolerance)
		lhs := new(uint256.Int).Mul(q.AmountOut.U256(), uint256.NewInt(10_000))
		tolerance := min(s.ToleranceBps, 10_000)
		rhs := new(uint256.Int).Mul(best.AmountOut.U256(), uint256.NewInt(uint64(10_000-tolerance)))
		if !lhs.Lt(rhs) {
			return q.Venue, true
		}
		break
	}
	return best.Venue, true
}

func (s PreferredVenueStrategy) String() string { return "preferred-venue:" + string(s.Venue) }
