package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/models"
	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/venue/xyk"
)

// ValidationError contains details about a validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationResult contains the results of validating a genesis.
type ValidationResult struct {
	IsValid  bool
	Errors   []error
	Warnings []string
}

// Err joins every validation error, or returns nil when the genesis is valid.
func (r *ValidationResult) Err() error {
	if r.IsValid {
		return nil
	}
	return errors.Join(r.Errors...)
}

func (r *ValidationResult) fail(field, format string, args ...any) {
	r.Errors = append(r.Errors, &ValidationError{field, fmt.Sprintf(format, args...)})
}

func (r *ValidationResult) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// KnownStrategies lists the routing strategies a genesis may name.
var KnownStrategies = []string{StrategyBestPrice, StrategyMinimumOutput, StrategyPreferredVenue}

// KnownVenues lists the venue ids a genesis may register.
var KnownVenues = []models.VenueID{"xyk", "stable"}

// ValidateGenesis checks a genesis for mistakes that would make the node fail
// to start or behave in a surprising way.
func ValidateGenesis(g *Genesis) *ValidationResult {
	result := &ValidationResult{IsValid: true}

	if g.ExistentialDeposit == 0 {
		result.warn("existential_deposit is 0, the ledger will use 1")
	}

	assets := validateAssets(g, result)
	validateBalances(g, assets, result)
	validatePools(g, assets, result)
	validateStable(g, assets, result)
	validateRouter(g, result)

	result.IsValid = len(result.Errors) == 0
	return result
}

// validateAssets returns the minimum balance of every known asset.
func validateAssets(g *Genesis, result *ValidationResult) map[models.AssetKind]uint64 {
	ed := max(g.ExistentialDeposit, 1)
	known := map[models.AssetKind]uint64{models.Native(): ed}

	for i, a := range g.Assets {
		field := fmt.Sprintf("assets[%d]", i)
		asset := models.Local(a.ID)
		if _, dup := known[asset]; dup {
			result.fail(field+".id", "duplicate asset id %d", a.ID)
			continue
		}
		if a.MinBalance == 0 {
			result.fail(field+".min_balance", "must be greater than zero")
		}
		if a.Owner.IsZero() {
			result.fail(field+".owner", "is required")
		}
		if !g.XYK.Disabled && a.ID >= lpAssetIDStart(g) {
			result.fail(field+".id", "%d collides with LP asset ids starting at %d", a.ID, lpAssetIDStart(g))
		}
		if a.Symbol == "" {
			result.warn("%s has no symbol", asset)
		}
		known[asset] = a.MinBalance
	}
	return known
}

func validateBalances(g *Genesis, assets map[models.AssetKind]uint64, result *ValidationResult) {
	for i, b := range g.Balances {
		field := fmt.Sprintf("balances[%d]", i)
		minBalance, ok := assets[b.Asset]
		if !ok {
			result.fail(field+".asset", "unknown asset %s", b.Asset)
			continue
		}
		if b.Account.IsZero() {
			result.fail(field+".account", "is required")
		}
		if b.Amount < minBalance {
			result.fail(field+".amount", "%d is below the minimum balance %d of %s", b.Amount, minBalance, b.Asset)
		}
	}
}

func validatePools(g *Genesis, assets map[models.AssetKind]uint64, result *ValidationResult) {
	if g.XYK.Disabled {
		if len(g.Pools) > 0 {
			result.fail("pools", "pools are listed but the xyk venue is disabled")
		}
		return
	}
	if g.XYK.LPFee != nil && *g.XYK.LPFee >= 1_000 {
		result.fail("xyk.lp_fee", "must be below 1000 per mille")
	}

	seen := make(map[[2]models.AssetKind]bool)
	for i, p := range g.Pools {
		field := fmt.Sprintf("pools[%d]", i)
		if p.AssetA.Equal(p.AssetB) {
			result.fail(field, "pool assets must differ")
			continue
		}
		if !p.AssetA.IsNative() && !p.AssetB.IsNative() {
			result.fail(field, "one side of a pool must be the native asset")
			continue
		}
		for _, a := range []models.AssetKind{p.AssetA, p.AssetB} {
			if _, ok := assets[a]; !ok {
				result.fail(field, "unknown asset %s", a)
			}
		}
		key := [2]models.AssetKind{p.AssetA, p.AssetB}
		if p.AssetA.Compare(p.AssetB) > 0 {
			key = [2]models.AssetKind{p.AssetB, p.AssetA}
		}
		if seen[key] {
			result.fail(field, "duplicate pool %s/%s", key[0], key[1])
		}
		seen[key] = true
		if p.Provider.IsZero() {
			result.fail(field+".provider", "is required")
		}
		if p.AmountA == 0 || p.AmountB == 0 {
			result.warn("%s is created without liquidity", field)
		}
	}
}

func validateStable(g *Genesis, assets map[models.AssetKind]uint64, result *ValidationResult) {
	s := g.Stable
	if !s.Enabled {
		if len(s.Pairs) > 0 || len(s.Reserves) > 0 {
			result.warn("stable venue is disabled, its pairs and reserves are ignored")
		}
		return
	}
	if s.FeeBps >= 10_000 {
		result.fail("stable.fee_bps", "must be below 10000")
	}
	if len(s.Pairs) == 0 {
		result.warn("stable venue is enabled without pairs")
	}
	for i, p := range s.Pairs {
		field := fmt.Sprintf("stable.pairs[%d]", i)
		if p[0].Equal(p[1]) {
			result.fail(field, "pair assets must differ")
		}
		for _, a := range p {
			if _, ok := assets[a]; !ok {
				result.fail(field, "unknown asset %s", a)
			}
		}
	}
	for i, r := range s.Reserves {
		field := fmt.Sprintf("stable.reserves[%d]", i)
		if _, ok := assets[r.Asset]; !ok {
			result.fail(field+".asset", "unknown asset %s", r.Asset)
		}
		if r.Provider.IsZero() {
			result.fail(field+".provider", "is required")
		}
	}
}

func validateRouter(g *Genesis, result *ValidationResult) {
	r := g.Router

	strategy := r.Strategy
	if strategy == "" {
		strategy = StrategyBestPrice
	}
	if !slices.Contains(KnownStrategies, strategy) {
		result.fail("router.strategy", "unknown strategy %q, expected one of %v", r.Strategy, KnownStrategies)
	}
	if strategy == StrategyPreferredVenue {
		if r.PreferredVenue == "" {
			result.fail("router.preferred_venue", "is required by the preferred-venue strategy")
		}
		if r.ToleranceBps > 10_000 {
			result.fail("router.tolerance_bps", "must be at most 10000")
		}
	}
	if strategy == StrategyMinimumOutput && r.MinimumOutput == 0 {
		result.warn("minimum-output strategy with a zero floor behaves like best-price")
	}

	switch r.FeeDestination {
	case "", FeeToTreasury:
		if r.Treasury.IsZero() {
			result.fail("router.treasury", "is required when fees go to a treasury")
		} else if !fundsNative(g, r.Treasury) {
			result.warn("treasury has no native balance, fees below the existential deposit will fail swaps")
		}
	case FeeBurn:
	default:
		result.fail("router.fee_destination", "unknown destination %q, expected treasury or burn", r.FeeDestination)
	}
	if r.FeeRate != nil && *r.FeeRate == 0 {
		result.warn("router fee rate is zero, no fees will be collected")
	}

	enabled := make([]models.VenueID, 0, len(KnownVenues))
	if !g.XYK.Disabled {
		enabled = append(enabled, "xyk")
	}
	if g.Stable.Enabled {
		enabled = append(enabled, "stable")
	}
	if len(enabled) == 0 {
		result.fail("router", "no venue is enabled")
	}
	seen := make(map[models.VenueID]bool)
	for i, v := range r.Venues {
		field := fmt.Sprintf("router.venues[%d]", i)
		if !slices.Contains(enabled, v) {
			result.fail(field, "venue %q is unknown or disabled", v)
		}
		if seen[v] {
			result.fail(field, "duplicate venue %q", v)
		}
		seen[v] = true
	}
	if r.PreferredVenue != "" && !slices.Contains(enabled, r.PreferredVenue) {
		result.fail("router.preferred_venue", "venue %q is unknown or disabled", r.PreferredVenue)
	}
}

func fundsNative(g *Genesis, who models.AccountID) bool {
	for _, b := range g.Balances {
		if b.Account == who && b.Asset.IsNative() && b.Amount > 0 {
			return true
		}
	}
	return false
}

func lpAssetIDStart(g *Genesis) uint32 {
	if g.XYK.LPAssetIDStart != 0 {
		return g.XYK.LPAssetIDStart
	}
	return xyk.DefaultConfig().LPAssetIDStart
}
