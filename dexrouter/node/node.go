// Package node wires a ledger, the swap venues, the router and the runtime
// together from a genesis, and exposes the operations the HTTP API and the CLI
// call.
package node

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/config"
	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/ledger"
	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/models"
	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/router"
	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/router/amm"
	stableadapter "github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/router/amm/stable"
	xykadapter "github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/router/amm/xyk"
	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/runtime"
	stablevenue "github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/venue/stable"
	xykvenue "github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/venue/xyk"
)

var nodeLog zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	nodeLog = zerolog.New(out).With().Timestamp().Str("component", "node").Logger()
}

// SetLogger replaces the package logger.
func SetLogger(l zerolog.Logger) {
	nodeLog = l.With().Str("component", "node").Logger()
}

// Node owns every piece of state. All state changes go through the runtime.
type Node struct {
	ledger *ledger.Ledger
	xyk    *xykvenue.Venue
	stable *stablevenue.Venue
	router *router.Router
	rt     *runtime.Runtime
}

// New validates g, applies it to a fresh ledger and builds the router. opts are
// applied after the options derived from the genesis.
func New(g *config.Genesis, opts ...router.Option) (*Node, error) {
	result := config.ValidateGenesis(g)
	for _, w := range result.Warnings {
		nodeLog.Warn().Msg(w)
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("invalid genesis: %w", err)
	}

	n := &Node{ledger: ledger.New(models.Balance(g.ExistentialDeposit))}
	if err := n.applyLedger(g); err != nil {
		return nil, err
	}

	parts := []runtime.Checkpointer{n.ledger}
	adapters := make(map[models.VenueID]amm.AMM)

	if !g.XYK.Disabled {
		n.xyk = xykvenue.New(n.ledger, xykConfig(g.XYK))
		if err := n.applyPools(g.Pools); err != nil {
			return nil, err
		}
		adapters[xykadapter.VenueID] = xykadapter.NewAdapter(n.xyk)
		parts = append(parts, n.xyk)
	}
	if g.Stable.Enabled {
		sv, err := stablevenue.New(n.ledger, stablevenue.Config{FeeBps: g.Stable.FeeBps, Pairs: g.Stable.Pairs})
		if err != nil {
			return nil, fmt.Errorf("genesis: stable: %w", err)
		}
		for i, r := range g.Stable.Reserves {
			if err := sv.Provide(r.Provider, r.Asset, models.Balance(r.Amount)); err != nil {
				return nil, fmt.Errorf("genesis: stable.reserves[%d]: %w", i, err)
			}
		}
		n.stable = sv
		adapters[stableadapter.VenueID] = stableadapter.NewAdapter(sv)
		parts = append(parts, sv)
	}

	n.rt = runtime.New(parts...)

	ordered := make([]amm.AMM, 0, len(adapters))
	for _, id := range venueOrder(g.Router.Venues) {
		if a, ok := adapters[id]; ok {
			ordered = append(ordered, a)
		}
	}

	routerOpts := []router.Option{
		router.WithStrategy(strategyFor(g.Router)),
		router.WithEventSink(n.rt.Events()),
	}
	if g.Router.FeeRate != nil {
		routerOpts = append(routerOpts, router.WithFeeRate(*g.Router.FeeRate))
	}
	r, err := router.New(ordered, collectorFor(g.Router, n.ledger), append(routerOpts, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to build router: %w", err)
	}
	n.router = r

	nodeLog.Info().
		Int("assets", len(g.Assets)).
		Int("pools", len(g.Pools)).
		Strs("venues", venueStrings(r.Venues())).
		Str("feeRate", r.FeeRate().String()).
		Str("strategy", r.StrategyName()).
		Msg("Node ready")
	return n, nil
}

func (n *Node) applyLedger(g *config.Genesis) error {
	for i, a := range g.Assets {
		if err := n.ledger.CreateAsset(a.ID, a.Owner, models.Balance(a.MinBalance), a.Sufficient); err != nil {
			return fmt.Errorf("genesis: assets[%d]: %w", i, err)
		}
	}
	for i, b := range g.Balances {
		if err := n.ledger.Mint(b.Asset, b.Account, models.Balance(b.Amount)); err != nil {
			return fmt.Errorf("genesis: balances[%d]: %w", i, err)
		}
	}
	return nil
}

func (n *Node) applyPools(pools []config.PoolGenesis) error {
	for i, p := range pools {
		if _, err := n.xyk.CreatePool(p.Provider, p.AssetA, p.AssetB); err != nil {
			return fmt.Errorf("genesis: pools[%d]: %w", i, err)
		}
		if p.AmountA == 0 || p.AmountB == 0 {
			continue
		}
		_, err := n.xyk.AddLiquidity(xykvenue.AddLiquidityParams{
			Who:      p.Provider,
			AssetA:   p.AssetA,
			AssetB:   p.AssetB,
			DesiredA: models.Balance(p.AmountA),
			DesiredB: models.Balance(p.AmountB),
			MintTo:   p.Provider,
		})
		if err != nil {
			return fmt.Errorf("genesis: pools[%d]: %w", i, err)
		}
	}
	return nil
}

func xykConfig(g config.XYKGenesis) xykvenue.Config {
	cfg := xykvenue.DefaultConfig()
	if g.LPFee != nil {
		cfg.LPFee = *g.LPFee
	}
	if g.MintMinLiquidity != 0 {
		cfg.MintMinLiquidity = models.Balance(g.MintMinLiquidity)
	}
	if g.LPAssetIDStart != 0 {
		cfg.LPAssetIDStart = g.LPAssetIDStart
	}
	return cfg
}

func venueOrder(configured []models.VenueID) []models.VenueID {
	if len(configured) > 0 {
		return configured
	}
	return []models.VenueID{xykadapter.VenueID, stableadapter.VenueID}
}

func strategyFor(g config.RouterGenesis) router.RoutingStrategy {
	switch g.Strategy {
	case config.StrategyMinimumOutput:
		return router.MinimumOutputStrategy{Floor: models.Balance(g.MinimumOutput)}
	case config.StrategyPreferredVenue:
		return router.PreferredVenueStrategy{Venue: g.PreferredVenue, ToleranceBps: g.ToleranceBps}
	default:
		return router.BestPriceStrategy{}
	}
}

func collectorFor(g config.RouterGenesis, l *ledger.Ledger) router.FeeCollector {
	if g.FeeDestination == config.FeeBurn {
		return router.BurnCollector{Ledger: l}
	}
	return router.TreasuryCollector{Ledger: l, Treasury: g.Treasury}
}

func venueStrings(ids []models.VenueID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

func (n *Node) Ledger() *ledger.Ledger     { return n.ledger }
func (n *Node) Router() *router.Router     { return n.router }
func (n *Node) Runtime() *runtime.Runtime  { return n.rt }
func (n *Node) XYK() *xykvenue.Venue       { return n.xyk }
func (n *Node) Stable() *stablevenue.Venue { return n.stable }
