// Package router routes single-hop swaps to the best of several registered venues.
//
// A swap moves through Received, PairResolved, Quoted, FeeCollected, Executed and
// Reported. Any failure ends the swap with the error that caused it; the router
// holds no state of its own, so undoing partial effects is left to the runtime
// that dispatched the call.
package router

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/models"
	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/router/amm"
)

var routerLog zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	routerLog = zerolog.New(out).With().Timestamp().Str("component", "router").Logger()
}

// SetLogger replaces the package logger.
func SetLogger(l zerolog.Logger) {
	routerLog = l.With().Str("component", "router").Logger()
}

// State is a step of the swap state machine.
type State int

const (
	StateReceived State = iota
	StatePairResolved
	StateQuoted
	StateFeeCollected
	StateExecuted
	StateReported
	StateFailed
)

var stateNames = [...]string{
	StateReceived:     "received",
	StatePairResolved: "pair-resolved",
	StateQuoted:       "quoted",
	StateFeeCollected: "fee-collected",
	StateExecuted:     "executed",
	StateReported:     "reported",
	StateFailed:       "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// TransitionFunc observes every state change of a swap. err is set only when
// to is StateFailed.
type TransitionFunc func(from, to State, err error)

// Router is the single public swap entry point over a fixed set of venues.
type Router struct {
	registry  *amm.Registry
	strategy  RoutingStrategy
	collector FeeCollector
	feeRate   models.Permill
	events    EventSink
	onChange  TransitionFunc
}

// Option configures a Router.
type Option func(*Router)

// WithStrategy sets the routing strategy. The default is BestPriceStrategy.
func WithStrategy(s RoutingStrategy) Option {
	return func(r *Router) { r.strategy = s }
}

// WithFeeRate sets the router fee. The default is DefaultFeeRate.
func WithFeeRate(rate models.Permill) Option {
	return func(r *Router) { r.feeRate = rate }
}

// WithEventSink sets where swap outcomes are reported.
func WithEventSink(sink EventSink) Option {
	return func(r *Router) { r.events = sink }
}

// WithTransitionHook registers a state change observer.
func WithTransitionHook(fn TransitionFunc) Option {
	return func(r *Router) { r.onChange = fn }
}

// New builds a router over adapters, consulted in the given order.
func New(adapters []amm.AMM, collector FeeCollector, opts ...Option) (*Router, error) {
	registry, err := amm.NewRegistry(adapters...)
	if err != nil {
		return nil, err
	}
	if collector == nil {
		return nil, errors.New("router requires a fee collector")
	}
	r := &Router{
		registry:  registry,
		strategy:  BestPriceStrategy{},
		collector: collector,
		feeRate:   DefaultFeeRate,
		events:    discardSink{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.strategy == nil {
		return nil, errors.New("router requires a routing strategy")
	}
	if r.events == nil {
		r.events = discardSink{}
	}
	if r.feeRate > models.PermillDenominator {
		return nil, fmt.Errorf("%w: %d parts", models.ErrPermillRange, r.feeRate)
	}
	return r, nil
}

// Venues returns the registered venue ids in registration order.
func (r *Router) Venues() []models.VenueID { return r.registry.Names() }

func (r *Router) FeeRate() models.Permill { return r.feeRate }

// StrategyName describes the configured strategy.
func (r *Router) StrategyName() string {
	if s, ok := r.strategy.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", r.strategy)
}

// swap tracks one call through the state machine.
type swap struct {
	r       *Router
	state   State
	preview bool
}

func (s *swap) advance(to State) {
	if s.r.onChange != nil && !s.preview {
		s.r.onChange(s.state, to, nil)
	}
	s.state = to
}

func (s *swap) fail(err error) error {
	if s.r.onChange != nil && !s.preview {
		s.r.onChange(s.state, StateFailed, err)
	}
	routerLog.Debug().Err(err).Str("state", s.state.String()).Msg("Swap aborted")
	s.state = StateFailed
	return err
}

// resolve validates the path, finds compatible venues, quotes them with the
// gross amount and asks the strategy for a winner. It never changes state.
func (s *swap) resolve(path models.SwapPath, amountIn models.Balance) (in, out models.AssetKind, compatible []amm.AMM, quotes []Quote, selected models.VenueID, err error) {
	if !path.Valid() {
		return in, out, nil, nil, "", s.fail(ErrInvalidPath)
	}
	in, _ = path.First()
	out, _ = path.Second()
	s.advance(StatePairResolved)

	compatible = s.r.registry.Compatible(in, out)
	if len(compatible) == 0 {
		return in, out, nil, nil, "", s.fail(ErrNoCompatibleAMM)
	}

	quotes = make([]Quote, 0, len(compatible))
	for _, venue := range compatible {
		amountOut, ok := venue.QuotePrice(in, out, amountIn)
		if !ok {
			routerLog.Debug().Str("venue", string(venue.Name())).Msg("Venue declined to quote")
			continue
		}
		quotes = append(quotes, Quote{Venue: venue.Name(), AmountOut: amountOut})
	}
	if len(quotes) == 0 {
		return in, out, compatible, nil, "", s.fail(ErrNoLiquidityAvailable)
	}
	s.advance(StateQuoted)

	selected, ok := s.r.strategy.SelectBest(quotes, in, out)
	if !ok {
		return in, out, compatible, quotes, "", s.fail(ErrNoOptimalRoute)
	}
	return in, out, compatible, quotes, selected, nil
}

// SwapExactTokensForTokens sells amountIn of path[0] for path[1] on the best
// venue. The router fee is taken from amountIn before the venue sees it, and
// the venue enforces amountOutMin on the net trade.
//
// Router errors are the sentinels in this package. Fee collector, venue and
// ledger errors are returned exactly as produced.
func (r *Router) SwapExactTokensForTokens(
	who models.AccountID,
	path models.SwapPath,
	amountIn, amountOutMin models.Balance,
	sendTo models.AccountID,
	keepAlive bool,
) (*models.SwapOutcome, error) {
	s := &swap{r: r, state: StateReceived}
	routerLog.Debug().
		Str("who", who.String()).
		Str("path", path.String()).
		Uint64("amountIn", uint64(amountIn)).
		Uint64("amountOutMin", uint64(amountOutMin)).
		Msg("Swap received")

	in, out, compatible, quotes, selected, err := s.resolve(path, amountIn)
	if err != nil {
		return nil, err
	}

	routerFee, effective, err := SplitFee(amountIn, r.feeRate)
	if err != nil {
		return nil, s.fail(err)
	}
	if routerFee > 0 {
		if err := r.collector.CollectFee(who, in, routerFee); err != nil {
			return nil, s.fail(err)
		}
	}
	s.advance(StateFeeCollected)

	venue, ok := amm.Find(compatible, selected)
	if !ok {
		return nil, s.fail(ErrAMMNotFound)
	}
	amountOut, err := venue.ExecuteSwap(amm.SwapParams{
		Who:          who,
		AssetIn:      in,
		AssetOut:     out,
		AmountIn:     effective,
		MinAmountOut: amountOutMin,
		Recipient:    sendTo,
		KeepAlive:    keepAlive,
	})
	if err != nil {
		return nil, s.fail(err)
	}
	s.advance(StateExecuted)

	outcome := models.SwapOutcome{
		Who:       who,
		AssetIn:   in,
		AssetOut:  out,
		AmountIn:  amountIn,
		AmountOut: amountOut,
		RouterFee: routerFee,
		AMMUsed:   selected,
		Recipient: sendTo,
	}
	r.events.Emit(outcome)
	s.advance(StateReported)

	routerLog.Info().
		Str("venue", string(selected)).
		Str("assetIn", in.String()).
		Str("assetOut", out.String()).
		Uint64("amountIn", uint64(amountIn)).
		Uint64("amountOut", uint64(amountOut)).
		Uint64("routerFee", uint64(routerFee)).
		Int("quotes", len(quotes)).
		Msg("Swap executed")
	return &outcome, nil
}

// QuoteReport previews a swap.
type QuoteReport struct {
	AssetIn   models.AssetKind
	AssetOut  models.AssetKind
	AmountIn  models.Balance
	RouterFee models.Balance
	Effective models.Balance
	// Quotes holds every venue that answered, in registration order
	Quotes   []Quote
	Selected models.VenueID
	// ExpectedOut is the selected venue's quote for the gross amount
	ExpectedOut models.Balance
	// NetOut is the selected venue's quote for the effective amount, which is
	// what a swap executed now would pay
	NetOut models.Balance
}

// Quote runs the routing decision of SwapExactTokensForTokens without collecting
// the fee or executing. Venues are quoted with the gross amount, exactly as a
// swap would quote them, so the selected venue matches what a swap would pick.
func (r *Router) Quote(path models.SwapPath, amountIn models.Balance) (*QuoteReport, error) {
	s := &swap{r: r, state: StateReceived, preview: true}
	in, out, compatible, quotes, selected, err := s.resolve(path, amountIn)
	if err != nil {
		return nil, err
	}
	routerFee, effective, err := SplitFee(amountIn, r.feeRate)
	if err != nil {
		return nil, err
	}
	report := &QuoteReport{
		AssetIn:   in,
		AssetOut:  out,
		AmountIn:  amountIn,
		RouterFee: routerFee,
		Effective: effective,
		Quotes:    quotes,
		Selected:  selected,
	}
	for _, q := range quotes {
		if q.Venue == selected {
			report.ExpectedOut = q.AmountOut
			break
		}
	}
	if venue, ok := amm.Find(compatible, selected); ok && effective > 0 {
		report.NetOut, _ = venue.QuotePrice(in, out, effective)
	}
	return report, nil
}
