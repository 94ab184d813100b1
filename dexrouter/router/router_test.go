package router_test

import (
	"errors"
	"testing"

	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/models"
	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/router"
	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/router/amm"
	"github.com/zeebo/assert"
)

var (
	alice = models.DevAccount("alice")
	bob   = models.DevAccount("bob")
	pair  = models.MustSwapPath(models.Native(), models.Local(1))
)

// MockAMM implements amm.AMM for testing and counts how often it is consulted
type MockAMM struct {
	name        models.VenueID
	pairs       map[[2]models.AssetKind]bool
	quoteFunc   func(in, out models.AssetKind, amountIn models.Balance) (models.Balance, bool)
	executeFunc func(p amm.SwapParams) (models.Balance, error)

	canHandleCalls int
	quoteCalls     int
	executeCalls   int
	lastParams     amm.SwapParams
}

func newMockAMM(name string, quote models.Balance) *MockAMM {
	return &MockAMM{
		name: models.VenueID(name),
		pairs: map[[2]models.AssetKind]bool{
			{models.Native(), models.Local(1)}: true,
		},
		quoteFunc: func(_, _ models.AssetKind, amountIn models.Balance) (models.Balance, bool) {
			if amountIn == 0 {
				return 0, false
			}
			return quote, true
		},
	}
}

func (m *MockAMM) Name() models.VenueID { return m.name }

func (m *MockAMM) CanHandlePair(in, out models.AssetKind) bool {
	m.canHandleCalls++
	return m.pairs[[2]models.AssetKind{in, out}]
}

func (m *MockAMM) QuotePrice(in, out models.AssetKind, amountIn models.Balance) (models.Balance, bool) {
	m.quoteCalls++
	return m.quoteFunc(in, out, amountIn)
}

func (m *MockAMM) ExecuteSwap(p amm.SwapParams) (models.Balance, error) {
	m.executeCalls++
	m.lastParams = p
	if m.executeFunc != nil {
		return m.executeFunc(p)
	}
	// Fill at the quoted price for the net amount
	out, _ := m.quoteFunc(p.AssetIn, p.AssetOut, p.AmountIn)
	if out < p.MinAmountOut {
		return 0, errSlippage
	}
	return out, nil
}

var errSlippage = errors.New("mock: output below minimum")

type feeCall struct {
	payer  models.AccountID
	asset  models.AssetKind
	amount models.Balance
}

type mockCollector struct {
	err   error
	calls []feeCall
}

func (c *mockCollector) CollectFee(payer models.AccountID, asset models.AssetKind, amount models.Balance) error {
	c.calls = append(c.calls, feeCall{payer: payer, asset: asset, amount: amount})
	return c.err
}

type recordingSink struct {
	outcomes []models.SwapOutcome
}

func (s *recordingSink) Emit(o models.SwapOutcome) { s.outcomes = append(s.outcomes, o) }

func setupTestRouter(t *testing.T, adapters []amm.AMM, opts ...router.Option) (*router.Router, *mockCollector, *recordingSink) {
	t.Helper()
	collector := &mockCollector{}
	sink := &recordingSink{}
	rate, err := models.PermillFromRational(3, 1000)
	assert.NoError(t, err)
	opts = append([]router.Option{router.WithFeeRate(rate), router.WithEventSink(sink)}, opts...)
	r, err := router.New(adapters, collector, opts...)
	assert.NoError(t, err)
	return r, collector, sink
}

func TestRouter_SplitFeeConserves(t *testing.T) {
	rates := []models.Permill{0, 1, 2_000, 3_000, 333_333, 999_999, 1_000_000}
	amounts := []models.Balance{0, 1, 7, 999, 1_000, 123_456_789, models.Balance(^uint64(0))}

	for _, rate := range rates {
		for _, amount := range amounts {
			fee, effective, err := router.SplitFee(amount, rate)
			assert.NoError(t, err)
			assert.Equal(t, fee+effective, amount)
			assert.Equal(t, fee, rate.MulFloor(amount))
		}
	}

	_, _, err := router.SplitFee(1_000, models.Permill(1_000_001))
	assert.True(t, errors.Is(err, router.ErrFeeCalculationFailed))
}

func TestRouter_BestPriceTieGoesToFirstRegistered(t *testing.T) {
	a := newMockAMM("a", 950)
	b := newMockAMM("b", 980)
	c := newMockAMM("c", 980)
	r, collector, sink := setupTestRouter(t, []amm.AMM{a, b, c})

	outcome, err := r.SwapExactTokensForTokens(alice, pair, 1_000, 0, alice, true)
	assert.NoError(t, err)
	assert.Equal(t, outcome.AMMUsed, models.VenueID("b"))
	assert.Equal(t, a.executeCalls, 0)
	assert.Equal(t, b.executeCalls, 1)
	assert.Equal(t, c.executeCalls, 0)

	// every compatible venue was quoted with the gross amount
	assert.Equal(t, a.quoteCalls, 1)
	assert.Equal(t, c.quoteCalls, 1)

	assert.Equal(t, len(collector.calls), 1)
	assert.Equal(t, len(sink.outcomes), 1)
}

func TestRouter_FeeDeductedBeforeExecution(t *testing.T) {
	venue := newMockAMM("xyk", 990)
	r, collector, sink := setupTestRouter(t, []amm.AMM{venue})

	outcome, err := r.SwapExactTokensForTokens(alice, pair, 1_000, 900, bob, false)
	assert.NoError(t, err)

	assert.Equal(t, len(collector.calls), 1)
	assert.Equal(t, collector.calls[0].amount, models.Balance(3))
	assert.Equal(t, collector.calls[0].asset, models.Native())
	assert.Equal(t, collector.calls[0].payer, alice)

	assert.Equal(t, venue.lastParams.AmountIn, models.Balance(997))
	assert.Equal(t, venue.lastParams.MinAmountOut, models.Balance(900))
	assert.Equal(t, venue.lastParams.Recipient, bob)
	assert.False(t, venue.lastParams.KeepAlive)
	assert.Equal(t, collector.calls[0].amount+venue.lastParams.AmountIn, models.Balance(1_000))

	assert.Equal(t, *outcome, models.SwapOutcome{
		Who:       alice,
		AssetIn:   models.Native(),
		AssetOut:  models.Local(1),
		AmountIn:  1_000,
		AmountOut: 990,
		RouterFee: 3,
		AMMUsed:   "xyk",
		Recipient: bob,
	})
	assert.Equal(t, sink.outcomes[0], *outcome)
}

func TestRouter_InvalidPathRejectedBeforeVenues(t *testing.T) {
	venue := newMockAMM("xyk", 990)
	r, collector, sink := setupTestRouter(t, []amm.AMM{venue})

	paths := []models.SwapPath{
		models.MustSwapPath(models.Native(), models.Local(1), models.Local(2)),
		models.MustSwapPath(models.Native()),
		models.MustSwapPath(),
	}
	for _, path := range paths {
		_, err := r.SwapExactTokensForTokens(alice, path, 1_000, 0, alice, true)
		assert.True(t, errors.Is(err, router.ErrInvalidPath))
	}

	assert.Equal(t, venue.canHandleCalls, 0)
	assert.Equal(t, venue.quoteCalls, 0)
	assert.Equal(t, len(collector.calls), 0)
	assert.Equal(t, len(sink.outcomes), 0)
}

func TestRouter_NoCompatibleAMM(t *testing.T) {
	a := newMockAMM("a", 990)
	b := newMockAMM("b", 990)
	var failedFrom []router.State
	hook := router.WithTransitionHook(func(from, to router.State, _ error) {
		if to == router.StateFailed {
			failedFrom = append(failedFrom, from)
		}
	})
	r, collector, _ := setupTestRouter(t, []amm.AMM{a, b}, hook)

	path := models.MustSwapPath(models.Local(5), models.Local(9))
	_, err := r.SwapExactTokensForTokens(alice, path, 1_000, 0, alice, true)
	assert.True(t, errors.Is(err, router.ErrNoCompatibleAMM))
	assert.Equal(t, a.quoteCalls, 0)
	assert.Equal(t, len(collector.calls), 0)

	// a well-formed pair is resolved even when no venue lists it
	assert.Equal(t, failedFrom, []router.State{router.StatePairResolved})

	failedFrom = nil
	_, err = r.SwapExactTokensForTokens(alice, models.MustSwapPath(models.Native()), 1_000, 0, alice, true)
	assert.True(t, errors.Is(err, router.ErrInvalidPath))
	assert.Equal(t, failedFrom, []router.State{router.StateReceived})
}

func TestRouter_NoLiquidityAvailable(t *testing.T) {
	dry := newMockAMM("dry", 0)
	dry.quoteFunc = func(_, _ models.AssetKind, _ models.Balance) (models.Balance, bool) { return 0, false }
	r, collector, _ := setupTestRouter(t, []amm.AMM{dry})

	_, err := r.SwapExactTokensForTokens(alice, pair, 1_000, 0, alice, true)
	assert.True(t, errors.Is(err, router.ErrNoLiquidityAvailable))
	assert.Equal(t, dry.executeCalls, 0)
	assert.Equal(t, len(collector.calls), 0)
}

func TestRouter_VenueWithoutQuoteIsSkipped(t *testing.T) {
	dry := newMockAMM("dry", 0)
	dry.quoteFunc = func(_, _ models.AssetKind, _ models.Balance) (models.Balance, bool) { return 0, false }
	wet := newMockAMM("wet", 500)
	r, _, _ := setupTestRouter(t, []amm.AMM{dry, wet})

	outcome, err := r.SwapExactTokensForTokens(alice, pair, 1_000, 0, alice, true)
	assert.NoError(t, err)
	assert.Equal(t, outcome.AMMUsed, models.VenueID("wet"))
}

func TestRouter_NoOptimalRoute(t *testing.T) {
	venue := newMockAMM("xyk", 800)
	r, collector, _ := setupTestRouter(t, []amm.AMM{venue},
		router.WithStrategy(router.MinimumOutputStrategy{Floor: 900}))

	_, err := r.SwapExactTokensForTokens(alice, pair, 1_000, 0, alice, true)
	assert.True(t, errors.Is(err, router.ErrNoOptimalRoute))
	assert.Equal(t, len(collector.calls), 0)
	assert.Equal(t, venue.executeCalls, 0)
}

type rogueStrategy struct{}

func (rogueStrategy) SelectBest([]router.Quote, models.AssetKind, models.AssetKind) (models.VenueID, bool) {
	return "elsewhere", true
}

func TestRouter_AMMNotFound(t *testing.T) {
	venue := newMockAMM("xyk", 990)
	r, _, sink := setupTestRouter(t, []amm.AMM{venue}, router.WithStrategy(rogueStrategy{}))

	_, err := r.SwapExactTokensForTokens(alice, pair, 1_000, 0, alice, true)
	assert.True(t, errors.Is(err, router.ErrAMMNotFound))
	assert.Equal(t, venue.executeCalls, 0)
	assert.Equal(t, len(sink.outcomes), 0)
}

func TestRouter_FeeCollectorErrorIsReturnedUnchanged(t *testing.T) {
	venue := newMockAMM("xyk", 990)
	r, collector, sink := setupTestRouter(t, []amm.AMM{venue})
	collector.err = errors.New("ledger: insufficient balance")

	_, err := r.SwapExactTokensForTokens(alice, pair, 1_000, 0, alice, true)
	assert.Equal(t, err, collector.err)
	assert.Equal(t, venue.executeCalls, 0)
	assert.Equal(t, len(sink.outcomes), 0)
}

func TestRouter_VenueErrorIsReturnedUnchanged(t *testing.T) {
	venue := newMockAMM("xyk", 990)
	r, _, sink := setupTestRouter(t, []amm.AMM{venue})

	_, err := r.SwapExactTokensForTokens(alice, pair, 1_000, 991, alice, true)
	assert.Equal(t, err, errSlippage)
	assert.Equal(t, router.Kind(err), "")
	assert.Equal(t, len(sink.outcomes), 0)
}

func TestRouter_ZeroFeeSkipsCollector(t *testing.T) {
	venue := newMockAMM("xyk", 5)
	r, collector, _ := setupTestRouter(t, []amm.AMM{venue})

	// floor(300 * 3 / 1000) = 0
	outcome, err := r.SwapExactTokensForTokens(alice, pair, 300, 0, alice, true)
	assert.NoError(t, err)
	assert.Equal(t, outcome.RouterFee, models.Balance(0))
	assert.Equal(t, len(collector.calls), 0)
	assert.Equal(t, venue.lastParams.AmountIn, models.Balance(300))
}

func TestRouter_QuoteIsPure(t *testing.T) {
	a := newMockAMM("a", 950)
	b := newMockAMM("b", 980)
	var transitions int
	r, collector, sink := setupTestRouter(t, []amm.AMM{a, b},
		router.WithTransitionHook(func(_, _ router.State, _ error) { transitions++ }))

	first, err := r.Quote(pair, 1_000)
	assert.NoError(t, err)
	second, err := r.Quote(pair, 1_000)
	assert.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, first.Selected, models.VenueID("b"))
	assert.Equal(t, first.ExpectedOut, models.Balance(980))
	assert.Equal(t, first.NetOut, models.Balance(980))
	assert.Equal(t, first.RouterFee, models.Balance(3))
	assert.Equal(t, first.Effective, models.Balance(997))
	assert.Equal(t, len(first.Quotes), 2)

	assert.Equal(t, a.executeCalls+b.executeCalls, 0)
	assert.Equal(t, len(collector.calls), 0)
	assert.Equal(t, len(sink.outcomes), 0)
	assert.Equal(t, transitions, 0)

	_, err = r.Quote(models.MustSwapPath(models.Local(5), models.Local(9)), 1_000)
	assert.True(t, errors.Is(err, router.ErrNoCompatibleAMM))
}

func TestRouter_Transitions(t *testing.T) {
	type step struct{ from, to router.State }
	var steps []step
	hook := router.WithTransitionHook(func(from, to router.State, _ error) {
		steps = append(steps, step{from, to})
	})

	r, _, _ := setupTestRouter(t, []amm.AMM{newMockAMM("xyk", 990)}, hook)
	_, err := r.SwapExactTokensForTokens(alice, pair, 1_000, 0, alice, true)
	assert.NoError(t, err)
	assert.Equal(t, steps, []step{
		{router.StateReceived, router.StatePairResolved},
		{router.StatePairResolved, router.StateQuoted},
		{router.StateQuoted, router.StateFeeCollected},
		{router.StateFeeCollected, router.StateExecuted},
		{router.StateExecuted, router.StateReported},
	})

	steps = nil
	_, err = r.SwapExactTokensForTokens(alice, pair, 1_000, 995, alice, true)
	assert.Error(t, err)
	assert.Equal(t, steps[len(steps)-1], step{router.StateFeeCollected, router.StateFailed})
}

func TestRouter_Construction(t *testing.T) {
	_, err := router.New(nil, nil)
	assert.Error(t, err)

	_, err = router.New([]amm.AMM{newMockAMM("a", 1)}, &mockCollector{}, router.WithFeeRate(models.Permill(1_000_001)))
	assert.True(t, errors.Is(err, models.ErrPermillRange))

	_, err = router.New([]amm.AMM{newMockAMM("a", 1), newMockAMM("a", 2)}, &mockCollector{})
	assert.True(t, errors.Is(err, amm.ErrDuplicateAdapter))

	r, err := router.New([]amm.AMM{newMockAMM("a", 1), newMockAMM("b", 2)}, &mockCollector{})
	assert.NoError(t, err)
	assert.Equal(t, r.Venues(), []models.VenueID{"a", "b"})
	assert.Equal(t, r.FeeRate(), router.DefaultFeeRate)
	assert.Equal(t, r.StrategyName(), "best-price")
}

func TestRouter_ErrorKinds(t *testing.T) {
	assert.Equal(t, router.Kind(router.ErrInvalidPath), "InvalidPath")
	assert.Equal(t, router.Kind(router.ErrNoCompatibleAMM), "NoCompatibleAMM")
	assert.Equal(t, router.Kind(router.ErrNoLiquidityAvailable), "NoLiquidityAvailable")
	assert.Equal(t, router.Kind(router.ErrNoOptimalRoute), "NoOptimalRoute")
	assert.Equal(t, router.Kind(router.ErrAMMNotFound), "AMMNotFound")
	assert.Equal(t, router.Kind(errors.New("other")), "")
}

type nopCollector struct{}

func (nopCollector) CollectFee(models.AccountID, models.AssetKind, models.Balance) error { return nil }

func BenchmarkRouter_Swap(b *testing.B) {
	adapters := []amm.AMM{newMockAMM("a", 950), newMockAMM("b", 980), newMockAMM("c", 970)}
	r, err := router.New(adapters, nopCollector{})
	if err != nil {
		b.Fatal(err)
	}

	for b.Loop() {
		_, _ = r.SwapExactTokensForTokens(alice, pair, 1_000, 0, alice, true)
	}
}

func BenchmarkRouter_Quote(b *testing.B) {
	adapters := []amm.AMM{newMockAMM("a", 950), newMockAMM("b", 980), newMockAMM("c", 970)}
	r, err := router.New(adapters, nopCollector{})
	if err != nil {
		b.Fatal(err)
	}

	for b.Loop() {
		_, _ = r.Quote(pair, 1_000)
	}
}
