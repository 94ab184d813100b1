package xyk_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/ledger"
	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/models"
	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/router/amm"
	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/router/amm/xyk"
	xykvenue "github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/venue/xyk"
	"github.com/rs/zerolog"
	"github.com/zeebo/assert"
)

func setupAdapter(t *testing.T) (*ledger.Ledger, *xyk.Adapter) {
	t.Helper()
	alice := models.DevAccount("alice")
	l := ledger.New(1)
	assert.NoError(t, l.CreateAsset(1, alice, 1, false))
	assert.NoError(t, l.Mint(models.Native(), alice, 10_000_000))
	assert.NoError(t, l.Mint(models.Local(1), alice, 10_000_000))

	v := xykvenue.New(l, xykvenue.DefaultConfig())
	_, err := v.CreatePool(alice, models.Native(), models.Local(1))
	assert.NoError(t, err)
	_, err = v.AddLiquidity(xykvenue.AddLiquidityParams{
		Who: alice, AssetA: models.Native(), AssetB: models.Local(1),
		DesiredA: 1_000_000, DesiredB: 1_000_000, MintTo: alice,
	})
	assert.NoError(t, err)
	return l, xyk.NewAdapter(v)
}

func TestAdapter_Pairs(t *testing.T) {
	_, a := setupAdapter(t)

	assert.Equal(t, a.Name(), xyk.VenueID)
	assert.True(t, a.CanHandlePair(models.Native(), models.Local(1)))
	assert.True(t, a.CanHandlePair(models.Local(1), models.Native()))
	assert.False(t, a.CanHandlePair(models.Local(5), models.Local(9)))
	assert.False(t, a.CanHandlePair(models.Native(), models.Native()))
}

func TestAdapter_QuoteMatchesExecution(t *testing.T) {
	l, a := setupAdapter(t)
	bob := models.DevAccount("bob")
	assert.NoError(t, l.Mint(models.Native(), bob, 5_000))

	quoted, ok := a.QuotePrice(models.Native(), models.Local(1), 997)
	assert.True(t, ok)

	out, err := a.ExecuteSwap(amm.SwapParams{
		Who:          bob,
		AssetIn:      models.Native(),
		AssetOut:     models.Local(1),
		AmountIn:     997,
		MinAmountOut: 900,
		Recipient:    bob,
		KeepAlive:    true,
	})
	assert.NoError(t, err)
	assert.Equal(t, out, quoted)
	assert.Equal(t, l.Balance(models.Local(1), bob), quoted)
}

func TestAdapter_ExecuteReturnsVenueErrors(t *testing.T) {
	l, a := setupAdapter(t)
	bob := models.DevAccount("bob")
	assert.NoError(t, l.Mint(models.Native(), bob, 5_000))

	_, err := a.ExecuteSwap(amm.SwapParams{
		Who: bob, AssetIn: models.Native(), AssetOut: models.Local(1),
		AmountIn: 997, MinAmountOut: 10_000, Recipient: bob,
	})
	assert.True(t, errors.Is(err, xykvenue.ErrProvidedMinimumNotSufficientForSwap))
}

func TestAdapter_SetLogger(t *testing.T) {
	_, a := setupAdapter(t)
	var buf bytes.Buffer
	xyk.SetLogger(zerolog.New(&buf))

	_, ok := a.QuotePrice(models.Native(), models.Local(1), 997)
	assert.True(t, ok)
	assert.True(t, strings.Contains(buf.String(), `"component":"xyk-adapter"`))
	assert.True(t, strings.Contains(buf.String(), "Quoted constant-product pool"))
}
