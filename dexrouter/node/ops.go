package node

import (
	"context"
	"errors"
	"fmt"

	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/models"
	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/router"
	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/router/amm"
	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/runtime"
)

// InputError reports a request field that could not be parsed.
type InputError struct {
	Field string
	Err   error
}

func (e *InputError) Error() string { return fmt.Sprintf("invalid %s: %v", e.Field, e.Err) }

func (e *InputError) Unwrap() error { return e.Err }

var errMissingMinimum = errors.New("either amount_out_min or slippage_bps is required")

// Swap parses req and dispatches it through the router as one atomic call.
// When slippage_bps is given without amount_out_min, the minimum is derived
// from a quote taken inside the same call.
func (n *Node) Swap(ctx context.Context, req models.SwapRequest) (*models.SwapResponse, error) {
	who, err := parseAccount("who", req.Who)
	if err != nil {
		return nil, err
	}
	path, err := parsePath(req.Path)
	if err != nil {
		return nil, err
	}
	amountIn, err := parseBalance("amount_in", req.AmountIn)
	if err != nil {
		return nil, err
	}
	sendTo := who
	if req.SendTo != "" {
		if sendTo, err = parseAccount("send_to", req.SendTo); err != nil {
			return nil, err
		}
	}
	var amountOutMin models.Balance
	switch {
	case req.AmountOutMin != "":
		if amountOutMin, err = parseBalance("amount_out_min", req.AmountOutMin); err != nil {
			return nil, err
		}
	case req.SlippageBps == nil:
		return nil, &InputError{Field: "amount_out_min", Err: errMissingMinimum}
	case *req.SlippageBps > amm.MaxSlippageBps:
		return nil, &InputError{Field: "slippage_bps", Err: fmt.Errorf("must be at most %d", amm.MaxSlippageBps)}
	}

	var resp *models.SwapResponse
	err = n.rt.Dispatch(ctx, "swap_exact_tokens_for_tokens", func() error {
		minOut := amountOutMin
		if req.AmountOutMin == "" {
			report, err := n.router.Quote(path, amountIn)
			if err != nil {
				return err
			}
			if minOut, err = amm.CalculateMinOutput(report.NetOut, *req.SlippageBps); err != nil {
				return err
			}
		}
		outcome, err := n.router.SwapExactTokensForTokens(who, path, amountIn, minOut, sendTo, req.KeepAlive)
		if err != nil {
			return err
		}
		resp = &models.SwapResponse{EventIndex: n.rt.Events().Len() - 1, Outcome: outcome}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Quote previews a swap. It never changes state.
func (n *Node) Quote(req models.QuoteRequest) (*models.QuoteResponse, error) {
	path, err := parsePath(req.Path)
	if err != nil {
		return nil, err
	}
	amountIn, err := parseBalance("amount_in", req.AmountIn)
	if err != nil {
		return nil, err
	}

	var report *router.QuoteReport
	n.rt.Read(func() {
		report, err = n.router.Quote(path, amountIn)
	})
	if err != nil {
		return nil, err
	}

	quotes := make([]models.VenueQuote, len(report.Quotes))
	for i, q := range report.Quotes {
		quotes[i] = models.VenueQuote{Venue: q.Venue, AmountOut: q.AmountOut}
	}
	return &models.QuoteResponse{
		AssetIn:         report.AssetIn,
		AssetOut:        report.AssetOut,
		AmountIn:        report.AmountIn,
		RouterFee:       report.RouterFee,
		EffectiveAmount: report.Effective,
		RouterFeeRate:   n.router.FeeRate().String(),
		Quotes:          quotes,
		Selected:        report.Selected,
		ExpectedOut:     report.ExpectedOut,
		NetOut:          report.NetOut,
	}, nil
}

// Balance returns the balance of account in asset. Unknown assets are an error.
func (n *Node) Balance(account, asset string) (*models.BalanceResponse, error) {
	who, err := parseAccount("account", account)
	if err != nil {
		return nil, err
	}
	kind, err := models.ParseAsset(asset)
	if err != nil {
		return nil, &InputError{Field: "asset", Err: err}
	}

	var resp *models.BalanceResponse
	n.rt.Read(func() {
		if _, err = n.ledger.MinBalance(kind); err != nil {
			return
		}
		resp = &models.BalanceResponse{Account: who, Asset: kind, Balance: n.ledger.Balance(kind, who)}
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Venues describes the router configuration.
func (n *Node) Venues() models.VenuesResponse {
	return models.VenuesResponse{
		Venues:        n.router.Venues(),
		RouterFeeRate: n.router.FeeRate().String(),
		Strategy:      n.router.StrategyName(),
	}
}

// Pools lists the constant-product pools with their reserves.
func (n *Node) Pools() []models.PoolInfo {
	pools := []models.PoolInfo{}
	if n.xyk == nil {
		return pools
	}
	n.rt.Read(func() {
		for _, p := range n.xyk.Pools() {
			pools = append(pools, models.PoolInfo{
				Asset1:   p.Key.Asset1,
				Asset2:   p.Key.Asset2,
				Account:  p.Account,
				LPToken:  models.Local(p.LPToken),
				Reserve1: n.ledger.Balance(p.Key.Asset1, p.Account),
				Reserve2: n.ledger.Balance(p.Key.Asset2, p.Account),
			})
		}
	})
	return pools
}

// Events returns swap outcomes from index from onwards.
func (n *Node) Events(from int) []runtime.EventRecord {
	return n.rt.Events().Since(from)
}

func parseAccount(field, s string) (models.AccountID, error) {
	id, err := models.ParseAccountID(s)
	if err != nil {
		return models.AccountID{}, &InputError{Field: field, Err: err}
	}
	return id, nil
}

func parseBalance(field, s string) (models.Balance, error) {
	var b models.Balance
	if err := b.UnmarshalText([]byte(s)); err != nil {
		return 0, &InputError{Field: field, Err: err}
	}
	return b, nil
}

// parsePath rejects unparseable assets as bad input. Paths of the wrong length
// are left to the router, except those too long to represent, which are
// reported as the router would report them.
func parsePath(raw []string) (models.SwapPath, error) {
	assets := make([]models.AssetKind, len(raw))
	for i, s := range raw {
		a, err := models.ParseAsset(s)
		if err != nil {
			return models.SwapPath{}, &InputError{Field: fmt.Sprintf("path[%d]", i), Err: err}
		}
		assets[i] = a
	}
	path, err := models.NewSwapPath(assets...)
	if errors.Is(err, models.ErrPathTooLong) {
		return models.SwapPath{}, fmt.Errorf("%w: %w", router.ErrInvalidPath, err)
	}
	return path, err
}
