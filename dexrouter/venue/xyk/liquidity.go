package xyk

import (
	"fmt"

	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/ledger"
	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/models"
)

// AddLiquidityParams describes a liquidity provision. Amounts follow the order of
// AssetA and AssetB, not the pool key order.
type AddLiquidityParams struct {
	Who            models.AccountID
	AssetA, AssetB models.AssetKind
	DesiredA       models.Balance
	DesiredB       models.Balance
	MinA, MinB     models.Balance
	MintTo         models.AccountID
}

// AddLiquidity deposits both assets at the current pool ratio and mints LP tokens
// to MintTo. The first provision sets the ratio and locks MintMinLiquidity LP
// tokens in the pool account.
func (v *Venue) AddLiquidity(p AddLiquidityParams) (models.Balance, error) {
	pool, ok := v.Pool(p.AssetA, p.AssetB)
	if !ok {
		return 0, fmt.Errorf("%w: %s/%s", ErrPoolNotFound, p.AssetA, p.AssetB)
	}
	if p.DesiredA == 0 || p.DesiredB == 0 {
		return 0, ErrZeroAmount
	}
	reserveA := v.ledger.Balance(p.AssetA, pool.Account)
	reserveB := v.ledger.Balance(p.AssetB, pool.Account)

	amountA, amountB := p.DesiredA, p.DesiredB
	if reserveA != 0 || reserveB != 0 {
		optimalB, err := Quote(p.DesiredA, reserveA, reserveB)
		if err != nil {
			return 0, err
		}
		if optimalB <= p.DesiredB {
			if optimalB < p.MinB {
				return 0, ErrAssetAmountLessThanDesired
			}
			amountB = optimalB
		} else {
			optimalA, err := Quote(p.DesiredB, reserveB, reserveA)
			if err != nil {
				return 0, err
			}
			if optimalA > p.DesiredA || optimalA < p.MinA {
				return 0, ErrAssetAmountLessThanDesired
			}
			amountA = optimalA
		}
	}

	lpAsset := models.Local(pool.LPToken)
	totalSupply := v.ledger.TotalIssuance(lpAsset)
	var minted models.Balance
	if totalSupply == 0 {
		root, err := initialLiquidity(amountA, amountB)
		if err != nil {
			return 0, err
		}
		if root <= v.cfg.MintMinLiquidity {
			return 0, ErrInsufficientLiquidityMinted
		}
		minted = root - v.cfg.MintMinLiquidity
	} else {
		sideA, err := mulDiv(amountA, totalSupply, reserveA)
		if err != nil {
			return 0, err
		}
		sideB, err := mulDiv(amountB, totalSupply, reserveB)
		if err != nil {
			return 0, err
		}
		minted = min(sideA, sideB)
		if minted == 0 {
			return 0, ErrInsufficientLiquidityMinted
		}
	}

	if err := v.ledger.Transfer(p.AssetA, p.Who, pool.Account, amountA, ledger.Preserve); err != nil {
		return 0, err
	}
	if err := v.ledger.Transfer(p.AssetB, p.Who, pool.Account, amountB, ledger.Preserve); err != nil {
		return 0, err
	}
	if totalSupply == 0 {
		if err := v.ledger.Mint(lpAsset, pool.Account, v.cfg.MintMinLiquidity); err != nil {
			return 0, err
		}
	}
	if err := v.ledger.Mint(lpAsset, p.MintTo, minted); err != nil {
		return 0, err
	}
	return minted, nil
}

// RemoveLiquidity burns lpAmount LP tokens from who and pays out the matching
// share of both reserves to withdrawTo.
func (v *Venue) RemoveLiquidity(who models.AccountID, a, b models.AssetKind, lpAmount, minA, minB models.Balance, withdrawTo models.AccountID) (models.Balance, models.Balance, error) {
	pool, ok := v.Pool(a, b)
	if !ok {
		return 0, 0, fmt.Errorf("%w: %s/%s", ErrPoolNotFound, a, b)
	}
	if lpAmount == 0 {
		return 0, 0, ErrZeroAmount
	}
	lpAsset := models.Local(pool.LPToken)
	totalSupply := v.ledger.TotalIssuance(lpAsset)
	reserveA := v.ledger.Balance(a, pool.Account)
	reserveB := v.ledger.Balance(b, pool.Account)

	amountA, err := mulDiv(lpAmount, reserveA, totalSupply)
	if err != nil {
		return 0, 0, err
	}
	amountB, err := mulDiv(lpAmount, reserveB, totalSupply)
	if err != nil {
		return 0, 0, err
	}
	if amountA == 0 || amountB == 0 || amountA < minA || amountB < minB {
		return 0, 0, ErrAssetAmountLessThanDesired
	}

	if err := v.ledger.Burn(lpAsset, who, lpAmount, ledger.Expendable); err != nil {
		return 0, 0, err
	}
	if err := v.ledger.Transfer(a, pool.Account, withdrawTo, amountA, ledger.Expendable); err != nil {
		return 0, 0, err
	}
	if err := v.ledger.Transfer(b, pool.Account, withdrawTo, amountB, ledger.Expendable); err != nil {
		return 0, 0, err
	}
	return amountA, amountB, nil
}
