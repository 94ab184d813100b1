package xyk

import (
	"github.com/holiman/uint256"

	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/models"
)

// feeDenominator is the precision of the LP fee, which is expressed per mille.
const feeDenominator = 1000

// GetAmountOut returns the output of a constant-product swap:
//
//	out = in*(1000-fee)*reserveOut / (reserveIn*1000 + in*(1000-fee))
//
// Intermediates are 256-bit so no product of two balances can overflow.
func GetAmountOut(amountIn, reserveIn, reserveOut models.Balance, lpFee uint32) (models.Balance, error) {
	if reserveIn == 0 || reserveOut == 0 {
		return 0, ErrZeroLiquidity
	}
	if lpFee >= feeDenominator {
		return 0, ErrOverflow
	}
	inWithFee := new(uint256.Int).Mul(amountIn.U256(), uint256.NewInt(uint64(feeDenominator-lpFee)))
	numerator := new(uint256.Int).Mul(inWithFee, reserveOut.U256())
	denominator := new(uint256.Int).Mul(reserveIn.U256(), uint256.NewInt(feeDenominator))
	denominator.Add(denominator, inWithFee)

	out, ok := models.BalanceFromU256(numerator.Div(numerator, denominator))
	if !ok {
		return 0, ErrOverflow
	}
	return out, nil
}

// Quote returns amountA valued in B at the current reserve ratio, without fees.
func Quote(amountA, reserveA, reserveB models.Balance) (models.Balance, error) {
	if reserveA == 0 || reserveB == 0 {
		return 0, ErrZeroLiquidity
	}
	v := new(uint256.Int).Mul(amountA.U256(), reserveB.U256())
	v.Div(v, reserveA.U256())
	out, ok := models.BalanceFromU256(v)
	if !ok {
		return 0, ErrOverflow
	}
	return out, nil
}

// mulDiv returns a*b/c.
func mulDiv(a, b, c models.Balance) (models.Balance, error) {
	if c == 0 {
		return 0, ErrZeroLiquidity
	}
	v := new(uint256.Int).Mul(a.U256(), b.U256())
	v.Div(v, c.U256())
	out, ok := models.BalanceFromU256(v)
	if !ok {
		return 0, ErrOverflow
	}
	return out, nil
}

// initialLiquidity returns sqrt(a*b), the LP supply minted by the first provision.
func initialLiquidity(a, b models.Balance) (models.Balance, error) {
	v := new(uint256.Int).Mul(a.U256(), b.U256())
	v.Sqrt(v)
	out, ok := models.BalanceFromU256(v)
	if !ok {
		return 0, ErrOverflow
	}
	return out, nil
}
