package amm

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/models"
)

// MaxSlippageBps is 100% in basis points.
const MaxSlippageBps = 10_000

// CalculateMinOutput returns the minimum acceptable output for an expected
// output and a slippage tolerance in basis points (100 = 1%):
// minOutput = expected * (10000 - slippageBps) / 10000
func CalculateMinOutput(expectedOutput models.Balance, slippageBps uint32) (models.Balance, error) {
	if slippageBps > MaxSlippageBps {
		return 0, fmt.Errorf("slippage %d bps exceeds %d", slippageBps, MaxSlippageBps)
	}
	minOutput := new(uint256.Int).Mul(expectedOutput.U256(), uint256.NewInt(uint64(MaxSlippageBps-slippageBps)))
	minOutput.Div(minOutput, uint256.NewInt(MaxSlippageBps))
	return models.Balance(minOutput.Uint64()), nil
}
