package xyk

import "errors"

var (
	ErrPoolNotFound                        = errors.New("pool not found")
	ErrPoolExists                          = errors.New("pool already exists")
	ErrInvalidAssetPair                    = errors.New("invalid asset pair")
	ErrZeroAmount                          = errors.New("amount must be greater than zero")
	ErrZeroLiquidity                       = errors.New("pool has no liquidity")
	ErrProvidedMinimumNotSufficientForSwap = errors.New("swap output is below the provided minimum")
	ErrReserveLeftLessThanMinimal          = errors.New("swap would leave the pool reserve below its minimum balance")
	ErrInsufficientLiquidityMinted         = errors.New("liquidity provided mints too few LP tokens")
	ErrAssetAmountLessThanDesired          = errors.New("optimal amount is below the provided minimum")
	ErrOverflow                            = errors.New("arithmetic overflow")
)
