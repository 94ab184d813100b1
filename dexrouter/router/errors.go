package router

import "errors"

var (
	// ErrInvalidPath is returned for any path that is not exactly two assets.
	ErrInvalidPath = errors.New("swap path must contain exactly two assets")
	// ErrNoCompatibleAMM is returned when no registered venue supports the pair.
	ErrNoCompatibleAMM = errors.New("no registered venue supports the asset pair")
	// ErrNoLiquidityAvailable is returned when every compatible venue declined to quote.
	ErrNoLiquidityAvailable = errors.New("no venue has liquidity for the asset pair")
	// ErrNoOptimalRoute is returned when the routing strategy selects nothing.
	ErrNoOptimalRoute = errors.New("routing strategy found no acceptable venue")
	// ErrAMMNotFound is returned when the selected venue is not among the compatible ones.
	ErrAMMNotFound = errors.New("selected venue is not registered for the pair")
	// ErrFeeCalculationFailed is returned when the fee split does not conserve the input.
	ErrFeeCalculationFailed = errors.New("router fee calculation failed")
)

var kinds = []struct {
	err  error
	kind string
}{
	{ErrInvalidPath, "InvalidPath"},
	{ErrNoCompatibleAMM, "NoCompatibleAMM"},
	{ErrNoLiquidityAvailable, "NoLiquidityAvailable"},
	{ErrNoOptimalRoute, "NoOptimalRoute"},
	{ErrAMMNotFound, "AMMNotFound"},
	{ErrFeeCalculationFailed, "FeeCalculationFailed"},
}

// Kind returns the stable name of a router error, or "" when err did not
// originate in the router.
func Kind(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return ""
}
