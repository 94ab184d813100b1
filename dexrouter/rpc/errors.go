package rpc

import (
	"context"
	"errors"
	"net/http"

	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/ledger"
	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/node"
	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/router"
	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/venue/stable"
	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/venue/xyk"
)

// Error kinds outside the router's own.
const (
	KindBadRequest = "BadRequest"
	KindNotFound   = "NotFound"
	KindTimeout    = "Timeout"
	KindInternal   = "Internal"
)

// ledger and venue errors keep their own names so clients can tell a failed
// swap apart from a malformed request
var passthroughKinds = []struct {
	err  error
	kind string
}{
	{ledger.ErrInsufficientBalance, "InsufficientBalance"},
	{ledger.ErrConsumerRemaining, "ConsumerRemaining"},
	{ledger.ErrNotExpendable, "NotExpendable"},
	{ledger.ErrBelowMinimum, "BelowMinimum"},
	{ledger.ErrNoProvider, "NoProvider"},
	{ledger.ErrUnknownAsset, "UnknownAsset"},
	{ledger.ErrOverflow, "Overflow"},
	{xyk.ErrPoolNotFound, "PoolNotFound"},
	{xyk.ErrZeroAmount, "ZeroAmount"},
	{xyk.ErrZeroLiquidity, "ZeroLiquidity"},
	{xyk.ErrProvidedMinimumNotSufficientForSwap, "ProvidedMinimumNotSufficientForSwap"},
	{xyk.ErrReserveLeftLessThanMinimal, "ReserveLeftLessThanMinimal"},
	{xyk.ErrOverflow, "Overflow"},
	{stable.ErrUnsupportedPair, "UnsupportedPair"},
	{stable.ErrZeroAmount, "ZeroAmount"},
	{stable.ErrInsufficientReserve, "InsufficientReserve"},
	{stable.ErrBelowMinimumOut, "BelowMinimumOut"},
}

// ErrorKind names err for API responses and metrics.
func ErrorKind(err error) string {
	if kind := router.Kind(err); kind != "" {
		return kind
	}
	var inputErr *node.InputError
	if errors.As(err, &inputErr) {
		return KindBadRequest
	}
	for _, k := range passthroughKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindTimeout
	}
	return KindInternal
}

// statusFor maps an error kind to the HTTP status returned with it. Every
// failure of a well-formed swap is 422.
func statusFor(kind string) int {
	switch kind {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindNotFound, "UnknownAsset":
		return http.StatusNotFound
	case KindTimeout:
		return http.StatusGatewayTimeout
	case KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusUnprocessableEntity
	}
}
