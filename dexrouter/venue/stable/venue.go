// Package stable is a fixed-rate venue for pegged asset pairs. Every supported
// pair trades 1:1 in both directions minus a flat fee, paid out of a single
// reserve account.
package stable

import (
	"errors"
	"fmt"
	"maps"

	"github.com/holiman/uint256"

	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/ledger"
	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/models"
)

const bpsDenominator = 10_000

var (
	ErrUnsupportedPair     = errors.New("pair is not supported by the stable venue")
	ErrZeroAmount          = errors.New("amount must be greater than zero")
	ErrInsufficientReserve = errors.New("reserve cannot cover the swap output")
	ErrBelowMinimumOut     = errors.New("swap output is below the provided minimum")
	ErrInvalidFee          = errors.New("fee must be below 10000 bps")
)

type pairKey struct {
	a, b models.AssetKind
}

func newPairKey(a, b models.AssetKind) pairKey {
	if a.Compare(b) > 0 {
		a, b = b, a
	}
	return pairKey{a: a, b: b}
}

// Config describes the venue.
type Config struct {
	// FeeBps is taken from every trade (50 = 0.5%).
	FeeBps uint32
	// Pairs lists the pegged pairs, each tradeable in both directions.
	Pairs [][2]models.AssetKind
}

// Venue is a fixed-rate swap venue backed by one reserve account.
type Venue struct {
	ledger  *ledger.Ledger
	feeBps  uint32
	account models.AccountID
	pairs   map[pairKey]struct{}
}

// ReserveAccount is the account holding the venue's liquidity.
func ReserveAccount() models.AccountID {
	return models.DeriveAccount("py/stabl")
}

func New(l *ledger.Ledger, cfg Config) (*Venue, error) {
	if cfg.FeeBps >= bpsDenominator {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFee, cfg.FeeBps)
	}
	v := &Venue{
		ledger:  l,
		feeBps:  cfg.FeeBps,
		account: ReserveAccount(),
		pairs:   make(map[pairKey]struct{}),
	}
	l.IncProviders(v.account)
	for _, p := range cfg.Pairs {
		if err := v.AddPair(p[0], p[1]); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func (v *Venue) Account() models.AccountID { return v.account }

func (v *Venue) FeeBps() uint32 { return v.feeBps }

// AddPair enables trading between a and b.
func (v *Venue) AddPair(a, b models.AssetKind) error {
	if a == b {
		return fmt.Errorf("%w: %s/%s", ErrUnsupportedPair, a, b)
	}
	v.pairs[newPairKey(a, b)] = struct{}{}
	return nil
}

func (v *Venue) Supports(a, b models.AssetKind) bool {
	if a == b {
		return false
	}
	_, ok := v.pairs[newPairKey(a, b)]
	return ok
}

// Provide deposits reserve liquidity from who.
func (v *Venue) Provide(who models.AccountID, asset models.AssetKind, amount models.Balance) error {
	return v.ledger.Transfer(asset, who, v.account, amount, ledger.Preserve)
}

// Reserve returns the venue's balance of asset.
func (v *Venue) Reserve(asset models.AssetKind) models.Balance {
	return v.ledger.Balance(asset, v.account)
}

func (v *Venue) amountOut(amountIn models.Balance) models.Balance {
	out := new(uint256.Int).Mul(amountIn.U256(), uint256.NewInt(uint64(bpsDenominator-v.feeBps)))
	out.Div(out, uint256.NewInt(bpsDenominator))
	return models.Balance(out.Uint64())
}

// available is what the reserve can pay out of asset without dropping below its
// minimum balance.
func (v *Venue) available(asset models.AssetKind) models.Balance {
	reserve := v.Reserve(asset)
	minBalance, err := v.ledger.MinBalance(asset)
	if err != nil || reserve <= minBalance {
		return 0
	}
	return reserve - minBalance
}

// Quote previews a trade. ok is false for unsupported pairs, zero input, or when
// the reserve cannot pay the output.
func (v *Venue) Quote(in, out models.AssetKind, amountIn models.Balance) (models.Balance, bool) {
	if amountIn == 0 || !v.Supports(in, out) {
		return 0, false
	}
	amountOut := v.amountOut(amountIn)
	if amountOut == 0 || amountOut > v.available(out) {
		return 0, false
	}
	return amountOut, true
}

// Swap sells amountIn of in from who and pays the output to sendTo.
func (v *Venue) Swap(who models.AccountID, in, out models.AssetKind, amountIn, amountOutMin models.Balance, sendTo models.AccountID, keepAlive bool) (models.Balance, error) {
	if amountIn == 0 {
		return 0, ErrZeroAmount
	}
	if !v.Supports(in, out) {
		return 0, fmt.Errorf("%w: %s/%s", ErrUnsupportedPair, in, out)
	}
	amountOut := v.amountOut(amountIn)
	if amountOut < amountOutMin {
		return 0, fmt.Errorf("%w: got %d, want at least %d", ErrBelowMinimumOut, amountOut, amountOutMin)
	}
	if amountOut == 0 {
		return 0, ErrZeroAmount
	}
	if amountOut > v.available(out) {
		return 0, ErrInsufficientReserve
	}
	if err := v.ledger.Transfer(in, who, v.account, amountIn, ledger.KeepAlive(keepAlive)); err != nil {
		return 0, err
	}
	if err := v.ledger.Transfer(out, v.account, sendTo, amountOut, ledger.Preserve); err != nil {
		return 0, err
	}
	return amountOut, nil
}

// Checkpoint captures the supported pairs; balances are restored by the ledger.
func (v *Venue) Checkpoint() (restore func()) {
	pairs := maps.Clone(v.pairs)
	return func() { v.pairs = pairs }
}
