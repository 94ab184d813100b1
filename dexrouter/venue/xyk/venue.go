// Package xyk is a constant-product liquidity venue. Pools hold their reserves in
// a derived pool account on the ledger and issue a local LP asset to liquidity
// providers.
package xyk

import (
	"fmt"
	"maps"
	"slices"

	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/ledger"
	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/models"
)

// PoolAccountDomain seeds pool account derivation.
const PoolAccountDomain = "spectra/xyk-pool"

// Config holds the venue constants.
type Config struct {
	// LPFee is the liquidity provider fee per mille (3 = 0.3%).
	LPFee uint32
	// MintMinLiquidity LP tokens are locked in the pool account on first provision.
	MintMinLiquidity models.Balance
	// FirstAsset, when set, must be one side of every pool and is stored first.
	// When nil pools are keyed in ascending asset order.
	FirstAsset *models.AssetKind
	// LPAssetIDStart is the first local asset id handed out to LP tokens.
	LPAssetIDStart uint32
}

// DefaultConfig mirrors the runtime defaults: 0.3% LP fee, 100 locked LP units
// and native-first pools.
func DefaultConfig() Config {
	native := models.Native()
	return Config{
		LPFee:            3,
		MintMinLiquidity: 100,
		FirstAsset:       &native,
		LPAssetIDStart:   1_000_000,
	}
}

// PoolKey is an ordered asset pair.
type PoolKey struct {
	Asset1 models.AssetKind `json:"asset1"`
	Asset2 models.AssetKind `json:"asset2"`
}

func (k PoolKey) String() string { return k.Asset1.String() + "/" + k.Asset2.String() }

// Pool is the immutable description of a created pool.
type Pool struct {
	Key     PoolKey          `json:"key"`
	Account models.AccountID `json:"account"`
	LPToken uint32           `json:"lp_token"`
}

// Venue manages every constant-product pool on a ledger.
type Venue struct {
	ledger *ledger.Ledger
	cfg    Config
	pools  map[PoolKey]*Pool
	nextLP uint32
}

func New(l *ledger.Ledger, cfg Config) *Venue {
	if cfg.LPAssetIDStart == 0 {
		cfg.LPAssetIDStart = DefaultConfig().LPAssetIDStart
	}
	return &Venue{
		ledger: l,
		cfg:    cfg,
		pools:  make(map[PoolKey]*Pool),
		nextLP: cfg.LPAssetIDStart,
	}
}

func (v *Venue) Config() Config { return v.cfg }

// PoolKeyFor orders a and b the way pools are stored. ok is false for pairs no
// pool can exist for.
func (v *Venue) PoolKeyFor(a, b models.AssetKind) (PoolKey, bool) {
	if a == b {
		return PoolKey{}, false
	}
	if first := v.cfg.FirstAsset; first != nil {
		switch *first {
		case a:
			return PoolKey{Asset1: a, Asset2: b}, true
		case b:
			return PoolKey{Asset1: b, Asset2: a}, true
		default:
			return PoolKey{}, false
		}
	}
	if a.Compare(b) > 0 {
		a, b = b, a
	}
	return PoolKey{Asset1: a, Asset2: b}, true
}

// PoolAccount derives the account that holds the reserves of key.
func PoolAccount(key PoolKey) models.AccountID {
	a1, _ := key.Asset1.MarshalBinary()
	a2, _ := key.Asset2.MarshalBinary()
	return models.DeriveAccount(PoolAccountDomain, a1, a2)
}

// Pool returns the pool for the unordered pair a, b.
func (v *Venue) Pool(a, b models.AssetKind) (*Pool, bool) {
	key, ok := v.PoolKeyFor(a, b)
	if !ok {
		return nil, false
	}
	p, ok := v.pools[key]
	return p, ok
}

func (v *Venue) PoolExists(a, b models.AssetKind) bool {
	_, ok := v.Pool(a, b)
	return ok
}

// Pools lists every pool ordered by pool key.
func (v *Venue) Pools() []*Pool {
	out := slices.Collect(maps.Values(v.pools))
	slices.SortFunc(out, func(a, b *Pool) int {
		if c := a.Key.Asset1.Compare(b.Key.Asset1); c != 0 {
			return c
		}
		return a.Key.Asset2.Compare(b.Key.Asset2)
	})
	return out
}

// Reserves returns the pool balances of a and b, in that order.
func (v *Venue) Reserves(a, b models.AssetKind) (models.Balance, models.Balance, error) {
	p, ok := v.Pool(a, b)
	if !ok {
		return 0, 0, fmt.Errorf("%w: %s/%s", ErrPoolNotFound, a, b)
	}
	return v.ledger.Balance(a, p.Account), v.ledger.Balance(b, p.Account), nil
}

// CreatePool registers an empty pool for a and b and its LP asset.
func (v *Venue) CreatePool(creator models.AccountID, a, b models.AssetKind) (*Pool, error) {
	key, ok := v.PoolKeyFor(a, b)
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrInvalidAssetPair, a, b)
	}
	if _, exists := v.pools[key]; exists {
		return nil, fmt.Errorf("%w: %s", ErrPoolExists, key)
	}
	for _, asset := range []models.AssetKind{a, b} {
		if !v.ledger.Known(asset) {
			return nil, fmt.Errorf("%w: %s", ledger.ErrUnknownAsset, asset)
		}
	}

	lpID := v.nextLP
	for v.ledger.AssetExists(lpID) {
		lpID++
	}
	account := PoolAccount(key)
	if err := v.ledger.CreateAsset(lpID, account, 1, false); err != nil {
		return nil, err
	}
	v.ledger.IncProviders(account)
	v.nextLP = lpID + 1

	pool := &Pool{Key: key, Account: account, LPToken: lpID}
	v.pools[key] = pool
	return pool, nil
}

// QuoteExactTokensForTokens previews selling amountIn of in for out. It never
// changes state. ok is false when the pool is missing, empty, or would pay nothing.
func (v *Venue) QuoteExactTokensForTokens(in, out models.AssetKind, amountIn models.Balance, includeFee bool) (models.Balance, bool) {
	if amountIn == 0 {
		return 0, false
	}
	reserveIn, reserveOut, err := v.Reserves(in, out)
	if err != nil {
		return 0, false
	}
	var amountOut models.Balance
	if includeFee {
		amountOut, err = GetAmountOut(amountIn, reserveIn, reserveOut, v.cfg.LPFee)
	} else {
		amountOut, err = Quote(amountIn, reserveIn, reserveOut)
	}
	if err != nil || amountOut == 0 {
		return 0, false
	}
	return amountOut, true
}

// SwapExactTokensForTokens sells amountIn of in from who and credits the output
// to sendTo. keepAlive keeps who above the minimum balance of in.
func (v *Venue) SwapExactTokensForTokens(who models.AccountID, in, out models.AssetKind, amountIn, amountOutMin models.Balance, sendTo models.AccountID, keepAlive bool) (models.Balance, error) {
	if amountIn == 0 {
		return 0, ErrZeroAmount
	}
	pool, ok := v.Pool(in, out)
	if !ok {
		return 0, fmt.Errorf("%w: %s/%s", ErrPoolNotFound, in, out)
	}
	reserveIn := v.ledger.Balance(in, pool.Account)
	reserveOut := v.ledger.Balance(out, pool.Account)

	amountOut, err := GetAmountOut(amountIn, reserveIn, reserveOut, v.cfg.LPFee)
	if err != nil {
		return 0, err
	}
	if amountOut < amountOutMin {
		return 0, fmt.Errorf("%w: got %d, want at least %d", ErrProvidedMinimumNotSufficientForSwap, amountOut, amountOutMin)
	}
	if amountOut == 0 {
		return 0, ErrZeroAmount
	}
	minReserve, err := v.ledger.MinBalance(out)
	if err != nil {
		return 0, err
	}
	if reserveOut-amountOut < minReserve {
		return 0, ErrReserveLeftLessThanMinimal
	}

	if err := v.ledger.Transfer(in, who, pool.Account, amountIn, ledger.KeepAlive(keepAlive)); err != nil {
		return 0, err
	}
	if err := v.ledger.Transfer(out, pool.Account, sendTo, amountOut, ledger.Preserve); err != nil {
		return 0, err
	}
	return amountOut, nil
}

// Checkpoint captures the pool registry. Reserves live on the ledger and are
// restored by its own checkpoint.
func (v *Venue) Checkpoint() (restore func()) {
	pools := maps.Clone(v.pools)
	next := v.nextLP
	return func() {
		v.pools = pools
		v.nextLP = next
	}
}
