// Package ledger keeps account balances for the native currency and locally issued
// assets, together with the account reference counts that decide when an account
// may be reaped.
//
// A Ledger is not safe for concurrent use. The runtime serializes every call.
package ledger

import (
	"fmt"
	"maps"
	"slices"

	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/models"
)

// Preservation controls whether a debit may reap the debited account.
type Preservation int

const (
	// Expendable allows the account to be reaped if nothing depends on it.
	Expendable Preservation = iota
	// Preserve keeps the account alive; a debit that would drop it below its
	// minimum balance fails with ErrNotExpendable.
	Preserve
)

func (p Preservation) String() string {
	if p == Preserve {
		return "preserve"
	}
	return "expendable"
}

// KeepAlive maps a caller's keep-alive flag to a Preservation.
func KeepAlive(keepAlive bool) Preservation {
	if keepAlive {
		return Preserve
	}
	return Expendable
}

// AccountInfo carries the reference counts of an account.
//
// Providers and Sufficients keep the account in existence. Consumers count the
// local asset holdings that need a provider.
type AccountInfo struct {
	Providers   uint32 `json:"providers"`
	Consumers   uint32 `json:"consumers"`
	Sufficients uint32 `json:"sufficients"`
}

func (a AccountInfo) exists() bool { return a.Providers+a.Sufficients > 0 }

// AssetDetails describes a locally issued asset.
type AssetDetails struct {
	ID         uint32           `json:"id"`
	Owner      models.AccountID `json:"owner"`
	MinBalance models.Balance   `json:"min_balance"`
	Sufficient bool             `json:"sufficient"` // holding it keeps an account alive
	Supply     models.Balance   `json:"supply"`
	Accounts   int              `json:"accounts"`
}

type assetState struct {
	details  AssetDetails
	balances map[models.AccountID]models.Balance
}

func (a *assetState) clone() *assetState {
	return &assetState{details: a.details, balances: maps.Clone(a.balances)}
}

// Ledger is an in-memory balance store.
type Ledger struct {
	existentialDeposit models.Balance
	native             map[models.AccountID]models.Balance
	nativeIssuance     models.Balance
	assets             map[uint32]*assetState
	accounts           map[models.AccountID]AccountInfo
}

// New returns an empty ledger whose native currency has the given existential deposit.
func New(existentialDeposit models.Balance) *Ledger {
	if existentialDeposit == 0 {
		existentialDeposit = 1
	}
	return &Ledger{
		existentialDeposit: existentialDeposit,
		native:             make(map[models.AccountID]models.Balance),
		assets:             make(map[uint32]*assetState),
		accounts:           make(map[models.AccountID]AccountInfo),
	}
}

func (l *Ledger) ExistentialDeposit() models.Balance { return l.existentialDeposit }

// CreateAsset registers a new local asset.
func (l *Ledger) CreateAsset(id uint32, owner models.AccountID, minBalance models.Balance, sufficient bool) error {
	if _, ok := l.assets[id]; ok {
		return fmt.Errorf("%w: local:%d", ErrAssetExists, id)
	}
	if minBalance == 0 {
		return ErrZeroMinimum
	}
	l.assets[id] = &assetState{
		details: AssetDetails{
			ID:         id,
			Owner:      owner,
			MinBalance: minBalance,
			Sufficient: sufficient,
		},
		balances: make(map[models.AccountID]models.Balance),
	}
	return nil
}

func (l *Ledger) AssetExists(id uint32) bool {
	_, ok := l.assets[id]
	return ok
}

// Asset returns the details of a local asset.
func (l *Ledger) Asset(id uint32) (AssetDetails, bool) {
	st, ok := l.assets[id]
	if !ok {
		return AssetDetails{}, false
	}
	d := st.details
	d.Accounts = len(st.balances)
	return d, true
}

// AssetIDs lists the registered local asset ids in ascending order.
func (l *Ledger) AssetIDs() []uint32 {
	return slices.Sorted(maps.Keys(l.assets))
}

// Known reports whether asset can be held on this ledger.
func (l *Ledger) Known(asset models.AssetKind) bool {
	if asset.IsNative() {
		return true
	}
	id, ok := asset.LocalID()
	return ok && l.AssetExists(id)
}

// Balance returns the free balance of who in asset. Unknown assets read as zero.
func (l *Ledger) Balance(asset models.AssetKind, who models.AccountID) models.Balance {
	if asset.IsNative() {
		return l.native[who]
	}
	id, ok := asset.LocalID()
	if !ok {
		return 0
	}
	st, ok := l.assets[id]
	if !ok {
		return 0
	}
	return st.balances[who]
}

// TotalIssuance returns the total supply of asset.
func (l *Ledger) TotalIssuance(asset models.AssetKind) models.Balance {
	if asset.IsNative() {
		return l.nativeIssuance
	}
	id, ok := asset.LocalID()
	if !ok {
		return 0
	}
	if st, ok := l.assets[id]; ok {
		return st.details.Supply
	}
	return 0
}

// Account returns the reference counts of who. ok is false for accounts that do not exist.
func (l *Ledger) Account(who models.AccountID) (AccountInfo, bool) {
	info, ok := l.accounts[who]
	return info, ok
}

// MinBalance returns the minimum balance an account may hold of asset.
func (l *Ledger) MinBalance(asset models.AssetKind) (models.Balance, error) {
	if asset.IsNative() {
		return l.existentialDeposit, nil
	}
	st, err := l.asset(asset)
	if err != nil {
		return 0, err
	}
	return st.details.MinBalance, nil
}

// IncProviders adds a provider reference to who, creating the account if needed.
// Venues use it to keep pool accounts alive independently of their balances.
func (l *Ledger) IncProviders(who models.AccountID) {
	info := l.accounts[who]
	info.Providers++
	l.accounts[who] = info
}

// DecProviders removes a provider reference added with IncProviders.
func (l *Ledger) DecProviders(who models.AccountID) error {
	info, ok := l.accounts[who]
	if !ok || info.Providers == 0 {
		return fmt.Errorf("%w: %s", ErrNoProvider, who)
	}
	if info.Providers+info.Sufficients == 1 && info.Consumers > 0 {
		return ErrConsumerRemaining
	}
	info.Providers--
	l.putAccount(who, info)
	return nil
}

func (l *Ledger) asset(asset models.AssetKind) (*assetState, error) {
	id, ok := asset.LocalID()
	if !ok {
		if asset.Known() {
			return nil, fmt.Errorf("%w: %s is not a local asset", ErrUnknownAsset, asset)
		}
		return nil, fmt.Errorf("%w: %s", ErrUnknownAsset, asset)
	}
	st, ok := l.assets[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAsset, asset)
	}
	return st, nil
}

func (l *Ledger) putAccount(who models.AccountID, info AccountInfo) {
	if info == (AccountInfo{}) {
		delete(l.accounts, who)
		return
	}
	l.accounts[who] = info
}
