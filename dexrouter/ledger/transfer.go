package ledger

import (
	"fmt"
	"maps"

	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/models"
)

// Transfer moves amount of asset from one account to another. Zero amounts and
// transfers to self succeed without changing anything, provided the sender could
// afford them.
func (l *Ledger) Transfer(asset models.AssetKind, from, to models.AccountID, amount models.Balance, preservation Preservation) error {
	if asset.IsNative() {
		return l.transferNative(from, to, amount, preservation)
	}
	st, err := l.asset(asset)
	if err != nil {
		return err
	}
	if amount == 0 {
		return nil
	}
	if from == to {
		if st.balances[from] < amount {
			return ErrInsufficientBalance
		}
		return nil
	}
	if err := l.canCreditAsset(st, to, amount); err != nil {
		return err
	}
	if err := l.debitAsset(st, from, amount, preservation); err != nil {
		return err
	}
	l.creditAsset(st, to, amount)
	return nil
}

func (l *Ledger) transferNative(from, to models.AccountID, amount models.Balance, preservation Preservation) error {
	if amount == 0 {
		return nil
	}
	if from == to {
		if l.native[from] < amount {
			return ErrInsufficientBalance
		}
		return nil
	}
	if err := l.canCreditNative(to, amount); err != nil {
		return err
	}
	if err := l.debitNative(from, amount, preservation); err != nil {
		return err
	}
	l.creditNative(to, amount)
	return nil
}

// Mint creates amount of asset in the account of who.
func (l *Ledger) Mint(asset models.AssetKind, who models.AccountID, amount models.Balance) error {
	if amount == 0 {
		return nil
	}
	if asset.IsNative() {
		issuance, ok := l.nativeIssuance.CheckedAdd(amount)
		if !ok {
			return ErrOverflow
		}
		if err := l.canCreditNative(who, amount); err != nil {
			return err
		}
		l.creditNative(who, amount)
		l.nativeIssuance = issuance
		return nil
	}

	st, err := l.asset(asset)
	if err != nil {
		return err
	}
	supply, ok := st.details.Supply.CheckedAdd(amount)
	if !ok {
		return ErrOverflow
	}
	if err := l.canCreditAsset(st, who, amount); err != nil {
		return err
	}
	l.creditAsset(st, who, amount)
	st.details.Supply = supply
	return nil
}

// Burn destroys amount of asset held by who.
func (l *Ledger) Burn(asset models.AssetKind, who models.AccountID, amount models.Balance, preservation Preservation) error {
	if amount == 0 {
		return nil
	}
	if asset.IsNative() {
		if err := l.debitNative(who, amount, preservation); err != nil {
			return err
		}
		l.nativeIssuance -= amount
		return nil
	}
	st, err := l.asset(asset)
	if err != nil {
		return err
	}
	if err := l.debitAsset(st, who, amount, preservation); err != nil {
		return err
	}
	st.details.Supply -= amount
	return nil
}

func (l *Ledger) canCreditNative(who models.AccountID, amount models.Balance) error {
	bal := l.native[who]
	if _, ok := bal.CheckedAdd(amount); !ok {
		return ErrOverflow
	}
	if bal == 0 && amount < l.existentialDeposit {
		return fmt.Errorf("%w: %d is below the existential deposit %d", ErrBelowMinimum, amount, l.existentialDeposit)
	}
	return nil
}

func (l *Ledger) creditNative(who models.AccountID, amount models.Balance) {
	bal := l.native[who]
	if bal == 0 {
		info := l.accounts[who]
		info.Providers++
		l.accounts[who] = info
	}
	l.native[who] = bal + amount
}

// debitNative removes amount from who. A remainder below the existential deposit
// is burned and the account loses the provider its native balance gave it.
func (l *Ledger) debitNative(who models.AccountID, amount models.Balance, preservation Preservation) error {
	bal := l.native[who]
	if bal < amount {
		return fmt.Errorf("%w: has %d, needs %d", ErrInsufficientBalance, bal, amount)
	}
	remaining := bal - amount
	if remaining >= l.existentialDeposit {
		l.native[who] = remaining
		return nil
	}

	if preservation == Preserve {
		return ErrNotExpendable
	}
	info := l.accounts[who]
	if info.Providers+info.Sufficients == 1 && info.Consumers > 0 {
		return ErrConsumerRemaining
	}
	delete(l.native, who)
	l.nativeIssuance -= remaining
	info.Providers--
	l.putAccount(who, info)
	return nil
}

func (l *Ledger) canCreditAsset(st *assetState, who models.AccountID, amount models.Balance) error {
	bal := st.balances[who]
	if _, ok := bal.CheckedAdd(amount); !ok {
		return ErrOverflow
	}
	if bal > 0 {
		return nil
	}
	if amount < st.details.MinBalance {
		return fmt.Errorf("%w: %d is below the minimum %d of local:%d", ErrBelowMinimum, amount, st.details.MinBalance, st.details.ID)
	}
	if !st.details.Sufficient && !l.accounts[who].exists() {
		return fmt.Errorf("%w: local:%d", ErrNoProvider, st.details.ID)
	}
	return nil
}

func (l *Ledger) creditAsset(st *assetState, who models.AccountID, amount models.Balance) {
	bal := st.balances[who]
	if bal == 0 {
		info := l.accounts[who]
		if st.details.Sufficient {
			info.Sufficients++
		} else {
			info.Consumers++
		}
		l.accounts[who] = info
	}
	st.balances[who] = bal + amount
}

func (l *Ledger) debitAsset(st *assetState, who models.AccountID, amount models.Balance, preservation Preservation) error {
	bal := st.balances[who]
	if bal < amount {
		return fmt.Errorf("%w: has %d of local:%d, needs %d", ErrInsufficientBalance, bal, st.details.ID, amount)
	}
	remaining := bal - amount
	if remaining >= st.details.MinBalance {
		st.balances[who] = remaining
		return nil
	}

	if preservation == Preserve {
		return ErrNotExpendable
	}
	info := l.accounts[who]
	if st.details.Sufficient {
		if info.Providers+info.Sufficients == 1 && info.Consumers > 0 {
			return ErrConsumerRemaining
		}
		info.Sufficients--
	} else {
		info.Consumers--
	}
	delete(st.balances, who)
	st.details.Supply -= remaining
	l.putAccount(who, info)
	return nil
}

// Checkpoint captures the ledger state. Calling the returned function restores it.
func (l *Ledger) Checkpoint() (restore func()) {
	native := maps.Clone(l.native)
	accounts := maps.Clone(l.accounts)
	issuance := l.nativeIssuance
	assets := make(map[uint32]*assetState, len(l.assets))
	for id, st := range l.assets {
		assets[id] = st.clone()
	}
	return func() {
		l.native = native
		l.accounts = accounts
		l.nativeIssuance = issuance
		l.assets = assets
	}
}
