package router

import (
	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/ledger"
	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/models"
)

// DefaultFeeRate is 0.2%.
const DefaultFeeRate models.Permill = 2_000

// SplitFee divides amountIn into the router fee, rounded down, and the amount
// forwarded to the venue. fee + effective always equals amountIn.
func SplitFee(amountIn models.Balance, rate models.Permill) (fee, effective models.Balance, err error) {
	if rate > models.PermillDenominator {
		return 0, 0, ErrFeeCalculationFailed
	}
	fee = rate.MulFloor(amountIn)
	effective, ok := amountIn.CheckedSub(fee)
	if !ok {
		return 0, 0, ErrFeeCalculationFailed
	}
	if total, ok := fee.CheckedAdd(effective); !ok || total != amountIn {
		return 0, 0, ErrFeeCalculationFailed
	}
	return fee, effective, nil
}

// FeeLedger is the part of the ledger fee collectors need.
type FeeLedger interface {
	Transfer(asset models.AssetKind, from, to models.AccountID, amount models.Balance, preservation ledger.Preservation) error
	Burn(asset models.AssetKind, who models.AccountID, amount models.Balance, preservation ledger.Preservation) error
}

// TreasuryCollector sends the fee, in the input asset, to a treasury account.
// The payer may be reaped by the transfer if the ledger allows it.
type TreasuryCollector struct {
	Ledger   FeeLedger
	Treasury models.AccountID
}

func (c TreasuryCollector) CollectFee(payer models.AccountID, asset models.AssetKind, amount models.Balance) error {
	if amount == 0 {
		return nil
	}
	return c.Ledger.Transfer(asset, payer, c.Treasury, amount, ledger.Expendable)
}

// BurnCollector destroys the fee, reducing the supply of the input asset.
type BurnCollector struct {
	Ledger FeeLedger
}

func (c BurnCollector) CollectFee(payer models.AccountID, asset models.AssetKind, amount models.Balance) error {
	if amount == 0 {
		return nil
	}
	return c.Ledger.Burn(asset, payer, amount, ledger.Expendable)
}
