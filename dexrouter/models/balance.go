package models

import (
	"errors"
	"fmt"
	"math/bits"
	"strconv"
	"strings"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// Balance is an amount of any asset in its smallest unit.
type Balance uint64

var ErrBalanceOverflow = errors.New("balance arithmetic overflow")

// CheckedAdd returns b+o and false on overflow.
func (b Balance) CheckedAdd(o Balance) (Balance, bool) {
	sum, carry := bits.Add64(uint64(b), uint64(o), 0)
	return Balance(sum), carry == 0
}

// CheckedSub returns b-o and false on underflow.
func (b Balance) CheckedSub(o Balance) (Balance, bool) {
	diff, borrow := bits.Sub64(uint64(b), uint64(o), 0)
	return Balance(diff), borrow == 0
}

func (b Balance) String() string { return strconv.FormatUint(uint64(b), 10) }

func (b Balance) U256() *uint256.Int { return uint256.NewInt(uint64(b)) }

// BalanceFromU256 narrows v back to a Balance. ok is false when v does not fit.
func BalanceFromU256(v *uint256.Int) (Balance, bool) {
	if !v.IsUint64() {
		return 0, false
	}
	return Balance(v.Uint64()), true
}

// Balances travel as decimal strings in JSON so 64-bit values survive JavaScript clients.

func (b Balance) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *Balance) UnmarshalText(text []byte) error {
	v, err := strconv.ParseUint(strings.TrimSpace(string(text)), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid balance %q: %w", text, err)
	}
	*b = Balance(v)
	return nil
}

// PermillDenominator is one whole in parts per million.
const PermillDenominator = 1_000_000

// Permill is a ratio in parts per million, at most 1_000_000.
type Permill uint32

var ErrPermillRange = errors.New("permill must be between 0 and 1")

// PermillFromParts builds a ratio of parts/1_000_000.
func PermillFromParts(parts uint32) (Permill, error) {
	if parts > PermillDenominator {
		return 0, fmt.Errorf("%w: %d parts", ErrPermillRange, parts)
	}
	return Permill(parts), nil
}

// PermillFromRational builds num/den, which must be exactly representable in ppm.
func PermillFromRational(num, den uint64) (Permill, error) {
	if den == 0 {
		return 0, errors.New("permill denominator is zero")
	}
	return permillFromDecimal(decimal.NewFromUint64(num).Div(decimal.NewFromUint64(den)))
}

// ParsePermill accepts a decimal fraction ("0.002") or a percentage ("0.2%").
func ParsePermill(s string) (Permill, error) {
	s = strings.TrimSpace(s)
	percent := strings.HasSuffix(s, "%")
	d, err := decimal.NewFromString(strings.TrimSuffix(s, "%"))
	if err != nil {
		return 0, fmt.Errorf("invalid rate %q: %w", s, err)
	}
	if percent {
		d = d.Shift(-2)
	}
	return permillFromDecimal(d)
}

func permillFromDecimal(d decimal.Decimal) (Permill, error) {
	if d.IsNegative() || d.GreaterThan(decimal.NewFromInt(1)) {
		return 0, fmt.Errorf("%w: %s", ErrPermillRange, d.String())
	}
	parts := d.Shift(6)
	if !parts.Equal(parts.Truncate(0)) {
		return 0, fmt.Errorf("rate %s is finer than one part per million", d.String())
	}
	return Permill(parts.IntPart()), nil
}

func (p Permill) Parts() uint32 { return uint32(p) }

// Decimal returns the ratio as a fraction of one.
func (p Permill) Decimal() decimal.Decimal {
	return decimal.New(int64(p), -6)
}

func (p Permill) String() string {
	return p.Decimal().Shift(2).String() + "%"
}

// MulFloor returns floor(b * p / 1_000_000). The product is computed in 256 bits
// so it cannot overflow, and the result never exceeds b.
func (p Permill) MulFloor(b Balance) Balance {
	prod := new(uint256.Int).Mul(b.U256(), uint256.NewInt(uint64(p)))
	prod.Div(prod, uint256.NewInt(PermillDenominator))
	return Balance(prod.Uint64())
}

func (p Permill) MarshalText() ([]byte, error) {
	return []byte(p.Decimal().String()), nil
}

func (p *Permill) UnmarshalText(text []byte) error {
	parsed, err := ParsePermill(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
