package models_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/models"
	"github.com/zeebo/assert"
)

func TestAssetKind_Ordering(t *testing.T) {
	assert.Equal(t, models.Native().Compare(models.Local(0)), -1)
	assert.Equal(t, models.Local(2).Compare(models.Local(1)), 1)
	assert.Equal(t, models.Local(7).Compare(models.Local(7)), 0)
	assert.True(t, models.Local(7).Equal(models.Local(7)))
	assert.False(t, models.Native().Equal(models.Local(0)))

	var zero models.AssetKind
	assert.True(t, zero.IsNative())
}

func TestAssetKind_BinaryEncoding(t *testing.T) {
	enc, err := models.Local(0x01020304).MarshalBinary()
	assert.NoError(t, err)
	if !bytes.Equal(enc, []byte{1, 4, 3, 2, 1}) {
		t.Errorf("unexpected local encoding %x", enc)
	}

	enc, err = models.Native().MarshalBinary()
	assert.NoError(t, err)
	if !bytes.Equal(enc, []byte{0}) {
		t.Errorf("unexpected native encoding %x", enc)
	}

	var a models.AssetKind
	assert.Error(t, a.UnmarshalBinary(nil))
	assert.Error(t, a.UnmarshalBinary([]byte{1, 0xff}))
	assert.Error(t, a.UnmarshalBinary([]byte{0, 0}))
}

func TestAssetKind_UnknownVariantRoundTrip(t *testing.T) {
	raw := []byte{9, 0xde, 0xad, 0xbe, 0xef}

	var a models.AssetKind
	assert.NoError(t, a.UnmarshalBinary(raw))
	assert.False(t, a.Known())
	assert.Equal(t, a.Tag(), uint8(9))

	enc, err := a.MarshalBinary()
	assert.NoError(t, err)
	if !bytes.Equal(enc, raw) {
		t.Errorf("unknown variant did not round trip: got %x want %x", enc, raw)
	}

	parsed, err := models.ParseAsset(a.String())
	assert.NoError(t, err)
	assert.True(t, parsed.Equal(a))
}

func TestParseAsset(t *testing.T) {
	tests := []struct {
		in      string
		want    models.AssetKind
		wantErr bool
	}{
		{"native", models.Native(), false},
		{" Native ", models.Native(), false},
		{"local:1", models.Local(1), false},
		{"local:4294967295", models.Local(4294967295), false},
		{"local:4294967296", models.AssetKind{}, true},
		{"local:", models.AssetKind{}, true},
		{"usdc", models.AssetKind{}, true},
	}

	for _, tt := range tests {
		got, err := models.ParseAsset(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseAsset(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseAsset(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseAsset(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestSwapPath_Bounds(t *testing.T) {
	p, err := models.NewSwapPath(models.Native(), models.Local(1))
	assert.NoError(t, err)
	assert.True(t, p.Valid())
	first, ok := p.First()
	assert.True(t, ok)
	assert.Equal(t, first, models.Native())
	second, ok := p.Second()
	assert.True(t, ok)
	assert.Equal(t, second, models.Local(1))

	three := models.MustSwapPath(models.Native(), models.Local(1), models.Local(2))
	assert.False(t, three.Valid())
	assert.Equal(t, three.Len(), 3)

	one := models.MustSwapPath(models.Native())
	assert.False(t, one.Valid())
	_, ok = one.Second()
	assert.False(t, ok)

	_, err = models.NewSwapPath(
		models.Native(), models.Local(1), models.Local(2),
		models.Local(3), models.Local(4), models.Local(5),
	)
	assert.True(t, errors.Is(err, models.ErrPathTooLong))
}

func TestSwapPath_Encoding(t *testing.T) {
	var unknown models.AssetKind
	assert.NoError(t, unknown.UnmarshalBinary([]byte{3, 0xaa}))

	p := models.MustSwapPath(models.Local(5), unknown, models.Native())
	enc, err := p.MarshalBinary()
	assert.NoError(t, err)

	var decoded models.SwapPath
	assert.NoError(t, decoded.UnmarshalBinary(enc))
	assert.Equal(t, decoded.Len(), 3)
	assert.Equal(t, decoded.String(), p.String())

	assert.Error(t, decoded.UnmarshalBinary([]byte{6}))
	assert.Error(t, decoded.UnmarshalBinary(enc[:len(enc)-1]))

	var text models.SwapPath
	assert.NoError(t, text.UnmarshalText([]byte("native -> local:1")))
	assert.True(t, text.Valid())
}

func TestPermill_MulFloor(t *testing.T) {
	rate, err := models.PermillFromRational(3, 1000)
	assert.NoError(t, err)
	assert.Equal(t, rate.Parts(), uint32(3000))

	assert.Equal(t, rate.MulFloor(1000), models.Balance(3))
	assert.Equal(t, rate.MulFloor(999), models.Balance(2))
	assert.Equal(t, rate.MulFloor(0), models.Balance(0))

	full, err := models.PermillFromParts(models.PermillDenominator)
	assert.NoError(t, err)
	max := models.Balance(^uint64(0))
	assert.Equal(t, full.MulFloor(max), max)

	_, err = models.PermillFromParts(models.PermillDenominator + 1)
	assert.True(t, errors.Is(err, models.ErrPermillRange))
}

func TestParsePermill(t *testing.T) {
	p, err := models.ParsePermill("0.002")
	assert.NoError(t, err)
	assert.Equal(t, p, models.Permill(2000))

	p, err = models.ParsePermill("0.3%")
	assert.NoError(t, err)
	assert.Equal(t, p, models.Permill(3000))

	_, err = models.ParsePermill("0.0000001")
	assert.Error(t, err)
	_, err = models.ParsePermill("1.5")
	assert.Error(t, err)
	_, err = models.ParsePermill("-0.1")
	assert.Error(t, err)
}

func TestBalance_Checked(t *testing.T) {
	max := models.Balance(^uint64(0))
	_, ok := max.CheckedAdd(1)
	assert.False(t, ok)
	_, ok = models.Balance(0).CheckedSub(1)
	assert.False(t, ok)
	sum, ok := models.Balance(3).CheckedAdd(997)
	assert.True(t, ok)
	assert.Equal(t, sum, models.Balance(1000))
}

func TestAccountID_Bech32(t *testing.T) {
	alice := models.DevAccount("alice")
	assert.False(t, alice.IsZero())
	assert.True(t, alice != models.DevAccount("bob"))

	addr := alice.String()
	if addr[:4] != models.AccountPrefix+"1" {
		t.Errorf("unexpected address %s", addr)
	}

	parsed, err := models.ParseAccountID(addr)
	assert.NoError(t, err)
	assert.Equal(t, parsed, alice)

	viaAlias, err := models.ParseAccountID("dev:Alice")
	assert.NoError(t, err)
	assert.Equal(t, viaAlias, alice)

	_, err = models.ParseAccountID("cosmos1qqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqq")
	assert.Error(t, err)
}
