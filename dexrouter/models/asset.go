package models

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Asset discriminants. New variants are appended, existing values never change.
const (
	AssetTagNative uint8 = 0
	AssetTagLocal  uint8 = 1
)

var (
	ErrEmptyAsset     = errors.New("asset encoding is empty")
	ErrTruncatedAsset = errors.New("asset encoding is truncated")
	ErrAssetText      = errors.New("invalid asset identifier")
)

// AssetKind identifies a fungible asset on the ledger: the chain's native currency
// or a locally issued asset with a numeric id.
//
// The zero value is Native. AssetKind is comparable and can be used as a map key.
// Variants this build does not know about keep their raw payload so they survive
// a decode/encode round trip unchanged.
type AssetKind struct {
	tag     uint8
	id      uint32
	payload string
}

// Native returns the native currency.
func Native() AssetKind { return AssetKind{tag: AssetTagNative} }

// Local returns the locally issued asset with the given id.
func Local(id uint32) AssetKind { return AssetKind{tag: AssetTagLocal, id: id} }

func (a AssetKind) Tag() uint8 { return a.tag }

func (a AssetKind) IsNative() bool { return a.tag == AssetTagNative }

// LocalID returns the asset id and true when a is a Local asset.
func (a AssetKind) LocalID() (uint32, bool) {
	if a.tag != AssetTagLocal {
		return 0, false
	}
	return a.id, true
}

// Known reports whether a is a variant this build understands.
func (a AssetKind) Known() bool {
	return a.tag == AssetTagNative || a.tag == AssetTagLocal
}

func (a AssetKind) Equal(b AssetKind) bool { return a == b }

// Compare orders assets by discriminant, then id, then raw payload.
// It returns -1, 0 or +1.
func (a AssetKind) Compare(b AssetKind) int {
	switch {
	case a.tag < b.tag:
		return -1
	case a.tag > b.tag:
		return 1
	case a.id < b.id:
		return -1
	case a.id > b.id:
		return 1
	}
	return strings.Compare(a.payload, b.payload)
}

// MarshalBinary encodes the asset as a one byte discriminant followed by its payload.
// Local ids are little-endian u32.
func (a AssetKind) MarshalBinary() ([]byte, error) {
	return a.AppendBinary(nil)
}

func (a AssetKind) AppendBinary(dst []byte) ([]byte, error) {
	dst = append(dst, a.tag)
	switch a.tag {
	case AssetTagNative:
	case AssetTagLocal:
		dst = binary.LittleEndian.AppendUint32(dst, a.id)
	default:
		dst = append(dst, a.payload...)
	}
	return dst, nil
}

// UnmarshalBinary decodes a single asset occupying all of data.
func (a *AssetKind) UnmarshalBinary(data []byte) error {
	if len(data) == 0 {
		return ErrEmptyAsset
	}
	tag := data[0]
	rest := data[1:]
	switch tag {
	case AssetTagNative:
		if len(rest) != 0 {
			return fmt.Errorf("native asset carries %d trailing bytes", len(rest))
		}
		*a = Native()
	case AssetTagLocal:
		if len(rest) != 4 {
			return fmt.Errorf("%w: local asset needs 4 bytes, got %d", ErrTruncatedAsset, len(rest))
		}
		*a = Local(binary.LittleEndian.Uint32(rest))
	default:
		*a = AssetKind{tag: tag, payload: string(rest)}
	}
	return nil
}

// String returns the text form: "native", "local:<id>", or "asset<tag>:<hex>"
// for variants this build does not know.
func (a AssetKind) String() string {
	switch a.tag {
	case AssetTagNative:
		return "native"
	case AssetTagLocal:
		return "local:" + strconv.FormatUint(uint64(a.id), 10)
	default:
		return "asset" + strconv.Itoa(int(a.tag)) + ":" + hex.EncodeToString([]byte(a.payload))
	}
}

func (a AssetKind) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *AssetKind) UnmarshalText(text []byte) error {
	parsed, err := ParseAsset(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAsset parses the text form produced by String.
func ParseAsset(s string) (AssetKind, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "native" {
		return Native(), nil
	}
	if idStr, ok := strings.CutPrefix(s, "local:"); ok {
		id, err := strconv.ParseUint(idStr, 10, 32)
		if err != nil {
			return AssetKind{}, fmt.Errorf("%w %q: %v", ErrAssetText, s, err)
		}
		return Local(uint32(id)), nil
	}
	if rest, ok := strings.CutPrefix(s, "asset"); ok {
		tagStr, payloadHex, found := strings.Cut(rest, ":")
		if !found {
			return AssetKind{}, fmt.Errorf("%w %q", ErrAssetText, s)
		}
		tag, err := strconv.ParseUint(tagStr, 10, 8)
		if err != nil {
			return AssetKind{}, fmt.Errorf("%w %q: %v", ErrAssetText, s, err)
		}
		payload, err := hex.DecodeString(payloadHex)
		if err != nil {
			return AssetKind{}, fmt.Errorf("%w %q: %v", ErrAssetText, s, err)
		}
		var a AssetKind
		if err := a.UnmarshalBinary(append([]byte{uint8(tag)}, payload...)); err != nil {
			return AssetKind{}, err
		}
		return a, nil
	}
	return AssetKind{}, fmt.Errorf("%w %q", ErrAssetText, s)
}
