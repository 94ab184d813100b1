package models

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// MaxPathLength bounds the number of assets a SwapPath can carry.
const MaxPathLength = 5

var ErrPathTooLong = fmt.Errorf("swap path exceeds %d assets", MaxPathLength)

// SwapPath is an ordered, bounded sequence of assets. Only a path of exactly two
// assets (a single direct hop) is routable; longer paths can be represented so they
// can be rejected explicitly.
type SwapPath struct {
	assets [MaxPathLength]AssetKind
	n      int
}

// NewSwapPath builds a path from the given assets. More than MaxPathLength assets
// is an error, the input is never truncated.
func NewSwapPath(assets ...AssetKind) (SwapPath, error) {
	if len(assets) > MaxPathLength {
		return SwapPath{}, fmt.Errorf("%w: got %d", ErrPathTooLong, len(assets))
	}
	var p SwapPath
	p.n = copy(p.assets[:], assets)
	return p, nil
}

// MustSwapPath is NewSwapPath for fixed inputs. It panics on an oversized path.
func MustSwapPath(assets ...AssetKind) SwapPath {
	p, err := NewSwapPath(assets...)
	if err != nil {
		panic(err)
	}
	return p
}

func (p SwapPath) Len() int { return p.n }

// Valid reports whether the path is a single direct hop.
func (p SwapPath) Valid() bool { return p.n == 2 }

// First returns the input asset. ok is false for an empty path.
func (p SwapPath) First() (AssetKind, bool) {
	if p.n < 1 {
		return AssetKind{}, false
	}
	return p.assets[0], true
}

// Second returns the output asset. ok is false when the path has fewer than two assets.
func (p SwapPath) Second() (AssetKind, bool) {
	if p.n < 2 {
		return AssetKind{}, false
	}
	return p.assets[1], true
}

// Assets returns a copy of the path's assets.
func (p SwapPath) Assets() []AssetKind {
	out := make([]AssetKind, p.n)
	copy(out, p.assets[:p.n])
	return out
}

func (p SwapPath) String() string {
	parts := make([]string, p.n)
	for i := range p.n {
		parts[i] = p.assets[i].String()
	}
	return strings.Join(parts, " -> ")
}

// MarshalBinary writes a count byte followed by every asset prefixed with its
// uvarint encoded length.
func (p SwapPath) MarshalBinary() ([]byte, error) {
	buf := []byte{byte(p.n)}
	for i := range p.n {
		enc, err := p.assets[i].MarshalBinary()
		if err != nil {
			return nil, err
		}
		buf = binary.AppendUvarint(buf, uint64(len(enc)))
		buf = append(buf, enc...)
	}
	return buf, nil
}

func (p *SwapPath) UnmarshalBinary(data []byte) error {
	if len(data) == 0 {
		return errors.New("swap path encoding is empty")
	}
	count := int(data[0])
	if count > MaxPathLength {
		return fmt.Errorf("%w: got %d", ErrPathTooLong, count)
	}
	data = data[1:]
	var out SwapPath
	for i := range count {
		size, read := binary.Uvarint(data)
		if read <= 0 || uint64(len(data)-read) < size {
			return fmt.Errorf("%w at path index %d", ErrTruncatedAsset, i)
		}
		data = data[read:]
		if err := out.assets[i].UnmarshalBinary(data[:size]); err != nil {
			return fmt.Errorf("path index %d: %w", i, err)
		}
		data = data[size:]
	}
	if len(data) != 0 {
		return fmt.Errorf("swap path carries %d trailing bytes", len(data))
	}
	out.n = count
	*p = out
	return nil
}

func (p SwapPath) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText accepts assets separated by "->" or ",".
func (p *SwapPath) UnmarshalText(text []byte) error {
	raw := strings.ReplaceAll(string(text), "->", ",")
	var assets []AssetKind
	for part := range strings.SplitSeq(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		a, err := ParseAsset(part)
		if err != nil {
			return err
		}
		assets = append(assets, a)
	}
	parsed, err := NewSwapPath(assets...)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
