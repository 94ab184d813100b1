package models

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcutil/bech32"
	"github.com/zeebo/blake3"
)

// AccountPrefix is the bech32 human readable part of account addresses.
const AccountPrefix = "spx"

// AccountID is a 32 byte ledger account identifier.
type AccountID [32]byte

// DeriveAccount hashes the domain tag and parts into an account id.
// Pool, treasury and development accounts are all derived this way.
func DeriveAccount(domain string, parts ...[]byte) AccountID {
	h := blake3.New()
	h.Write([]byte(domain))
	for _, p := range parts {
		h.Write(p)
	}
	var id AccountID
	h.Digest().Read(id[:])
	return id
}

// DevAccount returns the well known development account for name ("alice", "bob", ...).
func DevAccount(name string) AccountID {
	return DeriveAccount("spectra/dev-account/", []byte(strings.ToLower(name)))
}

func (a AccountID) IsZero() bool { return a == AccountID{} }

// String encodes the account as a bech32 address.
func (a AccountID) String() string {
	conv, err := bech32.ConvertBits(a[:], 8, 5, true)
	if err != nil {
		return hex.EncodeToString(a[:])
	}
	addr, err := bech32.Encode(AccountPrefix, conv)
	if err != nil {
		return hex.EncodeToString(a[:])
	}
	return addr
}

// ParseAccountID decodes a bech32 address with the spx prefix, a 64 character hex
// string, or a "dev:<name>" development account alias.
func ParseAccountID(s string) (AccountID, error) {
	s = strings.TrimSpace(s)
	if name, ok := strings.CutPrefix(s, "dev:"); ok {
		if name == "" {
			return AccountID{}, fmt.Errorf("empty development account name")
		}
		return DevAccount(name), nil
	}
	if len(s) == 64 {
		raw, err := hex.DecodeString(s)
		if err == nil {
			var id AccountID
			copy(id[:], raw)
			return id, nil
		}
	}

	hrp, data, err := bech32.Decode(s)
	if err != nil {
		return AccountID{}, fmt.Errorf("failed to decode address: %w", err)
	}
	if hrp != AccountPrefix {
		return AccountID{}, fmt.Errorf("unexpected address prefix %q, want %q", hrp, AccountPrefix)
	}
	raw, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return AccountID{}, fmt.Errorf("failed to convert address bits: %w", err)
	}
	if len(raw) != len(AccountID{}) {
		return AccountID{}, fmt.Errorf("address decodes to %d bytes, want 32", len(raw))
	}
	var id AccountID
	copy(id[:], raw)
	return id, nil
}

func (a AccountID) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *AccountID) UnmarshalText(text []byte) error {
	id, err := ParseAccountID(string(text))
	if err != nil {
		return err
	}
	*a = id
	return nil
}
