// Package payment describes the funds attached to a mint: a single-use
// payment reference with an amount, the ledger entry recorded when the
// reference is consumed, and verification of BSV transactions paying a
// treasury address.
package payment

import (
	"encoding/hex"
	"fmt"
	"math/bits"
)

// RefSize is the size of a payment reference.
const RefSize = 32

// Ref identifies a payment. For transaction payments it is the txid.
type Ref [RefSize]byte

// String returns the hex encoding of the reference.
func (r Ref) String() string {
	return hex.EncodeToString(r[:])
}

// IsZero reports whether r is unset.
func (r Ref) IsZero() bool {
	return r == Ref{}
}

// MarshalText implements encoding.TextMarshaler.
func (r Ref) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Ref) UnmarshalText(text []byte) error {
	parsed, err := ParseRef(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseRef parses a hex-encoded payment reference.
func ParseRef(s string) (Ref, error) {
	var r Ref
	b, err := hex.DecodeString(s)
	if err != nil {
		return r, fmt.Errorf("%w: %v", ErrInvalidRef, err)
	}
	if len(b) != RefSize {
		return r, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidRef, RefSize, len(b))
	}
	copy(r[:], b)
	return r, nil
}

// Payment is the funding presented with a mint request.
type Payment struct {
	Ref    Ref
	Amount uint64 // base units available to the mint
}

// Total returns price*units. ok is false on overflow.
func Total(price, units uint64) (total uint64, ok bool) {
	hi, lo := bits.Mul64(price, units)
	return lo, hi == 0
}

// Covers reports whether p pays at least price*units. An overflowing total
// can never be covered.
func (p Payment) Covers(price, units uint64) bool {
	total, ok := Total(price, units)
	return ok && p.Amount >= total
}
