// Package identity represents minting and authority identities as compressed
// secp256k1 public keys.
package identity

import (
	"encoding/hex"
	"fmt"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
)

// Size is the length of a compressed secp256k1 public key.
const Size = 33

// Identity is a compressed secp256k1 public key (33 bytes).
type Identity [Size]byte

// Zero is the empty identity. It never names a valid signer.
var Zero Identity

// FromPublicKey converts a go-sdk public key to an Identity.
func FromPublicKey(pub *ec.PublicKey) (Identity, error) {
	var id Identity
	if pub == nil {
		return id, fmt.Errorf("%w: public key", ErrNilParam)
	}
	b := pub.Compressed()
	if len(b) != Size {
		return id, fmt.Errorf("%w: compressed key is %d bytes", ErrInvalidIdentity, len(b))
	}
	copy(id[:], b)
	return id, nil
}

// FromBytes parses a compressed public key and checks that it is on the curve.
func FromBytes(b []byte) (Identity, error) {
	var id Identity
	if len(b) != Size {
		return id, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidIdentity, Size, len(b))
	}
	if _, err := ec.PublicKeyFromBytes(b); err != nil {
		return id, fmt.Errorf("%w: %w", ErrInvalidIdentity, err)
	}
	copy(id[:], b)
	return id, nil
}

// ParseHex parses a hex-encoded compressed public key.
func ParseHex(s string) (Identity, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrInvalidIdentity, err)
	}
	return FromBytes(b)
}

// PublicKey returns the go-sdk public key for the identity.
func (id Identity) PublicKey() (*ec.PublicKey, error) {
	pub, err := ec.PublicKeyFromBytes(id[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidIdentity, err)
	}
	return pub, nil
}

// IsZero reports whether id is the empty identity.
func (id Identity) IsZero() bool {
	return id == Zero
}

// String returns the hex encoding of the compressed key.
func (id Identity) String() string {
	return hex.EncodeToString(id[:])
}

// MarshalText implements encoding.TextMarshaler.
func (id Identity) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *Identity) UnmarshalText(text []byte) error {
	parsed, err := ParseHex(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
