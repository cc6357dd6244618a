package identity

import "errors"

var (
	// ErrInvalidIdentity indicates the bytes are not a valid compressed secp256k1 public key.
	ErrInvalidIdentity = errors.New("identity: invalid compressed public key")

	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("identity: required parameter is nil")
)
