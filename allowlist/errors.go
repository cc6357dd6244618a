package allowlist

import "errors"

var (
	// ErrEmptyAllowlist indicates a tree was requested over zero identities.
	ErrEmptyAllowlist = errors.New("allowlist: no identities")

	// ErrNotMember indicates the identity is not a leaf of the tree.
	ErrNotMember = errors.New("allowlist: identity not in allowlist")

	// ErrInvalidProof indicates a proof that cannot be decoded or is too deep.
	ErrInvalidProof = errors.New("allowlist: invalid proof")
)
