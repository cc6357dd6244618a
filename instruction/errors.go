package instruction

import "errors"

var (
	// ErrInvalidEnvelope indicates an envelope that cannot be decoded.
	ErrInvalidEnvelope = errors.New("instruction: invalid envelope")

	// ErrInvalidPayload indicates a payload that does not match its kind.
	ErrInvalidPayload = errors.New("instruction: invalid payload")

	// ErrUnknownKind indicates an unrecognised instruction kind.
	ErrUnknownKind = errors.New("instruction: unknown kind")

	// ErrBadSignature indicates a missing or invalid signer signature.
	ErrBadSignature = errors.New("instruction: bad signature")

	// ErrStale indicates IssuedAt is outside the accepted clock skew.
	ErrStale = errors.New("instruction: stale or future-dated")

	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("instruction: required parameter is nil")

	// ErrNoTreasury indicates a raw-transaction payment without a configured
	// treasury address.
	ErrNoTreasury = errors.New("instruction: no treasury address configured")

	// ErrUnattestedPayment indicates a direct payment without a valid
	// attestation from the collection authority.
	ErrUnattestedPayment = errors.New("instruction: direct payment not attested by the collection authority")
)
