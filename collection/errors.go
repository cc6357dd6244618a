package collection

import "errors"

var (
	// ErrInvalidStateData indicates a persisted collection state is malformed.
	ErrInvalidStateData = errors.New("collection: invalid state data")

	// ErrInvalidRecordData indicates a persisted mint record is malformed.
	ErrInvalidRecordData = errors.New("collection: invalid mint record data")

	// ErrInvalidTokenData indicates a persisted token record is malformed.
	ErrInvalidTokenData = errors.New("collection: invalid token data")

	// ErrUnknownVersion indicates a layout version of zero or an unrecognised tag.
	ErrUnknownVersion = errors.New("collection: unknown layout version")

	// ErrFieldTooLong indicates a string or list that does not fit its length prefix.
	ErrFieldTooLong = errors.New("collection: field too long")

	// ErrInvalidID indicates a collection ID that is not 32 bytes of hex.
	ErrInvalidID = errors.New("collection: invalid collection ID")
)
