package payment

import "errors"

var (
	// ErrInvalidTx indicates a raw transaction that cannot be parsed.
	ErrInvalidTx = errors.New("payment: invalid transaction")

	// ErrInvalidAddress indicates a treasury address that cannot be parsed.
	ErrInvalidAddress = errors.New("payment: invalid treasury address")

	// ErrNoMatchingOutput indicates the transaction pays nothing to the treasury.
	ErrNoMatchingOutput = errors.New("payment: no output pays the treasury")

	// ErrInvalidEntryData indicates a persisted ledger entry is malformed.
	ErrInvalidEntryData = errors.New("payment: invalid ledger entry data")

	// ErrInvalidRef indicates a payment reference that is not 32 bytes of hex.
	ErrInvalidRef = errors.New("payment: invalid payment reference")
)
