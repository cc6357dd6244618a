package engine

import "errors"

// Code is a stable numeric error code. Codes start at 6000.
type Code uint32

// Category groups error codes for transport mapping.
type Category uint8

const (
	CategoryUnknown Category = iota
	CategoryAuthorization
	CategoryConfiguration
	CategoryState
	CategoryCapacity
	CategoryPayment
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryAuthorization:
		return "authorization"
	case CategoryConfiguration:
		return "configuration"
	case CategoryState:
		return "state"
	case CategoryCapacity:
		return "capacity"
	case CategoryPayment:
		return "payment"
	default:
		return "unknown"
	}
}

type codeEntry struct {
	err      error
	code     Code
	category Category
}

// Codes never change once assigned; append new ones at the end.
var codeTable = []codeEntry{
	{ErrUnauthorized, 6000, CategoryAuthorization},
	{ErrAlreadyInitialized, 6001, CategoryAuthorization},
	{ErrCollectionFinalized, 6002, CategoryAuthorization},
	{ErrInvalidStageConfig, 6003, CategoryConfiguration},
	{ErrInvalidStageIndex, 6004, CategoryConfiguration},
	{ErrStageNotActive, 6005, CategoryState},
	{ErrNotEligible, 6006, CategoryState},
	{ErrCollectionPaused, 6007, CategoryState},
	{ErrPerWalletCapExceeded, 6008, CategoryCapacity},
	{ErrStageSupplyExceeded, 6009, CategoryCapacity},
	{ErrGlobalSupplyExceeded, 6010, CategoryCapacity},
	{ErrInsufficientPayment, 6011, CategoryPayment},
	{ErrPaymentReused, 6012, CategoryPayment},
	{ErrCollectionNotFound, 6013, CategoryState},
	{ErrInvalidMintRequest, 6014, CategoryConfiguration},
	{ErrTokenNotFound, 6015, CategoryState},
	{ErrInvalidCollectionConfig, 6016, CategoryConfiguration},
}

// CodeOf returns the code and category of the first engine error in err's
// chain. ok is false for errors that are not engine outcomes, such as store I/O.
func CodeOf(err error) (code Code, category Category, ok bool) {
	if err == nil {
		return 0, CategoryUnknown, false
	}
	for _, e := range codeTable {
		if errors.Is(err, e.err) {
			return e.code, e.category, true
		}
	}
	return 0, CategoryUnknown, false
}

// ErrorForCode returns the sentinel for a code, or nil.
func ErrorForCode(code Code) error {
	for _, e := range codeTable {
		if e.code == code {
			return e.err
		}
	}
	return nil
}
