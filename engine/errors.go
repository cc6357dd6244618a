package engine

import (
	"errors"

	"github.com/bitfsorg/nftstages-go/stage"
)

var (
	// ErrUnauthorized indicates the caller is not the collection authority or
	// the token owner.
	ErrUnauthorized = errors.New("engine: unauthorized")

	// ErrAlreadyInitialized indicates a collection already exists at the derived ID.
	ErrAlreadyInitialized = errors.New("engine: collection already initialized")

	// ErrCollectionFinalized indicates stage configuration is frozen because a
	// mint has happened.
	ErrCollectionFinalized = errors.New("engine: collection finalized")

	// ErrInvalidCollectionConfig indicates bad Initialize input.
	ErrInvalidCollectionConfig = errors.New("engine: invalid collection config")

	// ErrInvalidMintRequest indicates a malformed mint request.
	ErrInvalidMintRequest = errors.New("engine: invalid mint request")

	// ErrNotEligible indicates the identity failed the stage's eligibility rule.
	ErrNotEligible = errors.New("engine: not eligible")

	// ErrCollectionPaused indicates minting is paused.
	ErrCollectionPaused = errors.New("engine: collection paused")

	// ErrCollectionNotFound indicates no collection exists at the ID.
	ErrCollectionNotFound = errors.New("engine: collection not found")

	// ErrTokenNotFound indicates no token exists at the ID.
	ErrTokenNotFound = errors.New("engine: token not found")

	// ErrPerWalletCapExceeded indicates the identity would exceed the stage's
	// per-wallet cap.
	ErrPerWalletCapExceeded = errors.New("engine: per-wallet cap exceeded")

	// ErrStageSupplyExceeded indicates the stage supply cap would be exceeded.
	ErrStageSupplyExceeded = errors.New("engine: stage supply exceeded")

	// ErrGlobalSupplyExceeded indicates the collection supply cap would be exceeded.
	ErrGlobalSupplyExceeded = errors.New("engine: global supply exceeded")

	// ErrInsufficientPayment indicates the payment does not cover price * units.
	ErrInsufficientPayment = errors.New("engine: insufficient payment")

	// ErrPaymentReused indicates the payment reference already funded a mint.
	ErrPaymentReused = errors.New("engine: payment reference already used")
)

// Stage validation errors surface unchanged from the stage package.
var (
	ErrInvalidStageConfig = stage.ErrInvalidConfig
	ErrInvalidStageIndex  = stage.ErrInvalidIndex
	ErrStageNotActive     = stage.ErrNotActive
)
