package api

import (
	"errors"
	"net/http"

	"github.com/bitfsorg/nftstages-go/collection"
	"github.com/bitfsorg/nftstages-go/engine"
	"github.com/bitfsorg/nftstages-go/identity"
	"github.com/bitfsorg/nftstages-go/instruction"
	"github.com/bitfsorg/nftstages-go/payment"
)

// ErrorResponse is the body of every failed request. Code is the engine
// error code, or 0 for errors outside the engine.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  uint32 `json:"code,omitempty"`
}

// badRequest lists non-engine errors caused by the request itself.
var badRequest = []error{
	collection.ErrInvalidID,
	identity.ErrInvalidIdentity,
	instruction.ErrInvalidEnvelope,
	instruction.ErrInvalidPayload,
	instruction.ErrUnknownKind,
	instruction.ErrNoTreasury,
	payment.ErrInvalidTx,
	payment.ErrInvalidAddress,
	payment.ErrNoMatchingOutput,
}

// statusFor maps err to an HTTP status and engine code.
func statusFor(err error) (int, uint32) {
	if code, category, ok := engine.CodeOf(err); ok {
		switch {
		case errors.Is(err, engine.ErrCollectionNotFound), errors.Is(err, engine.ErrTokenNotFound):
			return http.StatusNotFound, uint32(code)
		case category == engine.CategoryAuthorization:
			return http.StatusForbidden, uint32(code)
		case category == engine.CategoryConfiguration:
			return http.StatusBadRequest, uint32(code)
		case category == engine.CategoryPayment:
			return http.StatusPaymentRequired, uint32(code)
		default:
			return http.StatusConflict, uint32(code)
		}
	}
	if errors.Is(err, instruction.ErrBadSignature) || errors.Is(err, instruction.ErrStale) {
		return http.StatusForbidden, 0
	}
	if errors.Is(err, instruction.ErrUnattestedPayment) {
		return http.StatusPaymentRequired, 0
	}
	for _, target := range badRequest {
		if errors.Is(err, target) {
			return http.StatusBadRequest, 0
		}
	}
	return http.StatusInternalServerError, 0
}
