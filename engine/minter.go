package engine

import (
	"fmt"

	"github.com/bitfsorg/nftstages-go/collection"
)

// TokenMinter assigns token IDs for a successful mint. It runs inside the
// mint transaction; an error aborts the whole mint.
type TokenMinter interface {
	Assign(state *collection.State, units uint64) ([]uint64, error)
}

// SequentialMinter numbers tokens 1, 2, 3, ... in mint order.
type SequentialMinter struct{}

// Assign returns TotalMinted+1 .. TotalMinted+units.
func (SequentialMinter) Assign(state *collection.State, units uint64) ([]uint64, error) {
	if units > MaxUnitsPerMint {
		return nil, fmt.Errorf("%w: %d units, at most %d per mint", ErrInvalidMintRequest, units, MaxUnitsPerMint)
	}
	if units > state.RemainingSupply() {
		return nil, fmt.Errorf("%w: %d units, %d remaining", ErrGlobalSupplyExceeded, units, state.RemainingSupply())
	}
	ids := make([]uint64, units)
	for i := range ids {
		ids[i] = state.TotalMinted + uint64(i) + 1
	}
	return ids, nil
}
