// Package collection holds the persisted state of a staged collection: the
// collection header with its stage sequence, per-identity mint records and
// minted token records, together with their versioned binary layouts.
package collection

import (
	"encoding/hex"
	"fmt"

	"github.com/bitfsorg/nftstages-go/identity"
	"github.com/bitfsorg/nftstages-go/stage"
)

// LayoutV1 is the first persisted layout. Every record starts with its
// layout version byte.
const LayoutV1 uint8 = 1

// CurrentLayout is the version written by this package.
const CurrentLayout = LayoutV1

// IDSize is the size of a collection ID.
const IDSize = 32

// ID identifies a collection.
type ID [IDSize]byte

// String returns the hex encoding of the ID.
func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

// MarshalText implements encoding.TextMarshaler.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := ParseID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseID parses a hex-encoded collection ID.
func ParseID(s string) (ID, error) {
	var id ID
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	if len(b) != IDSize {
		return id, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidID, IDSize, len(b))
	}
	copy(id[:], b)
	return id, nil
}

// StageEntry pairs a stage definition with its running mint counter.
type StageEntry struct {
	Config stage.Config
	Minted uint64 // units minted in this stage, <= Config.SupplyCap
}

// State is the collection header.
type State struct {
	Version        uint8
	ID             ID
	Authority      identity.Identity // only identity allowed to administer
	Name           string
	BaseURI        string // prefix of token metadata URIs
	TotalSupplyCap uint64
	TotalMinted    uint64 // only ever increases, only by a mint
	Paused         bool
	Finalized      bool   // set by the first successful mint, stages frozen after
	Proceeds       uint64 // sum of charged payments
	CreatedAt      int64
	Stages         []StageEntry
}

// StageConfigs returns the stage definitions in index order.
func (s *State) StageConfigs() []stage.Config {
	out := make([]stage.Config, len(s.Stages))
	for i := range s.Stages {
		out[i] = s.Stages[i].Config
	}
	return out
}

// Stage returns the entry at index, or nil if out of range.
func (s *State) Stage(index uint32) *StageEntry {
	if uint64(index) >= uint64(len(s.Stages)) {
		return nil
	}
	return &s.Stages[index]
}

// RemainingSupply returns how many units can still be minted collection-wide.
func (s *State) RemainingSupply() uint64 {
	if s.TotalMinted >= s.TotalSupplyCap {
		return 0
	}
	return s.TotalSupplyCap - s.TotalMinted
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	c := *s
	c.Stages = append([]StageEntry(nil), s.Stages...)
	return &c
}

// MintRecord tracks how many units an identity has minted in one stage.
// Records are created lazily on the first mint and never deleted.
type MintRecord struct {
	Version      uint8
	CollectionID ID
	StageIndex   uint32
	Identity     identity.Identity
	UnitsMinted  uint64
	UpdatedAt    int64
}

// Token is one minted token and its progression level.
type Token struct {
	Version      uint8
	CollectionID ID
	TokenID      uint64
	Owner        identity.Identity
	StageIndex   uint32
	Level        uint8
	URI          string
	MintedAt     int64
}
