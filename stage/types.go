// Package stage defines minting stage configuration, the ordering rules a
// stage sequence must satisfy, and the resolver that decides which stage is
// open at a given time.
package stage

import (
	"encoding/hex"
	"fmt"
)

// RootSize is the size of an allowlist commitment root (SHA256 output).
const RootSize = 32

// Kind tags the eligibility rule of a stage.
type Kind uint8

const (
	KindOpen      Kind = iota // anyone may mint
	KindAllowlist             // identity must prove membership under Root
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindOpen:
		return "open"
	case KindAllowlist:
		return "allowlist"
	default:
		return "unknown"
	}
}

// ParseKind parses "open" or "allowlist".
func ParseKind(s string) (Kind, error) {
	switch s {
	case "open":
		return KindOpen, nil
	case "allowlist":
		return KindAllowlist, nil
	default:
		return 0, fmt.Errorf("%w: unknown eligibility kind %q", ErrInvalidConfig, s)
	}
}

// Eligibility is the tagged eligibility rule: {Open} or {Allowlist, Root}.
type Eligibility struct {
	Kind Kind
	Root [RootSize]byte // zero for KindOpen
}

// Open returns the open-to-all eligibility rule.
func Open() Eligibility {
	return Eligibility{Kind: KindOpen}
}

// Allowlist returns an allowlist rule committed to root.
func Allowlist(root [RootSize]byte) Eligibility {
	return Eligibility{Kind: KindAllowlist, Root: root}
}

// IsOpen reports whether anyone may mint under this rule.
func (e Eligibility) IsOpen() bool {
	return e.Kind == KindOpen
}

// RootHex returns the hex-encoded root, or "" for open stages.
func (e Eligibility) RootHex() string {
	if e.IsOpen() {
		return ""
	}
	return hex.EncodeToString(e.Root[:])
}

// Config describes one minting stage. A stage is immutable once its start
// time has passed or once any mint has happened in the collection.
type Config struct {
	Index        uint32      // zero-based position in the sequence
	StartTime    int64       // unix seconds, inclusive
	EndTime      int64       // unix seconds, exclusive; 0 = until the next stage starts
	Price        uint64      // unit price in base units
	Eligibility  Eligibility // open or allowlist
	PerWalletCap uint64      // 0 = unlimited within the global cap
	SupplyCap    uint64      // maximum units minted across the stage
	Concurrent   bool        // may overlap earlier stages (concurrent tier)
}

// HasEnd reports whether the stage has an explicit end time.
func (c Config) HasEnd() bool {
	return c.EndTime != 0
}
