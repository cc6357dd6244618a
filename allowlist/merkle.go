// Package allowlist verifies membership of an identity in a committed
// allowlist. The commitment is the root of a binary SHA256 Merkle tree with
// domain-separated leaves and sorted-pair interior nodes, so a proof is just
// the list of sibling hashes from leaf to root.
package allowlist

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/bitfsorg/nftstages-go/identity"
	"github.com/bitfsorg/nftstages-go/stage"
)

// HashSize is the size of every leaf, node and root.
const HashSize = sha256.Size

// MaxProofDepth bounds proof length. 32 levels cover 2^32 identities.
const MaxProofDepth = 32

const (
	leafPrefix byte = 0x00
	nodePrefix byte = 0x01
)

// Hash is a leaf, node or root hash.
type Hash = [HashSize]byte

// Proof is the ordered sibling sequence from leaf to root.
type Proof []Hash

// LeafHash computes SHA256(0x00 || identity).
func LeafHash(id identity.Identity) Hash {
	buf := make([]byte, 0, 1+identity.Size)
	buf = append(buf, leafPrefix)
	buf = append(buf, id[:]...)
	return sha256.Sum256(buf)
}

// NodeHash computes SHA256(0x01 || min(a,b) || max(a,b)).
//
// Ordering the pair makes the hash independent of which side a node was on.
func NodeHash(a, b Hash) Hash {
	if less(b, a) {
		a, b = b, a
	}
	buf := make([]byte, 0, 1+2*HashSize)
	buf = append(buf, nodePrefix)
	buf = append(buf, a[:]...)
	buf = append(buf, b[:]...)
	return sha256.Sum256(buf)
}

// ComputeRoot folds the proof over the leaf of id.
//
//	hash = LeafHash(id)
//	for node in proof:
//	    hash = NodeHash(hash, node)
func ComputeRoot(id identity.Identity, proof Proof) Hash {
	h := LeafHash(id)
	for _, sibling := range proof {
		h = NodeHash(h, sibling)
	}
	return h
}

// Verify reports whether id satisfies the eligibility rule. Open stages admit
// every identity; allowlist stages require a proof that recomputes Root.
// Unknown rule kinds and proofs deeper than MaxProofDepth are rejected.
func Verify(id identity.Identity, rule stage.Eligibility, proof Proof) bool {
	switch rule.Kind {
	case stage.KindOpen:
		return true
	case stage.KindAllowlist:
		if len(proof) > MaxProofDepth {
			return false
		}
		return ComputeRoot(id, proof) == rule.Root
	default:
		return false
	}
}

// ParseProofHex decodes hex-encoded sibling hashes.
func ParseProofHex(nodes []string) (Proof, error) {
	if len(nodes) > MaxProofDepth {
		return nil, fmt.Errorf("%w: depth %d exceeds %d", ErrInvalidProof, len(nodes), MaxProofDepth)
	}
	proof := make(Proof, len(nodes))
	for i, s := range nodes {
		b, err := hex.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("%w: node %d: %v", ErrInvalidProof, i, err)
		}
		if len(b) != HashSize {
			return nil, fmt.Errorf("%w: node %d is %d bytes", ErrInvalidProof, i, len(b))
		}
		copy(proof[i][:], b)
	}
	return proof, nil
}

// Hex returns the hex encoding of every sibling.
func (p Proof) Hex() []string {
	out := make([]string, len(p))
	for i := range p {
		out[i] = hex.EncodeToString(p[i][:])
	}
	return out
}

func less(a, b Hash) bool {
	for i := 0; i < HashSize; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
