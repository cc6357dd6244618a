package allowlist

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/bitfsorg/nftstages-go/identity"
)

// Tree is a fully materialised allowlist tree, used by operator tooling and
// tests to publish a root and hand out proofs. Verification never needs it.
type Tree struct {
	levels [][]Hash // levels[0] are leaves, last level is the root
	index  map[identity.Identity]int
}

// BuildTree builds the tree over the distinct identities in ids. Leaves are
// sorted so the root does not depend on input order. On an odd level the last
// node is promoted unchanged.
func BuildTree(ids []identity.Identity) (*Tree, error) {
	if len(ids) == 0 {
		return nil, ErrEmptyAllowlist
	}

	uniq := make([]identity.Identity, 0, len(ids))
	seen := make(map[identity.Identity]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		uniq = append(uniq, id)
	}
	sort.Slice(uniq, func(i, j int) bool {
		return bytes.Compare(uniq[i][:], uniq[j][:]) < 0
	})

	t := &Tree{index: make(map[identity.Identity]int, len(uniq))}
	leaves := make([]Hash, len(uniq))
	for i, id := range uniq {
		leaves[i] = LeafHash(id)
		t.index[id] = i
	}
	t.levels = append(t.levels, leaves)

	level := leaves
	for len(level) > 1 {
		next := make([]Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next = append(next, level[i])
				continue
			}
			next = append(next, NodeHash(level[i], level[i+1]))
		}
		t.levels = append(t.levels, next)
		level = next
	}
	if len(t.levels)-1 > MaxProofDepth {
		return nil, fmt.Errorf("%w: tree depth %d exceeds %d", ErrInvalidProof, len(t.levels)-1, MaxProofDepth)
	}
	return t, nil
}

// Root returns the commitment root.
func (t *Tree) Root() Hash {
	return t.levels[len(t.levels)-1][0]
}

// Len returns the number of distinct leaves.
func (t *Tree) Len() int {
	return len(t.levels[0])
}

// Proof returns the sibling path for id.
func (t *Tree) Proof(id identity.Identity) (Proof, error) {
	pos, ok := t.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotMember, id)
	}
	var proof Proof
	for _, level := range t.levels[:len(t.levels)-1] {
		sib := pos ^ 1
		if sib < len(level) {
			proof = append(proof, level[sib])
		}
		pos /= 2
	}
	return proof, nil
}
