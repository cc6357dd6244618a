package rootdns

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/bitfsorg/nftstages-go/stage"
)

const (
	// Label is prepended to the owner's domain.
	Label = "_nftstages"

	// RecordPrefix starts every root record.
	RecordPrefix = "nftstages-root="
)

// RecordName returns the TXT owner name for domain.
func RecordName(domain string) string {
	return Label + "." + strings.TrimSuffix(domain, ".")
}

// FormatRecord returns the TXT record value publishing root.
func FormatRecord(root [stage.RootSize]byte) string {
	return RecordPrefix + hex.EncodeToString(root[:])
}

// ParseRecord parses a TXT value. ok is false for records that are not root
// records at all.
func ParseRecord(txt string) (root [stage.RootSize]byte, ok bool, err error) {
	v, found := strings.CutPrefix(strings.TrimSpace(txt), RecordPrefix)
	if !found {
		return root, false, nil
	}
	b, err := hex.DecodeString(v)
	if err != nil || len(b) != stage.RootSize {
		return root, true, fmt.Errorf("%w: %q", ErrInvalidRecord, txt)
	}
	copy(root[:], b)
	return root, true, nil
}

// LookupRoot resolves the allowlist root published for domain. Unrelated TXT
// records are ignored; duplicates of the same root are tolerated.
func LookupRoot(ctx context.Context, r TXTResolver, domain string) ([stage.RootSize]byte, error) {
	var root [stage.RootSize]byte
	txts, err := r.LookupTXT(ctx, RecordName(domain))
	if err != nil {
		return root, err
	}
	found := false
	for _, txt := range txts {
		v, ok, err := ParseRecord(txt)
		if err != nil {
			return root, err
		}
		if !ok {
			continue
		}
		if found && v != root {
			return root, fmt.Errorf("%w: %s", ErrAmbiguousRoot, domain)
		}
		root, found = v, true
	}
	if !found {
		return root, fmt.Errorf("%w: %s", ErrNoRoot, domain)
	}
	return root, nil
}

// VerifyStage checks an allowlist stage's root against the root published for
// domain. Open stages have nothing to check.
func VerifyStage(ctx context.Context, r TXTResolver, domain string, e stage.Eligibility) error {
	if e.IsOpen() {
		return nil
	}
	published, err := LookupRoot(ctx, r, domain)
	if err != nil {
		return err
	}
	if published != e.Root {
		return fmt.Errorf("%w: stage %s, published %s", ErrRootMismatch, e.RootHex(), hex.EncodeToString(published[:]))
	}
	return nil
}
