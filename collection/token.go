package collection

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxLevel is the highest level a token can reach.
const MaxLevel uint8 = 6

// tokenFixedSize is version(1) + collection_id(32) + token_id(8) + owner(33) +
// stage_index(4) + level(1) + minted_at(8) + uri_len(2).
const tokenFixedSize = 89

// TokenURI builds "<base>/<tokenID>/<level>.json".
func TokenURI(baseURI string, tokenID uint64, level uint8) string {
	return strings.TrimRight(baseURI, "/") + "/" +
		strconv.FormatUint(tokenID, 10) + "/" + strconv.Itoa(int(level)) + ".json"
}

// AtMaxLevel reports whether the token can no longer level up.
func (t *Token) AtMaxLevel() bool {
	return t.Level >= MaxLevel
}

// SetLevel sets the level and rewrites the "<level>.json" suffix of the URI,
// leaving everything before the last '/' untouched.
func (t *Token) SetLevel(level uint8) {
	t.Level = level
	suffix := strconv.Itoa(int(level)) + ".json"
	if i := strings.LastIndexByte(t.URI, '/'); i >= 0 {
		t.URI = t.URI[:i+1] + suffix
		return
	}
	t.URI = suffix
}

// SerializeToken encodes a token record in the current layout.
func SerializeToken(t *Token) ([]byte, error) {
	e := &encoder{buf: make([]byte, 0, tokenFixedSize+len(t.URI))}
	e.u8(CurrentLayout)
	e.raw(t.CollectionID[:])
	e.u64(t.TokenID)
	e.raw(t.Owner[:])
	e.u32(t.StageIndex)
	e.u8(t.Level)
	e.i64(t.MintedAt)
	e.str(t.URI)
	if e.err != nil {
		return nil, fmt.Errorf("%w: token URI", e.err)
	}
	return e.buf, nil
}

// DeserializeToken decodes a token record of any layout version >= 1.
func DeserializeToken(data []byte) (*Token, error) {
	if len(data) < tokenFixedSize {
		return nil, fmt.Errorf("%w: too short (%d bytes)", ErrInvalidTokenData, len(data))
	}
	d := newDecoder(data)
	t := &Token{Version: d.u8()}
	if t.Version < LayoutV1 {
		return nil, fmt.Errorf("%w: %d", ErrUnknownVersion, t.Version)
	}
	d.copyTo(t.CollectionID[:])
	t.TokenID = d.u64()
	d.copyTo(t.Owner[:])
	t.StageIndex = d.u32()
	t.Level = d.u8()
	t.MintedAt = d.i64()
	t.URI = d.str()
	if !d.ok {
		return nil, fmt.Errorf("%w: truncated URI", ErrInvalidTokenData)
	}
	return t, nil
}
