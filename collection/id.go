package collection

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/bitfsorg/nftstages-go/identity"
)

var idDomain = []byte("nftstages/collection")

// DeriveID computes SHA256("nftstages/collection" || authority || name).
// One authority cannot create two collections with the same name.
func DeriveID(authority identity.Identity, name string) ID {
	h := sha256.New()
	h.Write(idDomain)
	h.Write(authority[:])
	h.Write([]byte(name))
	var id ID
	copy(id[:], h.Sum(nil))
	return id
}

// RecordKeySize is the length of a mint record key.
const RecordKeySize = IDSize + 4 + identity.Size

// RecordKey returns CollectionID || BE(stageIndex) || identity.
func RecordKey(id ID, stageIndex uint32, who identity.Identity) []byte {
	key := make([]byte, RecordKeySize)
	copy(key[:IDSize], id[:])
	binary.BigEndian.PutUint32(key[IDSize:IDSize+4], stageIndex)
	copy(key[IDSize+4:], who[:])
	return key
}

// TokenKeySize is the length of a token key.
const TokenKeySize = IDSize + 8

// TokenKey returns CollectionID || BE(tokenID), so a collection's tokens
// iterate in ID order.
func TokenKey(id ID, tokenID uint64) []byte {
	key := make([]byte, TokenKeySize)
	copy(key[:IDSize], id[:])
	binary.BigEndian.PutUint64(key[IDSize:], tokenID)
	return key
}
