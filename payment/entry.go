package payment

import (
	"encoding/binary"
	"fmt"

	"github.com/bitfsorg/nftstages-go/collection"
	"github.com/bitfsorg/nftstages-go/identity"
)

// entrySize is version(1) + ref(32) + collection_id(32) + payer(33) +
// amount(8) + charged(8) + at(8).
const entrySize = 122

// Entry records a consumed payment reference. A reference appears in the
// ledger at most once.
type Entry struct {
	Version      uint8
	Ref          Ref
	CollectionID collection.ID
	Payer        identity.Identity
	Amount       uint64 // presented
	Charged      uint64 // price * units
	At           int64
}

// Change returns the part of the presented amount that was not charged.
func (e *Entry) Change() uint64 {
	if e.Amount < e.Charged {
		return 0
	}
	return e.Amount - e.Charged
}

// SerializeEntry encodes a ledger entry.
func SerializeEntry(e *Entry) []byte {
	buf := make([]byte, entrySize)
	offset := 0

	buf[offset] = collection.CurrentLayout
	offset++

	copy(buf[offset:offset+RefSize], e.Ref[:])
	offset += RefSize

	copy(buf[offset:offset+collection.IDSize], e.CollectionID[:])
	offset += collection.IDSize

	copy(buf[offset:offset+identity.Size], e.Payer[:])
	offset += identity.Size

	binary.BigEndian.PutUint64(buf[offset:offset+8], e.Amount)
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:offset+8], e.Charged)
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:offset+8], uint64(e.At))
	return buf
}

// DeserializeEntry decodes a ledger entry of any layout version >= 1.
func DeserializeEntry(data []byte) (*Entry, error) {
	if len(data) < entrySize {
		return nil, fmt.Errorf("%w: expected at least %d bytes, got %d", ErrInvalidEntryData, entrySize, len(data))
	}
	if data[0] < collection.LayoutV1 {
		return nil, fmt.Errorf("%w: version %d", ErrInvalidEntryData, data[0])
	}
	e := &Entry{Version: data[0]}
	offset := 1

	copy(e.Ref[:], data[offset:offset+RefSize])
	offset += RefSize

	copy(e.CollectionID[:], data[offset:offset+collection.IDSize])
	offset += collection.IDSize

	copy(e.Payer[:], data[offset:offset+identity.Size])
	offset += identity.Size

	e.Amount = binary.BigEndian.Uint64(data[offset : offset+8])
	offset += 8
	e.Charged = binary.BigEndian.Uint64(data[offset : offset+8])
	offset += 8
	e.At = int64(binary.BigEndian.Uint64(data[offset : offset+8]))
	return e, nil
}
