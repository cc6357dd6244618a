package collection

import "fmt"

// mintRecordSize is version(1) + collection_id(32) + stage_index(4) +
// identity(33) + units_minted(8) + updated_at(8).
const mintRecordSize = 86

// SerializeMintRecord encodes a mint record in the current layout.
func SerializeMintRecord(r *MintRecord) []byte {
	e := &encoder{buf: make([]byte, 0, mintRecordSize)}
	e.u8(CurrentLayout)
	e.raw(r.CollectionID[:])
	e.u32(r.StageIndex)
	e.raw(r.Identity[:])
	e.u64(r.UnitsMinted)
	e.i64(r.UpdatedAt)
	return e.buf
}

// DeserializeMintRecord decodes a mint record of any layout version >= 1.
func DeserializeMintRecord(data []byte) (*MintRecord, error) {
	if len(data) < mintRecordSize {
		return nil, fmt.Errorf("%w: expected at least %d bytes, got %d",
			ErrInvalidRecordData, mintRecordSize, len(data))
	}
	d := newDecoder(data)
	r := &MintRecord{Version: d.u8()}
	if r.Version < LayoutV1 {
		return nil, fmt.Errorf("%w: %d", ErrUnknownVersion, r.Version)
	}
	d.copyTo(r.CollectionID[:])
	r.StageIndex = d.u32()
	d.copyTo(r.Identity[:])
	r.UnitsMinted = d.u64()
	r.UpdatedAt = d.i64()
	return r, nil
}
