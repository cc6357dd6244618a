package collection

import (
	"fmt"
	"math"

	"github.com/bitfsorg/nftstages-go/stage"
)

const (
	stateFlagPaused    = 0x01
	stateFlagFinalized = 0x02
)

// stageEntrySize is index(4) + start(8) + end(8) + price(8) + kind(1) +
// root(32) + per_wallet_cap(8) + supply_cap(8) + concurrent(1) + minted(8).
const stageEntrySize = 86

// minStateSize covers the fixed fields with both strings empty and no stages.
//
//	version(1) + id(32) + authority(33) + name_len(2) + uri_len(2) +
//	total_supply_cap(8) + total_minted(8) + flags(1) + proceeds(8) +
//	created_at(8) + num_stages(4)
const minStateSize = 107

// SerializeState encodes a collection state in the current layout.
func SerializeState(s *State) ([]byte, error) {
	if len(s.Stages) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d stages", ErrFieldTooLong, len(s.Stages))
	}
	e := &encoder{buf: make([]byte, 0, minStateSize+len(s.Name)+len(s.BaseURI)+stageEntrySize*len(s.Stages))}
	e.u8(CurrentLayout)
	e.raw(s.ID[:])
	e.raw(s.Authority[:])
	e.str(s.Name)
	e.str(s.BaseURI)
	e.u64(s.TotalSupplyCap)
	e.u64(s.TotalMinted)

	var flags uint8
	if s.Paused {
		flags |= stateFlagPaused
	}
	if s.Finalized {
		flags |= stateFlagFinalized
	}
	e.u8(flags)
	e.u64(s.Proceeds)
	e.i64(s.CreatedAt)

	e.u32(uint32(len(s.Stages)))
	for _, entry := range s.Stages {
		c := entry.Config
		e.u32(c.Index)
		e.i64(c.StartTime)
		e.i64(c.EndTime)
		e.u64(c.Price)
		e.u8(uint8(c.Eligibility.Kind))
		e.raw(c.Eligibility.Root[:])
		e.u64(c.PerWalletCap)
		e.u64(c.SupplyCap)
		e.flag(c.Concurrent)
		e.u64(entry.Minted)
	}
	if e.err != nil {
		return nil, fmt.Errorf("%w: name or base URI", e.err)
	}
	return e.buf, nil
}

// DeserializeState decodes a collection state written by any layout version
// >= 1. Bytes after the last known field are ignored.
func DeserializeState(data []byte) (*State, error) {
	if len(data) < minStateSize {
		return nil, fmt.Errorf("%w: too short (%d bytes)", ErrInvalidStateData, len(data))
	}
	d := newDecoder(data)
	s := &State{Version: d.u8()}
	if s.Version < LayoutV1 {
		return nil, fmt.Errorf("%w: %d", ErrUnknownVersion, s.Version)
	}
	d.copyTo(s.ID[:])
	d.copyTo(s.Authority[:])
	s.Name = d.str()
	s.BaseURI = d.str()
	s.TotalSupplyCap = d.u64()
	s.TotalMinted = d.u64()
	flags := d.u8()
	s.Paused = flags&stateFlagPaused != 0
	s.Finalized = flags&stateFlagFinalized != 0
	s.Proceeds = d.u64()
	s.CreatedAt = d.i64()

	n := int(d.u32())
	if !d.ok {
		return nil, fmt.Errorf("%w: truncated header", ErrInvalidStateData)
	}
	if d.remaining() < n*stageEntrySize {
		return nil, fmt.Errorf("%w: expected %d bytes for %d stages, got %d",
			ErrInvalidStateData, n*stageEntrySize, n, d.remaining())
	}

	s.Stages = make([]StageEntry, n)
	for i := range s.Stages {
		c := &s.Stages[i].Config
		c.Index = d.u32()
		c.StartTime = d.i64()
		c.EndTime = d.i64()
		c.Price = d.u64()
		c.Eligibility.Kind = stage.Kind(d.u8())
		d.copyTo(c.Eligibility.Root[:])
		c.PerWalletCap = d.u64()
		c.SupplyCap = d.u64()
		c.Concurrent = d.flag()
		s.Stages[i].Minted = d.u64()
	}
	if !d.ok {
		return nil, fmt.Errorf("%w: truncated stage list", ErrInvalidStateData)
	}
	return s, nil
}
