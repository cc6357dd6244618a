package collection

import (
	"encoding/binary"
	"math"
)

// encoder appends big-endian fields to a buffer.
type encoder struct {
	buf []byte
	err error
}

func (e *encoder) u8(v uint8) { e.buf = append(e.buf, v) }
func (e *encoder) u32(v uint32) { e.buf = binary.BigEndian.AppendUint32(e.buf, v) }
func (e *encoder) u64(v uint64) { e.buf = binary.BigEndian.AppendUint64(e.buf, v) }
func (e *encoder) i64(v int64) { e.u64(uint64(v)) }
func (e *encoder) raw(b []byte) { e.buf = append(e.buf, b...) }
func (e *encoder) flag(v bool) { e.u8(boolByte(v)) }

// str writes a uint16 length-prefixed string.
func (e *encoder) str(s string) {
	if len(s) > math.MaxUint16 {
		e.err = ErrFieldTooLong
		return
	}
	e.buf = binary.BigEndian.AppendUint16(e.buf, uint16(len(s)))
	e.buf = append(e.buf, s...)
}

// decoder reads big-endian fields in order. The first short read makes every
// later read a no-op and leaves ok false.
type decoder struct {
	data []byte
	off  int
	ok   bool
}

func newDecoder(data []byte) *decoder {
	return &decoder{data: data, ok: true}
}

func (d *decoder) take(n int) []byte {
	if !d.ok || len(d.data)-d.off < n {
		d.ok = false
		return nil
	}
	b := d.data[d.off : d.off+n]
	d.off += n
	return b
}

func (d *decoder) u8() uint8 {
	if b := d.take(1); b != nil {
		return b[0]
	}
	return 0
}

func (d *decoder) u16() uint16 {
	if b := d.take(2); b != nil {
		return binary.BigEndian.Uint16(b)
	}
	return 0
}

func (d *decoder) u32() uint32 {
	if b := d.take(4); b != nil {
		return binary.BigEndian.Uint32(b)
	}
	return 0
}

func (d *decoder) u64() uint64 {
	if b := d.take(8); b != nil {
		return binary.BigEndian.Uint64(b)
	}
	return 0
}

func (d *decoder) i64() int64 { return int64(d.u64()) }

func (d *decoder) flag() bool { return d.u8() != 0 }

func (d *decoder) copyTo(dst []byte) {
	if b := d.take(len(dst)); b != nil {
		copy(dst, b)
	}
}

func (d *decoder) str() string {
	n := int(d.u16())
	if b := d.take(n); b != nil {
		return string(b)
	}
	return ""
}

// remaining is the number of unread bytes.
func (d *decoder) remaining() int {
	return len(d.data) - d.off
}

func boolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}
