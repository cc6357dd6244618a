package instruction

import (
	"encoding/binary"
	"fmt"
	"math"
)

func appendString(buf []byte, s string) ([]byte, error) {
	if len(s) > math.MaxUint16 {
		return nil, fmt.Errorf("%w: string of %d bytes", ErrInvalidPayload, len(s))
	}
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(s)))
	return append(buf, s...), nil
}

func appendBytes32(buf []byte, b []byte) ([]byte, error) {
	if uint64(len(b)) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: blob of %d bytes", ErrInvalidPayload, len(b))
	}
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(b)))
	return append(buf, b...), nil
}

// reader consumes big-endian fields. After the first short read ok is false
// and every later read returns zero values.
type reader struct {
	data []byte
	off  int
	ok   bool
}

func newReader(data []byte) *reader {
	return &reader{data: data, ok: true}
}

func (r *reader) take(n int) []byte {
	if !r.ok || n < 0 || len(r.data)-r.off < n {
		r.ok = false
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) u8() uint8 {
	if b := r.take(1); b != nil {
		return b[0]
	}
	return 0
}

func (r *reader) u16() uint16 {
	if b := r.take(2); b != nil {
		return binary.BigEndian.Uint16(b)
	}
	return 0
}

func (r *reader) u32() uint32 {
	if b := r.take(4); b != nil {
		return binary.BigEndian.Uint32(b)
	}
	return 0
}

func (r *reader) u64() uint64 {
	if b := r.take(8); b != nil {
		return binary.BigEndian.Uint64(b)
	}
	return 0
}

func (r *reader) fill(dst []byte) {
	if b := r.take(len(dst)); b != nil {
		copy(dst, b)
	}
}

func (r *reader) str() string {
	return string(r.take(int(r.u16())))
}

func (r *reader) blob32() []byte {
	n := r.u32()
	if uint64(n) > uint64(len(r.data)-r.off) {
		r.ok = false
		return nil
	}
	b := r.take(int(n))
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// done reports whether every byte was consumed without a short read.
func (r *reader) done() bool {
	return r.ok && r.off == len(r.data)
}
