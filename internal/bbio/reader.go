// Package bbio provides an endian-aware cursor over an in-memory BigBed
// file. The file is memory-mapped once at Open; every Reader is a cheap
// value (a slice header plus two ints) constructed fresh for each node
// read rather than a single mutable cursor shared across tree walks.
package bbio

import (
	"encoding/binary"
	"errors"
)

// ErrShortRead indicates a read ran past the end of the backing slice.
var ErrShortRead = errors.New("bbio: short read")

// Reader decodes fixed-width integers and byte runs from data, starting
// at pos, using order. Order is chosen once per container: the BigBed
// magic is compared to its canonical big-endian form; a byte-reversed
// match means the file is byte-swapped, and order becomes
// binary.LittleEndian (equivalent to reversing every multi-byte field
// before a big-endian decode). The host's byte order plays no part.
type Reader struct {
	data  []byte
	pos   int
	order binary.ByteOrder
}

// NewReader returns a Reader over data starting at offset, using
// binary.BigEndian if swapped is false or binary.LittleEndian if true.
func NewReader(data []byte, offset int64, swapped bool) *Reader {
	order := binary.ByteOrder(binary.BigEndian)
	if swapped {
		order = binary.LittleEndian
	}
	return &Reader{data: data, pos: int(offset), order: order}
}

// Pos returns the current cursor offset into the backing slice.
func (r *Reader) Pos() int64 { return int64(r.pos) }

// Seek repositions the cursor to an absolute offset.
func (r *Reader) Seek(offset int64) { r.pos = int(offset) }

func (r *Reader) take(n int) ([]byte, error) {
	if r.pos < 0 || n < 0 || r.pos+n > len(r.data) {
		return nil, ErrShortRead
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// ReadByte reads a single byte and advances the cursor.
func (r *Reader) ReadByte() (byte, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadU16 reads a uint16 under the reader's byte order.
func (r *Reader) ReadU16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return r.order.Uint16(b), nil
}

// ReadU32 reads a uint32 under the reader's byte order.
func (r *Reader) ReadU32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return r.order.Uint32(b), nil
}

// ReadU64 reads a uint64 under the reader's byte order.
func (r *Reader) ReadU64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return r.order.Uint64(b), nil
}

// ReadBytes returns the next n bytes without interpreting them (string
// keys and record tails are byte-swap-invariant). The returned slice
// aliases the backing data and must not be retained past the mapping's
// lifetime without copying.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	return r.take(n)
}
