// Package binreader provides a bounded cursor over an immutable byte buffer.
package binreader

import (
	"encoding/binary"
	"errors"
	"fmt"

	"fortio.org/safecast"
)

// ErrOutOfBounds is returned when a read would pass the end of the buffer.
var ErrOutOfBounds = errors.New("binreader: read out of bounds")

// Reader is a forward-only cursor over a byte buffer. The buffer is never
// mutated; all multi-byte reads are little-endian.
type Reader struct {
	buf []byte
	pos int
}

// New creates a Reader over buf starting at offset 0.
func New(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Pos returns the current offset.
func (r *Reader) Pos() int { return r.pos }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

// Here returns the remaining slice without advancing.
func (r *Reader) Here() []byte { return r.buf[r.pos:] }

// Skip advances the cursor by n bytes.
func (r *Reader) Skip(n int) error {
	if n < 0 || r.pos+n > len(r.buf) {
		return fmt.Errorf("%w: skip %d at 0x%x of 0x%x", ErrOutOfBounds, n, r.pos, len(r.buf))
	}
	r.pos += n
	return nil
}

// AlignTo advances to the next multiple of n.
func (r *Reader) AlignTo(n int) error {
	for r.pos%n != 0 {
		if err := r.Skip(1); err != nil {
			return err
		}
	}
	return nil
}

// Bytes reads n bytes and advances.
func (r *Reader) Bytes(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.buf) {
		return nil, fmt.Errorf("%w: read %d at 0x%x of 0x%x", ErrOutOfBounds, n, r.pos, len(r.buf))
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// U8 reads one byte.
func (r *Reader) U8() (uint8, error) {
	b, err := r.Bytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// U16 reads a little-endian uint16.
func (r *Reader) U16() (uint16, error) {
	b, err := r.Bytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// U32 reads a little-endian uint32.
func (r *Reader) U32() (uint32, error) {
	b, err := r.Bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// U32AsInt reads a little-endian uint32 and narrows it to int.
func (r *Reader) U32AsInt() (int, error) {
	v, err := r.U32()
	if err != nil {
		return 0, err
	}
	n, err := safecast.Conv[int](v)
	if err != nil {
		return 0, fmt.Errorf("binreader: %w", err)
	}
	return n, nil
}
