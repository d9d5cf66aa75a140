// Package dgo parses the outer container archive that packs object files.
package dgo

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/go-restruct/restruct"

	"goaldis/internal/binreader"
	"goaldis/internal/compression"
)

var (
	// ErrMalformed indicates a structural violation in the container.
	ErrMalformed = errors.New("dgo: malformed container")
)

// headerSize is the wire size of Header: u32 size + 60 name bytes.
const headerSize = 64

// Header is the outer container header and also the per-entry header.
// For the outer header Size is the entry count; for entries it is the
// object byte length.
type Header struct {
	Size uint32
	Name [60]byte
}

// NameString returns the NUL-terminated name. Trailing bytes after the
// terminator must all be zero.
func (h *Header) NameString() (string, error) {
	i := bytes.IndexByte(h.Name[:], 0)
	if i < 0 {
		return "", fmt.Errorf("%w: header name not NUL-terminated", ErrMalformed)
	}
	for _, b := range h.Name[i:] {
		if b != 0 {
			return "", fmt.Errorf("%w: non-zero bytes after header name %q", ErrMalformed, h.Name[:i])
		}
	}
	return string(h.Name[:i]), nil
}

// Entry is one inner object blob.
type Entry struct {
	Name string
	Data []byte
}

// File is a parsed container.
type File struct {
	Name    string
	Entries []Entry
}

func readHeader(r *binreader.Reader) (*Header, error) {
	raw, err := r.Bytes(headerSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	var h Header
	if err := restruct.Unpack(raw, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrMalformed, err)
	}
	return &h, nil
}

// Parse decompresses (if needed) and parses a container. baseName is the
// container file's base name; it must match the name stored in the outer
// header.
func Parse(data []byte, baseName string) (*File, error) {
	data, err := compression.Decompress(data)
	if err != nil {
		return nil, err
	}

	r := binreader.New(data)
	outer, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	name, err := outer.NameString()
	if err != nil {
		return nil, err
	}
	if name != baseName {
		return nil, fmt.Errorf("%w: header name %q does not match file name %q",
			ErrMalformed, name, baseName)
	}

	f := &File{Name: name}
	for i := uint32(0); i < outer.Size; i++ {
		obj, err := readHeader(r)
		if err != nil {
			return nil, err
		}
		objName, err := obj.NameString()
		if err != nil {
			return nil, err
		}
		objData, err := r.Bytes(int(obj.Size))
		if err != nil {
			return nil, fmt.Errorf("%w: object %q: %v", ErrMalformed, objName, err)
		}
		f.Entries = append(f.Entries, Entry{Name: objName, Data: objData})
	}

	if r.Remaining() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes after last entry", ErrMalformed, r.Remaining())
	}
	return f, nil
}
