// Package compression handles the chunked LZO1X stream used by compressed
// containers. A compressed buffer starts with the magic "oZlB" followed by
// the little-endian decompressed size; the body is a sequence of
// (chunk size, chunk bytes) records padded to 4-byte boundaries.
package compression

import (
	"bytes"
	"errors"
	"fmt"

	lzo "github.com/rasky/go-lzo"

	"goaldis/internal/binreader"
)

// ErrDecompress indicates a corrupt compressed stream.
var ErrDecompress = errors.New("compression: decompress failed")

var magic = []byte("oZlB")

// maxChunkSize is the largest compressed chunk. Chunk sizes at or above this
// are stored uncompressed and exactly maxChunkSize bytes are copied.
const maxChunkSize = 0x8000

// IsCompressed reports whether the buffer carries the compressed magic.
func IsCompressed(data []byte) bool {
	return len(data) >= 4 && bytes.Equal(data[:4], magic)
}

// Decompress expands a compressed container stream. Buffers without the
// magic are returned unchanged.
func Decompress(data []byte) ([]byte, error) {
	if !IsCompressed(data) {
		return data, nil
	}

	r := binreader.New(data)
	if err := r.Skip(4); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompress, err)
	}
	decompressedSize, err := r.U32AsInt()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompress, err)
	}

	out := make([]byte, 0, decompressedSize)
	for len(out) < decompressedSize {
		// skip alignment padding words
		chunkSize := 0
		for chunkSize == 0 {
			chunkSize, err = r.U32AsInt()
			if err != nil {
				return nil, fmt.Errorf("%w: truncated chunk header: %v", ErrDecompress, err)
			}
		}

		if chunkSize < maxChunkSize {
			chunk, err := r.Bytes(chunkSize)
			if err != nil {
				return nil, fmt.Errorf("%w: truncated chunk: %v", ErrDecompress, err)
			}
			dec, err := lzo.Decompress1X(bytes.NewReader(chunk), chunkSize, 0)
			if err != nil {
				return nil, fmt.Errorf("%w: lzo1x at input 0x%x: %v", ErrDecompress, r.Pos(), err)
			}
			out = append(out, dec...)
		} else {
			// chunk sizes can exceed the max; exactly maxChunkSize bytes are stored
			chunk, err := r.Bytes(maxChunkSize)
			if err != nil {
				return nil, fmt.Errorf("%w: truncated raw chunk: %v", ErrDecompress, err)
			}
			out = append(out, chunk...)
		}

		if len(out) >= decompressedSize {
			break
		}
		if err := r.AlignTo(4); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecompress, err)
		}
	}

	if len(out) < decompressedSize {
		return nil, fmt.Errorf("%w: size mismatch, got 0x%x want 0x%x",
			ErrDecompress, len(out), decompressedSize)
	}
	return out[:decompressedSize], nil
}
