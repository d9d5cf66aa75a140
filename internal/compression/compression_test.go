package compression

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func u32(v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return b[:]
}

func TestPassthrough(t *testing.T) {
	plain := []byte{1, 2, 3, 4, 5}
	out, err := Decompress(plain)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(out, plain) {
		t.Errorf("plain buffer changed: %v", out)
	}
	if IsCompressed(plain) {
		t.Error("plain buffer detected as compressed")
	}
}

// Raw chunks (size >= 0x8000) are copied verbatim; this exercises the
// chunk loop, padding skip, and re-alignment without an LZO payload.
func TestRawChunks(t *testing.T) {
	payload := make([]byte, 2*maxChunkSize)
	for i := range payload {
		payload[i] = byte(i * 7)
	}

	var in bytes.Buffer
	in.WriteString("oZlB")
	in.Write(u32(uint32(len(payload))))
	// first chunk, preceded by two zero padding words
	in.Write(u32(0))
	in.Write(u32(0))
	in.Write(u32(maxChunkSize))
	in.Write(payload[:maxChunkSize])
	// second chunk advertises a larger size; exactly maxChunkSize is stored
	in.Write(u32(maxChunkSize + 0x100))
	in.Write(payload[maxChunkSize:])

	if !IsCompressed(in.Bytes()) {
		t.Fatal("magic not detected")
	}
	out, err := Decompress(in.Bytes())
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(out, payload) {
		t.Error("raw chunk roundtrip mismatch")
	}
}

func TestTruncatedStream(t *testing.T) {
	var in bytes.Buffer
	in.WriteString("oZlB")
	in.Write(u32(0x100))
	in.Write(u32(0x8000))
	in.Write([]byte{1, 2, 3}) // far short of a chunk

	if _, err := Decompress(in.Bytes()); !errors.Is(err, ErrDecompress) {
		t.Errorf("err = %v, want ErrDecompress", err)
	}
}
