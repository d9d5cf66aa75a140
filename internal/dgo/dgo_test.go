package dgo

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func header(size uint32, name string) []byte {
	var b bytes.Buffer
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], size)
	b.Write(tmp[:])
	var n [60]byte
	copy(n[:], name)
	b.Write(n[:])
	return b.Bytes()
}

func buildContainer(name string, entries map[string][]byte, order []string) []byte {
	var b bytes.Buffer
	b.Write(header(uint32(len(order)), name))
	for _, n := range order {
		b.Write(header(uint32(len(entries[n])), n))
		b.Write(entries[n])
	}
	return b.Bytes()
}

func TestParse(t *testing.T) {
	data := buildContainer("KERNEL.CGO", map[string][]byte{
		"gcommon": {1, 2, 3, 4},
		"gstring": {5, 6},
	}, []string{"gcommon", "gstring"})

	f, err := Parse(data, "KERNEL.CGO")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if f.Name != "KERNEL.CGO" {
		t.Errorf("Name = %q", f.Name)
	}
	if len(f.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(f.Entries))
	}
	if f.Entries[0].Name != "gcommon" || !bytes.Equal(f.Entries[0].Data, []byte{1, 2, 3, 4}) {
		t.Errorf("entry 0 = %+v", f.Entries[0])
	}
	if f.Entries[1].Name != "gstring" || !bytes.Equal(f.Entries[1].Data, []byte{5, 6}) {
		t.Errorf("entry 1 = %+v", f.Entries[1])
	}
}

func TestParseErrors(t *testing.T) {
	good := buildContainer("A.CGO", map[string][]byte{"x": {1}}, []string{"x"})

	tests := []struct {
		name string
		data []byte
		base string
	}{
		{"name mismatch", good, "B.CGO"},
		{"trailing bytes", append(append([]byte{}, good...), 0), "A.CGO"},
		{"truncated", good[:len(good)-1], "A.CGO"},
	}
	for _, tc := range tests {
		if _, err := Parse(tc.data, tc.base); !errors.Is(err, ErrMalformed) {
			t.Errorf("%s: err = %v, want ErrMalformed", tc.name, err)
		}
	}
}

func TestHeaderNameValidation(t *testing.T) {
	// non-zero byte after the terminator
	h := header(0, "A.CGO")
	h[4+10] = 'x'
	if _, err := Parse(h, "A.CGO"); !errors.Is(err, ErrMalformed) {
		t.Errorf("dirty name: err = %v, want ErrMalformed", err)
	}
}
