package linked

import (
	"bytes"
	"fmt"

	"goaldis/internal/binreader"
)

// Object file wire format. Two versions are accepted:
//
//	v2: { version=2 u32, wordCount u32, words, linkTable }
//	v3: { version=3 u32, wordCount[3] u32, words(seg0..seg2), linkTable }
//
// The link table is a stream of u32-opcode records, terminated by opcode 0:
//
//	1 pointer word:   srcSeg, srcOff, dstSeg, dstOff
//	2 split pointer:  srcSeg, hiOff, loOff, dstSeg, dstOff (v3 only)
//	3 symbol word:    srcSeg, srcOff, kind(0 sym/1 type/2 empty), name
//	4 symbol offset:  srcSeg, srcOff, name
//
// Names are NUL-terminated and padded to a 4-byte boundary. All integers
// are little endian.
const (
	linkEnd       = 0
	linkPointer   = 1
	linkSplit     = 2
	linkSymbol    = 3
	linkSymbolOff = 4

	symKindSymbol    = 0
	symKindType      = 1
	symKindEmptyList = 2
)

func readLinkName(r *binreader.Reader) (string, error) {
	rest := r.Here()
	end := bytes.IndexByte(rest, 0)
	if end < 0 {
		return "", fmt.Errorf("%w: unterminated name in link table", ErrMalformed)
	}
	name := string(rest[:end])
	// name, terminator, then padding to a word boundary
	n := end + 1
	for n%4 != 0 {
		n++
	}
	if err := r.Skip(n); err != nil {
		return "", fmt.Errorf("%w: link table name: %v", ErrMalformed, err)
	}
	return name, nil
}

// ParseObject parses a raw object blob into a linked File. name is used in
// error messages only.
func ParseObject(data []byte, name string) (*File, error) {
	r := binreader.New(data)
	version, err := r.U32()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, name, err)
	}

	var f *File
	switch version {
	case 2:
		f = NewFile(1)
	case 3:
		f = NewFile(3)
	default:
		return nil, fmt.Errorf("%w: %s: object version %d", ErrUnsupported, name, version)
	}

	counts := make([]int, f.SegmentCount)
	for i := range counts {
		counts[i], err = r.U32AsInt()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: segment sizes: %v", ErrMalformed, name, err)
		}
	}
	codeStart := r.Pos()
	for seg, count := range counts {
		for w := 0; w < count; w++ {
			word, err := r.U32()
			if err != nil {
				return nil, fmt.Errorf("%w: %s: segment %d word %d: %v", ErrMalformed, name, seg, w, err)
			}
			f.PushWord(seg, word)
		}
	}
	codeBytes := r.Pos() - codeStart
	linkStart := r.Pos()

	if err := f.parseLinkTable(r, version, name); err != nil {
		return nil, err
	}

	linkBytes := r.Pos() - linkStart
	f.Stats.TotalCodeBytes += codeBytes
	if version == 2 {
		f.Stats.TotalV2CodeBytes += codeBytes
		f.Stats.TotalV2LinkBytes += linkBytes
	} else {
		f.Stats.V3CodeBytes += codeBytes
		f.Stats.V3LinkBytes += linkBytes
	}
	return f, nil
}

func (f *File) parseLinkTable(r *binreader.Reader, version uint32, name string) error {
	v2 := version == 2
	for {
		opcode, err := r.U32()
		if err != nil {
			return fmt.Errorf("%w: %s: link table: %v", ErrMalformed, name, err)
		}
		switch opcode {
		case linkEnd:
			return nil

		case linkPointer:
			var args [4]int
			for i := range args {
				if args[i], err = r.U32AsInt(); err != nil {
					return fmt.Errorf("%w: %s: pointer record: %v", ErrMalformed, name, err)
				}
			}
			if err := f.PointerLinkWord(args[0], args[1], args[2], args[3]); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			if v2 {
				f.Stats.TotalV2Pointers++
			} else {
				f.Stats.V3Pointers++
				f.Stats.V3WordPointers++
			}

		case linkSplit:
			if v2 {
				return fmt.Errorf("%w: %s: split pointer in v2 link table", ErrUnsupported, name)
			}
			var args [5]int
			for i := range args {
				if args[i], err = r.U32AsInt(); err != nil {
					return fmt.Errorf("%w: %s: split record: %v", ErrMalformed, name, err)
				}
			}
			if err := f.PointerLinkSplitWord(args[0], args[1], args[2], args[3], args[4]); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			f.Stats.V3Pointers++
			f.Stats.V3SplitPointers++

		case linkSymbol:
			var args [3]int
			for i := range args {
				if args[i], err = r.U32AsInt(); err != nil {
					return fmt.Errorf("%w: %s: symbol record: %v", ErrMalformed, name, err)
				}
			}
			sym, err := readLinkName(r)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			var kind WordKind
			switch args[2] {
			case symKindSymbol:
				kind = SymPtr
			case symKindType:
				kind = TypePtr
			case symKindEmptyList:
				kind = EmptyListPtr
			default:
				return fmt.Errorf("%w: %s: symbol word kind %d", ErrUnsupported, name, args[2])
			}
			if err := f.SymbolLinkWord(args[0], args[1], sym, kind); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			if v2 {
				f.Stats.TotalV2SymbolCount++
				f.Stats.TotalV2SymbolLinks++
			} else {
				f.Stats.V3SymbolCount++
				f.Stats.V3SymbolLinkWord++
			}

		case linkSymbolOff:
			var args [2]int
			for i := range args {
				if args[i], err = r.U32AsInt(); err != nil {
					return fmt.Errorf("%w: %s: symbol offset record: %v", ErrMalformed, name, err)
				}
			}
			sym, err := readLinkName(r)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			if err := f.SymbolLinkOffset(args[0], args[1], sym); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			if v2 {
				f.Stats.TotalV2SymbolCount++
				f.Stats.TotalV2SymbolLinks++
			} else {
				f.Stats.V3SymbolCount++
				f.Stats.V3SymbolLinkOff++
			}

		default:
			return fmt.Errorf("%w: %s: link opcode %d", ErrUnsupported, name, opcode)
		}
	}
}
