package linked

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrMalformed indicates a structural violation in the link table or a
	// link-table-referenced word.
	ErrMalformed = errors.New("linked: malformed object")
	// ErrUnsupported indicates an unknown link opcode or segment count.
	ErrUnsupported = errors.New("linked: unsupported object")
)

// SegmentNames are the v3 segment names, indexed by segment.
var SegmentNames = [3]string{"main segment", "debug segment", "top-level segment"}

// File is an object file's data with linking information included.
type File struct {
	// SegmentCount is 1 (v2, data only) or 3 (v3).
	SegmentCount int
	// Words holds each segment's tagged words.
	Words [][]Word
	// Labels owns every label; ids index into it and stay stable for the
	// object's lifetime.
	Labels []Label
	// DataStart is the word index where each segment's data zone begins.
	DataStart []int

	Stats Stats

	labelBySegOff []map[int]int
}

// NewFile creates a File with the given segment count. The count can only
// be set once.
func NewFile(segments int) *File {
	f := &File{
		SegmentCount:  segments,
		Words:         make([][]Word, segments),
		DataStart:     make([]int, segments),
		labelBySegOff: make([]map[int]int, segments),
	}
	for i := range f.labelBySegOff {
		f.labelBySegOff[i] = make(map[int]int)
	}
	return f
}

// PushWord appends a word to a segment.
func (f *File) PushWord(seg int, data uint32) {
	f.Words[seg] = append(f.Words[seg], Word{Data: data})
}

// GetLabelID interns a label for (seg, offset), returning an existing id
// when one exists.
func (f *File) GetLabelID(seg, offset int) int {
	if id, ok := f.labelBySegOff[seg][offset]; ok {
		return id
	}
	id := len(f.Labels)
	f.Labels = append(f.Labels, Label{
		TargetSegment: seg,
		Offset:        offset,
		Name:          fmt.Sprintf("L%d", id),
	})
	f.labelBySegOff[seg][offset] = id
	return id
}

// LabelAt returns the label id at (seg, offset), or -1.
func (f *File) LabelAt(seg, offset int) int {
	if id, ok := f.labelBySegOff[seg][offset]; ok {
		return id
	}
	return -1
}

// LabelName returns a label's current name.
func (f *File) LabelName(id int) string {
	return f.Labels[id].Name
}

func atErr(base error, seg, off int, format string, args ...any) error {
	return fmt.Errorf("%w: %s at segment %d offset 0x%x", base, fmt.Sprintf(format, args...), seg, off)
}

func (f *File) wordAt(seg, off int) (*Word, error) {
	if seg < 0 || seg >= f.SegmentCount {
		return nil, atErr(ErrMalformed, seg, off, "segment out of range")
	}
	if off%4 != 0 {
		return nil, atErr(ErrMalformed, seg, off, "unaligned source offset")
	}
	idx := off / 4
	if idx < 0 || idx >= len(f.Words[seg]) {
		return nil, atErr(ErrMalformed, seg, off, "offset out of range")
	}
	return &f.Words[seg][idx], nil
}

// PointerLinkWord retags a word as a pointer to (destSeg, destOff).
func (f *File) PointerLinkWord(srcSeg, srcOff, destSeg, destOff int) error {
	w, err := f.wordAt(srcSeg, srcOff)
	if err != nil {
		return err
	}
	if w.Kind != PlainData {
		return atErr(ErrMalformed, srcSeg, srcOff, "retag of non-plain word")
	}
	if destSeg < 0 || destSeg >= f.SegmentCount || destOff/4 > len(f.Words[destSeg]) {
		return atErr(ErrMalformed, srcSeg, srcOff, "pointer target out of range (seg %d off 0x%x)", destSeg, destOff)
	}
	w.Kind = Ptr
	w.LabelID = f.GetLabelID(destSeg, destOff)
	return nil
}

// PointerLinkSplitWord retags a lui/ori pair loading a pointer. Both words
// share one label.
func (f *File) PointerLinkSplitWord(srcSeg, hiOff, loOff, destSeg, destOff int) error {
	hi, err := f.wordAt(srcSeg, hiOff)
	if err != nil {
		return err
	}
	lo, err := f.wordAt(srcSeg, loOff)
	if err != nil {
		return err
	}
	if hi.Kind != PlainData {
		return atErr(ErrMalformed, srcSeg, hiOff, "retag of non-plain word")
	}
	if lo.Kind != PlainData {
		return atErr(ErrMalformed, srcSeg, loOff, "retag of non-plain word")
	}
	hi.Kind = HiPtr
	hi.LabelID = f.GetLabelID(destSeg, destOff)
	lo.Kind = LoPtr
	lo.LabelID = hi.LabelID
	return nil
}

// SymbolLinkWord retags a word as a symbol/type/empty-list reference.
func (f *File) SymbolLinkWord(srcSeg, srcOff int, name string, kind WordKind) error {
	switch kind {
	case SymPtr, TypePtr, EmptyListPtr:
	default:
		return atErr(ErrMalformed, srcSeg, srcOff, "bad symbol word kind %d", kind)
	}
	w, err := f.wordAt(srcSeg, srcOff)
	if err != nil {
		return err
	}
	if w.Kind != PlainData {
		return atErr(ErrMalformed, srcSeg, srcOff, "retag of non-plain word")
	}
	w.Kind = kind
	w.Sym = name
	return nil
}

// SymbolLinkOffset retags a word whose low 16 bits are an offset relative
// to the symbol table register.
func (f *File) SymbolLinkOffset(srcSeg, srcOff int, name string) error {
	w, err := f.wordAt(srcSeg, srcOff)
	if err != nil {
		return err
	}
	if w.Kind != PlainData {
		return atErr(ErrMalformed, srcSeg, srcOff, "retag of non-plain word")
	}
	w.Kind = SymOffset
	w.Sym = name
	return nil
}

// SetOrderedLabelNames renames all labels L1, L2, ... in ascending
// (segment, offset) order and returns the label count. Clears custom names.
func (f *File) SetOrderedLabelNames() int {
	indices := make([]int, len(f.Labels))
	for i := range indices {
		indices[i] = i
	}
	sort.Slice(indices, func(a, b int) bool {
		la, lb := f.Labels[indices[a]], f.Labels[indices[b]]
		if la.TargetSegment == lb.TargetSegment {
			return la.Offset < lb.Offset
		}
		return la.TargetSegment < lb.TargetSegment
	})
	for i, idx := range indices {
		f.Labels[idx].Name = fmt.Sprintf("L%d", i+1)
	}
	return len(f.Labels)
}
