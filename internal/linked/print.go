package linked

import (
	"fmt"
	"strings"
)

// AppendWord writes a word's printed representation. The format matches
// the historical dumps: hi/lo pointer and symbol offset words show the
// upper halfword of the raw word next to the link target.
func (f *File) AppendWord(b *strings.Builder, w *Word) {
	switch w.Kind {
	case PlainData:
		fmt.Fprintf(b, "    .word 0x%x\n", w.Data)
	case Ptr:
		fmt.Fprintf(b, "    .word %s\n", f.Labels[w.LabelID].Name)
	case SymPtr:
		fmt.Fprintf(b, "    .symbol %s\n", w.Sym)
	case TypePtr:
		fmt.Fprintf(b, "    .type %s\n", w.Sym)
	case EmptyListPtr:
		fmt.Fprintf(b, "    .empty-list\n")
	case HiPtr:
		fmt.Fprintf(b, "    .ptr-hi 0x%x %s\n", w.Data>>16, f.Labels[w.LabelID].Name)
	case LoPtr:
		fmt.Fprintf(b, "    .ptr-lo 0x%x %s\n", w.Data>>16, f.Labels[w.LabelID].Name)
	case SymOffset:
		fmt.Fprintf(b, "    .sym-off 0x%x %s\n", w.Data>>16, w.Sym)
	default:
		fmt.Fprintf(b, "    .word-unknown 0x%x\n", w.Data)
	}
}

func (f *File) appendSegmentHeader(b *strings.Builder, seg int) {
	b.WriteString(";------------------------------------------\n;  ")
	b.WriteString(SegmentNames[seg])
	b.WriteString("\n;------------------------------------------\n")
}

func (f *File) appendLabelsAt(b *strings.Builder, seg, wordIdx int) {
	for j := 0; j < 4; j++ {
		id := f.LabelAt(seg, wordIdx*4+j)
		if id < 0 {
			continue
		}
		b.WriteString(f.Labels[id].Name)
		b.WriteByte(':')
		if j != 0 {
			fmt.Fprintf(b, " (offset %d)", j)
		}
		b.WriteByte('\n')
	}
}

// PrintWords renders every word with link information and labels.
// Segments are written high index first, matching the historical order.
func (f *File) PrintWords() string {
	var b strings.Builder
	for seg := f.SegmentCount - 1; seg >= 0; seg-- {
		f.appendSegmentHeader(&b, seg)
		for i := range f.Words[seg] {
			f.appendLabelsAt(&b, seg, i)
			f.AppendWord(&b, &f.Words[seg][i])
		}
	}
	return b.String()
}
