package objdb

import (
	"fmt"
	"strings"

	"goaldis/internal/linked"
)

// Static script tables are linked lists of pairs in the data zone. A
// pointer into a pair has byte offset 2 mod 8; the car word sits at
// offset-2 and the cdr word right after it. Plain data words in pairs are
// boxed integers (value shifted left 3).

const maxScriptDepth = 64

func isPairLabel(l *linked.Label) bool {
	return l.Offset%8 == 2
}

// printScripts renders every root pair in the object. A pair is a root if
// no other pair's car or cdr points at it.
func printScripts(f *linked.File) string {
	// collect pair labels per segment
	var pairLabels []int
	referenced := make(map[int]bool)
	for id := range f.Labels {
		l := &f.Labels[id]
		if !isPairLabel(l) {
			continue
		}
		if l.Offset/4 < f.DataStart[l.TargetSegment] {
			continue
		}
		pairLabels = append(pairLabels, id)

		// mark pairs referenced from this pair's car/cdr
		wordIdx := (l.Offset - 2) / 4
		for _, w := range []int{wordIdx, wordIdx + 1} {
			if w >= len(f.Words[l.TargetSegment]) {
				continue
			}
			word := &f.Words[l.TargetSegment][w]
			if word.Kind == linked.Ptr && isPairLabel(&f.Labels[word.LabelID]) {
				referenced[word.LabelID] = true
			}
		}
	}

	var b strings.Builder
	for _, id := range pairLabels {
		if referenced[id] {
			continue
		}
		b.WriteString(renderList(f, id, 0))
		b.WriteByte('\n')
	}
	return b.String()
}

func renderList(f *linked.File, labelID, depth int) string {
	if depth > maxScriptDepth {
		return "..."
	}
	var b strings.Builder
	b.WriteByte('(')

	id := labelID
	first := true
	for {
		l := &f.Labels[id]
		wordIdx := (l.Offset - 2) / 4
		words := f.Words[l.TargetSegment]
		if wordIdx+1 >= len(words) {
			b.WriteString(" ?)")
			return b.String()
		}
		if !first {
			b.WriteByte(' ')
		}
		first = false
		b.WriteString(renderAtom(f, &words[wordIdx], depth))

		cdr := &words[wordIdx+1]
		switch {
		case cdr.Kind == linked.EmptyListPtr:
			b.WriteByte(')')
			return b.String()
		case cdr.Kind == linked.Ptr && isPairLabel(&f.Labels[cdr.LabelID]):
			id = cdr.LabelID
			depth++
			if depth > maxScriptDepth {
				b.WriteString(" ...)")
				return b.String()
			}
		default:
			// improper list
			b.WriteString(" . " + renderAtom(f, cdr, depth) + ")")
			return b.String()
		}
	}
}

func renderAtom(f *linked.File, w *linked.Word, depth int) string {
	switch w.Kind {
	case linked.PlainData:
		if w.Data&7 == 0 {
			return fmt.Sprintf("%d", int32(w.Data)>>3)
		}
		return fmt.Sprintf("#x%x", w.Data)
	case linked.SymPtr:
		return w.Sym
	case linked.TypePtr:
		return w.Sym
	case linked.EmptyListPtr:
		return "'()"
	case linked.Ptr:
		if isPairLabel(&f.Labels[w.LabelID]) {
			return renderList(f, w.LabelID, depth+1)
		}
		return f.Labels[w.LabelID].Name
	default:
		return fmt.Sprintf("#x%x", w.Data)
	}
}
