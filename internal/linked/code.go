package linked

import (
	"fmt"

	"goaldis/internal/mips"
)

// FunctionTypeTag is the type tag marking the start of each function.
const FunctionTypeTag = "function"

// isFunctionTag reports whether a word is a function type tag.
func isFunctionTag(w *Word) bool {
	return w.Kind == TypePtr && w.Sym == FunctionTypeTag
}

// FindCode determines where each segment's data zone starts. Before the
// data zone is code.
//
// A one-segment (v2) object is all data and must contain no function tags.
// For three-segment (v3) objects the functions all come before the static
// data, so the divider is found by locating the last function tag, then
// the last jr ra after it, plus one word for the delay slot.
func (f *File) FindCode() error {
	switch f.SegmentCount {
	case 1:
		for i := range f.Words[0] {
			if isFunctionTag(&f.Words[0][i]) {
				return atErr(ErrMalformed, 0, i*4, "function tag in data-only object")
			}
		}
		f.DataStart[0] = 0
		f.Stats.DataBytes = len(f.Words[0]) * 4
		f.Stats.CodeBytes = 0
		return nil

	case 3:
		for seg := 0; seg < f.SegmentCount; seg++ {
			words := f.Words[seg]

			funcLoc := -1
			for j := len(words) - 1; j >= 0; j-- {
				if isFunctionTag(&words[j]) {
					funcLoc = j
					break
				}
			}

			if funcLoc >= 0 {
				// look forward for the last jr ra
				jrRaLoc := -1
				for j := funcLoc; j < len(words); j++ {
					w := &words[j]
					if w.Kind == PlainData && w.Data == mips.JrRaWord {
						jrRaLoc = j
					}
				}
				if jrRaLoc < 0 {
					return atErr(ErrMalformed, seg, funcLoc*4, "no jr ra after last function tag")
				}
				if jrRaLoc+1 >= len(words) {
					return atErr(ErrMalformed, seg, jrRaLoc*4, "jr ra missing delay slot")
				}
				f.DataStart[seg] = jrRaLoc + 2
			} else {
				f.DataStart[seg] = 0
			}

			// debug label for the start of the data zone
			if f.DataStart[seg] < len(words) {
				id := f.GetLabelID(seg, 4*f.DataStart[seg])
				f.Labels[id].Name = "L-data-start"
			}

			// nothing that looks like a function may follow the divider
			for j := f.DataStart[seg]; j < len(words); j++ {
				if isFunctionTag(&words[j]) {
					return atErr(ErrMalformed, seg, j*4, "function tag in data zone")
				}
			}

			f.Stats.DataBytes += 4 * (len(words) - f.DataStart[seg])
			f.Stats.CodeBytes += 4 * f.DataStart[seg]
		}
		return nil

	default:
		return fmt.Errorf("%w: %d segments", ErrUnsupported, f.SegmentCount)
	}
}
