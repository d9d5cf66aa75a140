package function

import (
	"fmt"
	"strings"

	"goaldis/internal/linked"
)

const functionBanner = ";;;;;;;;;;;;;;;;;;;;;;;;;;;;;;;;;;;;;;;;;;;;;;;;;;;;;;;;;;;;;;;;;;;;;;;;;;;;;;;\n"

// RenderDisassembly prints every function followed by the data zone of
// each segment, high segment index first. Mid-word labels inside code are
// reported as warnings but do not stop the dump. hexNear additionally
// prints each instruction's raw word in the annotation column.
func RenderDisassembly(f *linked.File, funcs [][]*Function, hexNear bool) string {
	var b strings.Builder

	for seg := f.SegmentCount - 1; seg >= 0; seg-- {
		b.WriteString(";------------------------------------------\n;  ")
		b.WriteString(linked.SegmentNames[seg])
		b.WriteString("\n;------------------------------------------\n")

		for _, fn := range funcs[seg] {
			b.WriteString(functionBanner)
			b.WriteString("; .function " + fn.GuessedName + "\n")

			inDelaySlot := false
			for i := 1; i < fn.EndWord-fn.StartWord; i++ {
				off := (fn.StartWord + i) * 4
				if id := f.LabelAt(seg, off); id >= 0 {
					b.WriteString(f.Labels[id].Name + ":\n")
				}
				// only byte offset 0 can label an instruction
				for j := 1; j < 4; j++ {
					if id := f.LabelAt(seg, off+j); id >= 0 {
						fmt.Fprintf(&b, "; WARNING: mid-instruction label %s (offset %d)\n",
							f.Labels[id].Name, j)
						fn.warnf("mid-instruction label %s at offset %d", f.Labels[id].Name, off+j)
					}
				}

				instr := &fn.Instructions[i]
				line := "    " + instr.Render(f)
				if len(line) < 60 {
					line += strings.Repeat(" ", 60-len(line))
				}
				b.WriteString(line)
				b.WriteString(" ;;")
				if hexNear {
					fmt.Fprintf(&b, " [0x%08x]", f.Words[seg][fn.StartWord+i].Data)
				}
				f.AppendWord(&b, &f.Words[seg][fn.StartWord+i])

				if inDelaySlot {
					b.WriteByte('\n')
					inDelaySlot = false
				}
				if instr.Info().HasDelaySlot {
					inDelaySlot = true
				}
			}
		}

		for i := f.DataStart[seg]; i < len(f.Words[seg]); i++ {
			for j := 0; j < 4; j++ {
				if id := f.LabelAt(seg, i*4+j); id >= 0 {
					b.WriteString(f.Labels[id].Name + ":")
					if j != 0 {
						fmt.Fprintf(&b, " (offset %d)", j)
					}
					b.WriteByte('\n')
				}
			}
			f.AppendWord(&b, &f.Words[seg][i])
		}
	}
	return b.String()
}

// HasAnyFunctions reports whether any segment contains a function.
func HasAnyFunctions(funcs [][]*Function) bool {
	for _, segFuncs := range funcs {
		if len(segFuncs) > 0 {
			return true
		}
	}
	return false
}
