// Package function analyzes carved functions: instruction decoding,
// fp-relative data references, stack frame recognition, and basic blocks.
package function

import (
	"errors"
	"fmt"

	"goaldis/internal/linked"
	"goaldis/internal/mips"
)

// ErrAnalysis indicates a structural problem that is not recoverable at
// the function level (bad carving, branch out of function).
var ErrAnalysis = errors.New("function: analysis failed")

// BasicBlock is a [StartWord, EndWord) range of instruction indices.
// Branch delay slots belong to the same block as their branch.
type BasicBlock struct {
	StartWord int
	EndWord   int
}

// Prologue describes a decoded stack frame setup.
type Prologue struct {
	Decoded bool

	TotalStackUsage int
	RaBackedUp      bool
	RaBackupOffset  int
	FpBackedUp      bool
	FpBackupOffset  int
	FpSet           bool

	NGprBackup      int
	GprBackupOffset int
	NFprBackup      int
	FprBackupOffset int

	NStackVarBytes int
	StackVarOffset int

	EpilogueOk bool
}

// Function is one carved function. StartWord points at the word bearing
// the function type tag; instruction 0 is that tag and not executable.
type Function struct {
	Segment   int
	StartWord int
	EndWord   int // exclusive; includes alignment padding

	GuessedName string

	Instructions []mips.Instruction
	BasicBlocks  []BasicBlock

	Prologue      Prologue
	PrologueStart int
	PrologueEnd   int
	EpilogueStart int
	EpilogueEnd   int

	SuspectedAsm   bool
	UsesFpRegister bool
	Warnings       []string
}

func (fn *Function) warnf(format string, args ...any) {
	fn.Warnings = append(fn.Warnings, fmt.Sprintf(format, args...))
}

// Carve splits each code segment into functions. Functions are delimited
// by the function type tag; the previous function ends where the next tag
// begins, so trailing alignment padding belongs to the earlier function.
func Carve(f *linked.File) ([][]*Function, error) {
	funcs := make([][]*Function, f.SegmentCount)
	if f.SegmentCount == 1 {
		if f.DataStart[0] != 0 {
			return nil, fmt.Errorf("%w: data-only object with code zone", ErrAnalysis)
		}
		return funcs, nil
	}

	for seg := 0; seg < f.SegmentCount; seg++ {
		end := f.DataStart[seg]
		for end > 0 {
			tagLoc := -1
			for j := end - 1; j >= 0; j-- {
				w := &f.Words[seg][j]
				if w.Kind == linked.TypePtr && w.Sym == linked.FunctionTypeTag {
					tagLoc = j
					break
				}
			}
			if tagLoc < 0 {
				return nil, fmt.Errorf("%w: segment %d: code before first function tag", ErrAnalysis, seg)
			}
			f.Stats.FunctionCount++
			funcs[seg] = append(funcs[seg], &Function{Segment: seg, StartWord: tagLoc, EndWord: end})
			end = tagLoc
		}
		// carved back to front; restore address order
		s := funcs[seg]
		for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
			s[i], s[j] = s[j], s[i]
		}
	}
	return funcs, nil
}

// Disassemble decodes every function's words. Linked word tags are
// propagated into the immediate operand.
func Disassemble(f *linked.File, funcs [][]*Function) {
	for seg, segFuncs := range funcs {
		for _, fn := range segFuncs {
			for w := fn.StartWord; w < fn.EndWord; w++ {
				word := &f.Words[seg][w]
				instr := decodeWord(word, f, seg, w)
				if instr.IsValid() {
					f.Stats.DecodedOps++
				}
				fn.Instructions = append(fn.Instructions, instr)
			}
		}
	}
}

func decodeWord(word *linked.Word, f *linked.File, seg, wordIdx int) mips.Instruction {
	switch word.Kind {
	case linked.SymPtr, linked.TypePtr, linked.EmptyListPtr:
		// not code; the function type tag lands here
		instr := mips.Instruction{Kind: mips.IkInvalid}
		instr.Src[0] = mips.Atom{Kind: mips.AtomImm, Imm: int32(word.Data)}
		instr.NSrc = 1
		return instr
	}

	instr := mips.Decode(word.Data, f, seg, wordIdx)
	if !instr.IsValid() {
		return instr
	}

	switch word.Kind {
	case linked.Ptr, linked.HiPtr, linked.LoPtr:
		if a := instr.ImmSrc(); a != nil {
			a.SetLabel(word.LabelID)
		}
	case linked.SymOffset:
		if a := instr.ImmSrc(); a != nil {
			a.Kind = mips.AtomSymbol
			a.Sym = word.Sym
		}
	}
	return instr
}
