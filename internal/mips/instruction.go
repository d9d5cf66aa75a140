package mips

import (
	"fmt"
	"strings"
)

// AtomKind is the type of one instruction operand.
type AtomKind int

const (
	AtomNone AtomKind = iota
	AtomRegister
	AtomImm
	AtomLabel  // immediate rewritten to a label reference
	AtomBranch // branch target label
	AtomSymbol
)

// Atom is a single operand.
type Atom struct {
	Kind  AtomKind
	Reg   Register
	Imm   int32
	Label int
	Sym   string
}

// IsLinkOrLabel reports whether the atom references linked data.
func (a Atom) IsLinkOrLabel() bool {
	return a.Kind == AtomLabel || a.Kind == AtomBranch || a.Kind == AtomSymbol
}

// SetLabel rewrites the atom into a label reference, keeping the immediate.
func (a *Atom) SetLabel(id int) {
	a.Kind = AtomLabel
	a.Label = id
}

// LabelNamer resolves label ids to names for rendering.
type LabelNamer interface {
	LabelName(id int) string
}

func (a Atom) render(ln LabelNamer) string {
	switch a.Kind {
	case AtomRegister:
		return a.Reg.String()
	case AtomImm:
		return fmt.Sprintf("%d", a.Imm)
	case AtomLabel, AtomBranch:
		if ln == nil {
			return fmt.Sprintf("L?%d", a.Label)
		}
		return ln.LabelName(a.Label)
	case AtomSymbol:
		return a.Sym
	default:
		return "?"
	}
}

// Instruction is one decoded word.
type Instruction struct {
	Kind InstructionKind
	NSrc int
	NDst int
	Src  [4]Atom
	Dst  [4]Atom
}

// Info returns the static opcode information for this instruction.
func (i *Instruction) Info() *OpInfo { return &opInfo[i.Kind] }

// IsValid reports whether the word decoded to a known opcode.
func (i *Instruction) IsValid() bool { return i.Kind != IkInvalid }

// GetSrc returns source operand n.
func (i *Instruction) GetSrc(n int) *Atom { return &i.Src[n] }

// GetDst returns destination operand n.
func (i *Instruction) GetDst(n int) *Atom { return &i.Dst[n] }

// ImmSrc returns the first immediate (or immediate-turned-label) source
// operand. Returns nil if there is none.
func (i *Instruction) ImmSrc() *Atom {
	for n := 0; n < i.NSrc; n++ {
		if i.Src[n].Kind == AtomImm || i.Src[n].Kind == AtomLabel {
			return &i.Src[n]
		}
	}
	return nil
}

// ImmSrcInt returns the first immediate source's value.
func (i *Instruction) ImmSrcInt() int32 {
	a := i.ImmSrc()
	if a == nil {
		return 0
	}
	return a.Imm
}

// LabelTarget returns the branch target label id, or -1 for non-branches.
func (i *Instruction) LabelTarget() int {
	for n := 0; n < i.NSrc; n++ {
		if i.Src[n].Kind == AtomBranch {
			return i.Src[n].Label
		}
	}
	return -1
}

func (i *Instruction) addSrc(a Atom) {
	i.Src[i.NSrc] = a
	i.NSrc++
}

func (i *Instruction) addDst(a Atom) {
	i.Dst[i.NDst] = a
	i.NDst++
}

// String renders the instruction without label names.
func (i *Instruction) String() string { return i.Render(nil) }

// Render formats the instruction the way the disassembly output expects:
// loads and stores use reg, off(base); everything else is comma separated
// destinations then sources.
func (i *Instruction) Render(ln LabelNamer) string {
	info := i.Info()

	if IsNop(i) {
		return "nop"
	}
	if i.Kind == IkInvalid {
		return fmt.Sprintf(".word-invalid 0x%x", uint32(i.Src[0].Imm))
	}

	var b strings.Builder
	b.WriteString(info.Name)

	if info.IsLoad {
		// dst, off(base)
		fmt.Fprintf(&b, " %s, %s(%s)", i.Dst[0].render(ln), i.Src[0].render(ln), i.Src[1].render(ln))
		return b.String()
	}
	if info.IsStore {
		// value, off(base)
		fmt.Fprintf(&b, " %s, %s(%s)", i.Src[0].render(ln), i.Src[1].render(ln), i.Src[2].render(ln))
		return b.String()
	}

	first := true
	sep := func() {
		if first {
			b.WriteByte(' ')
			first = false
		} else {
			b.WriteString(", ")
		}
	}
	for n := 0; n < i.NDst; n++ {
		sep()
		b.WriteString(i.Dst[n].render(ln))
	}
	for n := 0; n < i.NSrc; n++ {
		sep()
		b.WriteString(i.Src[n].render(ln))
	}
	return b.String()
}
