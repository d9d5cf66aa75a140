// Package mips models EE MIPS instructions: registers, operand atoms, the
// opcode table, and the word decoder.
package mips

import "fmt"

// RegKind is a register file.
type RegKind int

const (
	GPR RegKind = iota
	FPR
	COP0
	VF
	VI
)

// GPR indices, standard EE naming. S7 holds the symbol table pointer and
// FP holds the function pointer in compiled code.
const (
	R0 = iota
	AT
	V0
	V1
	A0
	A1
	A2
	A3
	T0
	T1
	T2
	T3
	T4
	T5
	T6
	T7
	S0
	S1
	S2
	S3
	S4
	S5
	S6
	S7
	T8
	T9
	K0
	K1
	GP
	SP
	FP
	RA
)

var gprNames = [32]string{
	"r0", "at", "v0", "v1", "a0", "a1", "a2", "a3",
	"t0", "t1", "t2", "t3", "t4", "t5", "t6", "t7",
	"s0", "s1", "s2", "s3", "s4", "s5", "s6", "s7",
	"t8", "t9", "k0", "k1", "gp", "sp", "fp", "ra",
}

var cop0Names = [32]string{
	"Index", "Random", "EntryLo0", "EntryLo1", "Context", "PageMask", "Wired", "7",
	"BadVAddr", "Count", "EntryHi", "Compare", "Status", "Cause", "EPC", "PRId",
	"Config", "17", "18", "19", "20", "21", "22", "BadPAddr",
	"Debug", "Perf", "26", "27", "TagLo", "TagHi", "ErrorEPC", "31",
}

// Register identifies one register in one file.
type Register struct {
	Kind  RegKind
	Index int
}

// MakeGPR builds a general purpose register.
func MakeGPR(idx int) Register { return Register{Kind: GPR, Index: idx} }

// MakeFPR builds a floating point register.
func MakeFPR(idx int) Register { return Register{Kind: FPR, Index: idx} }

func (r Register) String() string {
	switch r.Kind {
	case GPR:
		return gprNames[r.Index&31]
	case FPR:
		return fmt.Sprintf("f%d", r.Index)
	case COP0:
		return cop0Names[r.Index&31]
	case VF:
		return fmt.Sprintf("vf%d", r.Index)
	case VI:
		return fmt.Sprintf("vi%d", r.Index)
	default:
		return fmt.Sprintf("reg?%d?%d", int(r.Kind), r.Index)
	}
}
