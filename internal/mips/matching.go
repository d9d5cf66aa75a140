package mips

// MatchReg matches a register operand, or anything when wildcard.
type MatchReg struct {
	Reg      Register
	Wildcard bool
}

// AnyReg matches any register.
func AnyReg() MatchReg { return MatchReg{Wildcard: true} }

// ExactReg matches one register.
func ExactReg(r Register) MatchReg { return MatchReg{Reg: r} }

func (m MatchReg) matches(r Register) bool { return m.Wildcard || m.Reg == r }

// MatchImm matches an immediate operand, or anything when wildcard.
type MatchImm struct {
	Imm      int32
	Wildcard bool
}

// AnyImm matches any immediate.
func AnyImm() MatchImm { return MatchImm{Wildcard: true} }

// ExactImm matches one immediate value.
func ExactImm(v int32) MatchImm { return MatchImm{Imm: v} }

func (m MatchImm) matches(v int32) bool { return m.Wildcard || m.Imm == v }

func hasLinkOperand(i *Instruction) bool {
	for n := 0; n < i.NSrc; n++ {
		if i.Src[n].IsLinkOrLabel() {
			return true
		}
	}
	for n := 0; n < i.NDst; n++ {
		if i.Dst[n].IsLinkOrLabel() {
			return true
		}
	}
	return false
}

var gprStoreBySize = map[int]InstructionKind{
	1:  IkSB,
	2:  IkSH,
	4:  IkSW,
	8:  IkSD,
	16: IkSQ,
}

var gprLoadBySize = map[int]InstructionKind{
	1:  IkLB,
	2:  IkLH,
	4:  IkLW,
	8:  IkLD,
	16: IkLQ,
}

// IsGprStore reports whether the instruction stores a GPR.
func IsGprStore(i *Instruction) bool {
	switch i.Kind {
	case IkSB, IkSH, IkSW, IkSD, IkSQ:
		return true
	}
	return false
}

// GprStoreOffset returns the store's immediate offset.
func GprStoreOffset(i *Instruction) int32 {
	return i.Src[1].Imm
}

// IsNoLinkGprStore matches a GPR store with no linked operands. size is 0
// for any store width.
func IsNoLinkGprStore(i *Instruction, size int, src MatchReg, offset MatchImm, base MatchReg) bool {
	if size != 0 {
		if i.Kind != gprStoreBySize[size] {
			return false
		}
	} else if !IsGprStore(i) {
		return false
	}
	if hasLinkOperand(i) {
		return false
	}
	return src.matches(i.Src[0].Reg) && offset.matches(i.Src[1].Imm) && base.matches(i.Src[2].Reg)
}

// IsNoLinkGprLoad matches a GPR load with no linked operands.
func IsNoLinkGprLoad(i *Instruction, size int, dst MatchReg, offset MatchImm, base MatchReg) bool {
	if size != 0 {
		if i.Kind != gprLoadBySize[size] {
			return false
		}
	} else {
		switch i.Kind {
		case IkLB, IkLBU, IkLH, IkLHU, IkLW, IkLWU, IkLD, IkLQ:
		default:
			return false
		}
	}
	if hasLinkOperand(i) {
		return false
	}
	return dst.matches(i.Dst[0].Reg) && offset.matches(i.Src[0].Imm) && base.matches(i.Src[1].Reg)
}

// IsNoLinkFprStore matches swc1 with no linked operands.
func IsNoLinkFprStore(i *Instruction, src MatchReg, offset MatchImm, base MatchReg) bool {
	return i.Kind == IkSWC1 && !hasLinkOperand(i) &&
		src.matches(i.Src[0].Reg) && offset.matches(i.Src[1].Imm) && base.matches(i.Src[2].Reg)
}

// IsNoLinkFprLoad matches lwc1 with no linked operands.
func IsNoLinkFprLoad(i *Instruction, dst MatchReg, offset MatchImm, base MatchReg) bool {
	return i.Kind == IkLWC1 && !hasLinkOperand(i) &&
		dst.matches(i.Dst[0].Reg) && offset.matches(i.Src[0].Imm) && base.matches(i.Src[1].Reg)
}

// IsGpr3 matches a three-register instruction of the given kind.
func IsGpr3(i *Instruction, kind InstructionKind, dst, src0, src1 MatchReg) bool {
	return i.Kind == kind && i.NDst >= 1 && i.NSrc >= 2 &&
		dst.matches(i.Dst[0].Reg) && src0.matches(i.Src[0].Reg) && src1.matches(i.Src[1].Reg)
}

// IsGpr2Imm matches a register-register-immediate instruction.
func IsGpr2Imm(i *Instruction, kind InstructionKind, dst, src MatchReg, imm MatchImm) bool {
	return i.Kind == kind && i.NDst >= 1 && i.NSrc >= 2 &&
		dst.matches(i.Dst[0].Reg) && src.matches(i.Src[0].Reg) &&
		i.Src[1].Kind == AtomImm && imm.matches(i.Src[1].Imm)
}

// IsNop matches sll r0, r0, 0.
func IsNop(i *Instruction) bool {
	return i.Kind == IkSLL &&
		i.Dst[0].Reg == MakeGPR(R0) && i.Src[0].Reg == MakeGPR(R0) &&
		i.Src[1].Kind == AtomImm && i.Src[1].Imm == 0
}

// IsJrRa matches jr ra.
func IsJrRa(i *Instruction) bool {
	return i.Kind == IkJR && i.Src[0].Reg == MakeGPR(RA)
}

// IsAlwaysBranch reports whether a branch is unconditional (beq with equal
// source registers, in practice beq r0, r0).
func IsAlwaysBranch(i *Instruction) bool {
	return i.Kind == IkBEQ && i.Src[0].Reg == i.Src[1].Reg
}
