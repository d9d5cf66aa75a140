package mips

// LabelEnv allocates label ids for branch targets during decoding.
type LabelEnv interface {
	GetLabelID(seg, offset int) int
}

func bits(raw uint32, hi, lo int) uint32 {
	return (raw >> lo) & ((1 << (hi - lo + 1)) - 1)
}

func simm16(raw uint32) int32 {
	return int32(int16(raw & 0xffff))
}

// specialFunct maps SPECIAL (primary 0) funct values.
var specialFunct = map[uint32]InstructionKind{
	0:  IkSLL,
	2:  IkSRL,
	3:  IkSRA,
	4:  IkSLLV,
	6:  IkSRLV,
	7:  IkSRAV,
	8:  IkJR,
	9:  IkJALR,
	10: IkMOVZ,
	11: IkMOVN,
	12: IkSYSCALL,
	16: IkMFHI,
	17: IkMTHI,
	18: IkMFLO,
	19: IkMTLO,
	20: IkDSLLV,
	22: IkDSRLV,
	23: IkDSRAV,
	24: IkMULT,
	25: IkMULTU,
	26: IkDIV,
	27: IkDIVU,
	33: IkADDU,
	35: IkSUBU,
	36: IkAND,
	37: IkOR,
	38: IkXOR,
	39: IkNOR,
	42: IkSLT,
	43: IkSLTU,
	45: IkDADDU,
	47: IkDSUBU,
	56: IkDSLL,
	58: IkDSRL,
	59: IkDSRA,
	60: IkDSLL32,
	62: IkDSRL32,
	63: IkDSRA32,
}

// regimmRt maps REGIMM (primary 1) rt values.
var regimmRt = map[uint32]InstructionKind{
	0: IkBLTZ,
	1: IkBGEZ,
	2: IkBLTZL,
	3: IkBGEZL,
}

// primary maps primary opcodes that need no secondary dispatch.
var primary = map[uint32]InstructionKind{
	4:  IkBEQ,
	5:  IkBNE,
	6:  IkBLEZ,
	7:  IkBGTZ,
	9:  IkADDIU,
	10: IkSLTI,
	11: IkSLTIU,
	12: IkANDI,
	13: IkORI,
	14: IkXORI,
	15: IkLUI,
	20: IkBEQL,
	21: IkBNEL,
	22: IkBLEZL,
	23: IkBGTZL,
	25: IkDADDIU,
	26: IkLDL,
	27: IkLDR,
	30: IkLQ,
	31: IkSQ,
	32: IkLB,
	33: IkLH,
	34: IkLWL,
	35: IkLW,
	36: IkLBU,
	37: IkLHU,
	38: IkLWR,
	39: IkLWU,
	40: IkSB,
	41: IkSH,
	42: IkSWL,
	43: IkSW,
	44: IkSDL,
	45: IkSDR,
	46: IkSWR,
	49: IkLWC1,
	55: IkLD,
	57: IkSWC1,
	63: IkSD,
}

// cop1S maps COP1 fmt=S funct values.
var cop1S = map[uint32]InstructionKind{
	0:    IkADDS,
	1:    IkSUBS,
	2:    IkMULS,
	3:    IkDIVS,
	4:    IkSQRTS,
	5:    IkABSS,
	6:    IkMOVS,
	7:    IkNEGS,
	0x28: IkMAXS,
	0x29: IkMINS,
	0x24: IkCVTWS,
	0x32: IkCEQS,
	0x34: IkCLTS,
	0x36: IkCLES,
}

// mmi0/mmi1/mmi2/mmi3Ops map the bits 10..6 sub-opcode of each MMI group.
var mmi0 = map[uint32]InstructionKind{
	0:  IkPADDW,
	1:  IkPSUBW,
	18: IkPEXTLW,
	19: IkPPACW,
	22: IkPEXTLH,
	23: IkPPACH,
	26: IkPEXTLB,
	27: IkPPACB,
}

var mmi1 = map[uint32]InstructionKind{
	18: IkPEXTUW,
}

var mmi2 = map[uint32]InstructionKind{
	14: IkPCPYLD,
	18: IkPAND,
	19: IkPXOR,
}

var mmi3Ops = map[uint32]InstructionKind{
	14: IkPCPYUD,
	18: IkPOR,
	19: IkPNOR,
}

// cop2Funct maps macro-mode VU opcodes (co bit set).
var cop2Funct = map[uint32]InstructionKind{
	0x28: IkVADD,
	0x2a: IkVMUL,
	0x2c: IkVSUB,
}

// classify maps a raw word to its InstructionKind.
func classify(raw uint32) InstructionKind {
	prim := bits(raw, 31, 26)
	switch prim {
	case 0:
		if k, ok := specialFunct[bits(raw, 5, 0)]; ok {
			return k
		}
	case 1:
		if k, ok := regimmRt[bits(raw, 20, 16)]; ok {
			return k
		}
	case 16: // cop0
		switch bits(raw, 25, 21) {
		case 0:
			return IkMFC0
		case 4:
			return IkMTC0
		}
	case 17: // cop1
		switch bits(raw, 25, 21) {
		case 0:
			return IkMFC1
		case 4:
			return IkMTC1
		case 8: // bc1
			switch bits(raw, 20, 16) {
			case 0:
				return IkBC1F
			case 1:
				return IkBC1T
			case 2:
				return IkBC1FL
			case 3:
				return IkBC1TL
			}
		case 16: // fmt = S
			if k, ok := cop1S[bits(raw, 5, 0)]; ok {
				return k
			}
		case 20: // fmt = W
			if bits(raw, 5, 0) == 0x20 {
				return IkCVTSW
			}
		}
	case 18: // cop2
		rs := bits(raw, 25, 21)
		switch rs {
		case 1:
			return IkQMFC2
		case 2:
			return IkCFC2
		case 5:
			return IkQMTC2
		case 6:
			return IkCTC2
		}
		if rs >= 16 {
			if k, ok := cop2Funct[bits(raw, 5, 0)]; ok {
				return k
			}
		}
	case 28: // mmi
		switch bits(raw, 5, 0) {
		case 4:
			return IkPLZCW
		case 8:
			if k, ok := mmi0[bits(raw, 10, 6)]; ok {
				return k
			}
		case 40:
			if k, ok := mmi1[bits(raw, 10, 6)]; ok {
				return k
			}
		case 9:
			if k, ok := mmi2[bits(raw, 10, 6)]; ok {
				return k
			}
		case 41:
			if k, ok := mmi3Ops[bits(raw, 10, 6)]; ok {
				return k
			}
		}
	default:
		if k, ok := primary[prim]; ok {
			return k
		}
	}
	return IkInvalid
}

// Decode turns one code word into an Instruction. Branch targets become
// labels allocated through env at the target's byte offset within seg;
// wordIdx is the word's index within the segment.
func Decode(raw uint32, env LabelEnv, seg, wordIdx int) Instruction {
	kind := classify(raw)
	instr := Instruction{Kind: kind}
	if kind == IkInvalid {
		// keep the raw word for rendering
		instr.Src[0] = Atom{Kind: AtomImm, Imm: int32(raw)}
		instr.NSrc = 1
		return instr
	}

	info := &opInfo[kind]
	for _, st := range info.steps {
		var a Atom
		switch st.field {
		case fldRs:
			a = Atom{Kind: AtomRegister, Reg: Register{Kind: st.reg, Index: int(bits(raw, 25, 21))}}
		case fldRt, fldFt:
			a = Atom{Kind: AtomRegister, Reg: Register{Kind: st.reg, Index: int(bits(raw, 20, 16))}}
		case fldRd, fldFs:
			a = Atom{Kind: AtomRegister, Reg: Register{Kind: st.reg, Index: int(bits(raw, 15, 11))}}
		case fldSa, fldFd:
			if st.field == fldSa {
				a = Atom{Kind: AtomImm, Imm: int32(bits(raw, 10, 6))}
			} else {
				a = Atom{Kind: AtomRegister, Reg: Register{Kind: st.reg, Index: int(bits(raw, 10, 6))}}
			}
		case fldSimm16:
			a = Atom{Kind: AtomImm, Imm: simm16(raw)}
		case fldZimm16:
			a = Atom{Kind: AtomImm, Imm: int32(raw & 0xffff)}
		case fldBranch:
			target := 4 * (wordIdx + 1 + int(simm16(raw)))
			a = Atom{Kind: AtomBranch, Label: env.GetLabelID(seg, target)}
		}
		if st.dst {
			instr.addDst(a)
		} else {
			instr.addSrc(a)
		}
	}
	return instr
}
