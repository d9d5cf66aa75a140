package mips

// InstructionKind enumerates the decoded opcodes.
type InstructionKind int

const (
	IkInvalid InstructionKind = iota

	// loads
	IkLB
	IkLBU
	IkLH
	IkLHU
	IkLW
	IkLWU
	IkLWL
	IkLWR
	IkLD
	IkLDL
	IkLDR
	IkLQ
	IkLWC1

	// stores
	IkSB
	IkSH
	IkSW
	IkSWL
	IkSWR
	IkSD
	IkSDL
	IkSDR
	IkSQ
	IkSWC1

	// immediate arithmetic
	IkADDIU
	IkDADDIU
	IkSLTI
	IkSLTIU
	IkANDI
	IkORI
	IkXORI
	IkLUI

	// register arithmetic
	IkADDU
	IkDADDU
	IkSUBU
	IkDSUBU
	IkAND
	IkOR
	IkXOR
	IkNOR
	IkSLT
	IkSLTU
	IkMOVZ
	IkMOVN

	// shifts
	IkSLL
	IkSRL
	IkSRA
	IkSLLV
	IkSRLV
	IkSRAV
	IkDSLL
	IkDSRL
	IkDSRA
	IkDSLL32
	IkDSRL32
	IkDSRA32
	IkDSLLV
	IkDSRLV
	IkDSRAV

	// multiply / divide
	IkMULT
	IkMULTU
	IkDIV
	IkDIVU
	IkMFHI
	IkMFLO
	IkMTHI
	IkMTLO

	// jumps
	IkJR
	IkJALR

	// branches
	IkBEQ
	IkBNE
	IkBLEZ
	IkBGTZ
	IkBLTZ
	IkBGEZ
	IkBEQL
	IkBNEL
	IkBLEZL
	IkBGTZL
	IkBLTZL
	IkBGEZL

	IkSYSCALL

	// cop0
	IkMFC0
	IkMTC0

	// cop1
	IkMFC1
	IkMTC1
	IkADDS
	IkSUBS
	IkMULS
	IkDIVS
	IkSQRTS
	IkABSS
	IkMOVS
	IkNEGS
	IkMINS
	IkMAXS
	IkCVTWS
	IkCVTSW
	IkCEQS
	IkCLTS
	IkCLES
	IkBC1F
	IkBC1T
	IkBC1FL
	IkBC1TL

	// multimedia
	IkPLZCW
	IkPADDW
	IkPSUBW
	IkPEXTLW
	IkPEXTUW
	IkPEXTLH
	IkPEXTLB
	IkPPACW
	IkPPACH
	IkPPACB
	IkPCPYLD
	IkPCPYUD
	IkPAND
	IkPXOR
	IkPOR
	IkPNOR

	// cop2 / vector unit macro mode
	IkQMFC2
	IkQMTC2
	IkCFC2
	IkCTC2
	IkVADD
	IkVSUB
	IkVMUL

	ikCount
)

// fieldKind selects the bitfield an operand comes from.
type fieldKind int

const (
	fldRs     fieldKind = iota // bits 25..21
	fldRt                      // bits 20..16
	fldRd                      // bits 15..11
	fldSa                      // bits 10..6
	fldFt                      // bits 20..16 (cop1/cop2)
	fldFs                      // bits 15..11
	fldFd                      // bits 10..6
	fldSimm16                  // bits 15..0 sign extended
	fldZimm16                  // bits 15..0 zero extended
	fldBranch                  // bits 15..0, word offset from the delay slot
)

// step describes how one operand slot is filled.
type step struct {
	dst   bool
	field fieldKind
	reg   RegKind // register file for register fields
}

func src(f fieldKind, k RegKind) step { return step{field: f, reg: k} }
func dst(f fieldKind, k RegKind) step { return step{dst: true, field: f, reg: k} }

// OpInfo is the static description of one opcode.
type OpInfo struct {
	Name           string
	IsBranch       bool
	IsBranchLikely bool
	HasDelaySlot   bool
	IsLoad         bool
	IsStore        bool
	steps          []step
}

func op(name string, steps ...step) OpInfo {
	return OpInfo{Name: name, steps: steps}
}

func load(name string, rtKind RegKind) OpInfo {
	return OpInfo{Name: name, IsLoad: true,
		steps: []step{dst(fldRt, rtKind), src(fldSimm16, GPR), src(fldRs, GPR)}}
}

func store(name string, rtKind RegKind) OpInfo {
	return OpInfo{Name: name, IsStore: true,
		steps: []step{src(fldRt, rtKind), src(fldSimm16, GPR), src(fldRs, GPR)}}
}

func branch2(name string, likely bool) OpInfo {
	return OpInfo{Name: name, IsBranch: true, IsBranchLikely: likely, HasDelaySlot: true,
		steps: []step{src(fldRs, GPR), src(fldRt, GPR), src(fldBranch, GPR)}}
}

func branch1(name string, likely bool) OpInfo {
	return OpInfo{Name: name, IsBranch: true, IsBranchLikely: likely, HasDelaySlot: true,
		steps: []step{src(fldRs, GPR), src(fldBranch, GPR)}}
}

func branchC(name string, likely bool) OpInfo {
	return OpInfo{Name: name, IsBranch: true, IsBranchLikely: likely, HasDelaySlot: true,
		steps: []step{src(fldBranch, GPR)}}
}

func rtype(name string) OpInfo {
	return op(name, dst(fldRd, GPR), src(fldRs, GPR), src(fldRt, GPR))
}

func shiftImm(name string) OpInfo {
	return op(name, dst(fldRd, GPR), src(fldRt, GPR), src(fldSa, GPR))
}

func shiftVar(name string) OpInfo {
	return op(name, dst(fldRd, GPR), src(fldRt, GPR), src(fldRs, GPR))
}

func fpu3(name string) OpInfo {
	return op(name, dst(fldFd, FPR), src(fldFs, FPR), src(fldFt, FPR))
}

func fpu2(name string) OpInfo {
	return op(name, dst(fldFd, FPR), src(fldFs, FPR))
}

func fpuCmp(name string) OpInfo {
	return op(name, src(fldFs, FPR), src(fldFt, FPR))
}

func mmi3(name string) OpInfo {
	return op(name, dst(fldRd, GPR), src(fldRs, GPR), src(fldRt, GPR))
}

func vu3(name string) OpInfo {
	return op(name, dst(fldFd, VF), src(fldFs, VF), src(fldFt, VF))
}

// opInfo is indexed by InstructionKind.
var opInfo = [ikCount]OpInfo{
	IkInvalid: {Name: "invalid"},

	IkLB:   load("lb", GPR),
	IkLBU:  load("lbu", GPR),
	IkLH:   load("lh", GPR),
	IkLHU:  load("lhu", GPR),
	IkLW:   load("lw", GPR),
	IkLWU:  load("lwu", GPR),
	IkLWL:  load("lwl", GPR),
	IkLWR:  load("lwr", GPR),
	IkLD:   load("ld", GPR),
	IkLDL:  load("ldl", GPR),
	IkLDR:  load("ldr", GPR),
	IkLQ:   load("lq", GPR),
	IkLWC1: load("lwc1", FPR),

	IkSB:   store("sb", GPR),
	IkSH:   store("sh", GPR),
	IkSW:   store("sw", GPR),
	IkSWL:  store("swl", GPR),
	IkSWR:  store("swr", GPR),
	IkSD:   store("sd", GPR),
	IkSDL:  store("sdl", GPR),
	IkSDR:  store("sdr", GPR),
	IkSQ:   store("sq", GPR),
	IkSWC1: store("swc1", FPR),

	IkADDIU:  op("addiu", dst(fldRt, GPR), src(fldRs, GPR), src(fldSimm16, GPR)),
	IkDADDIU: op("daddiu", dst(fldRt, GPR), src(fldRs, GPR), src(fldSimm16, GPR)),
	IkSLTI:   op("slti", dst(fldRt, GPR), src(fldRs, GPR), src(fldSimm16, GPR)),
	IkSLTIU:  op("sltiu", dst(fldRt, GPR), src(fldRs, GPR), src(fldSimm16, GPR)),
	IkANDI:   op("andi", dst(fldRt, GPR), src(fldRs, GPR), src(fldZimm16, GPR)),
	IkORI:    op("ori", dst(fldRt, GPR), src(fldRs, GPR), src(fldZimm16, GPR)),
	IkXORI:   op("xori", dst(fldRt, GPR), src(fldRs, GPR), src(fldZimm16, GPR)),
	IkLUI:    op("lui", dst(fldRt, GPR), src(fldZimm16, GPR)),

	IkADDU:  rtype("addu"),
	IkDADDU: rtype("daddu"),
	IkSUBU:  rtype("subu"),
	IkDSUBU: rtype("dsubu"),
	IkAND:   rtype("and"),
	IkOR:    rtype("or"),
	IkXOR:   rtype("xor"),
	IkNOR:   rtype("nor"),
	IkSLT:   rtype("slt"),
	IkSLTU:  rtype("sltu"),
	IkMOVZ:  rtype("movz"),
	IkMOVN:  rtype("movn"),

	IkSLL:    shiftImm("sll"),
	IkSRL:    shiftImm("srl"),
	IkSRA:    shiftImm("sra"),
	IkSLLV:   shiftVar("sllv"),
	IkSRLV:   shiftVar("srlv"),
	IkSRAV:   shiftVar("srav"),
	IkDSLL:   shiftImm("dsll"),
	IkDSRL:   shiftImm("dsrl"),
	IkDSRA:   shiftImm("dsra"),
	IkDSLL32: shiftImm("dsll32"),
	IkDSRL32: shiftImm("dsrl32"),
	IkDSRA32: shiftImm("dsra32"),
	IkDSLLV:  shiftVar("dsllv"),
	IkDSRLV:  shiftVar("dsrlv"),
	IkDSRAV:  shiftVar("dsrav"),

	IkMULT:  op("mult", src(fldRs, GPR), src(fldRt, GPR)),
	IkMULTU: op("multu", src(fldRs, GPR), src(fldRt, GPR)),
	IkDIV:   op("div", src(fldRs, GPR), src(fldRt, GPR)),
	IkDIVU:  op("divu", src(fldRs, GPR), src(fldRt, GPR)),
	IkMFHI:  op("mfhi", dst(fldRd, GPR)),
	IkMFLO:  op("mflo", dst(fldRd, GPR)),
	IkMTHI:  op("mthi", src(fldRs, GPR)),
	IkMTLO:  op("mtlo", src(fldRs, GPR)),

	IkJR:   {Name: "jr", HasDelaySlot: true, steps: []step{src(fldRs, GPR)}},
	IkJALR: {Name: "jalr", HasDelaySlot: true, steps: []step{dst(fldRd, GPR), src(fldRs, GPR)}},

	IkBEQ:   branch2("beq", false),
	IkBNE:   branch2("bne", false),
	IkBLEZ:  branch1("blez", false),
	IkBGTZ:  branch1("bgtz", false),
	IkBLTZ:  branch1("bltz", false),
	IkBGEZ:  branch1("bgez", false),
	IkBEQL:  branch2("beql", true),
	IkBNEL:  branch2("bnel", true),
	IkBLEZL: branch1("blezl", true),
	IkBGTZL: branch1("bgtzl", true),
	IkBLTZL: branch1("bltzl", true),
	IkBGEZL: branch1("bgezl", true),

	IkSYSCALL: op("syscall"),

	IkMFC0: op("mfc0", dst(fldRt, GPR), src(fldRd, COP0)),
	IkMTC0: op("mtc0", dst(fldRd, COP0), src(fldRt, GPR)),

	IkMFC1:  op("mfc1", dst(fldRt, GPR), src(fldFs, FPR)),
	IkMTC1:  op("mtc1", dst(fldFs, FPR), src(fldRt, GPR)),
	IkADDS:  fpu3("add.s"),
	IkSUBS:  fpu3("sub.s"),
	IkMULS:  fpu3("mul.s"),
	IkDIVS:  fpu3("div.s"),
	IkSQRTS: op("sqrt.s", dst(fldFd, FPR), src(fldFt, FPR)),
	IkABSS:  fpu2("abs.s"),
	IkMOVS:  fpu2("mov.s"),
	IkNEGS:  fpu2("neg.s"),
	IkMINS:  fpu3("min.s"),
	IkMAXS:  fpu3("max.s"),
	IkCVTWS: fpu2("cvt.w.s"),
	IkCVTSW: fpu2("cvt.s.w"),
	IkCEQS:  fpuCmp("c.eq.s"),
	IkCLTS:  fpuCmp("c.lt.s"),
	IkCLES:  fpuCmp("c.le.s"),
	IkBC1F:  branchC("bc1f", false),
	IkBC1T:  branchC("bc1t", false),
	IkBC1FL: branchC("bc1fl", true),
	IkBC1TL: branchC("bc1tl", true),

	IkPLZCW:  op("plzcw", dst(fldRd, GPR), src(fldRs, GPR)),
	IkPADDW:  mmi3("paddw"),
	IkPSUBW:  mmi3("psubw"),
	IkPEXTLW: mmi3("pextlw"),
	IkPEXTUW: mmi3("pextuw"),
	IkPEXTLH: mmi3("pextlh"),
	IkPEXTLB: mmi3("pextlb"),
	IkPPACW:  mmi3("ppacw"),
	IkPPACH:  mmi3("ppach"),
	IkPPACB:  mmi3("ppacb"),
	IkPCPYLD: mmi3("pcpyld"),
	IkPCPYUD: mmi3("pcpyud"),
	IkPAND:   mmi3("pand"),
	IkPXOR:   mmi3("pxor"),
	IkPOR:    mmi3("por"),
	IkPNOR:   mmi3("pnor"),

	IkQMFC2: op("qmfc2", dst(fldRt, GPR), src(fldFs, VF)),
	IkQMTC2: op("qmtc2", dst(fldFs, VF), src(fldRt, GPR)),
	IkCFC2:  op("cfc2", dst(fldRt, GPR), src(fldFs, VI)),
	IkCTC2:  op("ctc2", dst(fldFs, VI), src(fldRt, GPR)),
	IkVADD:  vu3("vadd"),
	IkVSUB:  vu3("vsub"),
	IkVMUL:  vu3("vmul"),
}

// InfoFor returns the opcode table entry for a kind.
func InfoFor(k InstructionKind) *OpInfo { return &opInfo[k] }
