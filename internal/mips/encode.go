package mips

// Instruction word builders. The pipeline itself never encodes; these exist
// for tests and for well-known bit patterns like jr ra.

// JrRaWord is the encoding of jr ra.
const JrRaWord uint32 = 0x03e00008

// EncodeNop returns sll r0, r0, 0.
func EncodeNop() uint32 { return 0 }

// EncodeIType builds an immediate-format word.
func EncodeIType(opcode, rs, rt int, imm uint16) uint32 {
	return uint32(opcode)<<26 | uint32(rs)<<21 | uint32(rt)<<16 | uint32(imm)
}

// EncodeRType builds a register-format (SPECIAL) word.
func EncodeRType(rs, rt, rd, sa, funct int) uint32 {
	return uint32(rs)<<21 | uint32(rt)<<16 | uint32(rd)<<11 | uint32(sa)<<6 | uint32(funct)
}

// EncodeDaddiu builds daddiu rt, rs, imm.
func EncodeDaddiu(rt, rs int, imm int16) uint32 {
	return EncodeIType(25, rs, rt, uint16(imm))
}

// EncodeOri builds ori rt, rs, imm.
func EncodeOri(rt, rs int, imm uint16) uint32 {
	return EncodeIType(13, rs, rt, imm)
}

// EncodeLui builds lui rt, imm.
func EncodeLui(rt int, imm uint16) uint32 {
	return EncodeIType(15, 0, rt, imm)
}

// EncodeOr builds or rd, rs, rt.
func EncodeOr(rd, rs, rt int) uint32 {
	return EncodeRType(rs, rt, rd, 0, 37)
}

// EncodeDaddu builds daddu rd, rs, rt.
func EncodeDaddu(rd, rs, rt int) uint32 {
	return EncodeRType(rs, rt, rd, 0, 45)
}

// EncodeAddu builds addu rd, rs, rt.
func EncodeAddu(rd, rs, rt int) uint32 {
	return EncodeRType(rs, rt, rd, 0, 33)
}

// EncodeLoad builds a load of the given width to rt from off(base).
func EncodeLoad(size, rt, base int, off int16) uint32 {
	var opc int
	switch size {
	case 1:
		opc = 32
	case 2:
		opc = 33
	case 4:
		opc = 35
	case 8:
		opc = 55
	case 16:
		opc = 30
	default:
		panic("bad load size")
	}
	return EncodeIType(opc, base, rt, uint16(off))
}

// EncodeStore builds a store of the given width of rt to off(base).
func EncodeStore(size, rt, base int, off int16) uint32 {
	var opc int
	switch size {
	case 1:
		opc = 40
	case 2:
		opc = 41
	case 4:
		opc = 43
	case 8:
		opc = 63
	case 16:
		opc = 31
	default:
		panic("bad store size")
	}
	return EncodeIType(opc, base, rt, uint16(off))
}

// EncodeSwc1 builds swc1 ft, off(base).
func EncodeSwc1(ft, base int, off int16) uint32 {
	return EncodeIType(57, base, ft, uint16(off))
}

// EncodeLwc1 builds lwc1 ft, off(base).
func EncodeLwc1(ft, base int, off int16) uint32 {
	return EncodeIType(49, base, ft, uint16(off))
}

// EncodeBeq builds beq rs, rt, (word offset from delay slot).
func EncodeBeq(rs, rt int, off int16) uint32 {
	return EncodeIType(4, rs, rt, uint16(off))
}

// EncodeBne builds bne rs, rt, (word offset from delay slot).
func EncodeBne(rs, rt int, off int16) uint32 {
	return EncodeIType(5, rs, rt, uint16(off))
}
