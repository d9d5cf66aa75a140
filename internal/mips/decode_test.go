package mips

import "testing"

// testEnv interns (seg, offset) label ids and names them L<id>.
type testEnv struct {
	byCoord map[[2]int]int
}

func newTestEnv() *testEnv {
	return &testEnv{byCoord: make(map[[2]int]int)}
}

func (e *testEnv) GetLabelID(seg, offset int) int {
	key := [2]int{seg, offset}
	if id, ok := e.byCoord[key]; ok {
		return id
	}
	id := len(e.byCoord)
	e.byCoord[key] = id
	return id
}

func decodeOne(t *testing.T, raw uint32) Instruction {
	t.Helper()
	return Decode(raw, newTestEnv(), 0, 0)
}

func TestDecodeRender(t *testing.T) {
	tests := []struct {
		raw  uint32
		want string
	}{
		{EncodeDaddiu(SP, SP, -16), "daddiu sp, sp, -16"},
		{EncodeStore(8, RA, SP, 0), "sd ra, 0(sp)"},
		{EncodeStore(16, GP, SP, 16), "sq gp, 16(sp)"},
		{EncodeLoad(4, V1, FP, 12), "lw v1, 12(fp)"},
		{EncodeOr(FP, T9, R0), "or fp, t9, r0"},
		{EncodeDaddu(SP, SP, R0), "daddu sp, sp, r0"},
		{EncodeLui(AT, 2), "lui at, 2"},
		{EncodeOri(AT, AT, 40), "ori at, at, 40"},
		{JrRaWord, "jr ra"},
		{EncodeNop(), "nop"},
		{EncodeSwc1(30, SP, 16), "swc1 f30, 16(sp)"},
	}
	for _, tc := range tests {
		instr := decodeOne(t, tc.raw)
		if got := instr.String(); got != tc.want {
			t.Errorf("0x%08x: render = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestDecodeBranchMakesLabel(t *testing.T) {
	env := newTestEnv()
	// beq r0, r0, +3 decoded at word 10: target word is 10 + 1 + 3
	instr := Decode(EncodeBeq(R0, R0, 3), env, 1, 10)
	if instr.Kind != IkBEQ {
		t.Fatalf("kind = %v", instr.Kind)
	}
	info := instr.Info()
	if !info.IsBranch || info.IsBranchLikely || !info.HasDelaySlot {
		t.Errorf("branch flags wrong: %+v", info)
	}
	target := instr.LabelTarget()
	if target < 0 {
		t.Fatal("no label target")
	}
	if got, ok := env.byCoord[[2]int{1, 4 * 14}]; !ok || got != target {
		t.Errorf("label target = %d, env = %v", target, env.byCoord)
	}
	if !IsAlwaysBranch(&instr) {
		t.Error("beq r0, r0 should be an always branch")
	}

	cond := Decode(EncodeBne(V0, R0, -2), env, 1, 10)
	if IsAlwaysBranch(&cond) {
		t.Error("bne v0, r0 is not an always branch")
	}
}

func TestDecodeInvalid(t *testing.T) {
	// primary opcode 2 (j) is not part of the instruction set here
	instr := decodeOne(t, 2<<26)
	if instr.IsValid() {
		t.Error("opcode 2 should decode as invalid")
	}
}

func TestDecodeDelaySlotFlags(t *testing.T) {
	jalr := decodeOne(t, EncodeRType(T9, 0, RA, 0, 9))
	if jalr.Kind != IkJALR {
		t.Fatalf("kind = %v", jalr.Kind)
	}
	info := jalr.Info()
	if !info.HasDelaySlot || info.IsBranch {
		t.Errorf("jalr flags wrong: %+v", info)
	}
}

func TestMatchers(t *testing.T) {
	sp := ExactReg(MakeGPR(SP))

	store := decodeOne(t, EncodeStore(8, RA, SP, 0))
	if !IsNoLinkGprStore(&store, 8, ExactReg(MakeGPR(RA)), ExactImm(0), sp) {
		t.Error("sd ra, 0(sp) should match")
	}
	if !IsNoLinkGprStore(&store, 0, AnyReg(), AnyImm(), sp) {
		t.Error("wildcard store match failed")
	}
	if IsNoLinkGprStore(&store, 16, AnyReg(), AnyImm(), sp) {
		t.Error("sd must not match as sq")
	}

	load := decodeOne(t, EncodeLoad(16, S0, SP, 32))
	if !IsNoLinkGprLoad(&load, 16, ExactReg(MakeGPR(S0)), ExactImm(32), sp) {
		t.Error("lq s0, 32(sp) should match")
	}

	daddiu := decodeOne(t, EncodeDaddiu(SP, SP, -48))
	if !IsGpr2Imm(&daddiu, IkDADDIU, sp, sp, ExactImm(-48)) {
		t.Error("daddiu sp, sp, -48 should match")
	}
	if IsGpr2Imm(&daddiu, IkDADDIU, sp, sp, ExactImm(48)) {
		t.Error("immediate mismatch should not match")
	}

	or := decodeOne(t, EncodeOr(FP, T9, R0))
	if !IsGpr3(&or, IkOR, ExactReg(MakeGPR(FP)), ExactReg(MakeGPR(T9)), ExactReg(MakeGPR(R0))) {
		t.Error("or fp, t9, r0 should match")
	}

	jr := decodeOne(t, JrRaWord)
	if !IsJrRa(&jr) {
		t.Error("jr ra should match")
	}

	nop := decodeOne(t, EncodeNop())
	if !IsNop(&nop) {
		t.Error("0x0 should be a nop")
	}

	fprStore := decodeOne(t, EncodeSwc1(30, SP, 16))
	if !IsNoLinkFprStore(&fprStore, ExactReg(MakeFPR(30)), ExactImm(16), sp) {
		t.Error("swc1 f30, 16(sp) should match")
	}
}
