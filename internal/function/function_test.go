package function

import (
	"testing"

	"goaldis/internal/linked"
	"goaldis/internal/mips"
)

// makeV3 builds a linked File whose main segment holds the given words,
// with function type tags at the given word indices, and locates the
// code/data split.
func makeV3(t *testing.T, words []uint32, tagsAt ...int) *linked.File {
	t.Helper()
	f := linked.NewFile(3)
	for _, w := range words {
		f.PushWord(0, w)
	}
	for _, tag := range tagsAt {
		if err := f.SymbolLinkWord(0, tag*4, linked.FunctionTypeTag, linked.TypePtr); err != nil {
			t.Fatalf("tag at %d: %v", tag, err)
		}
	}
	if err := f.FindCode(); err != nil {
		t.Fatalf("FindCode: %v", err)
	}
	return f
}

// analyze carves, disassembles and block-partitions the main segment.
func analyze(t *testing.T, f *linked.File) []*Function {
	t.Helper()
	funcs, err := Carve(f)
	if err != nil {
		t.Fatalf("Carve: %v", err)
	}
	Disassemble(f, funcs)
	for _, fn := range funcs[0] {
		blocks, err := FindBasicBlocks(f, 0, fn)
		if err != nil {
			t.Fatalf("FindBasicBlocks: %v", err)
		}
		fn.BasicBlocks = blocks
	}
	return funcs[0]
}

func TestTrivialFunction(t *testing.T) {
	f := makeV3(t, []uint32{
		0, // function tag
		mips.EncodeOr(mips.V0, mips.R0, mips.R0),
		mips.JrRaWord,
		mips.EncodeDaddu(mips.SP, mips.SP, mips.R0),
	}, 0)

	if f.DataStart[0] != 4 {
		t.Fatalf("DataStart = %d, want 4", f.DataStart[0])
	}
	funcs := analyze(t, f)
	if len(funcs) != 1 {
		t.Fatalf("functions = %d, want 1", len(funcs))
	}
	fn := funcs[0]
	if fn.StartWord != 0 || fn.EndWord != 4 {
		t.Errorf("range = [%d,%d), want [0,4)", fn.StartWord, fn.EndWord)
	}
	if len(fn.BasicBlocks) != 1 {
		t.Fatalf("blocks = %d, want 1", len(fn.BasicBlocks))
	}

	fn.AnalyzePrologue(f)
	if !fn.Prologue.Decoded || fn.SuspectedAsm {
		t.Fatalf("prologue not decoded cleanly: %+v warnings %v", fn.Prologue, fn.Warnings)
	}
	if fn.Prologue.TotalStackUsage != 0 {
		t.Errorf("total stack = %d, want 0", fn.Prologue.TotalStackUsage)
	}
	if !fn.Prologue.EpilogueOk {
		t.Errorf("epilogue not matched: %v", fn.Warnings)
	}
	// the prologue is removed from the first block and the epilogue from
	// the last
	if fn.BasicBlocks[0].StartWord != 1 || fn.BasicBlocks[0].EndWord != 2 {
		t.Errorf("block 0 = %+v", fn.BasicBlocks[0])
	}
}

func TestBranchWithDelaySlot(t *testing.T) {
	// daddiu sp, sp, -16 / sd ra / beq r0, r0, L / nop / L: ld ra /
	// jr ra / daddiu sp, sp, 16
	f := makeV3(t, []uint32{
		0,
		mips.EncodeDaddiu(mips.SP, mips.SP, -16),
		mips.EncodeStore(8, mips.RA, mips.SP, 0),
		mips.EncodeBeq(mips.R0, mips.R0, 1), // word 3, target word 5
		mips.EncodeNop(),
		mips.EncodeLoad(8, mips.RA, mips.SP, 0), // word 5
		mips.JrRaWord,
		mips.EncodeDaddiu(mips.SP, mips.SP, 16),
	}, 0)

	funcs := analyze(t, f)
	fn := funcs[0]

	if len(fn.BasicBlocks) != 2 {
		t.Fatalf("blocks = %+v, want 2", fn.BasicBlocks)
	}
	// divider falls after the delay slot and at the branch target
	if fn.BasicBlocks[0].EndWord != 5 || fn.BasicBlocks[1].StartWord != 5 {
		t.Errorf("blocks = %+v, want split at 5", fn.BasicBlocks)
	}

	branch := &fn.Instructions[3]
	target := branch.LabelTarget()
	if target < 0 || f.Labels[target].Offset != 20 {
		t.Errorf("branch target = %d (%+v)", target, f.Labels)
	}

	fn.AnalyzePrologue(f)
	if !fn.Prologue.Decoded {
		t.Fatalf("prologue not decoded: %v", fn.Warnings)
	}
	if fn.Prologue.TotalStackUsage != 16 || !fn.Prologue.RaBackedUp {
		t.Errorf("prologue = %+v", fn.Prologue)
	}
	if fn.Prologue.NStackVarBytes != 8 {
		t.Errorf("stack vars = %d, want 8", fn.Prologue.NStackVarBytes)
	}
	if !fn.Prologue.EpilogueOk {
		t.Errorf("epilogue not matched: %v", fn.Warnings)
	}
}

func TestFullFramePrologue(t *testing.T) {
	// frame: ra, fp, 2 gprs, 1 fpr. layout: ra 0, fp 8, gprs at 16
	// (aligned), fprs at 48 -> total align16(52) = 64
	f := makeV3(t, []uint32{
		0,
		mips.EncodeDaddiu(mips.SP, mips.SP, -64),
		mips.EncodeStore(8, mips.RA, mips.SP, 0),
		mips.EncodeStore(8, mips.FP, mips.SP, 8),
		mips.EncodeOr(mips.FP, mips.T9, mips.R0),
		mips.EncodeStore(16, mips.S5, mips.SP, 16),
		mips.EncodeStore(16, mips.GP, mips.SP, 32),
		mips.EncodeSwc1(30, mips.SP, 48),
		mips.EncodeOr(mips.V0, mips.R0, mips.R0),
		mips.EncodeLoad(8, mips.RA, mips.SP, 0),
		mips.EncodeLoad(8, mips.FP, mips.SP, 8),
		mips.EncodeLwc1(30, mips.SP, 48),
		mips.EncodeLoad(16, mips.GP, mips.SP, 32),
		mips.EncodeLoad(16, mips.S5, mips.SP, 16),
		mips.JrRaWord,
		mips.EncodeDaddiu(mips.SP, mips.SP, 64),
	}, 0)

	funcs := analyze(t, f)
	fn := funcs[0]
	fn.AnalyzePrologue(f)

	if !fn.Prologue.Decoded || fn.SuspectedAsm {
		t.Fatalf("prologue failed: %+v %v", fn.Prologue, fn.Warnings)
	}
	p := fn.Prologue
	if !p.RaBackedUp || !p.FpBackedUp || !p.FpSet {
		t.Errorf("ra/fp = %+v", p)
	}
	if p.NGprBackup != 2 || p.GprBackupOffset != 16 {
		t.Errorf("gprs = %d at %d, want 2 at 16", p.NGprBackup, p.GprBackupOffset)
	}
	if p.NFprBackup != 1 || p.FprBackupOffset != 48 {
		t.Errorf("fprs = %d at %d, want 1 at 48", p.NFprBackup, p.FprBackupOffset)
	}
	if p.TotalStackUsage != 64 {
		t.Errorf("total = %d, want 64", p.TotalStackUsage)
	}
	if !p.EpilogueOk {
		t.Errorf("epilogue not matched: %v", fn.Warnings)
	}
}

func TestSuspectedAsm(t *testing.T) {
	// a0 stored with 16-byte stride flags the function as assembly
	f := makeV3(t, []uint32{
		0,
		mips.EncodeDaddiu(mips.SP, mips.SP, -16),
		mips.EncodeStore(16, mips.A0, mips.SP, 0),
		mips.EncodeOr(mips.V0, mips.R0, mips.R0),
		mips.JrRaWord,
		mips.EncodeDaddiu(mips.SP, mips.SP, 16),
	}, 0)

	funcs := analyze(t, f)
	fn := funcs[0]
	fn.AnalyzePrologue(f)

	if !fn.SuspectedAsm {
		t.Fatal("a0 store should flag suspected asm")
	}
	if len(fn.Warnings) == 0 {
		t.Error("suspected asm must leave a warning")
	}
	if fn.Prologue.Decoded {
		t.Error("bailed-out prologue must not be marked decoded")
	}
}

func TestGprOrderDeviation(t *testing.T) {
	// s0 saved where s5 belongs
	f := makeV3(t, []uint32{
		0,
		mips.EncodeDaddiu(mips.SP, mips.SP, -32),
		mips.EncodeStore(16, mips.S0, mips.SP, 0),
		mips.EncodeStore(16, mips.S5, mips.SP, 16),
		mips.EncodeOr(mips.V0, mips.R0, mips.R0),
		mips.JrRaWord,
		mips.EncodeDaddiu(mips.SP, mips.SP, 32),
	}, 0)

	funcs := analyze(t, f)
	fn := funcs[0]
	fn.AnalyzePrologue(f)
	if !fn.SuspectedAsm {
		t.Error("wrong gpr save order should flag suspected asm")
	}
}

func TestCarveMultiple(t *testing.T) {
	trivial := []uint32{
		0,
		mips.EncodeOr(mips.V0, mips.R0, mips.R0),
		mips.JrRaWord,
		mips.EncodeDaddu(mips.SP, mips.SP, mips.R0),
	}
	words := append(append([]uint32{}, trivial...), trivial...)
	f := makeV3(t, words, 0, 4)

	funcs := analyze(t, f)
	if len(funcs) != 2 {
		t.Fatalf("functions = %d, want 2", len(funcs))
	}
	// address order
	if funcs[0].StartWord != 0 || funcs[1].StartWord != 4 {
		t.Errorf("starts = %d, %d", funcs[0].StartWord, funcs[1].StartWord)
	}
	if funcs[0].EndWord != 4 || funcs[1].EndWord != 8 {
		t.Errorf("ends = %d, %d", funcs[0].EndWord, funcs[1].EndWord)
	}
}

func TestBranchOutsideFunctionFails(t *testing.T) {
	f := makeV3(t, []uint32{
		0,
		mips.EncodeBeq(mips.R0, mips.R0, 10), // way past the function
		mips.EncodeNop(),
		mips.JrRaWord,
		mips.EncodeDaddu(mips.SP, mips.SP, mips.R0),
	}, 0)

	funcs, err := Carve(f)
	if err != nil {
		t.Fatal(err)
	}
	Disassemble(f, funcs)
	if _, err := FindBasicBlocks(f, 0, funcs[0][0]); err == nil {
		t.Error("out-of-function branch target must fail")
	}
}
