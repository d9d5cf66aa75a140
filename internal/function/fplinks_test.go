package function

import (
	"strings"
	"testing"

	"goaldis/internal/linked"
	"goaldis/internal/mips"
)

func fpTestFile(t *testing.T, body ...uint32) (*linked.File, *Function) {
	t.Helper()
	words := append([]uint32{0}, body...)
	words = append(words,
		mips.JrRaWord,
		mips.EncodeDaddu(mips.SP, mips.SP, mips.R0),
	)
	f := makeV3(t, words, 0)
	funcs, err := Carve(f)
	if err != nil {
		t.Fatal(err)
	}
	Disassemble(f, funcs)
	return f, funcs[0][0]
}

func TestFpDirectLoad(t *testing.T) {
	f, fn := fpTestFile(t, mips.EncodeLoad(4, mips.V1, mips.FP, 8))
	if err := ProcessFpRelativeLinks(f, [][]*Function{{fn}, nil, nil}); err != nil {
		t.Fatalf("fp links: %v", err)
	}

	if !fn.UsesFpRegister {
		t.Error("fp use not recorded")
	}
	atom := fn.Instructions[1].ImmSrc()
	if atom.Kind != mips.AtomLabel {
		t.Fatalf("immediate not rewritten: %+v", atom)
	}
	// fp points one word past the tag: 4 + 8
	label := f.Labels[atom.Label]
	if label.TargetSegment != 0 || label.Offset != 12 {
		t.Errorf("label = %+v, want seg 0 offset 12", label)
	}
	if f.Stats.NFpRegUseResolved != 1 {
		t.Errorf("resolved = %d, want 1", f.Stats.NFpRegUseResolved)
	}
}

func TestFpOriDaddu(t *testing.T) {
	// ori at, at, 40 / daddu v1, at, fp
	f, fn := fpTestFile(t,
		mips.EncodeOri(mips.AT, mips.AT, 40),
		mips.EncodeDaddu(mips.V1, mips.AT, mips.FP),
	)
	if err := ProcessFpRelativeLinks(f, [][]*Function{{fn}, nil, nil}); err != nil {
		t.Fatalf("fp links: %v", err)
	}
	atom := fn.Instructions[1].ImmSrc()
	if atom.Kind != mips.AtomLabel {
		t.Fatalf("ori immediate not rewritten: %+v", atom)
	}
	if off := f.Labels[atom.Label].Offset; off != 4+40 {
		t.Errorf("offset = %d, want 44", off)
	}
}

func TestFpLuiOriAddu(t *testing.T) {
	// lui at, 2 / ori at, at, 40 / addu v1, fp, at
	f, fn := fpTestFile(t,
		mips.EncodeLui(mips.AT, 2),
		mips.EncodeOri(mips.AT, mips.AT, 40),
		mips.EncodeAddu(mips.V1, mips.FP, mips.AT),
	)
	if err := ProcessFpRelativeLinks(f, [][]*Function{{fn}, nil, nil}); err != nil {
		t.Fatalf("fp links: %v", err)
	}
	atom := fn.Instructions[2].ImmSrc()
	if atom.Kind != mips.AtomLabel {
		t.Fatalf("ori immediate not rewritten: %+v", atom)
	}
	if off := f.Labels[atom.Label].Offset; off != 4+(2<<16)+40 {
		t.Errorf("offset = %d, want %d", off, 4+(2<<16)+40)
	}
}

func TestFpStoreOfFpIsIgnored(t *testing.T) {
	f, fn := fpTestFile(t, mips.EncodeStore(8, mips.FP, mips.SP, 8))
	if err := ProcessFpRelativeLinks(f, [][]*Function{{fn}, nil, nil}); err != nil {
		t.Fatalf("fp links: %v", err)
	}
	if f.Stats.NFpRegUse != 0 {
		t.Errorf("fp use counted for an fp save: %d", f.Stats.NFpRegUse)
	}
}

func TestFpUnknownOpFails(t *testing.T) {
	// and v1, fp, at is not a recognized fp addressing form
	f, fn := fpTestFile(t, mips.EncodeRType(mips.FP, mips.AT, mips.V1, 0, 36))
	if err := ProcessFpRelativeLinks(f, [][]*Function{{fn}, nil, nil}); err == nil {
		t.Error("unknown fp use must fail")
	}
}

func TestRenderDisassembly(t *testing.T) {
	f := makeV3(t, []uint32{
		0,
		mips.EncodeOr(mips.V0, mips.R0, mips.R0),
		mips.JrRaWord,
		mips.EncodeDaddu(mips.SP, mips.SP, mips.R0),
		0x42, // one data word
	}, 0)
	funcs, err := Carve(f)
	if err != nil {
		t.Fatal(err)
	}
	Disassemble(f, funcs)
	funcs[0][0].GuessedName = "my-func"

	got := RenderDisassembly(f, funcs, false)
	if !strings.Contains(got, "; .function my-func\n") {
		t.Errorf("missing function banner:\n%s", got)
	}
	if !strings.Contains(got, "    or v0, r0, r0") {
		t.Errorf("missing instruction:\n%s", got)
	}
	// instruction lines are padded to 60 columns then annotated; banner
	// lines start with ';' and carry no annotation
	for _, line := range strings.Split(got, "\n") {
		if strings.Contains(line, ";;") && !strings.HasPrefix(line, ";") {
			if idx := strings.Index(line, " ;;"); idx < 60 {
				t.Errorf("annotation before column 60: %q", line)
			}
		}
	}
	if !strings.Contains(got, "    .word 0x42\n") {
		t.Errorf("missing data zone word:\n%s", got)
	}
	// the data start label is emitted ahead of the data zone
	if !strings.Contains(got, "L-data-start:") {
		t.Errorf("missing data start label:\n%s", got)
	}
}

func TestFindGlobalFunctionDefs(t *testing.T) {
	// main segment: one trivial function
	f := linked.NewFile(3)
	for _, w := range []uint32{
		0,
		mips.EncodeOr(mips.V0, mips.R0, mips.R0),
		mips.JrRaWord,
		mips.EncodeDaddu(mips.SP, mips.SP, mips.R0),
	} {
		f.PushWord(0, w)
	}
	// top-level segment: lw v1, L(fp) / sw v1, my-global(s7), a return,
	// then a pool word pointing at the main-segment function entry
	for _, w := range []uint32{
		0,
		mips.EncodeLoad(4, mips.V1, mips.FP, 16), // fp+16 = pool word at offset 20
		mips.EncodeStore(4, mips.V1, mips.S7, 0),
		mips.JrRaWord,
		mips.EncodeDaddu(mips.SP, mips.SP, mips.R0),
		0,
	} {
		f.PushWord(2, w)
	}
	if err := f.SymbolLinkWord(0, 0, linked.FunctionTypeTag, linked.TypePtr); err != nil {
		t.Fatal(err)
	}
	if err := f.SymbolLinkWord(2, 0, linked.FunctionTypeTag, linked.TypePtr); err != nil {
		t.Fatal(err)
	}
	if err := f.SymbolLinkOffset(2, 8, "my-global"); err != nil {
		t.Fatal(err)
	}
	if err := f.PointerLinkWord(2, 20, 0, 4); err != nil {
		t.Fatal(err)
	}
	if err := f.FindCode(); err != nil {
		t.Fatal(err)
	}
	funcs, err := Carve(f)
	if err != nil {
		t.Fatal(err)
	}
	Disassemble(f, funcs)
	// the fp pass resolves the lw into a label on the pool word, which
	// points at the function's entry
	if err := ProcessFpRelativeLinks(f, funcs); err != nil {
		t.Fatal(err)
	}

	top := funcs[2][0]
	FindGlobalFunctionDefs(f, top, funcs)
	if got := funcs[0][0].GuessedName; got != "my-global" {
		t.Errorf("guessed name = %q, want my-global", got)
	}
}
