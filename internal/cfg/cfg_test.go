package cfg

import (
	"testing"

	"goaldis/internal/function"
	"goaldis/internal/linked"
	"goaldis/internal/mips"
)

// makeFunc decodes the given words into a Function with the given basic
// blocks. Word 0 is treated as the function type tag.
func makeFunc(t *testing.T, words []uint32, blocks []function.BasicBlock) (*linked.File, *function.Function) {
	t.Helper()
	f := linked.NewFile(3)
	for _, w := range words {
		f.PushWord(0, w)
	}
	if err := f.SymbolLinkWord(0, 0, linked.FunctionTypeTag, linked.TypePtr); err != nil {
		t.Fatal(err)
	}
	fn := &function.Function{Segment: 0, StartWord: 0, EndWord: len(words), BasicBlocks: blocks}
	funcs := [][]*function.Function{{fn}, nil, nil}
	function.Disassemble(f, funcs)
	return f, fn
}

func TestBuildLinear(t *testing.T) {
	f, fn := makeFunc(t, []uint32{
		0,
		mips.EncodeOr(mips.V0, mips.R0, mips.R0),
		mips.JrRaWord,
		mips.EncodeDaddu(mips.SP, mips.SP, mips.R0),
	}, []function.BasicBlock{{StartWord: 1, EndWord: 4}})

	c, err := Build(f, 0, fn)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	b0 := c.Entry.Next
	if b0.Kind != KindBlock || b0.BlockID != 0 {
		t.Fatalf("first vertex = %+v", b0)
	}
	if c.Entry.SuccFT != b0 || !b0.HasPred(c.Entry) {
		t.Error("entry not linked to block 0")
	}
	if b0.SuccFT != c.Exit {
		t.Error("block 0 not linked to exit")
	}
	if !c.Reduce() {
		t.Error("single block should reduce trivially")
	}
	if got := c.String(); got != "b0" {
		t.Errorf("render = %q, want b0", got)
	}
}

// ifElseFunc is four blocks in the §reduction if/else shape:
// b0 conditionally branches over the true case to the false case,
// both rejoin in b3.
func ifElseFunc(t *testing.T) (*linked.File, *function.Function) {
	return makeFunc(t, []uint32{
		0,
		mips.EncodeBne(mips.V0, mips.R0, 3), // word 1 -> word 5 (b2)
		mips.EncodeNop(),
		mips.EncodeBeq(mips.R0, mips.R0, 3), // word 3 -> word 7 (b3)
		mips.EncodeNop(),
		mips.EncodeOr(mips.V0, mips.R0, mips.R0), // word 5
		mips.EncodeNop(),
		mips.JrRaWord, // word 7
		mips.EncodeDaddu(mips.SP, mips.SP, mips.R0),
	}, []function.BasicBlock{
		{StartWord: 1, EndWord: 3},
		{StartWord: 3, EndWord: 5},
		{StartWord: 5, EndWord: 7},
		{StartWord: 7, EndWord: 9},
	})
}

func TestBuildEdges(t *testing.T) {
	f, fn := ifElseFunc(t)
	c, err := Build(f, 0, fn)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	var blocks []*Vtx
	for v := c.Entry.Next; v != c.Exit; v = v.Next {
		blocks = append(blocks, v)
	}
	if len(blocks) != 4 {
		t.Fatalf("top level = %d, want 4", len(blocks))
	}
	b0, b1, b2, b3 := blocks[0], blocks[1], blocks[2], blocks[3]

	if !b0.EndBranch.HasBranch || b0.EndBranch.BranchAlways {
		t.Errorf("b0 branch flags = %+v", b0.EndBranch)
	}
	if b0.SuccBranch != b2 || b0.SuccFT != b1 {
		t.Error("b0 edges wrong")
	}
	if !b1.EndBranch.BranchAlways || b1.SuccBranch != b3 || b1.SuccFT != nil {
		t.Error("b1 must branch unconditionally to b3 with no fallthrough")
	}
	if b2.EndBranch.HasBranch || b2.SuccFT != b3 {
		t.Error("b2 must fall through to b3")
	}
	if !b3.HasPred(b1) || !b3.HasPred(b2) {
		t.Error("b3 must have b1 and b2 as preds")
	}
}

func TestReduceIfElse(t *testing.T) {
	f, fn := ifElseFunc(t)
	c, err := Build(f, 0, fn)
	if err != nil {
		t.Fatal(err)
	}
	if !c.Reduce() {
		t.Fatalf("not reduced: %s", c.String())
	}
	if got := c.String(); got != "(seq (if b0 b1 b2) b3)" {
		t.Errorf("render = %q", got)
	}

	top := c.Entry.Next
	if top.SuccFT != c.Exit {
		t.Error("reduced vertex must point at exit")
	}
	// invariant: no other top-level vertex remains
	if top.Next != c.Exit {
		t.Error("more than one top-level vertex after reduction")
	}
}

// whileFunc is three blocks in the while shape: b0 jumps to the condition
// b2, the body b1 falls into b2, and b2 branches back to b1.
func whileFunc(t *testing.T) (*linked.File, *function.Function) {
	return makeFunc(t, []uint32{
		0,
		mips.EncodeBeq(mips.R0, mips.R0, 3), // word 1 -> word 5 (b2)
		mips.EncodeNop(),
		mips.EncodeOr(mips.V0, mips.R0, mips.R0), // word 3 (b1)
		mips.EncodeNop(),
		mips.EncodeBne(mips.V0, mips.R0, -3), // word 5 -> word 3 (b1)
		mips.EncodeNop(),
	}, []function.BasicBlock{
		{StartWord: 1, EndWord: 3},
		{StartWord: 3, EndWord: 5},
		{StartWord: 5, EndWord: 7},
	})
}

func TestReduceWhile(t *testing.T) {
	f, fn := whileFunc(t)
	c, err := Build(f, 0, fn)
	if err != nil {
		t.Fatal(err)
	}
	if !c.Reduce() {
		t.Fatalf("not reduced: %s", c.String())
	}
	if got := c.String(); got != "(seq b0 (while b2 b1))" {
		t.Errorf("render = %q", got)
	}

	// the absorbed children have their link fields cleared
	seq := c.Entry.Next
	w := seq.Seq[1]
	if w.Kind != KindWhile {
		t.Fatalf("second child = %+v", w)
	}
	for _, child := range []*Vtx{w.Cond, w.Body} {
		if child.Parent != w {
			t.Error("child not claimed by while vertex")
		}
		if child.Next != nil || child.Prev != nil || child.SuccFT != nil ||
			child.SuccBranch != nil || len(child.Pred) != 0 {
			t.Errorf("claimed child keeps link fields: %+v", child)
		}
	}
}

func TestUnreducibleStaysUngrouped(t *testing.T) {
	// if-without-else: b0 conditionally skips b1, both reach b2. No rule
	// matches, so the graph stays partially resolved.
	f, fn := makeFunc(t, []uint32{
		0,
		mips.EncodeBne(mips.V0, mips.R0, 2), // word 1 -> word 4 (b2)
		mips.EncodeNop(),
		mips.EncodeOr(mips.V0, mips.R0, mips.R0), // word 3 (b1)
		mips.JrRaWord,                            // word 4 (b2)
		mips.EncodeDaddu(mips.SP, mips.SP, mips.R0),
	}, []function.BasicBlock{
		{StartWord: 1, EndWord: 3},
		{StartWord: 3, EndWord: 4},
		{StartWord: 4, EndWord: 6},
	})
	c, err := Build(f, 0, fn)
	if err != nil {
		t.Fatal(err)
	}
	if c.Reduce() {
		t.Fatal("if-without-else must not fully reduce")
	}
	if got := c.String(); got != "(ungrouped b0 b1 b2)" {
		t.Errorf("render = %q", got)
	}
}

func TestBlockTargetTieBreak(t *testing.T) {
	// two blocks share a start word; the later one must win
	f, fn := makeFunc(t, []uint32{
		0,
		mips.EncodeBne(mips.V0, mips.R0, 1), // word 1 -> word 3
		mips.EncodeNop(),
		mips.EncodeOr(mips.V0, mips.R0, mips.R0), // word 3
		mips.EncodeNop(),
	}, []function.BasicBlock{
		{StartWord: 1, EndWord: 3},
		{StartWord: 3, EndWord: 3}, // zero-length
		{StartWord: 3, EndWord: 5},
	})
	c, err := Build(f, 0, fn)
	if err != nil {
		t.Fatal(err)
	}
	var blocks []*Vtx
	for v := c.Entry.Next; v != c.Exit; v = v.Next {
		blocks = append(blocks, v)
	}
	if blocks[0].SuccBranch != blocks[2] {
		t.Errorf("tie-break must pick the later block, got b%d", blocks[0].SuccBranch.BlockID)
	}
}
