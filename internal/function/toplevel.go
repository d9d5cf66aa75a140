package function

import (
	"goaldis/internal/linked"
	"goaldis/internal/mips"
)

// FindGlobalFunctionDefs scans the top-level initializer for stores of
// function pointers into global symbols and uses them to name functions.
// The compiler emits the pair
//
//	lw rX, Lnn(fp)        ; load the function pointer from the literal pool
//	sw rX, symbol(s7)     ; define the global
//
// where the pool word at Lnn is pointer-linked one word past some
// function's type tag.
func FindGlobalFunctionDefs(f *linked.File, topLevel *Function, funcs [][]*Function) {
	byEntryOffset := make(map[[2]int]*Function)
	for seg, segFuncs := range funcs {
		for _, fn := range segFuncs {
			byEntryOffset[[2]int{seg, 4 * (fn.StartWord + 1)}] = fn
		}
	}

	for i := 1; i < len(topLevel.Instructions); i++ {
		prev := &topLevel.Instructions[i-1]
		instr := &topLevel.Instructions[i]

		if instr.Kind != mips.IkSW || prev.Kind != mips.IkLW {
			continue
		}
		if instr.Src[0].Reg != prev.Dst[0].Reg {
			continue
		}
		symAtom := instr.GetSrc(1)
		if symAtom.Kind != mips.AtomSymbol || instr.Src[2].Reg != mips.MakeGPR(mips.S7) {
			continue
		}
		labelAtom := prev.GetSrc(0)
		if labelAtom.Kind != mips.AtomLabel {
			continue
		}

		// the lw label points at the pool word; follow it to the entry
		label := f.Labels[labelAtom.Label]
		if label.Offset%4 != 0 || label.Offset/4 >= len(f.Words[label.TargetSegment]) {
			continue
		}
		pool := &f.Words[label.TargetSegment][label.Offset/4]
		if pool.Kind != linked.Ptr {
			continue
		}
		entry := f.Labels[pool.LabelID]
		if fn, ok := byEntryOffset[[2]int{entry.TargetSegment, entry.Offset}]; ok && fn.GuessedName == "" {
			fn.GuessedName = symAtom.Sym
		}
	}
}
