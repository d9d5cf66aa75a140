package cfg

import (
	"github.com/zboralski/lattice"

	"goaldis/internal/function"
	"goaldis/internal/linked"
	"goaldis/internal/mips"
)

// ToLattice maps a function's basic blocks and branch edges to a
// lattice.FuncCFG for DOT rendering. It works from the basic blocks
// directly, so it can run before or after reduction.
func ToLattice(f *linked.File, seg int, fn *function.Function, name string) *lattice.FuncCFG {
	lcfg := &lattice.FuncCFG{Name: name}

	blockAt := func(wordIdx int) int {
		for j := len(fn.BasicBlocks) - 1; j >= 0; j-- {
			if fn.BasicBlocks[j].StartWord == wordIdx {
				return j
			}
		}
		return -1
	}

	for i, bb := range fn.BasicBlocks {
		lb := &lattice.BasicBlock{ID: i, Start: bb.StartWord, End: bb.EndWord}
		last := i+1 == len(fn.BasicBlocks)

		branched := false
		always := false
		if bb.EndWord-bb.StartWord >= 2 {
			candidate := &fn.Instructions[bb.EndWord-2]
			info := candidate.Info()
			if info.IsBranch || info.IsBranchLikely {
				branched = true
				always = mips.IsAlwaysBranch(candidate)
				if labelID := candidate.LabelTarget(); labelID >= 0 {
					label := f.Labels[labelID]
					if label.TargetSegment == seg {
						if target := blockAt(label.Offset/4 - fn.StartWord); target >= 0 {
							cond := "T"
							if always {
								cond = ""
							}
							lb.Succs = append(lb.Succs, lattice.Successor{BlockID: target, Cond: cond})
						}
					}
				}
			}
		}

		switch {
		case always || last:
			lb.Term = last
		case branched:
			lb.Succs = append(lb.Succs, lattice.Successor{BlockID: i + 1, Cond: "F"})
		default:
			lb.Succs = append(lb.Succs, lattice.Successor{BlockID: i + 1})
		}

		lcfg.Blocks = append(lcfg.Blocks, lb)
	}
	return lcfg
}
