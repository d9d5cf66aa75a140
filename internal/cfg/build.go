package cfg

import (
	"fmt"

	"goaldis/internal/function"
	"goaldis/internal/linked"
	"goaldis/internal/mips"
)

// Build constructs the block graph for one function: one Block vertex per
// basic block plus Entry and Exit, linked by fallthrough and branch edges.
func Build(f *linked.File, seg int, fn *function.Function) (*CFG, error) {
	c := &CFG{}
	c.Entry = c.alloc(KindEntry)
	c.Exit = c.alloc(KindExit)

	blocks := make([]*Vtx, len(fn.BasicBlocks))
	for i := range fn.BasicBlocks {
		blocks[i] = c.alloc(KindBlock)
		blocks[i].BlockID = i
	}
	if len(blocks) == 0 {
		c.Entry.Next = c.Exit
		c.Exit.Prev = c.Entry
		return c, nil
	}

	// top-level chain: entry, blocks..., exit
	chain := append([]*Vtx{c.Entry}, blocks...)
	chain = append(chain, c.Exit)
	for i := 0; i+1 < len(chain); i++ {
		chain[i].Next = chain[i+1]
		chain[i+1].Prev = chain[i]
	}

	link := func(from, to *Vtx, branch bool) {
		if branch {
			from.SuccBranch = to
		} else {
			from.SuccFT = to
		}
		to.Pred = append(to.Pred, from)
	}

	link(c.Entry, blocks[0], false)

	for i, bb := range fn.BasicBlocks {
		v := blocks[i]
		next := chain[i+2] // block i+1, or exit

		if bb.EndWord-bb.StartWord < 2 {
			// no room for a branch and its delay slot
			link(v, next, false)
			continue
		}

		candidate := &fn.Instructions[bb.EndWord-2]
		info := candidate.Info()
		if !info.IsBranch && !info.IsBranchLikely {
			link(v, next, false)
			continue
		}

		v.EndBranch.HasBranch = true
		v.EndBranch.BranchLikely = info.IsBranchLikely
		v.EndBranch.BranchAlways = mips.IsAlwaysBranch(candidate)

		labelID := candidate.LabelTarget()
		if labelID < 0 {
			return nil, fmt.Errorf("%w: block %d branch has no label", function.ErrAnalysis, i)
		}
		label := f.Labels[labelID]
		if label.TargetSegment != seg || label.Offset%4 != 0 {
			return nil, fmt.Errorf("%w: block %d branch target %s", function.ErrAnalysis, i, label.Name)
		}
		offset := label.Offset/4 - fn.StartWord

		// iterate in reverse so that, when zero-length blocks share a start
		// address, the later block wins
		target := -1
		for j := len(fn.BasicBlocks) - 1; j >= 0; j-- {
			if fn.BasicBlocks[j].StartWord == offset {
				target = j
				break
			}
		}
		if target < 0 {
			return nil, fmt.Errorf("%w: block %d branch target word %d has no block",
				function.ErrAnalysis, i, offset)
		}
		link(v, blocks[target], true)

		if !v.EndBranch.BranchAlways {
			link(v, next, false)
		}
	}

	return c, nil
}
