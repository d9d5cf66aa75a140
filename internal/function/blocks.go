package function

import (
	"fmt"
	"sort"

	"goaldis/internal/linked"
)

// FindBasicBlocks partitions a function's instructions at branch
// boundaries. Dividers fall after each branch's delay slot and before each
// branch target; sorting and deduplicating the dividers yields the blocks.
func FindBasicBlocks(f *linked.File, seg int, fn *Function) ([]BasicBlock, error) {
	dividers := []int{0, len(fn.Instructions)}

	for i := range fn.Instructions {
		instr := &fn.Instructions[i]
		info := instr.Info()
		if !info.IsBranch && !info.IsBranchLikely {
			continue
		}

		// the delay slot must be inside the function
		if i+fn.StartWord >= fn.EndWord-1 {
			return nil, fmt.Errorf("%w: branch at word %d has no delay slot", ErrAnalysis, i)
		}
		dividers = append(dividers, i+2)

		labelID := instr.LabelTarget()
		if labelID < 0 {
			return nil, fmt.Errorf("%w: branch at word %d has no label target", ErrAnalysis, i)
		}
		label := f.Labels[labelID]
		if label.TargetSegment != seg {
			return nil, fmt.Errorf("%w: branch at word %d targets segment %d", ErrAnalysis, i, label.TargetSegment)
		}
		target := label.Offset / 4
		if target <= fn.StartWord || target >= fn.EndWord-1 {
			return nil, fmt.Errorf("%w: branch at word %d targets outside function (%s)",
				ErrAnalysis, i, label.Name)
		}
		dividers = append(dividers, target-fn.StartWord)
	}

	sort.Ints(dividers)

	var blocks []BasicBlock
	for i := 0; i+1 < len(dividers); i++ {
		if dividers[i] != dividers[i+1] {
			blocks = append(blocks, BasicBlock{StartWord: dividers[i], EndWord: dividers[i+1]})
		}
	}
	return blocks, nil
}
