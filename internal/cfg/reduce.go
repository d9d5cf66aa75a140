package cfg

// Reduce runs the structural reduction until a full pass over all three
// patterns makes no change. Returns true when the graph collapsed to a
// single top-level vertex.
func (c *CFG) Reduce() bool {
	for {
		changed := false
		changed = c.matchWhileLoops() || changed
		changed = c.matchIfElse() || changed
		changed = c.matchSequences() || changed
		if !changed {
			break
		}
	}
	return c.IsReduced()
}

// spliceOut removes consecutive vertices [first..last] from the top-level
// chain and inserts v in their place.
func spliceOut(v, first, last *Vtx) {
	v.Prev = first.Prev
	v.Next = last.Next
	if first.Prev != nil {
		first.Prev.Next = v
	}
	if last.Next != nil {
		last.Next.Prev = v
	}
}

// matchWhileLoops finds (B0, B1, B2) where B0 jumps unconditionally over
// the body B1 to the condition B2, which branches back to B1. B1 and B2
// are absorbed into a While vertex; B0 stays and its branch is retargeted.
func (c *CFG) matchWhileLoops() bool {
	changed := false
	for b0 := c.Entry.Next; b0 != nil && b0 != c.Exit; b0 = b0.Next {
		b1 := b0.Next
		if b1 == nil || b1 == c.Exit {
			break
		}
		b2 := b1.Next
		if b2 == nil || b2 == c.Exit {
			break
		}

		// B0: unconditional forward branch to the condition
		if !b0.EndBranch.HasBranch || !b0.EndBranch.BranchAlways || b0.EndBranch.BranchLikely {
			continue
		}
		if b0.SuccBranch != b2 {
			continue
		}
		// B1: plain fallthrough into the condition
		if b1.EndBranch.HasBranch || b1.SuccFT != b2 {
			continue
		}
		// B2: conditional backward branch to the body
		if !b2.EndBranch.HasBranch || b2.EndBranch.BranchAlways || b2.EndBranch.BranchLikely {
			continue
		}
		if b2.SuccBranch != b1 {
			continue
		}
		// B0 must be the only way into the loop besides the back edge
		onlyLoopPreds := true
		for _, p := range b2.Pred {
			if p != b0 && p != b1 {
				onlyLoopPreds = false
				break
			}
		}
		if !onlyLoopPreds || !b2.HasPred(b0) {
			continue
		}
		if len(b1.Pred) != 1 || b1.Pred[0] != b2 {
			continue
		}

		w := c.alloc(KindWhile)
		w.Cond = b2
		w.Body = b1
		w.Pred = []*Vtx{b0}
		w.SuccFT = b2.SuccFT
		if w.SuccFT != nil {
			w.SuccFT.replacePred(b2, w)
		}
		b0.SuccBranch = w

		spliceOut(w, b1, b2)
		parentClaim(w, b1)
		parentClaim(w, b2)
		changed = true
	}
	return changed
}

// matchIfElse finds (B0, B1, B2, B3) where the condition B0 branches to
// the false case B2 and falls into the true case B1, both rejoining at B3.
// B0, B1, B2 are absorbed; B3 stays as the join point.
func (c *CFG) matchIfElse() bool {
	changed := false
	for b0 := c.Entry.Next; b0 != nil && b0 != c.Exit; b0 = b0.Next {
		b1 := b0.Next
		if b1 == nil || b1 == c.Exit {
			break
		}
		b2 := b1.Next
		if b2 == nil || b2 == c.Exit {
			break
		}
		b3 := b2.Next
		if b3 == nil || b3 == c.Exit {
			break
		}

		// B0: conditional forward branch to the false case
		if !b0.EndBranch.HasBranch || b0.EndBranch.BranchAlways {
			continue
		}
		if b0.SuccBranch != b2 || b0.SuccFT != b1 {
			continue
		}
		// B1: unconditional jump over the false case to the join
		if !b1.EndBranch.HasBranch || !b1.EndBranch.BranchAlways || b1.SuccBranch != b3 {
			continue
		}
		// B2: falls through to the join
		if b2.EndBranch.HasBranch || b2.SuccFT != b3 {
			continue
		}
		if len(b1.Pred) != 1 || b1.Pred[0] != b0 {
			continue
		}
		if len(b2.Pred) != 1 || b2.Pred[0] != b0 {
			continue
		}
		if !b3.HasPred(b1) || !b3.HasPred(b2) {
			continue
		}

		v := c.alloc(KindIfElse)
		v.Cond = b0
		v.TrueCase = b1
		v.FalseCase = b2
		v.Pred = append([]*Vtx(nil), b0.Pred...)
		for _, p := range v.Pred {
			if p.SuccFT == b0 {
				p.SuccFT = v
			}
			if p.SuccBranch == b0 {
				p.SuccBranch = v
			}
		}
		v.SuccFT = b3
		b3.removePred(b1)
		b3.removePred(b2)
		b3.Pred = append(b3.Pred, v)

		spliceOut(v, b0, b2)
		parentClaim(v, b0)
		parentClaim(v, b1)
		parentClaim(v, b2)
		changed = true

		// the chain around b0 is gone; restart from the new vertex
		b0 = v
	}
	return changed
}

// matchSequences merges (B0, B1) where B1 is B0's only successor and B0 is
// B1's only predecessor. Existing sequences are extended in place rather
// than nested.
func (c *CFG) matchSequences() bool {
	changed := false
	for b0 := c.Entry.Next; b0 != nil && b0 != c.Exit; {
		b1 := b0.Next
		if b1 == nil || b1 == c.Exit {
			break
		}

		// B1 must be B0's only successor: plain fallthrough, or an
		// unconditional branch to the next vertex
		var ok bool
		switch {
		case !b0.EndBranch.HasBranch && b0.SuccFT == b1 && b0.SuccBranch == nil:
			ok = true
		case b0.EndBranch.BranchAlways && b0.SuccBranch == b1 && b0.SuccFT == nil:
			ok = true
		}
		if !ok || len(b1.Pred) != 1 || b1.Pred[0] != b0 {
			b0 = b0.Next
			continue
		}

		var seq *Vtx
		switch {
		case b0.Kind == KindSequence && b1.Kind == KindSequence:
			seq = b0
			seq.Seq = append(seq.Seq, b1.Seq...)
			for _, child := range b1.Seq {
				child.Parent = seq
			}
		case b0.Kind == KindSequence:
			seq = b0
			seq.Seq = append(seq.Seq, b1)
		case b1.Kind == KindSequence:
			seq = b1
			seq.Seq = append([]*Vtx{b0}, seq.Seq...)
		default:
			seq = c.alloc(KindSequence)
			seq.Seq = []*Vtx{b0, b1}
		}

		// the merged vertex takes B0's preds and B1's succs, and carries
		// B1's end branch flags
		preds := b0.Pred
		succFT := b1.SuccFT
		succBr := b1.SuccBranch
		endBranch := b1.EndBranch

		spliceOut(seq, b0, b1)
		if seq != b0 {
			parentClaim(seq, b0)
		}
		if seq != b1 {
			parentClaim(seq, b1)
		}
		seq.Parent = nil

		seq.Pred = preds
		for _, p := range seq.Pred {
			if p.SuccFT == b0 {
				p.SuccFT = seq
			}
			if p.SuccBranch == b0 {
				p.SuccBranch = seq
			}
		}
		seq.SuccFT = succFT
		seq.SuccBranch = succBr
		seq.EndBranch = endBranch
		if succFT != nil {
			succFT.replacePred(b1, seq)
		}
		if succBr != nil {
			succBr.replacePred(b1, seq)
		}

		changed = true
		// stay on the merged vertex; it may absorb the next one too
		b0 = seq
	}
	return changed
}
