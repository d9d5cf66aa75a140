package function

import (
	"goaldis/internal/linked"
	"goaldis/internal/mips"
)

// gprBackups is the fixed register save order. GOAL always backs up the
// first n of this list, stored in reverse list order (so with n saves the
// lowest slot holds gprBackups[n-1]); the count alone determines the layout.
var gprBackups = []mips.Register{
	mips.MakeGPR(mips.GP), mips.MakeGPR(mips.S5), mips.MakeGPR(mips.S4),
	mips.MakeGPR(mips.S3), mips.MakeGPR(mips.S2), mips.MakeGPR(mips.S1),
	mips.MakeGPR(mips.S0),
}

var fprBackups = []mips.Register{
	mips.MakeFPR(30), mips.MakeFPR(28), mips.MakeFPR(26),
	mips.MakeFPR(24), mips.MakeFPR(22), mips.MakeFPR(20),
}

func expectedGprBackup(n, total int) mips.Register {
	return gprBackups[(total-1)-n]
}

func expectedFprBackup(n, total int) mips.Register {
	return fprBackups[(total-1)-n]
}

func align16(in int) int { return (in + 15) &^ 15 }
func align8(in int) int  { return (in + 7) &^ 7 }
func align4(in int) int  { return (in + 3) &^ 3 }

// bailout flags the function as suspected asm and stops analysis.
func (fn *Function) bailout(format string, args ...any) {
	fn.warnf(format, args...)
	fn.SuspectedAsm = true
}

func (fn *Function) at(idx int) *mips.Instruction {
	return &fn.Instructions[idx]
}

// AnalyzePrologue recognizes the compiler's stereotyped frame setup,
// removes it from the first basic block, and verifies the stack layout.
// Deviations from the stereotype mark the function as suspected asm and
// stop further analysis of it; the pipeline continues.
func (fn *Function) AnalyzePrologue(f *linked.File) {
	sp := mips.ExactReg(mips.MakeGPR(mips.SP))
	n := len(fn.Instructions)
	idx := 1

	if idx >= n {
		fn.bailout("function too short for prologue analysis")
		return
	}

	// daddiu sp, sp, -x tells us how much stack is used
	if mips.IsGpr2Imm(fn.at(idx), mips.IkDADDIU, sp, sp, mips.AnyImm()) {
		fn.Prologue.TotalStackUsage = -int(fn.at(idx).ImmSrcInt())
		idx++
	} else {
		fn.Prologue.TotalStackUsage = 0
	}

	// don't include the type tag
	fn.PrologueEnd = 1

	if fn.Prologue.TotalStackUsage != 0 {
		if idx >= n {
			fn.bailout("prologue runs past end of function")
			return
		}

		// storing the stack pointer on the stack is done by asm kernel functions
		if instr := fn.at(idx); instr.Kind == mips.IkSW && instr.Src[0].Reg == mips.MakeGPR(mips.SP) {
			fn.bailout("Flagged as ASM function because of %s", instr.Render(f))
			return
		}

		// ra backup is always first
		if mips.IsNoLinkGprStore(fn.at(idx), 8, mips.ExactReg(mips.MakeGPR(mips.RA)), mips.AnyImm(), sp) {
			fn.Prologue.RaBackedUp = true
			fn.Prologue.RaBackupOffset = int(mips.GprStoreOffset(fn.at(idx)))
			if fn.Prologue.RaBackupOffset != 0 {
				fn.bailout("ra backup at offset %d, expected 0", fn.Prologue.RaBackupOffset)
				return
			}
			idx++
		}

		if idx >= n {
			fn.bailout("prologue runs past end of function")
			return
		}

		// storing s7 on the stack is done by interrupt handlers
		if instr := fn.at(idx); instr.Kind == mips.IkSD && instr.Src[0].Reg == mips.MakeGPR(mips.S7) {
			fn.bailout("Flagged as ASM function because of %s", instr.Render(f))
			return
		}

		// fp backup, followed by setting fp to t9
		if mips.IsNoLinkGprStore(fn.at(idx), 8, mips.ExactReg(mips.MakeGPR(mips.FP)), mips.AnyImm(), sp) {
			fn.Prologue.FpBackedUp = true
			fn.Prologue.FpBackupOffset = int(mips.GprStoreOffset(fn.at(idx)))
			// fp is never backed up without ra, so the offset is always 8
			if fn.Prologue.FpBackupOffset != 8 {
				fn.bailout("fp backup at offset %d, expected 8", fn.Prologue.FpBackupOffset)
				return
			}
			idx++
			if idx >= n {
				fn.bailout("prologue runs past end of function")
				return
			}
			fn.Prologue.FpSet = mips.IsGpr3(fn.at(idx), mips.IkOR,
				mips.ExactReg(mips.MakeGPR(mips.FP)), mips.ExactReg(mips.MakeGPR(mips.T9)),
				mips.ExactReg(mips.MakeGPR(mips.R0)))
			if !fn.Prologue.FpSet {
				fn.bailout("fp backed up but not set from t9")
				return
			}
			idx++
		}

		// gpr backups, in reverse priority order with 16-byte stride
		nGprBackups := 0
		gprIdx := idx
		expectNothingAfterGprs := false
		for gprIdx < n && mips.IsNoLinkGprStore(fn.at(gprIdx), 16, mips.AnyReg(), mips.AnyImm(), sp) {
			storeReg := fn.at(gprIdx).Src[0].Reg

			// stack memory is sometimes zeroed immediately after the backups
			if storeReg == mips.MakeGPR(mips.R0) {
				fn.warnf("Stack Zeroing Detected, prologue may be wrong")
				expectNothingAfterGprs = true
				break
			}

			// this a0/r0 check seems to be all that's needed to avoid false positives
			if storeReg == mips.MakeGPR(mips.A0) {
				fn.bailout("a0 on stack detected, flagging as asm")
				return
			}

			nGprBackups++
			gprIdx++
		}

		if nGprBackups > 0 {
			fn.Prologue.GprBackupOffset = int(mips.GprStoreOffset(fn.at(idx)))
			for i := 0; i < nGprBackups; i++ {
				thisOffset := int(mips.GprStoreOffset(fn.at(idx + i)))
				thisReg := fn.at(idx + i).Src[0].Reg
				if thisOffset != fn.Prologue.GprBackupOffset+16*i {
					fn.bailout("gpr backup stride broken at %s", fn.at(idx+i).Render(f))
					return
				}
				if thisReg != expectedGprBackup(i, nGprBackups) {
					fn.bailout("Suspected asm function due to stack store: %s", fn.at(idx+i).Render(f))
					return
				}
			}
		}
		fn.Prologue.NGprBackup = nGprBackups
		idx = gprIdx

		nFprBackups := 0
		fprIdx := idx
		if !expectNothingAfterGprs {
			for fprIdx < n && mips.IsNoLinkFprStore(fn.at(fprIdx), mips.AnyReg(), mips.AnyImm(), sp) {
				nFprBackups++
				fprIdx++
			}

			if nFprBackups > 0 {
				fn.Prologue.FprBackupOffset = int(fn.at(idx).Src[1].Imm)
				for i := 0; i < nFprBackups; i++ {
					thisOffset := int(fn.at(idx + i).Src[1].Imm)
					thisReg := fn.at(idx + i).Src[0].Reg
					if thisOffset != fn.Prologue.FprBackupOffset+4*i {
						fn.bailout("fpr backup stride broken at %s", fn.at(idx+i).Render(f))
						return
					}
					if thisReg != expectedFprBackup(i, nFprBackups) {
						fn.bailout("Suspected asm function due to stack store: %s", fn.at(idx+i).Render(f))
						return
					}
				}
			}
		}
		fn.Prologue.NFprBackup = nFprBackups
		idx = fprIdx

		fn.PrologueStart = 1
		fn.PrologueEnd = idx

		fn.Prologue.StackVarOffset = 0
		if fn.Prologue.RaBackedUp {
			fn.Prologue.StackVarOffset = 8
		}
		if fn.Prologue.FpBackedUp {
			fn.Prologue.StackVarOffset = 16
		}

		switch {
		case nGprBackups == 0 && nFprBackups == 0:
			fn.Prologue.NStackVarBytes = fn.Prologue.TotalStackUsage - fn.Prologue.StackVarOffset
		case nGprBackups == 0:
			fn.Prologue.NStackVarBytes = fn.Prologue.FprBackupOffset - fn.Prologue.StackVarOffset
		case nFprBackups == 0:
			fn.Prologue.NStackVarBytes = fn.Prologue.GprBackupOffset - fn.Prologue.StackVarOffset
		default:
			if fn.Prologue.FprBackupOffset <= fn.Prologue.GprBackupOffset {
				fn.bailout("fpr backups below gpr backups")
				return
			}
			fn.Prologue.NStackVarBytes = fn.Prologue.GprBackupOffset - fn.Prologue.StackVarOffset
		}

		if fn.Prologue.NStackVarBytes < 0 {
			fn.bailout("negative stack variable area")
			return
		}

		if !fn.verifyStackLayout() {
			return
		}
	}

	if len(fn.BasicBlocks) == 0 || fn.BasicBlocks[0].EndWord < fn.PrologueEnd {
		fn.bailout("first basic block smaller than prologue")
		return
	}
	fn.BasicBlocks[0].StartWord = fn.PrologueEnd
	fn.Prologue.Decoded = true

	fn.checkEpilogue(f)
}

// verifyStackLayout walks the frame in save order and checks that each
// section lands at its recorded offset and that the 16-byte aligned total
// matches the daddiu amount.
func (fn *Function) verifyStackLayout() bool {
	p := &fn.Prologue
	totalStack := 0

	if p.RaBackedUp {
		totalStack = align8(totalStack)
		if p.RaBackupOffset != totalStack {
			fn.bailout("ra backup offset %d does not line up", p.RaBackupOffset)
			return false
		}
		totalStack += 8
	}

	if !p.RaBackedUp && p.FpBackedUp {
		// GOAL does this for an unknown reason
		totalStack += 8
	}

	if p.FpBackedUp {
		totalStack = align8(totalStack)
		if p.FpBackupOffset != totalStack {
			fn.bailout("fp backup offset %d does not line up", p.FpBackupOffset)
			return false
		}
		totalStack += 8
		if !p.FpSet {
			fn.bailout("fp backed up but never set")
			return false
		}
	}

	if p.NStackVarBytes != 0 {
		// no alignment here; stack var padding counts toward this section
		if p.StackVarOffset != totalStack {
			fn.bailout("stack variable offset %d does not line up", p.StackVarOffset)
			return false
		}
		totalStack += p.NStackVarBytes
	}

	if p.NGprBackup != 0 {
		totalStack = align16(totalStack)
		if p.GprBackupOffset != totalStack {
			fn.bailout("gpr backup offset %d does not line up", p.GprBackupOffset)
			return false
		}
		totalStack += 16 * p.NGprBackup
	}

	if p.NFprBackup != 0 {
		totalStack = align4(totalStack)
		if p.FprBackupOffset != totalStack {
			fn.bailout("fpr backup offset %d does not line up", p.FprBackupOffset)
			return false
		}
		totalStack += 4 * p.NFprBackup
	}

	totalStack = align16(totalStack)
	if p.TotalStackUsage != totalStack {
		fn.bailout("stack layout accounts for %d bytes, frame reserves %d", totalStack, p.TotalStackUsage)
		return false
	}
	return true
}

// checkEpilogue mirror-matches the frame teardown from the end of the
// function and trims it from the last basic block.
func (fn *Function) checkEpilogue(f *linked.File) {
	if !fn.Prologue.Decoded || fn.SuspectedAsm {
		return
	}

	sp := mips.ExactReg(mips.MakeGPR(mips.SP))
	r0 := mips.ExactReg(mips.MakeGPR(mips.R0))
	idx := len(fn.Instructions) - 1

	// seek past alignment nops
	for idx > 0 && mips.IsNop(fn.at(idx)) {
		idx--
	}
	if idx <= 0 {
		fn.bailout("no epilogue found")
		return
	}

	fn.EpilogueEnd = idx

	if fn.Prologue.TotalStackUsage != 0 {
		// sometimes an asm function has a compiler inserted second return
		// following the real one; skip it
		if mips.IsGpr3(fn.at(idx), mips.IkDADDU, sp, sp, r0) {
			idx--
			if idx < 0 || !mips.IsJrRa(fn.at(idx)) {
				fn.bailout("second return without jr ra")
				return
			}
			idx--
			fn.warnf("Double Return Epilogue - this is probably an ASM function")
			fn.SuspectedAsm = true
		}
		if idx < 0 || !mips.IsGpr2Imm(fn.at(idx), mips.IkDADDIU, sp, sp,
			mips.ExactImm(int32(fn.Prologue.TotalStackUsage))) {
			fn.bailout("epilogue stack restore not found")
			return
		}
		idx--
	} else {
		// the delay slot is always daddu sp, sp, r0
		if !mips.IsGpr3(fn.at(idx), mips.IkDADDU, sp, sp, r0) {
			fn.bailout("epilogue delay slot not found")
			return
		}
		idx--
	}

	if idx < 0 || !mips.IsJrRa(fn.at(idx)) {
		fn.bailout("epilogue jr ra not found")
		return
	}
	idx--

	for i := 0; i < fn.Prologue.NGprBackup; i++ {
		gprIdx := fn.Prologue.NGprBackup - (1 + i)
		expectedReg := gprBackups[gprIdx]
		expectedOffset := fn.Prologue.GprBackupOffset + 16*i
		if idx < 0 || !mips.IsNoLinkGprLoad(fn.at(idx), 16, mips.ExactReg(expectedReg),
			mips.ExactImm(int32(expectedOffset)), sp) {
			fn.bailout("gpr restore of %s not found", expectedReg)
			return
		}
		idx--
	}

	for i := 0; i < fn.Prologue.NFprBackup; i++ {
		fprIdx := fn.Prologue.NFprBackup - (1 + i)
		expectedReg := fprBackups[fprIdx]
		expectedOffset := fn.Prologue.FprBackupOffset + 4*i
		if idx < 0 || !mips.IsNoLinkFprLoad(fn.at(idx), mips.ExactReg(expectedReg),
			mips.ExactImm(int32(expectedOffset)), sp) {
			fn.bailout("fpr restore of %s not found", expectedReg)
			return
		}
		idx--
	}

	if fn.Prologue.FpBackedUp {
		if idx < 0 || !mips.IsNoLinkGprLoad(fn.at(idx), 8, mips.ExactReg(mips.MakeGPR(mips.FP)),
			mips.ExactImm(int32(fn.Prologue.FpBackupOffset)), sp) {
			fn.bailout("fp restore not found")
			return
		}
		idx--
	}

	if fn.Prologue.RaBackedUp {
		if idx < 0 || !mips.IsNoLinkGprLoad(fn.at(idx), 8, mips.ExactReg(mips.MakeGPR(mips.RA)),
			mips.ExactImm(int32(fn.Prologue.RaBackupOffset)), sp) {
			fn.bailout("ra restore not found")
			return
		}
		idx--
	}

	if len(fn.BasicBlocks) == 0 || idx+1 < fn.BasicBlocks[len(fn.BasicBlocks)-1].StartWord {
		fn.bailout("epilogue crosses basic block boundary")
		return
	}
	fn.BasicBlocks[len(fn.BasicBlocks)-1].EndWord = idx + 1
	fn.Prologue.EpilogueOk = true
	fn.EpilogueStart = idx + 1
}
