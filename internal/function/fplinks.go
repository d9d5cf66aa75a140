package function

import (
	"fmt"

	"goaldis/internal/linked"
	"goaldis/internal/mips"
)

// ProcessFpRelativeLinks finds uses of the fp register and rewrites the
// immediates into labels for fp-relative data access. fp points one word
// past the function type tag.
//
// GOAL uses three addressing strategies: a direct load/daddiu when the
// 16-bit immediate has enough range, ori + daddu/addu to reach +2^16, and
// lui + ori + daddu/addu for anywhere. addu is used for pointers to
// floats and swaps the fp operand position.
func ProcessFpRelativeLinks(f *linked.File, funcs [][]*Function) error {
	for seg, segFuncs := range funcs {
		for _, fn := range segFuncs {
			if err := fn.processFpLinks(f, seg); err != nil {
				return err
			}
		}
	}
	return nil
}

func (fn *Function) processFpLinks(f *linked.File, seg int) error {
	fp := mips.MakeGPR(mips.FP)

	for idx := range fn.Instructions {
		instr := &fn.Instructions[idx]
		var prev, pprev *mips.Instruction
		if idx > 0 {
			prev = &fn.Instructions[idx-1]
		}
		if idx > 1 {
			pprev = &fn.Instructions[idx-2]
		}

		// saving fp itself onto the stack is not a data reference
		if (instr.Kind == mips.IkSD || instr.Kind == mips.IkSQ) && instr.Src[0].Reg == fp {
			continue
		}
		if instr.Kind == mips.IkPEXTLW {
			continue
		}

		for i := 0; i < instr.NSrc; i++ {
			src := instr.GetSrc(i)
			if src.Kind != mips.AtomRegister || src.Reg != fp {
				continue
			}

			f.Stats.NFpRegUse++
			fn.UsesFpRegister = true
			currentFp := 4 * (fn.StartWord + 1)

			switch instr.Kind {
			case mips.IkLW, mips.IkLWC1, mips.IkLD, mips.IkDADDIU:
				atom := instr.ImmSrc()
				if atom == nil {
					return fmt.Errorf("%w: fp use with no immediate in %s", ErrAnalysis, instr.Render(f))
				}
				atom.SetLabel(f.GetLabelID(seg, currentFp+int(atom.Imm)))
				f.Stats.NFpRegUseResolved++

			case mips.IkDADDU, mips.IkADDU:
				if prev == nil || prev.Kind != mips.IkORI {
					return fmt.Errorf("%w: fp add without preceding ori in %s", ErrAnalysis, instr.Render(f))
				}
				offsetRegSrc := 0
				if instr.Kind == mips.IkADDU {
					offsetRegSrc = 1
				}
				offsetReg := instr.GetSrc(offsetRegSrc).Reg
				if offsetReg != prev.GetDst(0).Reg || offsetReg != prev.GetSrc(0).Reg {
					return fmt.Errorf("%w: fp add offset register mismatch in %s", ErrAnalysis, instr.Render(f))
				}
				atom := prev.ImmSrc()
				additional := 0
				if pprev != nil && pprev.Kind == mips.IkLUI {
					if pprev.GetDst(0).Reg != offsetReg {
						return fmt.Errorf("%w: lui destination mismatch in %s", ErrAnalysis, instr.Render(f))
					}
					additional = (1 << 16) * int(pprev.ImmSrcInt())
				}
				atom.SetLabel(f.GetLabelID(seg, currentFp+int(atom.Imm)+additional))
				f.Stats.NFpRegUseResolved++

			default:
				return fmt.Errorf("%w: unknown fp using op: %s", ErrAnalysis, instr.Render(f))
			}
		}
	}
	return nil
}
