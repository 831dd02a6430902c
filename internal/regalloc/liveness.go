package regalloc

import "minicc/internal/irgen"

// computeLiveness runs the classic backward liveIn/liveOut dataflow to a
// fixed point over fn's basic-block graph, worklist-driven rather than
// a fixed iteration count so it terminates exactly when nothing changes
// (spec.md §4.F).
func computeLiveness(fn *irgen.Function) map[*irgen.Block]*live {
	sets := make(map[*irgen.Block]*live, len(fn.Blocks))
	for _, blk := range fn.Blocks {
		sets[blk] = &live{liveIn: map[irgen.VReg]bool{}, liveOut: map[irgen.VReg]bool{}}
	}

	worklist := append([]*irgen.Block{}, fn.Blocks...)
	inWorklist := make(map[*irgen.Block]bool, len(fn.Blocks))
	for _, blk := range fn.Blocks {
		inWorklist[blk] = true
	}

	for len(worklist) > 0 {
		blk := worklist[0]
		worklist = worklist[1:]
		inWorklist[blk] = false

		s := sets[blk]
		newOut := map[irgen.VReg]bool{}
		for _, succ := range blk.Succs {
			for v := range sets[succ].liveIn {
				newOut[v] = true
			}
		}

		newIn := map[irgen.VReg]bool{}
		for v := range newOut {
			newIn[v] = true
		}
		for i := len(blk.Instrs) - 1; i >= 0; i-- {
			in := blk.Instrs[i]
			if def, ok := defOf(in); ok {
				delete(newIn, def)
			}
			for _, u := range usesOf(in) {
				newIn[u] = true
			}
		}

		if !setEqual(newIn, s.liveIn) || !setEqual(newOut, s.liveOut) {
			s.liveIn = newIn
			s.liveOut = newOut
			for _, pred := range blk.Preds {
				if !inWorklist[pred] {
					worklist = append(worklist, pred)
					inWorklist[pred] = true
				}
			}
		}
	}
	return sets
}

func setEqual(a, b map[irgen.VReg]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for v := range a {
		if !b[v] {
			return false
		}
	}
	return true
}

// defOf reports the VReg an instruction defines, if any.
func defOf(in irgen.Instr) (irgen.VReg, bool) {
	switch in.Op {
	case irgen.OpJump, irgen.OpBranch, irgen.OpTjmp, irgen.OpReturn,
		irgen.OpStore, irgen.OpPrecall, irgen.OpPushArg, irgen.OpPushStk, irgen.OpCall:
		return 0, false
	}
	if in.A == 0 {
		return 0, false
	}
	return in.A, true
}

// usesOf reports the VRegs an instruction reads.
func usesOf(in irgen.Instr) []irgen.VReg {
	var uses []irgen.VReg
	add := func(v irgen.VReg) {
		if v != 0 {
			uses = append(uses, v)
		}
	}
	switch in.Op {
	case irgen.OpStore:
		add(in.A)
		add(in.B)
	case irgen.OpBranch:
		add(in.A)
	case irgen.OpTjmp:
		add(in.A)
	case irgen.OpReturn:
		add(in.A)
	case irgen.OpPushArg, irgen.OpPushStk:
		add(in.A)
	case irgen.OpCall:
		add(in.A) // indirect call target; zero for direct (Sym set)
	case irgen.OpResult, irgen.OpLoadK, irgen.OpLoadSym, irgen.OpPrecall:
		// no vreg operands read
	default:
		add(in.B)
		add(in.C)
	}
	return uses
}

// liveRange is a VReg's [start,end] window over a flattened, per-block
// sequential numbering of instructions — adequate for this allocator's
// linear-scan-style ranking since spec.md only requires liveness
// across blocks, not a true SSA live-interval construction.
type liveRange struct {
	start, end int
}

// buildLiveRanges flattens each block's instruction list in function
// order and, per VReg, records the first definition/use and the last
// use, producing one contiguous range per function (not per loop
// iteration — this allocator does not unroll).
func buildLiveRanges(fn *irgen.Function, sets map[*irgen.Block]*live) map[irgen.VReg]liveRange {
	ranges := make(map[irgen.VReg]liveRange)
	touch := func(v irgen.VReg, pos int) {
		if v == 0 {
			return
		}
		r, ok := ranges[v]
		if !ok {
			ranges[v] = liveRange{start: pos, end: pos}
			return
		}
		if pos < r.start {
			r.start = pos
		}
		if pos > r.end {
			r.end = pos
		}
		ranges[v] = r
	}

	pos := 0
	for _, blk := range fn.Blocks {
		for v := range sets[blk].liveIn {
			touch(v, pos)
		}
		for _, in := range blk.Instrs {
			if def, ok := defOf(in); ok {
				touch(def, pos)
			}
			for _, u := range usesOf(in) {
				touch(u, pos)
			}
			pos++
		}
		for v := range sets[blk].liveOut {
			touch(v, pos)
		}
	}
	return ranges
}

// rankBySpillCost orders VRegs for allocation, highest priority (cheapest
// to spill last) first: per spec.md §4.F "ranked by spill cost", this
// uses range length as an inverse proxy for use density — a short,
// tightly-used range is cheap to keep in a register and expensive to
// spill repeatedly, so it is allocated first.
func rankBySpillCost(fn *irgen.Function, ranges map[irgen.VReg]liveRange) []irgen.VReg {
	vrs := make([]irgen.VReg, 0, len(ranges))
	for v := range ranges {
		vrs = append(vrs, v)
	}
	cost := func(v irgen.VReg) int {
		r := ranges[v]
		return r.end - r.start
	}
	for i := 1; i < len(vrs); i++ {
		j := i
		for j > 0 && cost(vrs[j-1]) > cost(vrs[j]) {
			vrs[j-1], vrs[j] = vrs[j], vrs[j-1]
			j--
		}
	}
	return vrs
}
