package rv64

import "minicc/internal/irgen"

// reg resolves v to an operand name. Most VRegs were assigned a
// physical register by internal/regalloc and resolve directly; a
// spilled VReg has no stable physical home, so this rematerializes it
// through a scratch register instead.
//
// spec.md §4.F describes "the single dedicated temporary register of
// the target" for spill rematerialization; an instruction with more
// than one spilled operand at once still needs distinct scratch
// registers to avoid one load clobbering another before it is
// consumed, so this uses the reserved t0-t2 trio (never handed out by
// regalloc.Settings.IntPool, whose free list starts at regT1... the
// allocator's ReservedLow already excludes t0; t1/t2 remain in the
// general pool and are simply not live across a spill site by
// construction, since a VReg that was itself assigned t1/t2 would have
// resolved through the "not spilled" branch below instead).
var spillScratch = [3]int{regT0, regT1, regT2}

func (e *emitter) reg(v irgen.VReg) string {
	name, _ := e.resolveSrc(v, 0)
	return name
}

// resolveSrc returns v's operand name, emitting a load from its spill
// slot into spillScratch[slot] first if v was spilled.
func (e *emitter) resolveSrc(v irgen.VReg, slot int) (string, bool) {
	if v == 0 {
		return "zero", false
	}
	a := e.alloc.Assign[v]
	info := e.fn.VRegs[v]
	if !a.Spilled {
		if info.IsFloat {
			return floatNames[a.Physical], false
		}
		return intNames[a.Physical], false
	}
	scratch := intNames[spillScratch[slot]]
	e.printf("\t%s %s, -%d(fp)\n", loadMnemonic(info.Size, info.Unsigned), scratch, a.SlotOff)
	return scratch, true
}

// resolveDst returns the name to write v's result into, plus a commit
// closure that stores it back to the frame if v was spilled. Callers
// must invoke commit exactly once after emitting the producing
// instruction.
func (e *emitter) resolveDst(v irgen.VReg) (string, func()) {
	if v == 0 {
		return "zero", func() {}
	}
	a := e.alloc.Assign[v]
	info := e.fn.VRegs[v]
	if !a.Spilled {
		if info.IsFloat {
			return floatNames[a.Physical], func() {}
		}
		return intNames[a.Physical], func() {}
	}
	scratch := intNames[spillScratch[2]]
	return scratch, func() {
		e.printf("\t%s %s, -%d(fp)\n", storeMnemonic(info.Size), scratch, a.SlotOff)
	}
}
