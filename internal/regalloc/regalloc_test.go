package regalloc

import (
	"testing"

	"minicc/internal/irgen"
)

// buildAddFn builds `v3 = v1 + v2; return v3` across two blocks, all
// three virtual registers live at the join, via irgen's exported
// Function/Block/Instr fields directly (no ast.Function/parser needed —
// spec.md §4.F only cares about the IR shape).
func buildAddFn() *irgen.Function {
	fn := &irgen.Function{
		Name: "add",
		VRegs: map[irgen.VReg]irgen.VRegInfo{
			1: {Size: irgen.Size8},
			2: {Size: irgen.Size8},
			3: {Size: irgen.Size8},
		},
		NextVReg: 3,
	}
	b1 := &irgen.Block{Label: "entry"}
	b2 := &irgen.Block{Label: "ret"}
	b1.Instrs = []irgen.Instr{
		{Op: irgen.OpLoadK, A: 1, Imm: 5},
		{Op: irgen.OpLoadK, A: 2, Imm: 10},
		{Op: irgen.OpAdd, A: 3, B: 1, C: 2},
		{Op: irgen.OpJump, To: b2},
	}
	b1.Succs = []*irgen.Block{b2}
	b2.Preds = []*irgen.Block{b1}
	b2.Instrs = []irgen.Instr{
		{Op: irgen.OpReturn, A: 3},
	}
	fn.Blocks = []*irgen.Block{b1, b2}
	fn.Entry = b1
	return fn
}

func rv64LikeSettings(total int) Settings {
	return Settings{
		IntPool:  Pool{Total: total, ReservedLow: 0, CalleeSaveSet: map[int]bool{}},
		TempReg:  total, // out of pool range, never assigned
		ImmRange: 1 << 11,
	}
}

// spec.md §4.F: with enough physical registers, every vreg gets one and
// nothing spills.
func TestAllocateNoSpillWhenPoolIsLarge(t *testing.T) {
	fn := buildAddFn()
	r := Allocate(fn, rv64LikeSettings(8))

	for vr := irgen.VReg(1); vr <= 3; vr++ {
		a, ok := r.Assign[vr]
		if !ok {
			t.Fatalf("vreg %d was never assigned", vr)
		}
		if a.Spilled {
			t.Fatalf("vreg %d spilled with %d registers available", vr, 8)
		}
	}
	if r.FrameSize != 0 {
		t.Fatalf("expected zero frame size with no spills, got %d", r.FrameSize)
	}
}

// spec.md §4.F: when the pool can't cover every simultaneously-live
// vreg, the overflow spills to a frame slot instead of erroring.
func TestAllocateSpillsWhenPoolIsTiny(t *testing.T) {
	fn := buildAddFn()
	r := Allocate(fn, rv64LikeSettings(1))

	spilled := 0
	for vr := irgen.VReg(1); vr <= 3; vr++ {
		if r.Assign[vr].Spilled {
			spilled++
		}
	}
	if spilled == 0 {
		t.Fatal("expected at least one spill with a single-register pool")
	}
	if r.FrameSize == 0 {
		t.Fatal("expected nonzero frame size once something spilled")
	}
	if r.FrameSize%16 != 0 {
		t.Fatalf("frame size %d not 16-byte aligned", r.FrameSize)
	}
}

// spec.md §4.F: a physical register assigned from the callee-save set
// must be recorded in UsedCallee so the prologue/epilogue know to spill
// it across the call boundary.
func TestAllocateTracksUsedCalleeSave(t *testing.T) {
	fn := buildAddFn()
	st := rv64LikeSettings(8)
	st.IntPool.CalleeSaveSet = map[int]bool{0: true, 1: true, 2: true}
	r := Allocate(fn, st)

	if len(r.UsedCallee) == 0 {
		t.Fatal("expected at least one callee-save register to be marked used")
	}
	for phys := range r.UsedCallee {
		if !st.IntPool.CalleeSaveSet[phys] {
			t.Fatalf("physical register %d marked used-callee but isn't in CalleeSaveSet", phys)
		}
	}
}

// spec.md §4.F "DetectExtraOccupied": a register reserved up front (the
// frame pointer, say) is never handed out to a vreg.
func TestAllocateRespectsExtraOccupied(t *testing.T) {
	fn := buildAddFn()
	st := rv64LikeSettings(3)
	st.DetectExtraOccupied = func(*irgen.Function) []int { return []int{0} }
	r := Allocate(fn, st)

	for vr, a := range r.Assign {
		if !a.Spilled && a.Physical == 0 {
			t.Fatalf("vreg %d assigned reserved physical register 0", vr)
		}
	}
}
