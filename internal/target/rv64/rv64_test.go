package rv64

import (
	"bytes"
	"strings"
	"testing"

	"minicc/internal/irgen"
	"minicc/internal/regalloc"
)

// buildAddFn mirrors internal/regalloc's own fixture: `v3 = v1 + v2;
// return v3` across two blocks, built directly through irgen's exported
// Function/Block/Instr fields (spec.md §4.G only needs IR shape, not a
// real front end).
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
	entry := &irgen.Block{Label: "entry"}
	ret := &irgen.Block{Label: "ret"}
	entry.Instrs = []irgen.Instr{
		{Op: irgen.OpLoadK, A: 1, Imm: 5},
		{Op: irgen.OpLoadK, A: 2, Imm: 10},
		{Op: irgen.OpAdd, A: 3, B: 1, C: 2},
		{Op: irgen.OpJump, To: ret},
	}
	entry.Succs = []*irgen.Block{ret}
	ret.Preds = []*irgen.Block{entry}
	ret.Instrs = []irgen.Instr{
		{Op: irgen.OpReturn, A: 3},
	}
	fn.Blocks = []*irgen.Block{entry, ret}
	fn.Entry = entry
	return fn
}

// spec.md §4.G: the lowering table emits one mnemonic per opcode and
// threads the allocator's physical-register choices straight into the
// operand text, without a frame when NeedsFrame was never set.
func TestLowerEmitsExpectedMnemonicsNoFrame(t *testing.T) {
	fn := buildAddFn()
	tgt := New()
	alloc := regalloc.Allocate(fn, tgt.Settings())

	var buf bytes.Buffer
	if err := tgt.Lower(&buf, fn, alloc, nil); err != nil {
		t.Fatalf("Lower returned error: %v", err)
	}
	out := buf.String()

	for _, want := range []string{"li ", "add ", "j .Ladd_ret", "ret\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "addi sp, sp, -16") {
		t.Errorf("expected no prologue frame setup, got:\n%s", out)
	}
}

// spec.md §4.F/§4.G: a spilled VReg is rematerialized through the
// scratch trio rather than referenced as a bare physical register.
func TestLowerRematerializesSpilledOperand(t *testing.T) {
	fn := buildAddFn()
	tgt := New()
	st := tgt.Settings()
	st.IntPool.Total = st.IntPool.ReservedLow + 1 // leave exactly one allocatable register
	alloc := regalloc.Allocate(fn, st)

	var buf bytes.Buffer
	if err := tgt.Lower(&buf, fn, alloc, nil); err != nil {
		t.Fatalf("Lower returned error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "(fp)") {
		t.Fatalf("expected a spill slot load/store through fp, got:\n%s", out)
	}
}

// spec.md §4.G "Prologue"/"Epilogue": a function whose regalloc result
// reports a nonzero frame size gets matching setup/teardown around its
// body.
func TestLowerEmitsFrameWhenNeeded(t *testing.T) {
	fn := buildAddFn()
	fn.NeedsFrame = true
	tgt := New()
	alloc := regalloc.Allocate(fn, tgt.Settings())
	alloc.FrameSize = 16

	var buf bytes.Buffer
	if err := tgt.Lower(&buf, fn, alloc, nil); err != nil {
		t.Fatalf("Lower returned error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"sd ra, 8(sp)", "sd fp, 0(sp)", "ld ra, 8(sp)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing frame instruction %q, got:\n%s", want, out)
		}
	}
}

// spec.md §4.G: Tweak rewrites an out-of-range ptradd immediate into an
// explicit load-into-register-plus-add instead of leaving it for Lower
// to choke on.
func TestTweakLegalizesOutOfRangePtrAdd(t *testing.T) {
	fn := &irgen.Function{
		Name:     "offs",
		VRegs:    map[irgen.VReg]irgen.VRegInfo{1: {Size: irgen.Size8}, 2: {Size: irgen.Size8}},
		NextVReg: 2,
	}
	blk := &irgen.Block{Label: "entry"}
	blk.Instrs = []irgen.Instr{
		{Op: irgen.OpPtrAdd, A: 2, B: 1, Imm: 1 << 20},
		{Op: irgen.OpReturn, A: 2},
	}
	fn.Blocks = []*irgen.Block{blk}
	fn.Entry = blk

	New().Tweak(fn)

	var sawLoadK, sawScaledAdd bool
	for _, in := range blk.Instrs {
		if in.Op == irgen.OpLoadK && in.Imm == 1<<20 {
			sawLoadK = true
		}
		if in.Op == irgen.OpPtrAdd && in.C != 0 && in.Imm == 1 {
			sawScaledAdd = true
		}
	}
	if !sawLoadK || !sawScaledAdd {
		t.Fatalf("expected Tweak to rewrite the out-of-range ptradd, got: %+v", blk.Instrs)
	}
}
