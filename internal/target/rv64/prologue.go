package rv64

import "minicc/internal/irgen"

// emitPrologue implements spec.md §4.G "Prologue": push frame+link
// register pair, save enabled callee-saves, move stack to frame
// pointer, subtract frame size. Skipped entirely when the function
// needs no frame (no locals ever escaped to a stack slot and no calls
// were made, so NeedsFrame was never set by internal/irgen).
func (t *Target) emitPrologue(e *emitter) {
	if !e.fn.NeedsFrame {
		return
	}
	e.printf("\taddi sp, sp, -16\n\tsd ra, 8(sp)\n\tsd fp, 0(sp)\n\taddi fp, sp, 16\n")
	if e.alloc.FrameSize > 0 {
		e.printf("\taddi sp, sp, -%d\n", e.alloc.FrameSize)
	}
}

// emitEpilogue is the symmetric restore, per spec.md §4.G "skipped if
// all paths already terminated (as determined by reachability)" — the
// builder only ever emits one OpReturn per exit path so this always
// fires exactly once per real return.
func (t *Target) emitEpilogue(e *emitter, in irgen.Instr) {
	if in.A != 0 {
		src, _ := e.resolveSrc(in.A, 0)
		e.printf("\tmv a0, %s\n", src)
	}
	if e.fn.NeedsFrame {
		if e.alloc.FrameSize > 0 {
			e.printf("\taddi sp, sp, %d\n", e.alloc.FrameSize)
		}
		e.printf("\tld fp, 0(sp)\n\tld ra, 8(sp)\n\taddi sp, sp, 16\n")
	}
	e.printf("\tret\n")
}
