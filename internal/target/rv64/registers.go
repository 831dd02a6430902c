// Package rv64 implements internal/target.Target for a 64-bit,
// load-store register machine illustrating spec.md §4.G/§1's "64-bit
// register machine" — the register file, ABI register classes and
// reserved-register set are grounded on the teacher pack's RISC-V
// backend reference (a register file split into integer/floating
// banks with zero, return-address, stack- and frame-pointer, and
// argument/caller-save/callee-save classes).
package rv64

import (
	"minicc/internal/irgen"
	"minicc/internal/regalloc"
)

// Integer register indices, mirroring the standard RISC-V ABI naming
// (x0 zero .. x31), used both as the physical index regalloc assigns
// and as the table index for asmName.
const (
	regZero = iota // x0: hard-wired zero, never allocated
	regRA          // x1: return address
	regSP          // x2: stack pointer, reserved
	regGP          // x3: global pointer, reserved
	regTP          // x4: thread pointer, reserved
	regT0          // x5: dedicated scratch for spill rematerialization
	regT1          // x6: temp, caller-save
	regT2          // x7: temp, caller-save
	regFP          // x8: frame pointer, reserved when a frame is built
	regS1          // x9: callee-save
	regA0          // x10: arg0 / return value
	regA1          // x11: arg1 / return value (high word for __int128, unused here)
	regA2          // x12
	regA3          // x13
	regA4          // x14
	regA5          // x15
	regA6          // x16
	regA7          // x17
	regS2          // x18: callee-save
	regS3          // x19
	regS4          // x20
	regS5          // x21
	regS6          // x22
	regS7          // x23
	regS8          // x24
	regS9          // x25
	regS10         // x26
	regS11         // x27
	regT3          // x28: temp, caller-save
	regT4          // x29
	regT5          // x30
	regT6          // x31
)

var intNames = [...]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2", "fp", "s1",
	"a0", "a1", "a2", "a3", "a4", "a5", "a6", "a7",
	"s2", "s3", "s4", "s5", "s6", "s7", "s8", "s9", "s10", "s11",
	"t3", "t4", "t5", "t6",
}

var floatNames = [...]string{
	"ft0", "ft1", "ft2", "ft3", "ft4", "ft5", "ft6", "ft7",
	"fs0", "fs1",
	"fa0", "fa1", "fa2", "fa3", "fa4", "fa5", "fa6", "fa7",
	"fs2", "fs3", "fs4", "fs5", "fs6", "fs7", "fs8", "fs9", "fs10", "fs11",
	"ft8", "ft9", "ft10", "ft11",
}

// argIntRegs is the integer/pointer argument-passing sequence, a0-a7.
var argIntRegs = []int{regA0, regA1, regA2, regA3, regA4, regA5, regA6, regA7}

// tempReg is the single dedicated scratch regalloc routes spilled
// operand rematerialization through (spec.md §4.F).
const tempReg = regT0

// settings is this target's register-pool table, per spec.md §4.F.
// intCalleeSave is the s-register set: s1, s2-s11 (x9, x18-x27).
var intCalleeSave = func() map[int]bool {
	m := map[int]bool{regS1: true}
	for r := regS2; r <= regS11; r++ {
		m[r] = true
	}
	return m
}()

// floatCalleeSave is fs0-fs11.
var floatCalleeSave = func() map[int]bool {
	m := map[int]bool{}
	for r := 8; r <= 9; r++ { // fs0, fs1
		m[r] = true
	}
	for r := 18; r <= 27; r++ { // fs2-fs11
		m[r] = true
	}
	return m
}()

func settings() regalloc.Settings {
	return regalloc.Settings{
		IntPool: regalloc.Pool{
			Total:         32,
			ReservedLow:   regT1, // zero/ra/sp/gp/tp/t0 never allocated directly
			CalleeSaveSet: intCalleeSave,
		},
		FloatPool: regalloc.Pool{
			Total:         32,
			ReservedLow:   0,
			CalleeSaveSet: floatCalleeSave,
		},
		TempReg:  tempReg,
		ImmRange: 1 << 11, // 12-bit signed immediate, per spec.md §4.G
		DetectExtraOccupied: func(fn *irgen.Function) []int {
			if fn.NeedsFrame {
				return []int{regFP}
			}
			return nil
		},
	}
}
