// Package target declares the lowering contract Component G (spec.md
// §4.G) implements once per architecture: a table of per-opcode
// handlers plus the prologue/epilogue, immediate-legalization and cast
// rules every concrete target must obey. internal/target/rv64 is the
// one concrete implementation, grounded on the register-file/ABI
// layout of a RISC-V-like backend.
package target

import (
	"io"

	"minicc/internal/irgen"
	"minicc/internal/regalloc"
)

// Target lowers one function's allocated IR to assembly text.
type Target interface {
	// Name identifies the target for diagnostics and the -v banner.
	Name() string

	// Settings returns this target's register-pool table, consulted by
	// internal/regalloc before Lower is ever called.
	Settings() regalloc.Settings

	// Tweak runs the immediate-legalization pre-pass over fn in place:
	// inserting `mov`-equivalent instructions ahead of any instruction
	// whose form does not accept the constant operand it was given
	// (spec.md §4.G "Immediate legalization").
	Tweak(fn *irgen.Function)

	// Lower emits fn's body as assembly text to w, using alloc for
	// every VReg operand.
	Lower(w io.Writer, fn *irgen.Function, alloc *regalloc.Result, tables []irgen.JumpTable) error

	// WordSize is the target's native register width in bytes (8 for
	// the 64-bit machine spec.md illustrates this with).
	WordSize() int
}
