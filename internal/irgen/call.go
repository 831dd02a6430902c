package irgen

import (
	"math"

	"minicc/internal/ast"
	"minicc/internal/ctypes"
)

func float32ToBits(v float32) uint32 { return math.Float32bits(v) }
func float64ToBits(v float64) uint64 { return math.Float64bits(v) }

// argClass is how one call argument is passed, per spec.md §4.E's
// "arguments are evaluated right-to-left... classified as register are
// lowered to pusharg with a parameter index; stack arguments... stored
// into a pre-allocated outgoing area."
type argClass int

const (
	argRegister argClass = iota
	argStack
)

// maxRegArgs is the target's integer/pointer argument-register count
// (rv64's a0-a7, per internal/target/rv64); floating arguments draw
// from a separate bank but still count against this slot budget for
// the variadic packing rule spec.md §4.E calls out.
const maxRegArgs = 8

func (b *Builder) lowerCall(e *ast.Expr) VReg {
	n := len(e.Args)
	classes := make([]argClass, n)
	regIdx := 0
	for i := 0; i < n; i++ {
		if regIdx < maxRegArgs {
			classes[i] = argRegister
			regIdx++
		} else {
			classes[i] = argStack
		}
	}
	stackSize := 0
	for i, c := range classes {
		if c == argStack {
			stackSize += align8(ctypes.TypeSize(e.Args[i].Type))
		}
	}

	b.cur.emit(Instr{Op: OpPrecall, Imm: int64(stackSize)})

	argVals := make([]VReg, n)
	stackOff := 0
	for i := n - 1; i >= 0; i-- {
		argVals[i] = b.lowerExpr(e.Args[i])
		if classes[i] == argStack {
			stackOff += align8(ctypes.TypeSize(e.Args[i].Type))
		}
	}
	paramIdx := 0
	stackOff = 0
	for i := 0; i < n; i++ {
		if classes[i] == argRegister {
			b.cur.emit(Instr{Op: OpPushArg, A: argVals[i], Imm: int64(paramIdx)})
			paramIdx++
		} else {
			b.cur.emit(Instr{Op: OpPushStk, A: argVals[i], Imm: int64(stackOff)})
			stackOff += align8(ctypes.TypeSize(e.Args[i].Type))
		}
	}

	if e.Callee.Kind == ast.EkVar && e.Callee.VarRef != nil && e.Callee.VarRef.Func != nil {
		b.cur.emit(Instr{Op: OpCall, Sym: e.Callee.VarRef.Name})
	} else {
		target := b.lowerExpr(e.Callee)
		b.cur.emit(Instr{Op: OpCall, A: target})
	}

	if e.Type.Kind == ctypes.KindVoid {
		return 0
	}
	dst := b.fn.newVReg(SizeClassOf(e.Type), e.Type.Unsigned, ctypes.IsFlonum(e.Type))
	b.cur.emit(Instr{Op: OpResult, A: dst})
	return dst
}

func align8(n int) int {
	return (n + 7) &^ 7
}

// lowerInlinedCall lowers an already-duplicated inline body in place:
// the parameter-initializing declarations and cloned statement run were
// built by internal/inline.Expand, so this lowers that block through
// lowerInlineBody, which moves each return statement's value into the
// fresh dst VReg and jumps to a shared exit block; dst holds the call's
// value once the exit block is reached.
func (b *Builder) lowerInlinedCall(e *ast.Expr) VReg {
	dst := b.fn.newVReg(SizeClassOf(e.Type), e.Type.Unsigned, ctypes.IsFlonum(e.Type))
	b.lowerInlineBody(e.Body, dst)
	return dst
}

// lowerInlineBody walks an inlined function body, rewriting each
// `return expr` it finds (at any nesting depth, not just the top level)
// into an assignment to dst followed by a jump to a shared exit block,
// so multiple return statements inside the inlined body converge like
// ordinary control flow instead of actually returning from the caller.
func (b *Builder) lowerInlineBody(body *ast.Stmt, dst VReg) {
	exitBlk := b.fn.newBlock(b.label("inline_exit"))
	b.lowerInlineStmt(body, dst, exitBlk)
	if !b.cur.terminated() {
		b.cur.emit(Instr{Op: OpJump, To: exitBlk})
		b.cur.addSucc(exitBlk)
	}
	b.cur = exitBlk
}

func (b *Builder) lowerInlineStmt(s *ast.Stmt, dst VReg, exitBlk *Block) {
	if s == nil {
		return
	}
	if s.Kind == ast.SkReturn {
		if s.Expr != nil {
			v := b.lowerExpr(s.Expr)
			b.cur.emit(Instr{Op: OpMove, A: dst, B: v})
		}
		b.cur.emit(Instr{Op: OpJump, To: exitBlk})
		b.cur.addSucc(exitBlk)
		b.startBlock("after_inline_return")
		return
	}
	if s.Kind == ast.SkBlock {
		for _, c := range s.List {
			if b.cur.terminated() {
				break
			}
			b.lowerInlineStmt(c, dst, exitBlk)
		}
		return
	}
	if s.Kind == ast.SkIf {
		thenBlk := b.fn.newBlock(b.label("inline_if_then"))
		var elseBlk, joinBlk *Block
		if s.Else != nil {
			elseBlk = b.fn.newBlock(b.label("inline_if_else"))
		}
		joinBlk = b.fn.newBlock(b.label("inline_if_end"))
		falseTarget := joinBlk
		if elseBlk != nil {
			falseTarget = elseBlk
		}
		b.lowerCond(s.Cond, thenBlk, falseTarget)

		b.cur = thenBlk
		b.lowerInlineStmt(s.Then, dst, exitBlk)
		if !b.cur.terminated() {
			b.cur.emit(Instr{Op: OpJump, To: joinBlk})
			b.cur.addSucc(joinBlk)
		}
		if elseBlk != nil {
			b.cur = elseBlk
			b.lowerInlineStmt(s.Else, dst, exitBlk)
			if !b.cur.terminated() {
				b.cur.emit(Instr{Op: OpJump, To: joinBlk})
				b.cur.addSucc(joinBlk)
			}
		}
		b.cur = joinBlk
		return
	}
	// Every other statement kind (loops, switch, var decls, expr
	// statements, break/continue) carries no inline-local return, so
	// the ordinary lowering path handles it unchanged.
	b.lowerStmt(s)
}
