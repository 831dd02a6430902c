package irgen

import (
	"minicc/internal/ast"
	"minicc/internal/ctypes"
)

var arithOp = map[string]Op{
	"+": OpAdd, "-": OpSub, "*": OpMul, "/": OpDiv, "%": OpMod,
	"&": OpAnd, "|": OpOr, "^": OpXor, "<<": OpShl,
}

var cmpOp = map[string]Op{
	"==": OpEq, "!=": OpNe, "<": OpLt, "<=": OpLe, ">": OpGt, ">=": OpGe,
}

// lowerExpr lowers e to a VReg holding its value.
func (b *Builder) lowerExpr(e *ast.Expr) VReg {
	switch e.Kind {
	case ast.EkLitInt:
		return b.loadConst(e.IntVal, SizeClassOf(e.Type), e.Type.Unsigned, false)
	case ast.EkLitFlt:
		return b.loadFloatConst(e.FltVal, e.Type)
	case ast.EkVar:
		return b.lowerVarRead(e)
	case ast.EkUnary:
		return b.lowerUnary(e)
	case ast.EkBinary:
		return b.lowerBinary(e)
	case ast.EkLogical:
		return b.lowerLogicalValue(e)
	case ast.EkTernary:
		return b.lowerTernary(e)
	case ast.EkComma:
		b.lowerExpr(e.Lhs)
		return b.lowerExpr(e.Rhs)
	case ast.EkCast:
		return b.lowerCast(e)
	case ast.EkAssign:
		return b.lowerAssign(e)
	case ast.EkIncDec:
		return b.lowerIncDec(e)
	case ast.EkDeref:
		addr := b.lowerExpr(e.Sub)
		dst := b.fn.newVReg(SizeClassOf(e.Type), e.Type.Unsigned, ctypes.IsFlonum(e.Type))
		b.cur.emit(Instr{Op: OpLoad, A: dst, B: addr, Size: SizeClassOf(e.Type), Unsigned: e.Type.Unsigned})
		return dst
	case ast.EkAddr:
		return b.lowerAddr(e.Sub)
	case ast.EkMember:
		addr := b.lowerMemberAddr(e)
		dst := b.fn.newVReg(SizeClassOf(e.Type), e.Type.Unsigned, ctypes.IsFlonum(e.Type))
		b.cur.emit(Instr{Op: OpLoad, A: dst, B: addr, Size: SizeClassOf(e.Type), Unsigned: e.Type.Unsigned})
		return dst
	case ast.EkCall:
		return b.lowerCall(e)
	case ast.EkInlinedCall:
		return b.lowerInlinedCall(e)
	}
	return b.loadConst(0, Size4, false, false)
}

func (b *Builder) loadConst(v int64, size SizeClass, unsigned, isFloat bool) VReg {
	dst := b.fn.newVReg(size, unsigned, isFloat)
	b.cur.emit(Instr{Op: OpLoadK, A: dst, Imm: v, Size: size, Unsigned: unsigned})
	return dst
}

func (b *Builder) loadFloatConst(v float64, t *ctypes.Type) VReg {
	dst := b.fn.newVReg(SizeClassOf(t), false, true)
	// Constant floating bit pattern travels through Imm as its IEEE-754
	// encoding; internal/target materializes it from rodata.
	b.cur.emit(Instr{Op: OpLoadK, A: dst, Imm: floatBits(v, SizeClassOf(t)), Size: SizeClassOf(t)})
	return dst
}

func floatBits(v float64, size SizeClass) int64 {
	if size == Size4 {
		return int64(float32ToBits(float32(v)))
	}
	return int64(float64ToBits(v))
}

func (b *Builder) lowerVarRead(e *ast.Expr) VReg {
	v := e.VarRef
	if vr, ok := b.localReg[v]; ok {
		return vr
	}
	addr := b.lowerVarAddr(v)
	dst := b.fn.newVReg(SizeClassOf(e.Type), e.Type.Unsigned, ctypes.IsFlonum(e.Type))
	b.cur.emit(Instr{Op: OpLoad, A: dst, B: addr, Size: SizeClassOf(e.Type), Unsigned: e.Type.Unsigned})
	return dst
}

// lowerVarAddr returns a VReg holding v's address: a frame-relative
// computation for a stack-resident local, or a symbol load for anything
// not locally register/slot-allocated (a global or a linked-in
// external, per spec.md §4.H's section classification).
func (b *Builder) lowerVarAddr(v *ast.VarInfo) VReg {
	if slot, ok := b.localSlot[v]; ok {
		dst := b.fn.newVReg(Size8, false, false)
		b.cur.emit(Instr{Op: OpLoadSym, A: dst, Sym: "$frame", Imm: int64(slot)})
		return dst
	}
	dst := b.fn.newVReg(Size8, false, false)
	b.cur.emit(Instr{Op: OpLoadSym, A: dst, Sym: v.Name})
	return dst
}

// lowerAddr lowers the address of an lvalue expression (spec.md §4.E is
// silent on `&`'s own lowering since Component B already rejects
// `&bitfield`; this just walks the remaining lvalue kinds).
func (b *Builder) lowerAddr(e *ast.Expr) VReg {
	switch e.Kind {
	case ast.EkVar:
		return b.lowerVarAddr(e.VarRef)
	case ast.EkDeref:
		return b.lowerExpr(e.Sub)
	case ast.EkMember:
		return b.lowerMemberAddr(e)
	}
	return b.lowerExpr(e)
}

func (b *Builder) lowerMemberAddr(e *ast.Expr) VReg {
	var base VReg
	if e.Arrow {
		base = b.lowerExpr(e.Target)
	} else {
		base = b.lowerAddr(e.Target)
	}
	si := e.Target.Type.Struct
	if e.Arrow {
		si = e.Target.Type.Elem.Struct
	}
	offset := si.Members[e.MemberIdx].Offset
	if offset == 0 {
		return base
	}
	dst := b.fn.newVReg(Size8, false, false)
	b.cur.emit(Instr{Op: OpPtrAdd, A: dst, B: base, Imm: int64(offset)})
	return dst
}

func (b *Builder) lowerUnary(e *ast.Expr) VReg {
	sub := b.lowerExpr(e.Sub)
	dst := b.fn.newVReg(SizeClassOf(e.Type), e.Type.Unsigned, ctypes.IsFlonum(e.Type))
	op := OpNeg
	if e.Op == "~" {
		op = OpNot
	}
	b.cur.emit(Instr{Op: op, A: dst, B: sub})
	return dst
}

func (b *Builder) lowerBinary(e *ast.Expr) VReg {
	if e.Op == ">>" || e.Op == ">>u" {
		l := b.lowerExpr(e.Lhs)
		r := b.lowerExpr(e.Rhs)
		dst := b.fn.newVReg(SizeClassOf(e.Type), e.Type.Unsigned, false)
		op := OpShr
		if e.Op == ">>u" {
			op = OpShrU
		}
		b.cur.emit(Instr{Op: op, A: dst, B: l, C: r})
		return dst
	}
	if op, ok := cmpOp[e.Op]; ok {
		l := b.lowerExpr(e.Lhs)
		r := b.lowerExpr(e.Rhs)
		dst := b.fn.newVReg(Size4, false, false)
		b.cur.emit(Instr{Op: op, A: dst, B: l, C: r})
		return dst
	}
	if e.Op == "+" && ctypes.PtrOrArray(e.Type) {
		return b.lowerPtrAdd(e)
	}
	l := b.lowerExpr(e.Lhs)
	r := b.lowerExpr(e.Rhs)
	dst := b.fn.newVReg(SizeClassOf(e.Type), e.Type.Unsigned, ctypes.IsFlonum(e.Type))
	b.cur.emit(Instr{Op: arithOp[e.Op], A: dst, B: l, C: r})
	return dst
}

// lowerPtrAdd implements spec.md §4.E "ptr + int is lowered to a
// dedicated ptradd(base, index, scale, add_const) opcode where scale is
// the pointee size; if scale is not a power-of-two <= 8, the
// multiplication is materialized and scale set to 1."
func (b *Builder) lowerPtrAdd(e *ast.Expr) VReg {
	base := b.lowerExpr(e.Lhs)
	idx := b.lowerExpr(e.Rhs)
	scale := ctypes.TypeSize(e.Type.Elem)
	dst := b.fn.newVReg(Size8, false, false)
	if isSmallPow2(scale) {
		b.cur.emit(Instr{Op: OpPtrAdd, A: dst, B: base, C: idx, Imm: int64(scale)})
		return dst
	}
	scaled := b.fn.newVReg(Size8, false, false)
	scaleReg := b.loadConst(int64(scale), Size8, false, false)
	b.cur.emit(Instr{Op: OpMul, A: scaled, B: idx, C: scaleReg})
	b.cur.emit(Instr{Op: OpPtrAdd, A: dst, B: base, C: scaled, Imm: 1})
	return dst
}

func isSmallPow2(n int) bool {
	return n == 1 || n == 2 || n == 4 || n == 8
}

// lowerCond implements spec.md §4.E "Condition jumps": short-circuit
// && / || split into basic blocks with threaded conditional branches
// instead of materializing a boolean. Any other condition, a bare
// comparison included, is computed into a VReg (a comparison's compare
// opcode yields 0/1) and branched on with OpBranch; no fused
// compare-and-branch instruction is emitted.
func (b *Builder) lowerCond(e *ast.Expr, trueBlk, falseBlk *Block) {
	switch e.Kind {
	case ast.EkLogical:
		if e.Op == "&&" {
			midBlk := b.fn.newBlock(b.label("and_rhs"))
			b.lowerCond(e.Lhs, midBlk, falseBlk)
			b.cur = midBlk
			b.lowerCond(e.Rhs, trueBlk, falseBlk)
			return
		}
		midBlk := b.fn.newBlock(b.label("or_rhs"))
		b.lowerCond(e.Lhs, trueBlk, midBlk)
		b.cur = midBlk
		b.lowerCond(e.Rhs, trueBlk, falseBlk)
		return
	case ast.EkUnary:
		if e.Op == "!" {
			b.lowerCond(e.Sub, falseBlk, trueBlk)
			return
		}
	}
	cond := b.lowerExpr(e)
	b.cur.emit(Instr{Op: OpBranch, A: cond, To: trueBlk, Else: falseBlk})
	b.cur.addSucc(trueBlk)
	b.cur.addSucc(falseBlk)
}

// lowerLogicalValue materializes a && / || used as an ordinary value
// (not directly controlling a branch): branch-thread into a true and a
// false block that move the constant 1 or 0 into the result VReg and
// join.
func (b *Builder) lowerLogicalValue(e *ast.Expr) VReg {
	trueBlk := b.fn.newBlock(b.label("log_true"))
	falseBlk := b.fn.newBlock(b.label("log_false"))
	joinBlk := b.fn.newBlock(b.label("log_join"))
	b.lowerCond(e, trueBlk, falseBlk)

	dst := b.fn.newVReg(Size4, false, false)
	b.cur = trueBlk
	one := b.loadConst(1, Size4, false, false)
	b.cur.emit(Instr{Op: OpMove, A: dst, B: one})
	b.cur.emit(Instr{Op: OpJump, To: joinBlk})
	b.cur.addSucc(joinBlk)

	b.cur = falseBlk
	zero := b.loadConst(0, Size4, false, false)
	b.cur.emit(Instr{Op: OpMove, A: dst, B: zero})
	b.cur.emit(Instr{Op: OpJump, To: joinBlk})
	b.cur.addSucc(joinBlk)

	b.cur = joinBlk
	return dst
}

func (b *Builder) lowerTernary(e *ast.Expr) VReg {
	trueBlk := b.fn.newBlock(b.label("tern_true"))
	falseBlk := b.fn.newBlock(b.label("tern_false"))
	joinBlk := b.fn.newBlock(b.label("tern_join"))
	b.lowerCond(e.Cond, trueBlk, falseBlk)

	dst := b.fn.newVReg(SizeClassOf(e.Type), e.Type.Unsigned, ctypes.IsFlonum(e.Type))
	b.cur = trueBlk
	tv := b.lowerExpr(e.TVal)
	b.cur.emit(Instr{Op: OpMove, A: dst, B: tv})
	b.cur.emit(Instr{Op: OpJump, To: joinBlk})
	b.cur.addSucc(joinBlk)

	b.cur = falseBlk
	fv := b.lowerExpr(e.FVal)
	b.cur.emit(Instr{Op: OpMove, A: dst, B: fv})
	b.cur.emit(Instr{Op: OpJump, To: joinBlk})
	b.cur.addSucc(joinBlk)

	b.cur = joinBlk
	return dst
}

func (b *Builder) lowerCast(e *ast.Expr) VReg {
	sub := b.lowerExpr(e.Sub)
	dst := b.fn.newVReg(SizeClassOf(e.Type), e.Type.Unsigned, ctypes.IsFlonum(e.Type))
	b.cur.emit(Instr{Op: OpCast, A: dst, B: sub, Size: SizeClassOf(e.Type), Unsigned: e.Type.Unsigned})
	return dst
}

func (b *Builder) lowerAssign(e *ast.Expr) VReg {
	val := b.lowerExpr(e.Rhs)
	b.storeTo(e.Lhs, val)
	return val
}

// storeTo writes val into the lvalue lhs.
func (b *Builder) storeTo(lhs *ast.Expr, val VReg) {
	switch lhs.Kind {
	case ast.EkVar:
		v := lhs.VarRef
		if vr, ok := b.localReg[v]; ok {
			b.cur.emit(Instr{Op: OpMove, A: vr, B: val})
			return
		}
		addr := b.lowerVarAddr(v)
		b.cur.emit(Instr{Op: OpStore, A: addr, B: val, Size: SizeClassOf(lhs.Type), Unsigned: lhs.Type.Unsigned})
	case ast.EkDeref:
		addr := b.lowerExpr(lhs.Sub)
		b.cur.emit(Instr{Op: OpStore, A: addr, B: val, Size: SizeClassOf(lhs.Type), Unsigned: lhs.Type.Unsigned})
	case ast.EkMember:
		addr := b.lowerMemberAddr(lhs)
		b.cur.emit(Instr{Op: OpStore, A: addr, B: val, Size: SizeClassOf(lhs.Type), Unsigned: lhs.Type.Unsigned})
	}
}

func (b *Builder) lowerIncDec(e *ast.Expr) VReg {
	old := b.lowerExpr(e.Sub)
	one := b.loadConst(1, SizeClassOf(e.Type), e.Type.Unsigned, false)
	op := OpAdd
	if e.Op == "--" {
		op = OpSub
	}
	var scale int64 = 1
	if ctypes.PtrOrArray(e.Type) {
		scale = int64(ctypes.TypeSize(e.Type.Elem))
		if scale == 0 {
			scale = 1
		}
	}
	newVal := b.fn.newVReg(SizeClassOf(e.Type), e.Type.Unsigned, ctypes.IsFlonum(e.Type))
	if ctypes.PtrOrArray(e.Type) {
		delta := scale
		if e.Op == "--" {
			delta = -delta
		}
		b.cur.emit(Instr{Op: OpPtrAdd, A: newVal, B: old, Imm: delta})
	} else {
		b.cur.emit(Instr{Op: op, A: newVal, B: old, C: one})
	}
	b.storeTo(e.Sub, newVal)
	if e.Prefix {
		return newVal
	}
	return old
}
