package elaborate

import (
	"minicc/internal/ast"
	"minicc/internal/ctypes"
)

// elabMember implements spec.md §4.B member access, including the bit-
// field case. The returned node for a bit-field member stays an EkMember
// carrying e.Bits — NOT yet decoded into a shift/mask expression — so
// address-of (which must reject `&bitfield`) and assignment (which needs
// the field metadata to build the write sequence) can still recognize
// it. Any other consumer of the member's *value* must call RValue first,
// which performs the spec.md §4.B "Reading: shift and mask..." decode.
func (el *Elaborator) elabMember(e *ast.Expr) *ast.Expr {
	e.Target = el.Elaborate(e.Target)
	target := e.Target

	structType := target.Type
	if e.Arrow {
		if structType.Kind != ctypes.KindPointer || structType.Elem.Kind != ctypes.KindStruct {
			return el.errf(e.Tok, "'->' requires a pointer-to-struct operand")
		}
		structType = structType.Elem
	} else {
		if structType.Kind != ctypes.KindStruct {
			return el.errf(e.Tok, "'.' requires a struct operand")
		}
	}
	si := structType.Struct
	if si == nil || !si.Complete {
		return el.errf(e.Tok, "use of incomplete struct type")
	}
	idx := -1
	for i, m := range si.Members {
		if m.Name == e.Member {
			idx = i
			break
		}
	}
	if idx < 0 {
		return el.errf(e.Tok, "struct has no member named '%s'", e.Member)
	}
	m := si.Members[idx]
	e.MemberIdx = idx
	e.Type = m.Type
	e.Bits = m.Bits

	// &s->a folds to a constant pointer when the base is itself a
	// constant integer (spec.md §4.B address-of), handled in elabAddr by
	// inspecting this un-decoded node; nothing further to do here.
	return e
}

// RValue performs the lvalue-to-rvalue conversion every consumer of an
// expression's *value* (as opposed to its address or assignment target)
// must apply: for a bit-field member, this is where the decode actually
// happens.
func (el *Elaborator) RValue(e *ast.Expr) *ast.Expr {
	if e == nil || e.Kind != ast.EkMember || e.Bits == nil {
		return e
	}
	return el.decodeBitfield(e)
}

// decodeBitfield builds the shift+mask(+sign-extend) expression tree for
// reading a bit-field member (spec.md §4.B "Reading:"). Backing storage
// is read as the declared field type (e.g. `int` for `int a:3`); signed
// fields sign-extend via a shift-left/shift-right pair sized to the
// backing integer's own width in bits (32 for an `int` field, 8 for a
// `char` field): that width is minicc's choice for the "minimum
// register width" constant spec.md's Open Questions leave target-defined.
func (el *Elaborator) decodeBitfield(e *ast.Expr) *ast.Expr {
	bits := e.Bits
	fieldType := e.Type
	width := ctypes.TypeSize(fieldType) * 8

	backing := &ast.Expr{Kind: ast.EkMember, Tok: e.Tok, Target: e.Target, Member: e.Member, Arrow: e.Arrow, MemberIdx: e.MemberIdx, Type: fieldType}
	// backing carries Bits==nil here so it is read as a plain integer,
	// not recursively decoded.

	shiftT := ctypes.GetFixnumType(ctypes.Int, false, 0)
	shl := &ast.Expr{Kind: ast.EkBinary, Tok: e.Tok, Op: "<<", Lhs: backing, Rhs: ast.IntLit(e.Tok, int64(width-bits.Position-bits.Width), shiftT), Type: fieldType}
	shrOp := ">>"
	if fieldType.Unsigned {
		shrOp = ">>u"
	}
	shr := &ast.Expr{Kind: ast.EkBinary, Tok: e.Tok, Op: shrOp, Lhs: shl, Rhs: ast.IntLit(e.Tok, int64(width-bits.Width), shiftT), Type: fieldType}
	shr.Bits = nil
	return shr
}

// bitfieldMask returns the field's value mask (e.g. 0x1f for width 5).
func bitfieldMask(width int) int64 {
	return (int64(1) << uint(width)) - 1
}

// BuildBitfieldWrite constructs the four-part comma sequence from
// spec.md's example 4 and §4.B "Writing:":
//
//	(ptr = &obj, val = newValue, *ptr = (*ptr & ~(mask<<pos)) | ((val & mask) << pos), val)
//
// obj is the un-decoded EkMember bit-field node (e.Target/e.Member/
// e.Bits); newValue is the already-elaborated replacement value. The
// ptr and val temporaries are declared in internal/cctx's current scope.
func (el *Elaborator) BuildBitfieldWrite(tok ast.Token, member *ast.Expr, newValue *ast.Expr) *ast.Expr {
	bits := member.Bits
	fieldType := member.Type
	mask := bitfieldMask(bits.Width)

	scope := el.Ctx.Scope()
	ptrVar := &ast.VarInfo{Name: "$bf_ptr", Type: ctypes.Ptrof(fieldType)}
	valVar := &ast.VarInfo{Name: "$bf_val", Type: fieldType}
	if scope != nil {
		scope.Declare(ptrVar)
		scope.Declare(valVar)
	}

	ptrRef := &ast.Expr{Kind: ast.EkVar, Tok: tok, VarRef: ptrVar, Type: ptrVar.Type}
	valRef := &ast.Expr{Kind: ast.EkVar, Tok: tok, VarRef: valVar, Type: fieldType}

	addrOfObj := &ast.Expr{Kind: ast.EkAddr, Tok: tok, Sub: member, Type: ptrVar.Type}
	assignPtr := &ast.Expr{Kind: ast.EkAssign, Tok: tok, Lhs: ptrRef, Rhs: addrOfObj, Type: ptrVar.Type}
	assignVal := &ast.Expr{Kind: ast.EkAssign, Tok: tok, Lhs: valRef, Rhs: newValue, Type: fieldType}

	derefPtr := &ast.Expr{Kind: ast.EkDeref, Tok: tok, Sub: ptrRef, Type: fieldType}

	notMask := ^(mask << uint(bits.Position))
	clearedBits := &ast.Expr{Kind: ast.EkBinary, Tok: tok, Op: "&", Lhs: derefPtr, Rhs: ast.IntLit(tok, notMask, fieldType), Type: fieldType}
	maskedVal := &ast.Expr{Kind: ast.EkBinary, Tok: tok, Op: "&", Lhs: valRef, Rhs: ast.IntLit(tok, mask, fieldType), Type: fieldType}
	shifted := &ast.Expr{Kind: ast.EkBinary, Tok: tok, Op: "<<", Lhs: maskedVal, Rhs: ast.IntLit(tok, int64(bits.Position), fieldType), Type: fieldType}
	newBacking := &ast.Expr{Kind: ast.EkBinary, Tok: tok, Op: "|", Lhs: clearedBits, Rhs: shifted, Type: fieldType}

	storeTarget := &ast.Expr{Kind: ast.EkDeref, Tok: tok, Sub: ptrRef, Type: fieldType}
	store := &ast.Expr{Kind: ast.EkAssign, Tok: tok, Lhs: storeTarget, Rhs: newBacking, Type: fieldType}

	step1 := &ast.Expr{Kind: ast.EkComma, Tok: tok, Lhs: assignPtr, Rhs: assignVal, Type: fieldType}
	step2 := &ast.Expr{Kind: ast.EkComma, Tok: tok, Lhs: step1, Rhs: store, Type: fieldType}
	result := &ast.Expr{Kind: ast.EkComma, Tok: tok, Lhs: step2, Rhs: valRef, Type: fieldType}
	return result
}
