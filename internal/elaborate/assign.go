package elaborate

import (
	"strings"

	"minicc/internal/ast"
	"minicc/internal/ctypes"
)

func (el *Elaborator) elabAssign(e *ast.Expr) *ast.Expr {
	if e.Op != "" {
		return el.elabCompoundAssign(e)
	}
	lhs := el.Elaborate(e.Lhs)
	if !lhs.IsLvalue() {
		return el.errf(e.Tok, "assignment target is not an lvalue")
	}
	rhs := el.RValue(el.Elaborate(e.Rhs))

	if lhs.Kind == ast.EkMember && lhs.Bits != nil {
		rhs = el.implicitCast(e.Tok, lhs.Type, rhs)
		return el.BuildBitfieldWrite(e.Tok, lhs, rhs)
	}

	rhs = el.implicitCast(e.Tok, lhs.Type, rhs)
	e.Lhs, e.Rhs = lhs, rhs
	e.Type = lhs.Type
	return e
}

// implicitCast casts src to dst when needed (parameter/assignment
// conversions), inserting an EkCast node so the backend still sees an
// explicit narrowing/widening operation.
func (el *Elaborator) implicitCast(tok ast.Token, dst *ctypes.Type, src *ast.Expr) *ast.Expr {
	src = arrayDecay(funcDecay(src))
	if ctypes.SameTypeWithoutQualifier(dst, src.Type) {
		return src
	}
	if !ctypes.CanCast(dst, src.Type, src.IsZeroConst(), false) {
		return el.errf(tok, "cannot implicitly convert %s to %s", src.Type, dst)
	}
	cast := &ast.Expr{Kind: ast.EkCast, Tok: tok, Type: dst, Sub: src}
	return el.Elaborate(cast)
}

// elabCompoundAssign implements spec.md §4.B "Assignment variants":
// `lhs op= rhs` rewrites to `lhs = lhs op rhs`; if lhs is not a simple
// variable a temporary pointer `&lhs` is introduced so lhs is evaluated
// only once. Bit-field destinations take the bit-field path.
func (el *Elaborator) elabCompoundAssign(e *ast.Expr) *ast.Expr {
	lhs := el.Elaborate(e.Lhs)
	if !lhs.IsLvalue() {
		return el.errf(e.Tok, "assignment target is not an lvalue")
	}
	binOp := strings.TrimSuffix(e.Op, "=")
	rhs := el.RValue(el.Elaborate(e.Rhs))

	if lhs.Kind == ast.EkMember && lhs.Bits != nil {
		oldVal := el.RValue(lhs)
		combined := el.Elaborate(&ast.Expr{Kind: ast.EkBinary, Tok: e.Tok, Op: binOp, Lhs: oldVal, Rhs: rhs})
		combined = el.implicitCast(e.Tok, lhs.Type, combined)
		return el.BuildBitfieldWrite(e.Tok, lhs, combined)
	}

	if lhs.Kind == ast.EkVar {
		combined := el.Elaborate(&ast.Expr{Kind: ast.EkBinary, Tok: e.Tok, Op: binOp, Lhs: lhs, Rhs: rhs})
		combined = el.implicitCast(e.Tok, lhs.Type, combined)
		return &ast.Expr{Kind: ast.EkAssign, Tok: e.Tok, Lhs: lhs, Rhs: combined, Type: lhs.Type}
	}

	// General lvalue (deref or non-bitfield member): evaluate the
	// address once into a synthesized temporary.
	ptrType := ctypes.Ptrof(lhs.Type)
	tmpVar := &ast.VarInfo{Name: "$cmp_ptr", Type: ptrType}
	if scope := el.Ctx.Scope(); scope != nil {
		scope.Declare(tmpVar)
	}
	ptrRef := &ast.Expr{Kind: ast.EkVar, Tok: e.Tok, VarRef: tmpVar, Type: ptrType}
	addrOf := &ast.Expr{Kind: ast.EkAddr, Tok: e.Tok, Sub: lhs, Type: ptrType}
	assignPtr := &ast.Expr{Kind: ast.EkAssign, Tok: e.Tok, Lhs: ptrRef, Rhs: addrOf, Type: ptrType}
	derefPtr := &ast.Expr{Kind: ast.EkDeref, Tok: e.Tok, Sub: ptrRef, Type: lhs.Type}

	combined := el.Elaborate(&ast.Expr{Kind: ast.EkBinary, Tok: e.Tok, Op: binOp, Lhs: derefPtr, Rhs: rhs})
	combined = el.implicitCast(e.Tok, lhs.Type, combined)

	storeTarget := &ast.Expr{Kind: ast.EkDeref, Tok: e.Tok, Sub: ptrRef, Type: lhs.Type}
	store := &ast.Expr{Kind: ast.EkAssign, Tok: e.Tok, Lhs: storeTarget, Rhs: combined, Type: lhs.Type}

	return &ast.Expr{Kind: ast.EkComma, Tok: e.Tok, Lhs: assignPtr, Rhs: store, Type: lhs.Type}
}
