package elaborate

import (
	"minicc/internal/ast"
	"minicc/internal/ctypes"
)

// elabAddr implements spec.md §4.B "Address-of `&e`".
func (el *Elaborator) elabAddr(e *ast.Expr) *ast.Expr {
	sub := el.Elaborate(e.Sub)

	if sub.Kind == ast.EkMember && sub.Bits != nil {
		return el.errf(e.Tok, "cannot take the address of a bit-field")
	}
	if sub.Kind == ast.EkDeref {
		// &*e collapses to e.
		return sub.Sub
	}
	if !sub.IsLvalue() {
		return el.errf(e.Tok, "cannot take the address of a non-lvalue")
	}

	// &s->a folds to a constant pointer when the base is a constant
	// integer (spec.md §4.B).
	if sub.Kind == ast.EkMember && sub.Arrow && sub.Target.IsConst && sub.Target.Kind == ast.EkLitInt {
		ptrType := ctypes.Ptrof(sub.Type)
		return ast.IntLit(e.Tok, sub.Target.IntVal+int64(memberByteOffset(sub)), ptrType)
	}

	if sub.Kind == ast.EkVar && sub.VarRef != nil {
		sub.VarRef.MarkRefTaken()
	}

	e.Sub = sub
	e.Type = ctypes.Ptrof(sub.Type)
	return e
}

func memberByteOffset(m *ast.Expr) int {
	if m.Target.Type == nil {
		return 0
	}
	st := m.Target.Type
	if st.Kind == ctypes.KindPointer {
		st = st.Elem
	}
	if st.Struct == nil || m.MemberIdx >= len(st.Struct.Members) {
		return 0
	}
	return st.Struct.Members[m.MemberIdx].Offset
}

// elabDeref implements `*e`; `*&e` collapses to e (spec.md §8
// "Address-of involution").
func (el *Elaborator) elabDeref(e *ast.Expr) *ast.Expr {
	sub := el.Elaborate(e.Sub)
	sub = arrayDecay(sub)
	if sub.Kind == ast.EkAddr {
		return sub.Sub
	}
	if sub.Type.Kind != ctypes.KindPointer {
		return el.errf(e.Tok, "cannot dereference a non-pointer value")
	}
	e.Sub = sub
	e.Type = sub.Type.Elem
	return e
}

// elabIncDec implements spec.md §4.B "Inc/Dec": requires a referenceable
// lvalue. Bit-field members expand to the same comma-sequence machinery
// as compound assignment; everything else stays a plain EkIncDec node
// for internal/irgen to lower directly.
func (el *Elaborator) elabIncDec(e *ast.Expr) *ast.Expr {
	sub := el.Elaborate(e.Sub)
	if !sub.IsLvalue() {
		return el.errf(e.Tok, "increment/decrement target is not an lvalue")
	}
	if sub.Kind == ast.EkMember && sub.Bits != nil {
		one := ast.IntLit(e.Tok, 1, sub.Type)
		op := "+"
		if e.Op == "--" {
			op = "-"
		}
		oldVal := el.RValue(sub)
		newVal := el.Elaborate(&ast.Expr{Kind: ast.EkBinary, Tok: e.Tok, Op: op, Lhs: oldVal, Rhs: one})
		return el.BuildBitfieldWrite(e.Tok, sub, newVal)
	}
	if !ctypes.IsNumber(sub.Type) && sub.Type.Kind != ctypes.KindPointer {
		return el.errf(e.Tok, "increment/decrement requires a numeric or pointer operand")
	}
	e.Sub = sub
	e.Type = sub.Type
	return e
}
