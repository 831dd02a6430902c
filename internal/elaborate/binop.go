package elaborate

import (
	"minicc/internal/ast"
	"minicc/internal/ctypes"
)

var numericOps = map[string]bool{"*": true, "/": true, "%": true, "&": true, "|": true, "^": true}
var additiveOps = map[string]bool{"+": true, "-": true}
var cmpOps = map[string]bool{"==": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true}

func (el *Elaborator) elabBinary(e *ast.Expr) *ast.Expr {
	e.Lhs = el.RValue(el.Elaborate(e.Lhs))
	e.Rhs = el.RValue(el.Elaborate(e.Rhs))

	switch {
	case numericOps[e.Op]:
		return el.elabNumericBinop(e)
	case additiveOps[e.Op]:
		return el.elabAdditive(e)
	case cmpOps[e.Op]:
		return el.elabComparison(e)
	}
	return el.errf(e.Tok, "unsupported binary operator %q", e.Op)
}

// elabNumericBinop implements spec.md §4.B "Numeric binops": both
// operands fixnum, or either flonum for * and /.
func (el *Elaborator) elabNumericBinop(e *ast.Expr) *ast.Expr {
	l, r := e.Lhs, e.Rhs
	bitwiseOnly := e.Op == "&" || e.Op == "|" || e.Op == "^" || e.Op == "%"
	if bitwiseOnly && (!ctypes.IsFixnum(l.Type) || !ctypes.IsFixnum(r.Type)) {
		return el.errf(e.Tok, "operator %q requires integer operands", e.Op)
	}
	if !bitwiseOnly && !((ctypes.IsFixnum(l.Type) || ctypes.IsFlonum(l.Type)) && (ctypes.IsFixnum(r.Type) || ctypes.IsFlonum(r.Type))) {
		return el.errf(e.Tok, "operator %q requires numeric operands", e.Op)
	}

	if l.IsConst && r.IsConst {
		if folded, ok := el.foldNumeric(e.Tok, e.Op, l, r); ok {
			return folded
		}
	} else if e.Op == "/" || e.Op == "%" {
		if r.IsConst && isZeroNumeric(r) {
			el.Ctx.Diags.Warn(el.loc(e.Tok), "division by constant zero")
		}
	}

	resultType, _ := ctypes.CastNumbers(l.Type, r.Type)
	e.Type = resultType
	return e
}

func isZeroNumeric(e *ast.Expr) bool {
	if e.Kind == ast.EkLitInt {
		return e.IntVal == 0
	}
	if e.Kind == ast.EkLitFlt {
		return e.FltVal == 0
	}
	return false
}

// foldNumeric performs compile-time constant folding with wrap semantics
// (spec.md §8 "constant folding soundness"). ok is false (caller falls
// back to a runtime node) only for an operator it does not fold. A
// constant divide or modulo by zero records a fatal diagnostic here and
// yields a dummy node with ok true.
func (el *Elaborator) foldNumeric(tok ast.Token, op string, l, r *ast.Expr) (*ast.Expr, bool) {
	resultType, _ := ctypes.CastNumbers(l.Type, r.Type)
	if ctypes.IsFlonum(resultType) {
		lv, rv := asFloat(l), asFloat(r)
		var v float64
		switch op {
		case "+":
			v = lv + rv
		case "-":
			v = lv - rv
		case "*":
			v = lv * rv
		case "/":
			if rv == 0 {
				el.Ctx.Diags.Fatal(el.loc(tok), "floating-point divide by constant zero")
				return ast.Dummy(tok), true
			}
			v = lv / rv
		default:
			return nil, false
		}
		return ast.FltLit(tok, v, resultType), true
	}
	lv, rv := l.IntVal, r.IntVal
	var v int64
	switch op {
	case "+":
		v = lv + rv
	case "-":
		v = lv - rv
	case "*":
		v = lv * rv
	case "/":
		if rv == 0 {
			el.Ctx.Diags.Fatal(el.loc(tok), "divide by constant zero")
			return ast.Dummy(tok), true
		}
		v = lv / rv
	case "%":
		if rv == 0 {
			el.Ctx.Diags.Fatal(el.loc(tok), "modulo by constant zero")
			return ast.Dummy(tok), true
		}
		v = lv % rv
	case "&":
		v = lv & rv
	case "|":
		v = lv | rv
	case "^":
		v = lv ^ rv
	default:
		return nil, false
	}
	wrapped := ctypes.WrapValue(v, ctypes.TypeSize(resultType), resultType.Unsigned)
	return ast.IntLit(tok, wrapped, resultType), true
}

func asFloat(e *ast.Expr) float64 {
	if e.Kind == ast.EkLitFlt {
		return e.FltVal
	}
	return float64(e.IntVal)
}

// elabAdditive implements spec.md §4.B "Additive": numeric + numeric, and
// pointer arithmetic with pointee-size scaling.
func (el *Elaborator) elabAdditive(e *ast.Expr) *ast.Expr {
	l, r := e.Lhs, e.Rhs

	// integer + pointer is canonicalized by swap so the pointer is always lhs.
	if e.Op == "+" && ctypes.IsFixnum(l.Type) && ctypes.PtrOrArray(r.Type) {
		e.Lhs, e.Rhs = r, l
		l, r = e.Lhs, e.Rhs
	}

	switch {
	case ctypes.PtrOrArray(l.Type) && ctypes.IsFixnum(r.Type):
		return el.elabPtrPlusInt(e, l, r)
	case e.Op == "-" && ctypes.PtrOrArray(l.Type) && ctypes.PtrOrArray(r.Type):
		return el.elabPtrMinusPtr(e, l, r)
	case ctypes.IsNumber(l.Type) && ctypes.IsNumber(r.Type):
		if l.IsConst && r.IsConst {
			if folded, ok := el.foldNumeric(e.Tok, e.Op, l, r); ok {
				return folded
			}
		}
		resultType, _ := ctypes.CastNumbers(l.Type, r.Type)
		e.Type = resultType
		return e
	default:
		return el.errf(e.Tok, "invalid operands to binary %q", e.Op)
	}
}

func (el *Elaborator) elabPtrPlusInt(e *ast.Expr, ptr, idx *ast.Expr) *ast.Expr {
	ptrType := ctypes.ArrayToPtr(ptr.Type)
	e.Lhs, e.Rhs = ptr, idx
	e.Type = ptrType
	if ptr.IsConst && idx.IsConst && ptr.Kind == ast.EkLitInt {
		scale := int64(ctypes.TypeSize(ptrType.Elem))
		delta := idx.IntVal * scale
		if e.Op == "-" {
			delta = -delta
		}
		return ast.IntLit(e.Tok, ptr.IntVal+delta, ptrType)
	}
	return e
}

func (el *Elaborator) elabPtrMinusPtr(e *ast.Expr, l, r *ast.Expr) *ast.Expr {
	lt := ctypes.ArrayToPtr(l.Type)
	rt := ctypes.ArrayToPtr(r.Type)
	if !ctypes.SameTypeWithoutQualifier(lt.Elem, rt.Elem) {
		el.Ctx.Diags.Warn(el.loc(e.Tok), "subtracting pointers to incompatible types")
	}
	resultType := ctypes.GetFixnumType(ctypes.Long, false, 0) // "ssize"
	e.Type = resultType
	if l.IsConst && r.IsConst && l.Kind == ast.EkLitInt && r.Kind == ast.EkLitInt {
		scale := int64(ctypes.TypeSize(lt.Elem))
		if scale == 0 {
			scale = 1
		}
		return ast.IntLit(e.Tok, (l.IntVal-r.IntVal)/scale, resultType)
	}
	e.Lhs, e.Rhs = l, r
	return e
}

// elabComparison implements spec.md §4.B "Comparisons".
func (el *Elaborator) elabComparison(e *ast.Expr) *ast.Expr {
	l, r := funcDecay(e.Lhs), funcDecay(e.Rhs)
	l, r = arrayDecay(l), arrayDecay(r)
	e.Lhs, e.Rhs = l, r

	boolType := ctypes.GetFixnumType(ctypes.Int, false, 0)

	if l.Type.Kind == ctypes.KindPointer || r.Type.Kind == ctypes.KindPointer {
		if l.Type.Kind == ctypes.KindPointer && r.Type.Kind == ctypes.KindPointer {
			if !isVoidPtrT(l.Type) && !isVoidPtrT(r.Type) && !l.IsZeroConst() && !r.IsZeroConst() {
				if !ctypes.SameTypeWithoutQualifier(l.Type.Elem, r.Type.Elem) {
					el.Ctx.Diags.Warn(el.loc(e.Tok), "comparison of distinct pointer types")
				}
			}
		} else if !isOnePointerOtherZero(l, r) {
			el.Ctx.Diags.Warn(el.loc(e.Tok), "comparison between pointer and integer")
		}
		if l.IsConst && r.IsConst && l.Kind == ast.EkLitInt && r.Kind == ast.EkLitInt {
			return ast.IntLit(e.Tok, boolInt(compareInt(e.Op, l.IntVal, r.IntVal)), boolType)
		}
		e.Type = boolType
		return e
	}

	if l.IsConst && r.IsConst {
		if ctypes.IsFlonum(l.Type) || ctypes.IsFlonum(r.Type) {
			return ast.IntLit(e.Tok, boolInt(compareFloat(e.Op, asFloat(l), asFloat(r))), boolType)
		}
		return ast.IntLit(e.Tok, boolInt(compareInt(e.Op, l.IntVal, r.IntVal)), boolType)
	}
	e.Type = boolType
	return e
}

func isVoidPtrT(t *ctypes.Type) bool {
	return t.Kind == ctypes.KindPointer && t.Elem != nil && t.Elem.Kind == ctypes.KindVoid
}

func isOnePointerOtherZero(l, r *ast.Expr) bool {
	if l.Type.Kind == ctypes.KindPointer && r.IsZeroConst() {
		return true
	}
	if r.Type.Kind == ctypes.KindPointer && l.IsZeroConst() {
		return true
	}
	return false
}

func funcDecay(e *ast.Expr) *ast.Expr {
	if e.Type != nil && e.Type.Kind == ctypes.KindFunction {
		e.Type = ctypes.FuncToPtr(e.Type)
	}
	return e
}

func arrayDecay(e *ast.Expr) *ast.Expr {
	if e.Type != nil && e.Type.Kind == ctypes.KindArray {
		e.Type = ctypes.ArrayToPtr(e.Type)
	}
	return e
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func compareInt(op string, l, r int64) bool {
	switch op {
	case "==":
		return l == r
	case "!=":
		return l != r
	case "<":
		return l < r
	case "<=":
		return l <= r
	case ">":
		return l > r
	case ">=":
		return l >= r
	}
	return false
}

func compareFloat(op string, l, r float64) bool {
	switch op {
	case "==":
		return l == r
	case "!=":
		return l != r
	case "<":
		return l < r
	case "<=":
		return l <= r
	case ">":
		return l > r
	case ">=":
		return l >= r
	}
	return false
}
