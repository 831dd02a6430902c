package elaborate

import (
	"minicc/internal/ast"
	"minicc/internal/ctypes"
)

// elabTernary implements spec.md §4.B "Ternary result type".
func (el *Elaborator) elabTernary(e *ast.Expr) *ast.Expr {
	cond := el.MakeCond(el.Elaborate(e.Cond))
	tv := arrayDecay(funcDecay(el.RValue(el.Elaborate(e.TVal))))
	fv := arrayDecay(funcDecay(el.RValue(el.Elaborate(e.FVal))))
	e.Cond, e.TVal, e.FVal = cond, tv, fv

	switch {
	case tv.Type.Kind == ctypes.KindVoid || fv.Type.Kind == ctypes.KindVoid:
		e.Type = ctypes.Void
	case tv.Type.Kind == ctypes.KindPointer && fv.Type.Kind == ctypes.KindPointer:
		if isVoidPtrT(tv.Type) {
			e.Type = fv.Type
		} else {
			e.Type = tv.Type
		}
	case tv.Type.Kind == ctypes.KindPointer && (fv.IsZeroConst() || ctypes.CanCast(tv.Type, fv.Type, fv.IsZeroConst(), false)):
		e.Type = tv.Type
	case fv.Type.Kind == ctypes.KindPointer && (tv.IsZeroConst() || ctypes.CanCast(fv.Type, tv.Type, tv.IsZeroConst(), false)):
		e.Type = fv.Type
	case ctypes.IsNumber(tv.Type) && ctypes.IsNumber(fv.Type):
		result, _ := ctypes.CastNumbers(tv.Type, fv.Type)
		e.Type = result
	default:
		e.Type = tv.Type
	}

	if cond.IsConst {
		if cond.IntVal != 0 {
			return tv
		}
		return fv
	}
	return e
}
