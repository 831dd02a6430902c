package elaborate

import (
	"minicc/internal/ast"
	"minicc/internal/ctypes"
)

func (el *Elaborator) elabCall(e *ast.Expr) *ast.Expr {
	callee := funcDecay(el.Elaborate(e.Callee))
	fnType := callee.Type
	if fnType.Kind == ctypes.KindPointer {
		fnType = fnType.Elem
	}
	if fnType.Kind != ctypes.KindFunction {
		return el.errf(e.Tok, "called object is not a function")
	}

	args := make([]*ast.Expr, len(e.Args))
	for i, a := range e.Args {
		args[i] = el.RValue(el.Elaborate(a))
	}
	e.Callee = callee
	e.Args = el.checkCallArgs(e.Tok, fnType, args)
	e.Type = fnType.Ret
	return e
}

// checkCallArgs implements spec.md §4.B "Call argument checking".
func (el *Elaborator) checkCallArgs(tok ast.Token, fnType *ctypes.Type, args []*ast.Expr) []*ast.Expr {
	params := fnType.Params
	if len(args) < len(params) || (!fnType.VaArgs && len(args) > len(params)) {
		el.Ctx.Diags.Errorf(el.loc(tok), "call has %d argument(s), expected %d", len(args), len(params))
	}
	out := make([]*ast.Expr, len(args))
	for i, a := range args {
		a = arrayDecay(funcDecay(a))
		if i < len(params) {
			if a.Type.Kind == ctypes.KindStruct && a.Type.Struct != nil {
				if n := len(a.Type.Struct.Members); n > 0 {
					last := a.Type.Struct.Members[n-1]
					if last.Type.Kind == ctypes.KindArray && last.Type.Len < 0 {
						el.Ctx.Diags.Errorf(el.loc(tok), "argument %d has a flexible-array-member struct type", i)
					}
				}
			}
			out[i] = el.implicitCast(tok, params[i].Type, a)
			continue
		}
		// Variadic position: integer promotion to int, float promotion
		// to double (spec.md §4.B).
		if ctypes.IsFixnum(a.Type) {
			promoted := ctypes.PromoteInt(a.Type)
			if !ctypes.SameTypeWithoutQualifier(promoted, a.Type) {
				a = el.Elaborate(&ast.Expr{Kind: ast.EkCast, Tok: tok, Type: promoted, Sub: a})
			}
		} else if ctypes.IsFlonum(a.Type) && a.Type.FloKind == ctypes.Float {
			a = el.Elaborate(&ast.Expr{Kind: ast.EkCast, Tok: tok, Type: ctypes.GetFlonumType(ctypes.Double, 0), Sub: a})
		}
		out[i] = a
	}
	return out
}
