package elaborate

import (
	"minicc/internal/ast"
	"minicc/internal/ctypes"
)

var invertCmp = map[string]string{
	"==": "!=", "!=": "==",
	"<": ">=", ">=": "<",
	"<=": ">", ">": "<=",
}

// MakeCond implements spec.md §4.B `make_cond`: rewrites e to a
// boolean-producing node. Comparisons and logical ops pass through as
// boolean already; numeric/pointer/array values become `e != 0`;
// constants fold; `a, b` recurses into b.
func (el *Elaborator) MakeCond(e *ast.Expr) *ast.Expr {
	e = el.RValue(e)
	switch e.Kind {
	case ast.EkBinary:
		if cmpOps[e.Op] {
			return e
		}
	case ast.EkLogical:
		return e
	case ast.EkComma:
		e.Rhs = el.MakeCond(e.Rhs)
		e.Type = e.Rhs.Type
		return e
	}
	if e.IsConst {
		nz := !isZeroNumeric(e) && !(e.Kind == ast.EkLitInt && e.IntVal == 0)
		return ast.IntLit(e.Tok, boolInt(nz), ctypes.GetFixnumType(ctypes.Int, false, 0))
	}
	zero := ast.IntLit(e.Tok, 0, ctypes.GetFixnumType(ctypes.Int, false, 0))
	ne := &ast.Expr{Kind: ast.EkBinary, Tok: e.Tok, Op: "!=", Lhs: e, Rhs: zero}
	return el.Elaborate(ne)
}

// MakeNotExpr implements spec.md §4.B `make_not_expr`: pushes negation
// inward via algebraic identities (EQ<->NE, LT<->GE, LE<->GT, AND<->OR
// with both children negated) instead of materializing a runtime `!`
// wherever a structural rewrite is available — this keeps short-circuit
// branch threading in internal/irgen simple (it only ever sees positive
// conditions to branch on).
func (el *Elaborator) MakeNotExpr(e *ast.Expr) *ast.Expr {
	e = el.MakeCond(e)
	switch e.Kind {
	case ast.EkBinary:
		if inv, ok := invertCmp[e.Op]; ok {
			return &ast.Expr{Kind: ast.EkBinary, Tok: e.Tok, Op: inv, Lhs: e.Lhs, Rhs: e.Rhs, Type: e.Type}
		}
	case ast.EkLogical:
		inv := "||"
		if e.Op == "||" {
			inv = "&&"
		}
		return &ast.Expr{
			Kind: ast.EkLogical, Tok: e.Tok, Op: inv,
			Lhs:  el.MakeNotExpr(e.Lhs),
			Rhs:  el.MakeNotExpr(e.Rhs),
			Type: e.Type,
		}
	case ast.EkUnary:
		if e.Op == "!" {
			return el.MakeCond(e.Sub)
		}
	case ast.EkLitInt:
		return ast.IntLit(e.Tok, boolInt(e.IntVal == 0), e.Type)
	}
	return &ast.Expr{Kind: ast.EkUnary, Tok: e.Tok, Op: "!", Sub: e, Type: e.Type}
}

func (el *Elaborator) elabLogical(e *ast.Expr) *ast.Expr {
	e.Lhs = el.MakeCond(el.Elaborate(e.Lhs))
	e.Rhs = el.MakeCond(el.Elaborate(e.Rhs))
	e.Type = ctypes.GetFixnumType(ctypes.Int, false, 0)
	if e.Lhs.IsConst {
		lv := e.Lhs.IntVal != 0
		if e.Op == "&&" && !lv {
			return ast.IntLit(e.Tok, 0, e.Type)
		}
		if e.Op == "||" && lv {
			return ast.IntLit(e.Tok, 1, e.Type)
		}
		if e.Rhs.IsConst {
			rv := e.Rhs.IntVal != 0
			if e.Op == "&&" {
				return ast.IntLit(e.Tok, boolInt(lv && rv), e.Type)
			}
			return ast.IntLit(e.Tok, boolInt(lv || rv), e.Type)
		}
	}
	return e
}

func (el *Elaborator) elabUnary(e *ast.Expr) *ast.Expr {
	e.Sub = el.RValue(el.Elaborate(e.Sub))
	switch e.Op {
	case "!":
		return el.MakeNotExpr(e.Sub)
	case "-", "~":
		if !ctypes.IsNumber(e.Sub.Type) {
			return el.errf(e.Tok, "unary %q requires a numeric operand", e.Op)
		}
		resultType := e.Sub.Type
		if ctypes.IsFixnum(resultType) {
			resultType = ctypes.PromoteInt(resultType)
		}
		e.Type = resultType
		if e.Sub.IsConst {
			if ctypes.IsFlonum(resultType) && e.Op == "-" {
				return ast.FltLit(e.Tok, -asFloat(e.Sub), resultType)
			}
			var v int64
			if e.Op == "-" {
				v = -e.Sub.IntVal
			} else {
				v = ^e.Sub.IntVal
			}
			return ast.IntLit(e.Tok, ctypes.WrapValue(v, ctypes.TypeSize(resultType), resultType.Unsigned), resultType)
		}
		return e
	}
	return el.errf(e.Tok, "unsupported unary operator %q", e.Op)
}
