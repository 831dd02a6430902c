// Package elaborate implements Component B (spec.md §4.B): it consumes
// parsed, not-yet-typed expression nodes and returns fully typed,
// canonicalized ones — folding constants, scaling pointer arithmetic,
// rewriting compound assignments and inc/dec into pure reads/writes, and
// expanding bit-field lvalues. It is grounded on the teacher's
// internal/compiler/compiler.go (switch-on-operator VisitBinaryExpr/
// VisitUnaryExpr/VisitLogicalExpr shape) and internal/compregister for
// the richer member/index/call expression set.
package elaborate

import (
	"minicc/internal/ast"
	"minicc/internal/cctx"
	"minicc/internal/ctypes"
	"minicc/internal/diag"
)

// Elaborator holds the shared compiler context (diagnostics, scope/
// function cursor, type registry) used while walking one translation
// unit's expressions.
type Elaborator struct {
	Ctx *cctx.Context
}

func New(ctx *cctx.Context) *Elaborator { return &Elaborator{Ctx: ctx} }

func (el *Elaborator) loc(tok ast.Token) diag.Location {
	return diag.Location{File: tok.File, Line: tok.Line, Column: tok.Column, Source: tok.Raw}
}

func (el *Elaborator) errf(tok ast.Token, format string, args ...interface{}) *ast.Expr {
	el.Ctx.Diags.Errorf(el.loc(tok), format, args...)
	return ast.Dummy(tok)
}

// Elaborate type-checks and canonicalizes e, recursing into children
// first (spec.md §4.B contract). It is safe to call on an already-
// elaborated node (idempotent on literals/vars).
func (el *Elaborator) Elaborate(e *ast.Expr) *ast.Expr {
	if e == nil {
		return nil
	}
	switch e.Kind {
	case ast.EkLitInt:
		if e.Type == nil {
			e.Type = ctypes.GetFixnumType(ctypes.Int, false, 0)
		}
		return e
	case ast.EkLitFlt:
		if e.Type == nil {
			e.Type = ctypes.GetFlonumType(ctypes.Double, 0)
		}
		return e
	case ast.EkLitStr:
		return el.strToCharArray(e)
	case ast.EkVar:
		return el.elabVar(e)
	case ast.EkUnary:
		return el.elabUnary(e)
	case ast.EkBinary:
		return el.elabBinary(e)
	case ast.EkLogical:
		return el.elabLogical(e)
	case ast.EkTernary:
		return el.elabTernary(e)
	case ast.EkMember:
		return el.elabMember(e)
	case ast.EkCall:
		return el.elabCall(e)
	case ast.EkCompoundLit:
		return e
	case ast.EkInlinedCall:
		return e
	case ast.EkBlock:
		return el.elabBlock(e)
	case ast.EkComma:
		e.Lhs = el.Elaborate(e.Lhs)
		e.Rhs = el.Elaborate(e.Rhs)
		e.Type = e.Rhs.Type
		if e.Lhs.IsConst && e.Rhs.IsConst {
			return e.Rhs
		}
		return e
	case ast.EkCast:
		return el.elabCast(e)
	case ast.EkDeref:
		return el.elabDeref(e)
	case ast.EkAddr:
		return el.elabAddr(e)
	case ast.EkAssign:
		return el.elabAssign(e)
	case ast.EkIncDec:
		return el.elabIncDec(e)
	}
	return e
}

func (el *Elaborator) elabVar(e *ast.Expr) *ast.Expr {
	if e.VarRef == nil && e.Scope != nil {
		e.VarRef = e.Scope.Find(e.Tok.Ident)
	}
	if e.VarRef == nil {
		return el.errf(e.Tok, "undeclared identifier '%s'", e.Tok.Ident)
	}
	e.Type = e.VarRef.Type
	return e
}

// strToCharArray implements `str_to_char_array_var`: a string literal
// elaborates to an array-of-char expression (array decays to pointer the
// same way a named array variable does) before it takes part in
// arithmetic, per spec.md §4.B additive rules.
func (el *Elaborator) strToCharArray(e *ast.Expr) *ast.Expr {
	n := int64(len(e.StrVal) + 1)
	e.Type = ctypes.ArrayOf(ctypes.GetFixnumType(ctypes.Char, false, 0), n)
	e.IsConst = true
	return e
}

func (el *Elaborator) elabCast(e *ast.Expr) *ast.Expr {
	e.Sub = el.RValue(el.Elaborate(e.Sub))
	if e.Type == nil {
		return el.errf(e.Tok, "cast with no destination type")
	}
	if !ctypes.CanCast(e.Type, e.Sub.Type, e.Sub.IsZeroConst(), true) {
		return el.errf(e.Tok, "invalid cast from %s to %s", e.Sub.Type, e.Type)
	}
	if e.Sub.IsConst && ctypes.IsNumber(e.Type) && ctypes.IsNumber(e.Sub.Type) {
		return foldCastConst(e.Tok, e.Type, e.Sub)
	}
	return e
}

func foldCastConst(tok ast.Token, dst *ctypes.Type, src *ast.Expr) *ast.Expr {
	if ctypes.IsFlonum(dst) {
		var v float64
		if src.Kind == ast.EkLitFlt {
			v = src.FltVal
		} else {
			v = float64(src.IntVal)
		}
		return ast.FltLit(tok, v, dst)
	}
	var iv int64
	if src.Kind == ast.EkLitFlt {
		iv = int64(src.FltVal)
	} else {
		iv = src.IntVal
	}
	wrapped := ctypes.WrapValue(iv, ctypes.TypeSize(dst), dst.Unsigned)
	return ast.IntLit(tok, wrapped, dst)
}

func (el *Elaborator) elabBlock(e *ast.Expr) *ast.Expr {
	if e.BlockStmt != nil && e.BlockStmt.Kind == ast.SkBlock && len(e.BlockStmt.List) > 0 {
		last := e.BlockStmt.List[len(e.BlockStmt.List)-1]
		if last.Kind == ast.SkExpr && last.Expr != nil {
			e.Type = last.Expr.Type
			return e
		}
	}
	e.Type = ctypes.Void
	return e
}
