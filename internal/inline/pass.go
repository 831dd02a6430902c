package inline

import (
	"minicc/internal/ast"
	"minicc/internal/cctx"
)

// Pass runs Component D over every elaborated function in a translation
// unit, run after internal/elaborate and before internal/irgen.
type Pass struct {
	ctx *cctx.Context
}

func New(ctx *cctx.Context) *Pass { return &Pass{ctx: ctx} }

// ExpandFunction rewrites every call to an inline-eligible function
// reachable from fn's body into a duplicated EkInlinedCall node, in
// place.
func (p *Pass) ExpandFunction(fn *ast.Function) {
	guard := p.ctx.EnterFunction(fn)
	defer guard.Pop()
	fn.Body = p.expandStmt(fn.Body)
}

func (p *Pass) expandStmt(s *ast.Stmt) *ast.Stmt {
	if s == nil {
		return nil
	}
	switch s.Kind {
	case ast.SkExpr:
		s.Expr = p.expandExpr(s.Expr)
	case ast.SkBlock:
		guard := p.ctx.EnterExistingScope(s.Scope)
		for i, c := range s.List {
			s.List[i] = p.expandStmt(c)
		}
		guard.Pop()
	case ast.SkIf:
		s.Cond = p.expandExpr(s.Cond)
		s.Then = p.expandStmt(s.Then)
		s.Else = p.expandStmt(s.Else)
	case ast.SkSwitch:
		s.Value = p.expandExpr(s.Value)
		s.Body = p.expandStmt(s.Body)
	case ast.SkWhile, ast.SkDoWhile:
		s.LoopCond = p.expandExpr(s.LoopCond)
		s.LoopBody = p.expandStmt(s.LoopBody)
	case ast.SkFor:
		s.Pre = p.expandStmt(s.Pre)
		s.Cond = p.expandExpr(s.Cond)
		s.Post = p.expandExpr(s.Post)
		s.LoopBody = p.expandStmt(s.LoopBody)
	case ast.SkReturn:
		s.Expr = p.expandExpr(s.Expr)
	case ast.SkCase:
		s.CaseVal = p.expandExpr(s.CaseVal)
	case ast.SkVarDecl:
		for i := range s.Decls {
			s.Decls[i].Init = p.expandExpr(s.Decls[i].Init)
		}
	}
	return s
}

// expandExpr recurses into e's children first (so the deepest calls
// expand before any enclosing one is considered), then, if e is itself
// a direct call to an inline-eligible function, replaces it with the
// duplicated body and recursively expands calls found inside that new
// body too — this single recursive structure is what gives repeated/
// nested inlining fresh clones at every level (spec.md §4.D rule 4),
// with no special-casing needed for "this call site was already
// inlined once elsewhere".
func (p *Pass) expandExpr(e *ast.Expr) *ast.Expr {
	if e == nil {
		return nil
	}
	switch e.Kind {
	case ast.EkUnary, ast.EkCast, ast.EkDeref, ast.EkAddr, ast.EkIncDec:
		e.Sub = p.expandExpr(e.Sub)
	case ast.EkBinary, ast.EkLogical, ast.EkComma, ast.EkAssign:
		e.Lhs = p.expandExpr(e.Lhs)
		e.Rhs = p.expandExpr(e.Rhs)
	case ast.EkTernary:
		e.Cond = p.expandExpr(e.Cond)
		e.TVal = p.expandExpr(e.TVal)
		e.FVal = p.expandExpr(e.FVal)
	case ast.EkMember:
		e.Target = p.expandExpr(e.Target)
	case ast.EkBlock:
		e.BlockStmt = p.expandStmt(e.BlockStmt)
	case ast.EkCall:
		for i, a := range e.Args {
			e.Args[i] = p.expandExpr(a)
		}
		if fn := inlineTarget(e); fn != nil {
			expanded := Expand(p.ctx, fn, e.Args, e.Tok)
			expanded.Body = p.expandStmt(expanded.Body)
			return expanded
		}
		e.Callee = p.expandExpr(e.Callee)
	}
	return e
}

// inlineTarget reports the callee function when e is a direct call
// (not through a function pointer) to an inline-eligible function.
func inlineTarget(e *ast.Expr) *ast.Function {
	if e.Callee == nil || e.Callee.Kind != ast.EkVar || e.Callee.VarRef == nil {
		return nil
	}
	fn := e.Callee.VarRef.Func
	if fn == nil || !fn.IsInlineCandidate() {
		return nil
	}
	return fn
}
