package inline

import "minicc/internal/ast"

// cloneStmt deep-clones a statement tree, rebinding break/continue/case
// Parent links to the clones (not the originals) by consulting stmtMap,
// which is populated for s itself before its children are visited — so
// a break whose Parent is the loop/switch currently being cloned always
// finds that loop/switch's own fresh clone already present.
func (ex *expander) cloneStmt(s *ast.Stmt) *ast.Stmt {
	if s == nil {
		return nil
	}
	if ns, ok := ex.stmtMap[s]; ok {
		return ns
	}
	ns := &ast.Stmt{Kind: s.Kind, Tok: s.Tok}
	ex.stmtMap[s] = ns

	switch s.Kind {
	case ast.SkExpr:
		ns.Expr = ex.cloneExpr(s.Expr)

	case ast.SkBlock:
		ns.Scope = ex.cloneScope(s.Scope)
		ns.BraceTok = s.BraceTok
		ns.List = make([]*ast.Stmt, len(s.List))
		for i, c := range s.List {
			ns.List[i] = ex.cloneStmt(c)
		}

	case ast.SkIf:
		ns.Cond = ex.cloneExpr(s.Cond)
		ns.Then = ex.cloneStmt(s.Then)
		ns.Else = ex.cloneStmt(s.Else)

	case ast.SkSwitch:
		ns.Value = ex.cloneExpr(s.Value)
		ns.Body = ex.cloneStmt(s.Body)
		ns.Cases = make([]*ast.Stmt, len(s.Cases))
		for i, c := range s.Cases {
			ns.Cases[i] = ex.stmtMap[c]
			ns.Cases[i].Switch = ns
		}
		if s.Default != nil {
			ns.Default = ex.stmtMap[s.Default]
			ns.Default.Switch = ns
		}

	case ast.SkWhile, ast.SkDoWhile:
		ns.LoopCond = ex.cloneExpr(s.LoopCond)
		ns.LoopBody = ex.cloneStmt(s.LoopBody)

	case ast.SkFor:
		ns.Pre = ex.cloneStmt(s.Pre)
		ns.Cond = ex.cloneExpr(s.Cond)
		ns.Post = ex.cloneExpr(s.Post)
		ns.LoopBody = ex.cloneStmt(s.LoopBody)

	case ast.SkReturn:
		ns.Expr = ex.cloneExpr(s.Expr)
		ns.FuncEnd = false

	case ast.SkBreak, ast.SkContinue:
		ns.Parent = ex.stmtMap[s.Parent]

	case ast.SkCase:
		ns.CaseVal = ex.cloneExpr(s.CaseVal)
		ns.CaseIdx = s.CaseIdx
		// ns.Switch is back-filled by the enclosing SkSwitch case above.

	case ast.SkVarDecl:
		ns.Decls = make([]ast.VarDeclEntry, len(s.Decls))
		for i, d := range s.Decls {
			ns.Decls[i] = ast.VarDeclEntry{Var: ex.cloneVar(d.Var), Init: ex.cloneExpr(d.Init)}
		}

	case ast.SkAsm:
		ns.AsmText = s.AsmText

	case ast.SkGoto, ast.SkLabel:
		// Unreachable: Function.IsInlineCandidate rejects any body
		// containing labels or gotos before Expand is ever called.
	}
	return ns
}

// cloneExpr deep-clones an expression tree, remapping variable
// references through cloneVar so every read/write of a given original
// local lands on the same fresh clone.
func (ex *expander) cloneExpr(e *ast.Expr) *ast.Expr {
	if e == nil {
		return nil
	}
	ne := *e // shallow-copy scalars (Kind, Tok, Type, Op, consts, ...)

	switch e.Kind {
	case ast.EkVar:
		ne.VarRef = ex.cloneVar(e.VarRef)
	case ast.EkUnary, ast.EkCast, ast.EkDeref, ast.EkAddr, ast.EkIncDec:
		ne.Sub = ex.cloneExpr(e.Sub)
	case ast.EkBinary, ast.EkLogical, ast.EkComma:
		ne.Lhs = ex.cloneExpr(e.Lhs)
		ne.Rhs = ex.cloneExpr(e.Rhs)
	case ast.EkAssign:
		ne.Lhs = ex.cloneExpr(e.Lhs)
		ne.Rhs = ex.cloneExpr(e.Rhs)
	case ast.EkTernary:
		ne.Cond = ex.cloneExpr(e.Cond)
		ne.TVal = ex.cloneExpr(e.TVal)
		ne.FVal = ex.cloneExpr(e.FVal)
	case ast.EkMember:
		ne.Target = ex.cloneExpr(e.Target)
	case ast.EkCall:
		ne.Callee = ex.cloneExpr(e.Callee)
		ne.Args = cloneExprList(ex, e.Args)
	case ast.EkCompoundLit:
		ne.CompoundVar = ex.cloneVar(e.CompoundVar)
		ne.InitStmts = make([]*ast.Stmt, len(e.InitStmts))
		for i, st := range e.InitStmts {
			ne.InitStmts[i] = ex.cloneStmt(st)
		}
	case ast.EkBlock:
		ne.BlockStmt = ex.cloneStmt(e.BlockStmt)
	case ast.EkInlinedCall:
		ne.Args = cloneExprList(ex, e.Args)
		ne.Body = ex.cloneStmt(e.Body)
	}
	return &ne
}

func cloneExprList(ex *expander, list []*ast.Expr) []*ast.Expr {
	if list == nil {
		return nil
	}
	out := make([]*ast.Expr, len(list))
	for i, a := range list {
		out[i] = ex.cloneExpr(a)
	}
	return out
}
