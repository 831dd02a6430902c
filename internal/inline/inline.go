// Package inline implements Component D (spec.md §4.D): it rewrites
// calls to small `inline`-marked functions into duplicated statement
// trees, the same way the teacher's internal/compiler/hoisting_compiler.go
// clones a function's locals into a new scope rather than chasing the
// original AST by reference. Every clone gets fresh VarInfo identities
// (except function-local statics, which redirect to their global twin)
// so repeated inlining of the same callee never aliases storage across
// call sites.
package inline

import (
	"fmt"

	"minicc/internal/ast"
	"minicc/internal/cctx"
)

// seq is a process-wide counter guaranteeing every inlined clone's
// synthesized locals get a name unique across the whole translation
// unit (spec.md §5: the compiler is single-threaded, so a package-level
// counter needs no synchronization).
var seq int

func nextSeq() int {
	seq++
	return seq
}

// expander carries the per-instantiation cloning state for one call
// site's expansion: the identity maps tying original nodes to their
// clones, so a node referenced twice (e.g. a variable read in two
// places) maps to the same fresh clone both times.
type expander struct {
	ctx         *cctx.Context
	callerScope *ast.Scope
	localSet    map[*ast.VarInfo]bool
	varMap      map[*ast.VarInfo]*ast.VarInfo
	scopeMap    map[*ast.Scope]*ast.Scope
	stmtMap     map[*ast.Stmt]*ast.Stmt
	tag         int
}

// Expand implements spec.md §4.D: builds the duplicated body for one
// call to fn with the given (already-elaborated) argument expressions.
// The four numbered rules there map onto this function and cloneStmt/
// cloneExpr/cloneVar as follows: (1) parameter renaming is cloneVar
// applied to fn's param scope; (2) scope mapping is cloneScope, keyed by
// the original *ast.Scope; (3) control-structure cloning is cloneStmt's
// SkSwitch/SkWhile/SkFor cases, which rebind break/continue/case Parent
// links through stmtMap; (4) recursive inlined calls are handled by the
// caller, Pass.expandStmt, re-running over the returned Body.
func Expand(ctx *cctx.Context, fn *ast.Function, args []*ast.Expr, callTok ast.Token) *ast.Expr {
	ex := &expander{
		ctx:         ctx,
		callerScope: ctx.Scope(),
		localSet:    localVarSet(fn),
		varMap:      make(map[*ast.VarInfo]*ast.VarInfo),
		scopeMap:    make(map[*ast.Scope]*ast.Scope),
		stmtMap:     make(map[*ast.Stmt]*ast.Stmt),
		tag:         nextSeq(),
	}

	paramScope := ast.NewScope(ex.callerScope)
	paramScope.IsFuncTop = true

	params := fn.ParamScope()
	var decls []*ast.Stmt
	if params != nil {
		for i, p := range params.Vars {
			newParam := ex.cloneVar(p)
			paramScope.Vars = append(paramScope.Vars, newParam)
			var argExpr *ast.Expr
			if i < len(args) {
				argExpr = args[i]
			}
			decls = append(decls, &ast.Stmt{
				Kind:  ast.SkVarDecl,
				Tok:   callTok,
				Decls: []ast.VarDeclEntry{{Var: newParam, Init: argExpr}},
			})
		}
		ex.scopeMap[params] = paramScope
	}

	bodyClone := ex.cloneStmt(fn.Body)

	wrapper := &ast.Stmt{
		Kind:  ast.SkBlock,
		Tok:   callTok,
		Scope: paramScope,
		List:  append(decls, bodyClone),
	}

	return &ast.Expr{
		Kind:       ast.EkInlinedCall,
		Tok:        callTok,
		Type:       fn.Type.Ret,
		InlineName: fn.Name,
		Body:       wrapper,
		Args:       args,
	}
}

// localVarSet collects every VarInfo declared within fn's own scopes
// (its parameters and every nested block), so cloneVar can tell a
// local needing a fresh identity from a global or an outer static that
// must keep its shared one.
func localVarSet(fn *ast.Function) map[*ast.VarInfo]bool {
	set := make(map[*ast.VarInfo]bool)
	if ps := fn.ParamScope(); ps != nil {
		for _, v := range ps.Vars {
			set[v] = true
		}
	}
	var walkStmt func(s *ast.Stmt)
	walkStmt = func(s *ast.Stmt) {
		if s == nil {
			return
		}
		if s.Scope != nil {
			for _, v := range s.Scope.Vars {
				set[v] = true
			}
		}
		for _, d := range s.Decls {
			set[d.Var] = true
		}
		walkStmt(s.Then)
		walkStmt(s.Else)
		walkStmt(s.Body)
		walkStmt(s.LoopBody)
		walkStmt(s.Pre)
		for _, c := range s.List {
			walkStmt(c)
		}
		for _, c := range s.Cases {
			walkStmt(c)
		}
		walkStmt(s.Default)
	}
	walkStmt(fn.Body)
	return set
}

// cloneVar implements the parameter-renaming / scope-mapping rules: a
// fresh identity for an ordinary local (first occurrence only — later
// references reuse the same clone via varMap), the shared GlobalTwin
// for a function-local static, and the variable itself unchanged for
// anything not local to fn (globals, other functions' statics).
func (ex *expander) cloneVar(v *ast.VarInfo) *ast.VarInfo {
	if v == nil {
		return nil
	}
	if nv, ok := ex.varMap[v]; ok {
		return nv
	}
	if !ex.localSet[v] {
		ex.varMap[v] = v
		return v
	}
	if v.HasStorage(ast.StorageStatic) && v.GlobalTwin != nil {
		ex.varMap[v] = v.GlobalTwin
		return v.GlobalTwin
	}
	nv := &ast.VarInfo{
		Name:    fmt.Sprintf("%s$inl%d", v.Name, ex.tag),
		Type:    v.Type,
		Storage: v.Storage &^ ast.StorageParameter,
	}
	ex.varMap[v] = nv
	return nv
}

// cloneScope returns the clone of old, creating it (and recursively its
// parent, if not already mapped) on first reference. A scope whose
// parent chain runs out of the function's own tree is rooted at the
// caller's current scope, so the inlined clone still sees everything
// visible at the call site.
func (ex *expander) cloneScope(old *ast.Scope) *ast.Scope {
	if old == nil {
		return ex.callerScope
	}
	if ns, ok := ex.scopeMap[old]; ok {
		return ns
	}
	var parent *ast.Scope
	if old.Parent != nil {
		parent = ex.cloneScope(old.Parent)
	} else {
		parent = ex.callerScope
	}
	ns := ast.NewScope(parent)
	ns.IsFuncTop = old.IsFuncTop
	for _, v := range old.Vars {
		ns.Vars = append(ns.Vars, ex.cloneVar(v))
	}
	ex.scopeMap[old] = ns
	return ns
}
