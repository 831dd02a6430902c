// Package cctx threads the process-wide traversal state spec.md §5 and
// Design Notes §9 call for explicitly through a single value, instead of
// the teacher's pattern of ad hoc fields mutated directly on a *Compiler
// (see hoisting_compiler.go's collectFunctionFromStmt, which recurses
// while implicitly relying on caller-maintained nesting). Every save/
// restore pair becomes a Push*/Pop* call here, or a guard returned by
// Enter* that the caller defers.
package cctx

import (
	"minicc/internal/ast"
	"minicc/internal/ctypes"
	"minicc/internal/diag"
)

// LoopCtx is the nearest enclosing break/continue/switch target, per
// spec.md §5 item (iii).
type LoopCtx struct {
	BreakTarget    *ast.Stmt // loop or switch statement `break` exits
	ContinueTarget *ast.Stmt // loop statement `continue` re-enters
	Switch         *ast.Stmt // non-nil only inside a switch body
}

// Context is the single compiler-context value borrowed mutably by each
// traversal (spec.md Design Notes §9).
type Context struct {
	Types *ctypes.Registry
	Diags *diag.Sink

	scope    *ast.Scope
	function *ast.Function
	loops    []LoopCtx
}

// New creates a fresh Context over a shared type registry and diagnostic
// sink — both outlive any one function's traversal.
func New(types *ctypes.Registry, diags *diag.Sink) *Context {
	return &Context{Types: types, Diags: diags}
}

// Scope returns the current scope cursor.
func (c *Context) Scope() *ast.Scope { return c.scope }

// Function returns the function currently being walked, or nil at file
// scope.
func (c *Context) Function() *ast.Function { return c.function }

// Loop returns the nearest enclosing loop/switch context, or the zero
// value if none is active.
func (c *Context) Loop() LoopCtx {
	if len(c.loops) == 0 {
		return LoopCtx{}
	}
	return c.loops[len(c.loops)-1]
}

// scopeGuard restores the previous scope cursor when popped.
type scopeGuard struct {
	c    *Context
	prev *ast.Scope
}

// EnterScope pushes a new child scope as current and returns a guard;
// callers `defer g.Pop()` to restore the previous cursor, mirroring
// spec.md §5's paired enter_scope/exit_scope.
func (c *Context) EnterScope() *scopeGuard {
	g := &scopeGuard{c: c, prev: c.scope}
	c.scope = ast.NewScope(c.scope)
	return g
}

// EnterExistingScope pushes an already-built scope (used by
// internal/inline, which constructs the cloned scope itself).
func (c *Context) EnterExistingScope(s *ast.Scope) *scopeGuard {
	g := &scopeGuard{c: c, prev: c.scope}
	c.scope = s
	return g
}

func (g *scopeGuard) Pop() { g.c.scope = g.prev }

// funcGuard restores the previous function pointer when popped.
type funcGuard struct {
	c    *Context
	prev *ast.Function
}

// EnterFunction sets fn as the current function and returns a guard.
func (c *Context) EnterFunction(fn *ast.Function) *funcGuard {
	g := &funcGuard{c: c, prev: c.function}
	c.function = fn
	return g
}

func (g *funcGuard) Pop() { g.c.function = g.prev }

// loopGuard pops the loop-context stack when popped.
type loopGuard struct{ c *Context }

// PushLoop enters a new loop/switch context.
func (c *Context) PushLoop(l LoopCtx) *loopGuard {
	c.loops = append(c.loops, l)
	return &loopGuard{c: c}
}

func (g *loopGuard) Pop() { g.c.loops = g.c.loops[:len(g.c.loops)-1] }
