package ast

import "minicc/internal/ctypes"

// Function is the top-level unit of compilation within a translation
// unit (spec.md §3): a name, its function type, the scopes created while
// parsing its body (params live in Scopes[0]), the body block, its gotos
// and label table, and a Backend slot the later pipeline stages attach
// their own state to.
type Function struct {
	Name   string
	Type   *ctypes.Type // Kind == KindFunction
	Scopes []*Scope
	Body   *Stmt // SkBlock

	Gotos  []*Stmt // unresolved SkGoto statements, resolved post-parse
	Labels map[string]*Stmt

	Storage StorageFlag

	// Backend is a slot for per-function backend state. No stage in this
	// module assigns it: internal/compile keeps the irgen and regalloc
	// results in local variables. It is declared as interface{} here rather than a concrete type so
	// ast has no import-cycle dependency on those downstream packages —
	// spec.md §2's "control flow is strictly one direction" rule applied
	// to Go's package graph.
	Backend interface{}
}

// ParamScope returns the function's top scope (holding its parameters),
// per spec.md §3 "params live in scopes[0]".
func (f *Function) ParamScope() *Scope {
	if len(f.Scopes) == 0 {
		return nil
	}
	return f.Scopes[0]
}

// IsInlineCandidate reports the eligibility test from spec.md §4.D: marked
// inline, non-variadic, primitive-or-void return, a concrete body, and no
// labels or gotos (label collision would occur on repeated inlining).
func (f *Function) IsInlineCandidate() bool {
	if f.Storage&StorageInline == 0 {
		return false
	}
	if f.Type == nil || f.Type.Kind != ctypes.KindFunction {
		return false
	}
	if f.Type.VaArgs {
		return false
	}
	ret := f.Type.Ret
	if ret.Kind != ctypes.KindVoid && !ctypes.IsPrimType(ret) {
		return false
	}
	if f.Body == nil {
		return false
	}
	if len(f.Gotos) > 0 || len(f.Labels) > 0 {
		return false
	}
	return true
}
