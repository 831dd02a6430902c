// Package ast holds the data model shared by every component downstream
// of parsing: tokens, typed expression/statement nodes, scopes and
// function/variable metadata (spec.md §3). It is built on an
// already-parsed, not-yet-typed tree — lexing and parsing are explicitly
// out of scope (spec.md §1) and are assumed to be supplied by an external
// collaborator.
//
// Expr and Stmt are tagged structs (a Kind field plus a payload), the
// same shape internal/ctypes uses for Type, rather than the teacher's
// closed Accept(Visitor)-per-node-type hierarchy in parser/ast.go: every
// downstream pass here rewrites nodes in place (constant folding,
// compound-assignment desugaring, bit-field expansion, dummy-typed error
// recovery per spec.md §4.B/§7), which a mutate-in-place tagged node
// supports far more directly than reconstructing immutable interface
// values. The teacher's dispatch-by-kind idiom survives as a Kind field
// switched on by each pass instead of an Accept call.
package ast

// Token carries source position plus a semantic payload, per spec.md §3.
type Token struct {
	File   string
	Line   int
	Column int
	Raw    string

	// Semantic payload: at most one of these is meaningful, selected by
	// the owning node's Kind.
	Ident   string
	IntVal  int64
	FltVal  float64
	StrVal  string
	Op      string
}
