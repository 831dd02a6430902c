package ast

import "minicc/internal/ctypes"

// ExprKind tags the variant held by an Expr.
type ExprKind int

const (
	EkLitInt ExprKind = iota
	EkLitFlt
	EkLitStr
	EkVar
	EkUnary
	EkBinary
	EkLogical // && / ||
	EkTernary
	EkMember
	EkCall
	EkCompoundLit
	EkInlinedCall
	EkBlock
	EkComma
	EkCast
	EkDeref
	EkAddr
	EkAssign
	EkIncDec
)

// Expr is the typed expression node from spec.md §3. Every node has a
// non-null Type once elaboration succeeds (spec.md §3 invariant); nodes
// produced as error-recovery placeholders carry ctypes.GetFixnumType(Int,...)
// so later passes can keep walking (spec.md §7).
type Expr struct {
	Kind ExprKind
	Tok  Token
	Type *ctypes.Type

	// IsConst + one of the *Val fields: this node has been constant-
	// folded to a literal (spec.md §4.B "if both sides are constant, fold").
	IsConst bool
	IntVal  int64
	FltVal  float64
	StrVal  string

	Op  string // operator text for EkUnary/EkBinary/EkLogical/EkIncDec
	Sub *Expr  // EkUnary, EkCast, EkDeref, EkAddr, EkIncDec operand

	Lhs, Rhs *Expr // EkBinary, EkLogical, EkComma; EkAssign: Lhs=target, Rhs=value

	Cond, TVal, FVal *Expr // EkTernary

	VarRef *VarInfo // EkVar / EkAssign target
	Scope  *Scope   // owning scope of a EkVar reference

	Target    *Expr  // EkMember target object
	Member    string // EkMember field name
	MemberIdx int     // index into StructInfo.Members
	Arrow     bool    // `->` vs `.`
	Bits      *ctypes.BitField

	Callee *Expr   // EkCall
	Args   []*Expr // EkCall / EkInlinedCall

	CompoundVar  *VarInfo // EkCompoundLit synthetic local
	InitStmts    []*Stmt  // EkCompoundLit initializer statements

	InlineName string // EkInlinedCall: original callee name (diagnostics)
	Body       *Stmt   // EkInlinedCall: already-duplicated callee body

	BlockStmt *Stmt // EkBlock: statement executed for its value

	Prefix bool // EkIncDec: ++x vs x++
}

// IntLit builds a folded integer-literal node of the given type.
func IntLit(tok Token, v int64, t *ctypes.Type) *Expr {
	return &Expr{Kind: EkLitInt, Tok: tok, Type: t, IsConst: true, IntVal: v}
}

// FltLit builds a folded floating-literal node.
func FltLit(tok Token, v float64, t *ctypes.Type) *Expr {
	return &Expr{Kind: EkLitFlt, Tok: tok, Type: t, IsConst: true, FltVal: v}
}

// Dummy produces the well-typed placeholder spec.md §7 requires in place
// of a node that failed to elaborate, so the walk can continue collecting
// diagnostics instead of unwinding.
func Dummy(tok Token) *Expr {
	return IntLit(tok, 0, ctypes.GetFixnumType(ctypes.Int, false, 0))
}

// IsLvalue reports whether e designates an object in memory: a variable,
// a dereference, a member access, or a compound literal (spec.md Glossary).
func (e *Expr) IsLvalue() bool {
	switch e.Kind {
	case EkVar, EkDeref, EkMember:
		return true
	case EkCompoundLit:
		return true
	}
	return false
}

// IsZeroConst reports whether e is a constant-folded integer zero, used
// throughout elaborate for "literal zero" pointer-comparison rules.
func (e *Expr) IsZeroConst() bool {
	return e.IsConst && e.Kind == EkLitInt && e.IntVal == 0
}
