package elaborate

import (
	"testing"

	"minicc/internal/ast"
	"minicc/internal/cctx"
	"minicc/internal/ctypes"
	"minicc/internal/diag"
)

func newElab() (*Elaborator, *diag.Sink) {
	sink := diag.NewSink()
	ctx := cctx.New(ctypes.NewRegistry(), sink)
	ctx.EnterScope()
	return New(ctx), sink
}

func intT() *ctypes.Type { return ctypes.GetFixnumType(ctypes.Int, false, 0) }

// spec.md §8 scenario 1: `2*3+4` folds to a single literal 10, no
// multiply survives.
func TestConstantFoldingArithmetic(t *testing.T) {
	el, _ := newElab()
	two := ast.IntLit(ast.Token{}, 2, intT())
	three := ast.IntLit(ast.Token{}, 3, intT())
	four := ast.IntLit(ast.Token{}, 4, intT())
	mul := &ast.Expr{Kind: ast.EkBinary, Op: "*", Lhs: two, Rhs: three}
	add := &ast.Expr{Kind: ast.EkBinary, Op: "+", Lhs: mul, Rhs: four}

	got := el.Elaborate(add)
	if !got.IsConst || got.Kind != ast.EkLitInt || got.IntVal != 10 {
		t.Fatalf("expected folded literal 10, got %+v", got)
	}
}

// spec.md §8 scenario 2: unsigned char c=200; int x=c+100 folds to 300,
// not 44, because c promotes to int before the addition.
func TestPromotionPreventsWrapOnAddition(t *testing.T) {
	el, _ := newElab()
	uchar := ctypes.GetFixnumType(ctypes.Char, true, 0)
	c := ast.IntLit(ast.Token{}, 200, uchar)
	hundred := ast.IntLit(ast.Token{}, 100, intT())
	add := &ast.Expr{Kind: ast.EkBinary, Op: "+", Lhs: c, Rhs: hundred}

	got := el.Elaborate(add)
	if !got.IsConst || got.IntVal != 300 {
		t.Fatalf("expected 300, got %+v", got)
	}
	if got.Type.Kind != ctypes.KindFixnum || got.Type.FixKind != ctypes.Int {
		t.Fatalf("expected result type int, got %v", got.Type)
	}
}

// spec.md §8 "Negation algebra": not(not(e)) == bool(e);
// not(a && b) == not(a) || not(b).
func TestNotNotIsBoolAndDeMorgan(t *testing.T) {
	el, _ := newElab()
	a := &ast.Expr{Kind: ast.EkBinary, Op: "==", Lhs: ast.IntLit(ast.Token{}, 1, intT()), Rhs: ast.IntLit(ast.Token{}, 1, intT()), Type: intT()}
	b := &ast.Expr{Kind: ast.EkBinary, Op: "<", Lhs: ast.IntLit(ast.Token{}, 1, intT()), Rhs: ast.IntLit(ast.Token{}, 2, intT()), Type: intT()}
	and := &ast.Expr{Kind: ast.EkLogical, Op: "&&", Lhs: a, Rhs: b, Type: intT()}

	notNot := el.MakeNotExpr(el.MakeNotExpr(a))
	if notNot.Kind != ast.EkBinary || notNot.Op != "==" {
		t.Fatalf("expected not(not(a)) to be the comparison a itself, got %+v", notNot)
	}

	notAnd := el.MakeNotExpr(and)
	if notAnd.Kind != ast.EkLogical || notAnd.Op != "||" {
		t.Fatalf("expected De Morgan rewrite to ||, got %+v", notAnd)
	}
	if notAnd.Lhs.Op != "!=" || notAnd.Rhs.Op != ">=" {
		t.Fatalf("expected inverted comparisons, got %q %q", notAnd.Lhs.Op, notAnd.Rhs.Op)
	}
}

// spec.md §8 "Pointer-arith round-trip": (p + i) - p folds to i of ssize
// type for constant p and i.
func TestPointerArithRoundTrip(t *testing.T) {
	el, _ := newElab()
	ptrT := ctypes.Ptrof(intT())
	p := ast.IntLit(ast.Token{}, 0x1000, ptrT)
	i := ast.IntLit(ast.Token{}, 3, ctypes.GetFixnumType(ctypes.Long, false, 0))

	plus := &ast.Expr{Kind: ast.EkBinary, Op: "+", Lhs: p, Rhs: i}
	plusElab := el.Elaborate(plus)

	minus := &ast.Expr{Kind: ast.EkBinary, Op: "-", Lhs: plusElab, Rhs: p}
	got := el.Elaborate(minus)

	if !got.IsConst || got.IntVal != 3 {
		t.Fatalf("expected folded value 3, got %+v", got)
	}
	if got.Type.FixKind != ctypes.Long {
		t.Fatalf("expected ssize (long) result type, got %v", got.Type)
	}
}

// spec.md §8 scenario 4: bit-field assignment expands to the
// tmp/val/mask comma sequence.
func TestBitfieldAssignmentExpansion(t *testing.T) {
	el, sink := newElab()
	reg := el.Ctx.Types
	si := reg.EnsureStruct("S", false)
	intType := intT()
	members := []ctypes.Member{
		{Name: "a", Type: intType, Bits: &ctypes.BitField{Width: 3}},
		{Name: "b", Type: intType, Bits: &ctypes.BitField{Width: 5}},
	}
	reg.Define(si, members)
	structType := &ctypes.Type{Kind: ctypes.KindStruct, Struct: si}

	sVar := &ast.VarInfo{Name: "s", Type: structType}
	el.Ctx.Scope().Declare(sVar)

	sRef := &ast.Expr{Kind: ast.EkVar, VarRef: sVar, Type: structType}
	member := &ast.Expr{Kind: ast.EkMember, Target: sRef, Member: "b", Arrow: false}
	seven := ast.IntLit(ast.Token{}, 7, intType)

	assign := &ast.Expr{Kind: ast.EkAssign, Lhs: member, Rhs: seven}
	got := el.Elaborate(assign)

	if got.Kind != ast.EkComma {
		t.Fatalf("expected desugared comma sequence, got kind %v", got.Kind)
	}
	if _, e := sink.Counts(); e != 0 {
		t.Fatalf("unexpected errors: %v", sink.Diagnostics())
	}
}

func TestCallArgumentArityError(t *testing.T) {
	el, sink := newElab()
	fnType := ctypes.FuncType(ctypes.Void, []ctypes.Param{{Name: "x", Type: intT()}}, false)
	callee := &ast.Expr{Kind: ast.EkVar, VarRef: &ast.VarInfo{Name: "f", Type: fnType}, Type: fnType}
	call := &ast.Expr{Kind: ast.EkCall, Callee: callee, Args: nil}
	el.Elaborate(call)
	_, errs := sink.Counts()
	if errs == 0 {
		t.Fatal("expected arity-mismatch error")
	}
}
