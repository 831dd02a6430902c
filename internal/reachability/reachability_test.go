package reachability

import (
	"testing"

	"minicc/internal/ast"
	"minicc/internal/ctypes"
	"minicc/internal/diag"
)

func intLit(v int64) *ast.Expr {
	return ast.IntLit(ast.Token{}, v, ctypes.GetFixnumType(ctypes.Int, false, 0))
}

func block(list ...*ast.Stmt) *ast.Stmt {
	return &ast.Stmt{Kind: ast.SkBlock, List: list}
}

func TestIfBothArmsReturnStops(t *testing.T) {
	w := New(diag.NewSink())
	ifStmt := &ast.Stmt{
		Kind: ast.SkIf,
		Cond: &ast.Expr{Kind: ast.EkVar, Type: ctypes.GetFixnumType(ctypes.Int, false, 0)},
		Then: &ast.Stmt{Kind: ast.SkReturn},
		Else: &ast.Stmt{Kind: ast.SkReturn},
	}
	got := w.Walk(ifStmt)
	if got&ast.ReachStop == 0 {
		t.Fatalf("expected if with both arms returning to stop, got %v", got)
	}
}

func TestIfOneArmFallsThroughDoesNotStop(t *testing.T) {
	w := New(diag.NewSink())
	ifStmt := &ast.Stmt{
		Kind: ast.SkIf,
		Cond: &ast.Expr{Kind: ast.EkVar, Type: ctypes.GetFixnumType(ctypes.Int, false, 0)},
		Then: &ast.Stmt{Kind: ast.SkReturn},
		Else: &ast.Stmt{Kind: ast.SkExpr, Expr: intLit(1)},
	}
	got := w.Walk(ifStmt)
	if got&ast.ReachStop != 0 {
		t.Fatalf("expected non-stopping if, got %v", got)
	}
}

func TestUnreachableStatementWarns(t *testing.T) {
	sink := diag.NewSink()
	w := New(sink)
	deadExpr := &ast.Stmt{Kind: ast.SkExpr, Tok: ast.Token{Line: 5}, Expr: intLit(1)}
	b := block(
		&ast.Stmt{Kind: ast.SkReturn},
		deadExpr,
	)
	w.Walk(b)
	warnings, _ := sink.Counts()
	if warnings != 1 {
		t.Fatalf("expected one unreachable-statement warning, got %d: %v", warnings, sink.Diagnostics())
	}
}

func TestLabelExemptFromDeadCodeWarning(t *testing.T) {
	sink := diag.NewSink()
	w := New(sink)
	b := block(
		&ast.Stmt{Kind: ast.SkReturn},
		&ast.Stmt{Kind: ast.SkLabel, Label: "done"},
		&ast.Stmt{Kind: ast.SkExpr, Expr: intLit(2)},
	)
	w.Walk(b)
	warnings, _ := sink.Counts()
	if warnings != 0 {
		t.Fatalf("expected no warnings (label resets reachability), got %d: %v", warnings, sink.Diagnostics())
	}
}

func TestConstantTrueWhileWithoutBreakStops(t *testing.T) {
	w := New(diag.NewSink())
	whileStmt := &ast.Stmt{
		Kind:     ast.SkWhile,
		LoopCond: intLit(1),
		LoopBody: block(&ast.Stmt{Kind: ast.SkExpr, Expr: intLit(1)}),
	}
	got := w.Walk(whileStmt)
	if got&ast.ReachStop == 0 {
		t.Fatalf("expected infinite while to stop, got %v", got)
	}
}

func TestConstantTrueWhileWithBreakDoesNotStop(t *testing.T) {
	w := New(diag.NewSink())
	whileStmt := &ast.Stmt{Kind: ast.SkWhile, LoopCond: intLit(1)}
	brk := &ast.Stmt{Kind: ast.SkBreak, Parent: whileStmt}
	whileStmt.LoopBody = block(brk)

	got := w.Walk(whileStmt)
	if got&ast.ReachStop != 0 {
		t.Fatalf("expected breakable infinite while to not stop, got %v", got)
	}
}

func TestSwitchWithDefaultAllStoppingStops(t *testing.T) {
	w := New(diag.NewSink())
	c1 := &ast.Stmt{Kind: ast.SkCase, CaseVal: intLit(1)}
	def := &ast.Stmt{Kind: ast.SkCase}
	body := block(c1, &ast.Stmt{Kind: ast.SkReturn}, def, &ast.Stmt{Kind: ast.SkReturn})
	sw := &ast.Stmt{Kind: ast.SkSwitch, Body: body, Cases: []*ast.Stmt{c1}, Default: def}

	w.Walk(sw)
	if sw.Reach&ast.ReachStop == 0 {
		t.Fatalf("expected switch with stopping default+cases to stop, got %v", sw.Reach)
	}
}

func TestSwitchWithoutDefaultNeverStops(t *testing.T) {
	w := New(diag.NewSink())
	c1 := &ast.Stmt{Kind: ast.SkCase, CaseVal: intLit(1)}
	body := block(c1, &ast.Stmt{Kind: ast.SkReturn})
	sw := &ast.Stmt{Kind: ast.SkSwitch, Body: body, Cases: []*ast.Stmt{c1}}

	w.Walk(sw)
	if sw.Reach&ast.ReachStop != 0 {
		t.Fatalf("expected switch without default to not stop, got %v", sw.Reach)
	}
}

func TestCheckFuncEndReturnMarksLastStatement(t *testing.T) {
	ret := &ast.Stmt{Kind: ast.SkReturn}
	fn := &ast.Function{
		Body: block(&ast.Stmt{Kind: ast.SkExpr, Expr: intLit(1)}, ret),
	}
	CheckFuncEndReturn(fn)
	if !ret.FuncEnd {
		t.Fatal("expected last return statement to be marked FuncEnd")
	}
}
