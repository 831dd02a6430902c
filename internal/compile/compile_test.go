package compile

import (
	"strings"
	"testing"

	"minicc/internal/ast"
	"minicc/internal/ctypes"
	"minicc/internal/target/rv64"
)

func intT() *ctypes.Type { return ctypes.GetFixnumType(ctypes.Int, false, 0) }

// buildAddFunction constructs `int add(int a, int b) { return a + b; }`
// directly through ast's exported constructors, standing in for what a
// real front end (out of scope per spec.md §1) would hand the core.
func buildAddFunction() *ast.Function {
	a := &ast.VarInfo{Name: "a", Type: intT(), Storage: ast.StorageParameter}
	b := &ast.VarInfo{Name: "b", Type: intT(), Storage: ast.StorageParameter}
	top := ast.NewScope(nil)
	top.IsFuncTop = true
	top.Declare(a)
	top.Declare(b)

	body := &ast.Stmt{Kind: ast.SkBlock, Scope: ast.NewScope(top)}
	ret := &ast.Stmt{Kind: ast.SkReturn, FuncEnd: true, Expr: &ast.Expr{
		Kind: ast.EkBinary,
		Op:   "+",
		Lhs:  &ast.Expr{Kind: ast.EkVar, VarRef: a},
		Rhs:  &ast.Expr{Kind: ast.EkVar, VarRef: b},
	}}
	body.List = []*ast.Stmt{ret}

	fn := &ast.Function{
		Name:   "add",
		Type:   &ctypes.Type{Kind: ctypes.KindFunction, Ret: intT(), Params: []ctypes.Param{{Name: "a", Type: intT()}, {Name: "b", Type: intT()}}},
		Scopes: []*ast.Scope{top},
		Body:   body,
	}
	return fn
}

// spec.md §2's one-directional pipeline: Unit drives elaboration,
// reachability, inline expansion and lowering over every defined
// function and produces assembly text naming it.
func TestUnitLowersSimpleFunction(t *testing.T) {
	unit := &ast.TranslationUnit{
		Functions: []*ast.Function{buildAddFunction()},
		Structs:   ctypes.NewRegistry(),
	}
	res, err := Unit(unit, rv64.New())
	if err != nil {
		t.Fatalf("Unit returned error: %v", err)
	}
	if len(res.Functions) != 1 {
		t.Fatalf("expected one lowered function, got %d", len(res.Functions))
	}
	out := res.Functions[0]
	if out.Name != "add" {
		t.Fatalf("expected function name add, got %q", out.Name)
	}
	if !strings.Contains(string(out.Text), "add ") {
		t.Fatalf("expected an emitted add instruction, got:\n%s", out.Text)
	}
	if !strings.Contains(string(out.Text), "ret\n") {
		t.Fatalf("expected a ret at function end, got:\n%s", out.Text)
	}
	if res.Diags.HadErrors() {
		t.Fatalf("expected no diagnostics, got %v", res.Diags.Diagnostics())
	}
}

// buildSwitchFunction constructs:
//
//	int h(int n) { switch (n) { case 5: return 10; default: return 20; } }
//
// mirroring spec.md scenario 6 with a non-sequential case label (5 at
// source position 0) — the shape that exposed lowerSwitch dispatching on
// a case's source position instead of its constant value.
func buildSwitchFunction() *ast.Function {
	n := &ast.VarInfo{Name: "n", Type: intT(), Storage: ast.StorageParameter}
	top := ast.NewScope(nil)
	top.IsFuncTop = true
	top.Declare(n)

	caseStmt := &ast.Stmt{Kind: ast.SkCase, CaseVal: ast.IntLit(ast.Token{}, 5, intT())}
	caseRet := &ast.Stmt{Kind: ast.SkReturn, FuncEnd: true, Expr: ast.IntLit(ast.Token{}, 10, intT())}
	defaultStmt := &ast.Stmt{Kind: ast.SkCase}
	defaultRet := &ast.Stmt{Kind: ast.SkReturn, FuncEnd: true, Expr: ast.IntLit(ast.Token{}, 20, intT())}

	sw := &ast.Stmt{
		Kind:    ast.SkSwitch,
		Value:   &ast.Expr{Kind: ast.EkVar, VarRef: n, Type: intT()},
		Cases:   []*ast.Stmt{caseStmt},
		Default: defaultStmt,
	}
	caseStmt.Switch = sw
	defaultStmt.Switch = sw
	sw.Body = &ast.Stmt{Kind: ast.SkBlock, List: []*ast.Stmt{caseStmt, caseRet, defaultStmt, defaultRet}}

	body := &ast.Stmt{Kind: ast.SkBlock, Scope: ast.NewScope(top), List: []*ast.Stmt{sw}}

	return &ast.Function{
		Name:   "h",
		Type:   &ctypes.Type{Kind: ctypes.KindFunction, Ret: intT(), Params: []ctypes.Param{{Name: "n", Type: intT()}}},
		Scopes: []*ast.Scope{top},
		Body:   body,
	}
}

// TestUnitLowersSwitchByCaseValue drives a full switch with a
// non-sequential case label end to end through Unit, asserting that the
// emitted rv64 text both compares against the real case constant (5) and
// range-checks the tjmp index before indirecting through the jump table,
// per spec.md §4.E/§8. internal/irgen/build_test.go separately interprets
// the IR directly to assert the actual branch taken for concrete inputs.
func TestUnitLowersSwitchByCaseValue(t *testing.T) {
	unit := &ast.TranslationUnit{
		Functions: []*ast.Function{buildSwitchFunction()},
		Structs:   ctypes.NewRegistry(),
	}
	res, err := Unit(unit, rv64.New())
	if err != nil {
		t.Fatalf("Unit returned error: %v", err)
	}
	if len(res.Functions) != 1 {
		t.Fatalf("expected one lowered function, got %d", len(res.Functions))
	}
	text := string(res.Functions[0].Text)
	if !strings.Contains(text, "li t1, 2\n") {
		t.Fatalf("expected a tjmp bounds check against the table length (2), got:\n%s", text)
	}
	if !strings.Contains(text, "bltu ") {
		t.Fatalf("expected a bounds-check branch before the indirect jump, got:\n%s", text)
	}
	if !strings.Contains(text, ", 5\n") {
		t.Fatalf("expected the case label constant 5 to be materialized as an immediate, got:\n%s", text)
	}
	if res.Diags.HadErrors() {
		t.Fatalf("expected no diagnostics, got %v", res.Diags.Diagnostics())
	}
}

// A function declared without a body (an extern prototype) produces no
// output and no error.
func TestUnitSkipsBodylessFunction(t *testing.T) {
	fn := &ast.Function{Name: "decl_only", Type: &ctypes.Type{Kind: ctypes.KindFunction, Ret: ctypes.Void}}
	unit := &ast.TranslationUnit{Functions: []*ast.Function{fn}, Structs: ctypes.NewRegistry()}
	res, err := Unit(unit, rv64.New())
	if err != nil {
		t.Fatalf("Unit returned error: %v", err)
	}
	if len(res.Functions) != 0 {
		t.Fatalf("expected no lowered output for a bodyless function, got %d", len(res.Functions))
	}
}
