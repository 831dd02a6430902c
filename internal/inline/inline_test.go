package inline

import (
	"testing"

	"minicc/internal/ast"
	"minicc/internal/cctx"
	"minicc/internal/ctypes"
	"minicc/internal/diag"
)

func intT() *ctypes.Type { return ctypes.GetFixnumType(ctypes.Int, false, 0) }

// buildAdd builds `inline int add(int a, int b) { return a + b; }`.
func buildAdd() *ast.Function {
	paramScope := &ast.Scope{IsFuncTop: true}
	a := &ast.VarInfo{Name: "a", Type: intT(), Storage: ast.StorageParameter}
	b := &ast.VarInfo{Name: "b", Type: intT(), Storage: ast.StorageParameter}
	paramScope.Vars = []*ast.VarInfo{a, b}

	aRef := &ast.Expr{Kind: ast.EkVar, VarRef: a, Type: intT()}
	bRef := &ast.Expr{Kind: ast.EkVar, VarRef: b, Type: intT()}
	sum := &ast.Expr{Kind: ast.EkBinary, Op: "+", Lhs: aRef, Rhs: bRef, Type: intT()}
	ret := &ast.Stmt{Kind: ast.SkReturn, Expr: sum}
	body := &ast.Stmt{Kind: ast.SkBlock, List: []*ast.Stmt{ret}}

	fnType := ctypes.FuncType(intT(), []ctypes.Param{{Name: "a", Type: intT()}, {Name: "b", Type: intT()}}, false)
	return &ast.Function{
		Name:    "add",
		Type:    fnType,
		Scopes:  []*ast.Scope{paramScope},
		Body:    body,
		Storage: ast.StorageInline,
	}
}

func TestExpandRenamesParameters(t *testing.T) {
	ctx := cctx.New(ctypes.NewRegistry(), diag.NewSink())
	ctx.EnterScope()
	fn := buildAdd()

	x := &ast.VarInfo{Name: "x", Type: intT()}
	y := &ast.VarInfo{Name: "y", Type: intT()}
	argX := &ast.Expr{Kind: ast.EkVar, VarRef: x, Type: intT()}
	argY := &ast.Expr{Kind: ast.EkVar, VarRef: y, Type: intT()}

	got := Expand(ctx, fn, []*ast.Expr{argX, argY}, ast.Token{})
	if got.Kind != ast.EkInlinedCall {
		t.Fatalf("expected EkInlinedCall, got %v", got.Kind)
	}
	if len(got.Body.List) != 3 { // 2 param decls + cloned body block
		t.Fatalf("expected 2 param decls + 1 cloned body, got %d statements", len(got.Body.List))
	}
	p0 := got.Body.List[0].Decls[0].Var
	p1 := got.Body.List[1].Decls[0].Var
	if p0.Name == "a" || p1.Name == "b" {
		t.Fatalf("expected fresh parameter names, got %q %q", p0.Name, p1.Name)
	}

	clonedBody := got.Body.List[2]
	clonedRet := clonedBody.List[0]
	sumExpr := clonedRet.Expr
	if sumExpr.Lhs.VarRef != p0 || sumExpr.Rhs.VarRef != p1 {
		t.Fatal("expected cloned body to reference the fresh parameter clones")
	}
}

func TestExpandTwiceProducesDistinctIdentities(t *testing.T) {
	ctx := cctx.New(ctypes.NewRegistry(), diag.NewSink())
	ctx.EnterScope()
	fn := buildAdd()

	argA := &ast.Expr{Kind: ast.EkLitInt, IsConst: true, IntVal: 1, Type: intT()}
	argB := &ast.Expr{Kind: ast.EkLitInt, IsConst: true, IntVal: 2, Type: intT()}

	first := Expand(ctx, fn, []*ast.Expr{argA, argB}, ast.Token{})
	second := Expand(ctx, fn, []*ast.Expr{argA, argB}, ast.Token{})

	firstParam := first.Body.List[0].Decls[0].Var
	secondParam := second.Body.List[0].Decls[0].Var
	if firstParam == secondParam {
		t.Fatal("expected two independent expansions to allocate distinct parameter identities")
	}
	if firstParam.Name == secondParam.Name {
		t.Fatal("expected distinct expansions to get distinct synthesized names")
	}
}

func TestStaticLocalRedirectsToGlobalTwin(t *testing.T) {
	ctx := cctx.New(ctypes.NewRegistry(), diag.NewSink())
	ctx.EnterScope()

	twin := &ast.VarInfo{Name: "counter$static", Type: intT()}
	counter := &ast.VarInfo{Name: "counter", Type: intT(), Storage: ast.StorageStatic, GlobalTwin: twin}
	blockScope := &ast.Scope{Vars: []*ast.VarInfo{counter}}
	counterRef := &ast.Expr{Kind: ast.EkVar, VarRef: counter, Type: intT()}
	incr := &ast.Stmt{Kind: ast.SkExpr, Expr: &ast.Expr{Kind: ast.EkIncDec, Op: "++", Sub: counterRef, Type: intT()}}
	body := &ast.Stmt{Kind: ast.SkBlock, Scope: blockScope, List: []*ast.Stmt{incr}}

	fnType := ctypes.FuncType(ctypes.Void, nil, false)
	fn := &ast.Function{
		Name:    "bump",
		Type:    fnType,
		Scopes:  []*ast.Scope{{IsFuncTop: true}},
		Body:    body,
		Storage: ast.StorageInline,
	}

	got := Expand(ctx, fn, nil, ast.Token{})
	clonedBody := got.Body.List[0]
	clonedIncr := clonedBody.List[0].Expr
	if clonedIncr.Sub.VarRef != twin {
		t.Fatal("expected static local to redirect to its global twin across the clone")
	}
}

func TestPassExpandsNestedInlineCallsRecursively(t *testing.T) {
	ctx := cctx.New(ctypes.NewRegistry(), diag.NewSink())
	ctx.EnterScope()

	inner := buildAdd() // inline int add(int,int)

	// outer(x) { return add(x, x); } also marked inline, so the pass
	// run over some third caller must expand both levels.
	outerParamScope := &ast.Scope{IsFuncTop: true}
	xParam := &ast.VarInfo{Name: "x", Type: intT(), Storage: ast.StorageParameter}
	outerParamScope.Vars = []*ast.VarInfo{xParam}
	xRef1 := &ast.Expr{Kind: ast.EkVar, VarRef: xParam, Type: intT()}
	xRef2 := &ast.Expr{Kind: ast.EkVar, VarRef: xParam, Type: intT()}
	addCallee := &ast.Expr{Kind: ast.EkVar, VarRef: &ast.VarInfo{Name: "add", Func: inner}, Type: inner.Type}
	addCall := &ast.Expr{Kind: ast.EkCall, Callee: addCallee, Args: []*ast.Expr{xRef1, xRef2}, Type: intT()}
	outerRet := &ast.Stmt{Kind: ast.SkReturn, Expr: addCall}
	outerBody := &ast.Stmt{Kind: ast.SkBlock, List: []*ast.Stmt{outerRet}}
	outerFnType := ctypes.FuncType(intT(), []ctypes.Param{{Name: "x", Type: intT()}}, false)
	outer := &ast.Function{Name: "outer", Type: outerFnType, Scopes: []*ast.Scope{outerParamScope}, Body: outerBody, Storage: ast.StorageInline}

	// caller() { return outer(5); }
	callerParamScope := &ast.Scope{IsFuncTop: true}
	five := &ast.Expr{Kind: ast.EkLitInt, IsConst: true, IntVal: 5, Type: intT()}
	outerCallee := &ast.Expr{Kind: ast.EkVar, VarRef: &ast.VarInfo{Name: "outer", Func: outer}, Type: outer.Type}
	outerCall := &ast.Expr{Kind: ast.EkCall, Callee: outerCallee, Args: []*ast.Expr{five}, Type: intT()}
	callerRet := &ast.Stmt{Kind: ast.SkReturn, Expr: outerCall}
	callerBody := &ast.Stmt{Kind: ast.SkBlock, List: []*ast.Stmt{callerRet}}
	callerFnType := ctypes.FuncType(intT(), nil, false)
	caller := &ast.Function{Name: "caller", Type: callerFnType, Scopes: []*ast.Scope{callerParamScope}, Body: callerBody}

	pass := New(ctx)
	pass.ExpandFunction(caller)

	topExpr := caller.Body.List[0].Expr
	if topExpr.Kind != ast.EkInlinedCall {
		t.Fatalf("expected outer() call to be inlined, got kind %v", topExpr.Kind)
	}
	// Within the expanded outer body, the nested add(x, x) call must
	// also have been expanded into its own EkInlinedCall.
	innerReturn := topExpr.Body.List[len(topExpr.Body.List)-1].List[0]
	if innerReturn.Expr.Kind != ast.EkInlinedCall {
		t.Fatalf("expected nested add() call to be recursively inlined, got kind %v", innerReturn.Expr.Kind)
	}
}
