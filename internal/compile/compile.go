// Package compile is the top-level driver wiring components A-H (spec.md
// §2's "control flow is strictly one direction" pipeline) over a whole
// translation unit. It corresponds to no single lettered component: it is
// the glue cmd/minicc calls, grounded on cmd/sentra/main.go's own
// straight-line "scan, parse, compile, run" sequencing of its pipeline
// stages.
package compile

import (
	"bytes"
	"fmt"

	"minicc/internal/ast"
	"minicc/internal/cctx"
	"minicc/internal/diag"
	"minicc/internal/elaborate"
	"minicc/internal/inline"
	"minicc/internal/irgen"
	"minicc/internal/reachability"
	"minicc/internal/regalloc"
	"minicc/internal/target"
)

// FunctionOutput is one function's emitted assembly. The rodata jump
// tables its switch statements produced are part of Text: the target's
// Lower writes them after the function body.
type FunctionOutput struct {
	Name string
	Text []byte
}

// Result is everything one Unit call over a TranslationUnit produced.
type Result struct {
	Functions []FunctionOutput
	Diags     *diag.Sink
}

// Unit elaborates, reachability-checks, inline-expands, and lowers every
// function in unit to tgt's assembly text, in source order. internal/ast's
// Globals are left untouched here — internal/dataemit and/or
// internal/llvmout consume unit.Globals directly (spec.md §4.H never
// needed irgen/regalloc/target at all).
func Unit(unit *ast.TranslationUnit, tgt target.Target) (*Result, error) {
	diags := diag.NewSink()
	ctx := cctx.New(unit.Structs, diags)
	el := elaborate.New(ctx)
	reach := reachability.New(diags)
	inl := inline.New(ctx)

	res := &Result{Diags: diags}
	for _, fn := range unit.Functions {
		if fn.Body == nil {
			continue // declaration only, nothing to lower
		}
		elaborateFunction(ctx, el, fn)
		reach.Walk(fn.Body)
		reachability.CheckFuncEndReturn(fn)
		inl.ExpandFunction(fn)

		if diags.Exhausted() {
			return res, diags.Fatal(diag.Location{}, "too many errors, stopping")
		}

		irFn := irgen.Build(fn)
		tgt.Tweak(irFn)
		alloc := regalloc.Allocate(irFn, tgt.Settings())

		var buf bytes.Buffer
		fmt.Fprintf(&buf, "\t.text\n\t.globl %s\n", fn.Name)
		if err := tgt.Lower(&buf, irFn, alloc, irFn.Tables); err != nil {
			return res, fmt.Errorf("lowering %s: %w", fn.Name, err)
		}
		res.Functions = append(res.Functions, FunctionOutput{Name: fn.Name, Text: buf.Bytes()})
	}

	if diags.HadErrors() {
		return res, fmt.Errorf("compilation failed with errors")
	}
	return res, nil
}

// elaborateFunction walks fn's body, calling el.Elaborate on every
// top-level expression field a statement carries (Elaborate itself
// recurses through an expression's own children, per spec.md §4.B).
func elaborateFunction(ctx *cctx.Context, el *elaborate.Elaborator, fn *ast.Function) {
	guard := ctx.EnterFunction(fn)
	defer guard.Pop()
	elaborateStmt(ctx, el, fn.Body)
}

func elaborateStmt(ctx *cctx.Context, el *elaborate.Elaborator, s *ast.Stmt) {
	if s == nil {
		return
	}
	switch s.Kind {
	case ast.SkExpr:
		s.Expr = el.Elaborate(s.Expr)
	case ast.SkBlock:
		guard := ctx.EnterExistingScope(s.Scope)
		for _, c := range s.List {
			elaborateStmt(ctx, el, c)
		}
		guard.Pop()
	case ast.SkIf:
		s.Cond = el.MakeCond(el.Elaborate(s.Cond))
		elaborateStmt(ctx, el, s.Then)
		elaborateStmt(ctx, el, s.Else)
	case ast.SkSwitch:
		s.Value = el.Elaborate(s.Value)
		elaborateStmt(ctx, el, s.Body)
	case ast.SkWhile, ast.SkDoWhile:
		s.LoopCond = el.MakeCond(el.Elaborate(s.LoopCond))
		elaborateStmt(ctx, el, s.LoopBody)
	case ast.SkFor:
		elaborateStmt(ctx, el, s.Pre)
		if s.Cond != nil {
			s.Cond = el.MakeCond(el.Elaborate(s.Cond))
		}
		s.Post = el.Elaborate(s.Post)
		elaborateStmt(ctx, el, s.LoopBody)
	case ast.SkReturn:
		s.Expr = el.Elaborate(s.Expr)
	case ast.SkCase:
		s.CaseVal = el.Elaborate(s.CaseVal)
	case ast.SkVarDecl:
		for i := range s.Decls {
			if s.Decls[i].Init != nil {
				s.Decls[i].Init = el.Elaborate(s.Decls[i].Init)
			}
		}
	case ast.SkBreak, ast.SkContinue, ast.SkGoto, ast.SkLabel, ast.SkAsm:
		// no expression operands to elaborate
	}
}
