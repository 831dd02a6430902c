// Package reachability implements Component C (spec.md §4.C): a walk
// over a function body that tags each statement with a ReachStop/
// ReachReturn bitset, warns on statements that can never execute, and
// marks the function's final return for the epilogue-omission
// optimization the target lowerer relies on. It is grounded on the
// teacher's internal/compiler/stmt_compiler.go control-flow handling —
// a context value (here, a *Walker) threaded through one recursive
// visit per statement kind, with break/continue resolved through the
// same Parent back-link internal/cctx's loop stack maintains.
package reachability

import (
	"minicc/internal/ast"
	"minicc/internal/diag"
)

// Walker computes reachability for one function body, accumulating
// unreachable-code warnings into diags.
type Walker struct {
	diags *diag.Sink
}

func New(diags *diag.Sink) *Walker { return &Walker{diags: diags} }

func (w *Walker) loc(tok ast.Token) diag.Location {
	return diag.Location{File: tok.File, Line: tok.Line, Column: tok.Column, Source: tok.Raw}
}

// Walk computes body's reachability bitset, warns about dead code
// within it, and returns the bitset that would apply to whatever
// statement follows body in its own enclosing sequence.
func (w *Walker) Walk(s *ast.Stmt) ast.Reach {
	if s == nil {
		return 0
	}
	switch s.Kind {
	case ast.SkReturn, ast.SkBreak, ast.SkContinue, ast.SkGoto:
		s.Reach = ast.ReachStop | ast.ReachReturn
		return s.Reach

	case ast.SkBlock:
		return w.walkBlock(s)

	case ast.SkIf:
		return w.walkIf(s)

	case ast.SkWhile:
		return w.walkWhile(s)

	case ast.SkDoWhile:
		return w.walkDoWhile(s)

	case ast.SkFor:
		return w.walkFor(s)

	case ast.SkSwitch:
		return w.walkSwitch(s)

	case ast.SkLabel:
		// A label statement resets reachability for whatever follows:
		// even if everything above it stops, goto may still enter here.
		s.Reach = 0
		return 0

	case ast.SkCase:
		s.Reach = 0
		return 0

	default: // SkExpr, SkVarDecl, SkAsm
		s.Reach = 0
		return 0
	}
}

// walkBlock propagates reach statement-by-statement, per spec.md §4.C
// "blocks propagate statement-by-statement and warn on statements
// following a stopping statement", with the named carve-outs.
func (w *Walker) walkBlock(b *ast.Stmt) ast.Reach {
	reach := ast.Reach(0)
	stoppedAt := -1
	for i, stmt := range b.List {
		if stoppedAt >= 0 && !isDeadCodeExempt(stmt) {
			w.diags.Warn(w.loc(stmt.Tok), "statement is unreachable")
		}
		r := w.Walk(stmt)
		if r&ast.ReachStop != 0 && stoppedAt < 0 {
			stoppedAt = i
			reach = r
		} else if stmt.Kind == ast.SkLabel || stmt.Kind == ast.SkCase {
			// A label or case statement clears the stop so later
			// statements in the same block are reachable again.
			stoppedAt = -1
			reach = 0
		}
	}
	b.Reach = reach
	return b.Reach
}

// isDeadCodeExempt implements the spec.md §4.C carve-outs: labels,
// cases, and loops that might be entered via goto are never flagged as
// unreachable even when textually following a stopping statement.
func isDeadCodeExempt(s *ast.Stmt) bool {
	switch s.Kind {
	case ast.SkLabel, ast.SkCase:
		return true
	case ast.SkWhile, ast.SkDoWhile, ast.SkFor:
		return true
	}
	return false
}

func (w *Walker) walkIf(s *ast.Stmt) ast.Reach {
	thenReach := w.Walk(s.Then)
	var elseReach ast.Reach
	if s.Else != nil {
		elseReach = w.Walk(s.Else)
	}

	switch {
	case s.Cond.IsConst:
		if s.Cond.IntVal != 0 {
			s.Reach = thenReach
		} else if s.Else != nil {
			s.Reach = elseReach
		} else {
			s.Reach = 0
		}
	case s.Else == nil:
		s.Reach = 0
	default:
		s.Reach = thenReach & elseReach
	}
	return s.Reach
}

// whileHasReachableBreak reports whether a break targeting s is present
// anywhere beneath it, other than inside a nested loop/switch (those
// bind their own break).
func whileHasReachableBreak(s *ast.Stmt) bool {
	var found bool
	var walk func(n *ast.Stmt)
	walk = func(n *ast.Stmt) {
		if n == nil || found {
			return
		}
		switch n.Kind {
		case ast.SkBreak:
			if n.Parent == s {
				found = true
			}
			return
		case ast.SkWhile, ast.SkDoWhile, ast.SkFor, ast.SkSwitch:
			if n != s {
				return // nested construct claims its own breaks
			}
		}
		walk(n.Then)
		walk(n.Else)
		walk(n.Body)
		walk(n.LoopBody)
		for _, c := range n.List {
			walk(c)
		}
		for _, c := range n.Cases {
			walk(c)
		}
		walk(n.Default)
	}
	walk(s)
	return found
}

// walkWhile implements spec.md §4.C: "`while`/`for` with a constant-true
// condition stops only if no `break` reaches out".
func (w *Walker) walkWhile(s *ast.Stmt) ast.Reach {
	w.Walk(s.LoopBody)
	if s.LoopCond.IsConst && s.LoopCond.IntVal != 0 && !whileHasReachableBreak(s) {
		s.Reach = ast.ReachStop | ast.ReachReturn
	} else {
		s.Reach = 0
	}
	return s.Reach
}

func (w *Walker) walkDoWhile(s *ast.Stmt) ast.Reach {
	w.Walk(s.LoopBody)
	if s.LoopCond.IsConst && s.LoopCond.IntVal != 0 && !whileHasReachableBreak(s) {
		s.Reach = ast.ReachStop | ast.ReachReturn
	} else {
		s.Reach = 0
	}
	return s.Reach
}

// walkFor additionally honors the "entry of a loop whose pre-expression
// has side effects" dead-code carve-out at the call site (walkBlock),
// and a `for` with no condition at all behaves like a constant-true
// while loop.
func (w *Walker) walkFor(s *ast.Stmt) ast.Reach {
	if s.Pre != nil {
		w.Walk(s.Pre)
	}
	w.Walk(s.LoopBody)

	condTrue := s.Cond == nil || (s.Cond.IsConst && s.Cond.IntVal != 0)
	if condTrue && !whileHasReachableBreak(s) {
		s.Reach = ast.ReachStop | ast.ReachReturn
	} else {
		s.Reach = 0
	}
	return s.Reach
}

// walkSwitch implements spec.md §4.C: "stops if a `default` is present
// and every case ends stopping". A case's own reach is the reach of the
// statement run from it up to (but not including) the next case/default
// marker, computed here rather than through the generic block walk
// since a bare SkCase marker carries no reach of its own.
func (w *Walker) walkSwitch(s *ast.Stmt) ast.Reach {
	if s.Body == nil {
		s.Reach = 0
		return 0
	}

	segmentStop := make(map[*ast.Stmt]bool)
	var curCase *ast.Stmt
	curStop := false
	for _, stmt := range s.Body.List {
		if stmt.Kind == ast.SkCase {
			if curCase != nil {
				segmentStop[curCase] = curStop
			}
			curCase = stmt
			curStop = false
			stmt.Reach = 0
			continue
		}
		reach := w.Walk(stmt)
		curStop = reach&ast.ReachStop != 0
	}
	if curCase != nil {
		segmentStop[curCase] = curStop
	}

	if s.Default == nil {
		s.Reach = 0
		return 0
	}
	allStop := true
	for _, c := range s.Cases {
		if !segmentStop[c] {
			allStop = false
			break
		}
	}
	if !segmentStop[s.Default] {
		allStop = false
	}
	if allStop {
		s.Reach = ast.ReachStop | ast.ReachReturn
	} else {
		s.Reach = 0
	}
	return s.Reach
}

// CheckFuncEndReturn marks the function body's last statement as a
// function-end return (spec.md §4.C `check_funcend_return`) so the
// target lowerer can omit a redundant epilogue jump when that return
// already falls through to the epilogue's own position.
func CheckFuncEndReturn(fn *ast.Function) {
	if fn.Body == nil || len(fn.Body.List) == 0 {
		return
	}
	last := fn.Body.List[len(fn.Body.List)-1]
	if last.Kind == ast.SkReturn {
		last.FuncEnd = true
	}
}
