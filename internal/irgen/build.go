package irgen

import (
	"fmt"

	"minicc/internal/ast"
	"minicc/internal/ctypes"
)

// Builder lowers one function at a time. A fresh Builder per function
// keeps its frame-slot/local bookkeeping from leaking across functions,
// matching spec.md §5's "process-wide state... saved/restored around
// nested traversals" for everything below the top-level Context.
type Builder struct {
	fn  *Function
	cur *Block

	// locals holds the lowering strategy for each function-local
	// VarInfo: register-resident scalars map to a VReg that is reused
	// (read) and reassigned (written) directly, matching a classic
	// non-SSA register-based IR; address-taken locals and aggregates
	// get a stack slot instead, addressed through an OpLoadSym against
	// the reserved "$frame" symbol (internal/target resolves this to a
	// frame-pointer-relative computation, never an actual linker symbol).
	localReg  map[*ast.VarInfo]VReg
	localSlot map[*ast.VarInfo]int
	nextSlot  int

	blockSeq int
	tables   []JumpTable

	// loopBreak/loopCont map a loop or switch ast.Stmt (the same node
	// identity SkBreak.Parent/SkContinue.Parent already point at,
	// resolved upstream of irgen) to the block its break/continue
	// should jump to.
	loopBreak map[*ast.Stmt]*Block
	loopCont  map[*ast.Stmt]*Block

	// labelBlocks maps each SkLabel statement to the block it starts,
	// pre-allocated in a scan over the whole function body so a goto
	// can jump forward to a label not yet walked.
	labelBlocks map[*ast.Stmt]*Block
}

// JumpTable is one switch's rodata jump table, handed to
// internal/target's Lower, which emits the table into rodata and
// lowers the `tjmp` that reads it once block labels are finalized.
type JumpTable struct {
	Sym     string
	Targets []*Block
}

// Build lowers fn's already-elaborated, already-inline-expanded body
// into basic-block IR, per spec.md §4.E.
func Build(fn *ast.Function) *Function {
	b := &Builder{
		fn:        newFunction(fn.Name),
		localReg:  make(map[*ast.VarInfo]VReg),
		localSlot: make(map[*ast.VarInfo]int),
		loopBreak:   make(map[*ast.Stmt]*Block),
		loopCont:    make(map[*ast.Stmt]*Block),
		labelBlocks: make(map[*ast.Stmt]*Block),
	}
	b.fn.Entry = b.fn.newBlock("entry")
	b.cur = b.fn.Entry

	b.allocLocals(fn)
	b.scanLabels(fn.Body)

	if ps := fn.ParamScope(); ps != nil {
		for _, p := range ps.Vars {
			vr := b.regFor(p)
			b.fn.ParamVRegs = append(b.fn.ParamVRegs, vr)
		}
	}

	b.lowerStmt(fn.Body)
	if !b.cur.terminated() {
		b.cur.emit(Instr{Op: OpReturn})
	}
	b.fn.NeedsFrame = b.nextSlot > 0 || b.fn.callsOut()
	b.fn.Tables = b.tables
	return b.fn
}

// callsOut reports whether any block in f contains a call, which on
// its own forces a frame (the return address must survive the call).
func (f *Function) callsOut() bool {
	for _, blk := range f.Blocks {
		for _, in := range blk.Instrs {
			if in.Op == OpCall {
				return true
			}
		}
	}
	return false
}

// allocLocals walks fn's scope tree up front deciding, for each local,
// whether it gets a VReg or a frame slot: ref-taken locals (their
// address escapes) and aggregate (struct/array) locals always need real
// memory, everything else is register-resident.
func (b *Builder) allocLocals(fn *ast.Function) {
	assign := func(v *ast.VarInfo) {
		if _, ok := b.localReg[v]; ok {
			return
		}
		if _, ok := b.localSlot[v]; ok {
			return
		}
		if v.HasStorage(ast.StorageRefTaken) || v.Type.Kind == ctypes.KindStruct || v.Type.Kind == ctypes.KindArray {
			b.localSlot[v] = b.nextSlot
			b.nextSlot++
			return
		}
		b.localReg[v] = b.fn.newVReg(SizeClassOf(v.Type), v.Type.Unsigned, ctypes.IsFlonum(v.Type))
	}
	if ps := fn.ParamScope(); ps != nil {
		for _, v := range ps.Vars {
			assign(v)
		}
	}
	var walk func(s *ast.Stmt)
	walk = func(s *ast.Stmt) {
		if s == nil {
			return
		}
		if s.Scope != nil {
			for _, v := range s.Scope.Vars {
				assign(v)
			}
		}
		for _, d := range s.Decls {
			assign(d.Var)
		}
		walk(s.Then)
		walk(s.Else)
		walk(s.Body)
		walk(s.LoopBody)
		walk(s.Pre)
		for _, c := range s.List {
			walk(c)
		}
		for _, c := range s.Cases {
			walk(c)
		}
		walk(s.Default)
	}
	walk(fn.Body)
}

// scanLabels pre-creates a block for every SkLabel reachable in fn's
// body, so a goto appearing lexically before its target can still
// thread a jump to it.
func (b *Builder) scanLabels(s *ast.Stmt) {
	if s == nil {
		return
	}
	if s.Kind == ast.SkLabel {
		b.labelBlocks[s] = b.fn.newBlock(b.label("label_" + s.Label))
	}
	b.scanLabels(s.Then)
	b.scanLabels(s.Else)
	b.scanLabels(s.Body)
	b.scanLabels(s.LoopBody)
	b.scanLabels(s.Pre)
	for _, c := range s.List {
		b.scanLabels(c)
	}
	for _, c := range s.Cases {
		b.scanLabels(c)
	}
	b.scanLabels(s.Default)
}

func (b *Builder) regFor(v *ast.VarInfo) VReg {
	if vr, ok := b.localReg[v]; ok {
		return vr
	}
	// Declared after allocLocals ran (e.g. a synthesized temporary from
	// internal/elaborate's bit-field/compound-assign desugaring): give
	// it a register on first use.
	vr := b.fn.newVReg(SizeClassOf(v.Type), v.Type.Unsigned, ctypes.IsFlonum(v.Type))
	b.localReg[v] = vr
	return vr
}

func (b *Builder) isGlobal(v *ast.VarInfo) bool {
	_, reg := b.localReg[v]
	_, slot := b.localSlot[v]
	return !reg && !slot
}

// lowerStmt lowers one statement, threading control flow between basic
// blocks. It does not read the Reach bits internal/reachability sets:
// inside a block, a statement that follows a terminated basic block is
// skipped, except a label, which starts its own block (a goto may still
// reach it) and resumes lowering from there.
func (b *Builder) lowerStmt(s *ast.Stmt) {
	if s == nil {
		return
	}
	switch s.Kind {
	case ast.SkExpr:
		if s.Expr != nil {
			b.lowerExpr(s.Expr)
		}

	case ast.SkBlock:
		for _, c := range s.List {
			if b.cur.terminated() && c.Kind != ast.SkLabel {
				continue
			}
			b.lowerStmt(c)
		}

	case ast.SkVarDecl:
		for _, d := range s.Decls {
			if d.Init == nil {
				continue
			}
			b.lowerAssignTo(d.Var, d.Init)
		}

	case ast.SkIf:
		b.lowerIf(s)

	case ast.SkWhile:
		b.lowerWhile(s)

	case ast.SkDoWhile:
		b.lowerDoWhile(s)

	case ast.SkFor:
		b.lowerFor(s)

	case ast.SkSwitch:
		b.lowerSwitch(s)

	case ast.SkReturn:
		if s.Expr != nil {
			v := b.lowerExpr(s.Expr)
			b.cur.emit(Instr{Op: OpReturn, A: v})
		} else {
			b.cur.emit(Instr{Op: OpReturn})
		}

	case ast.SkBreak:
		target := b.loopBreak[s.Parent]
		b.cur.emit(Instr{Op: OpJump, To: target})
		b.cur.addSucc(target)
		b.startBlock("after_break")

	case ast.SkContinue:
		target := b.loopCont[s.Parent]
		b.cur.emit(Instr{Op: OpJump, To: target})
		b.cur.addSucc(target)
		b.startBlock("after_continue")

	case ast.SkLabel:
		target := b.labelBlocks[s]
		if !b.cur.terminated() {
			b.cur.emit(Instr{Op: OpJump, To: target})
			b.cur.addSucc(target)
		}
		b.cur = target

	case ast.SkGoto:
		target := b.labelBlocks[s.LabelStmt]
		b.cur.emit(Instr{Op: OpJump, To: target})
		b.cur.addSucc(target)
		b.startBlock("after_goto")

	case ast.SkCase:
		// Pure marker within a switch body; internal/target assigns it a
		// real label from the block boundary lowerSwitch already created.

	case ast.SkAsm:
		// Inline assembly text is opaque to the IR; internal/target
		// emits s.AsmText verbatim at this point in the instruction
		// stream. Nothing to lower here.
	}
}

// lowerAssignTo lowers `v = init` for a declaration initializer,
// writing either to v's register or into its stack slot.
func (b *Builder) lowerAssignTo(v *ast.VarInfo, init *ast.Expr) {
	val := b.lowerExpr(init)
	if vr, ok := b.localReg[v]; ok {
		b.cur.emit(Instr{Op: OpMove, A: vr, B: val})
		return
	}
	addr := b.lowerVarAddr(v)
	b.cur.emit(Instr{Op: OpStore, A: addr, B: val, Size: SizeClassOf(v.Type), Unsigned: v.Type.Unsigned})
}

func (b *Builder) startBlock(label string) *Block {
	b.blockSeq++
	nb := b.fn.newBlock(fmt.Sprintf("%s.%d", label, b.blockSeq))
	if !b.cur.terminated() {
		b.cur.emit(Instr{Op: OpJump, To: nb})
		b.cur.addSucc(nb)
	}
	b.cur = nb
	return nb
}

func (b *Builder) lowerIf(s *ast.Stmt) {
	thenBlk := b.fn.newBlock(b.label("if_then"))
	var elseBlk, joinBlk *Block
	if s.Else != nil {
		elseBlk = b.fn.newBlock(b.label("if_else"))
	}
	joinBlk = b.fn.newBlock(b.label("if_end"))

	falseTarget := joinBlk
	if elseBlk != nil {
		falseTarget = elseBlk
	}
	b.lowerCond(s.Cond, thenBlk, falseTarget)

	b.cur = thenBlk
	b.lowerStmt(s.Then)
	if !b.cur.terminated() {
		b.cur.emit(Instr{Op: OpJump, To: joinBlk})
		b.cur.addSucc(joinBlk)
	}

	if elseBlk != nil {
		b.cur = elseBlk
		b.lowerStmt(s.Else)
		if !b.cur.terminated() {
			b.cur.emit(Instr{Op: OpJump, To: joinBlk})
			b.cur.addSucc(joinBlk)
		}
	}
	b.cur = joinBlk
}

func (b *Builder) lowerWhile(s *ast.Stmt) {
	headBlk := b.startBlock("while_head")
	bodyBlk := b.fn.newBlock(b.label("while_body"))
	endBlk := b.fn.newBlock(b.label("while_end"))
	b.loopBreak[s] = endBlk
	b.loopCont[s] = headBlk

	b.lowerCond(s.LoopCond, bodyBlk, endBlk)
	b.cur = bodyBlk
	b.lowerStmt(s.LoopBody)
	if !b.cur.terminated() {
		b.cur.emit(Instr{Op: OpJump, To: headBlk})
		b.cur.addSucc(headBlk)
	}
	b.cur = endBlk
}

func (b *Builder) lowerDoWhile(s *ast.Stmt) {
	bodyBlk := b.startBlock("dowhile_body")
	contBlk := b.fn.newBlock(b.label("dowhile_cont"))
	endBlk := b.fn.newBlock(b.label("dowhile_end"))
	b.loopBreak[s] = endBlk
	b.loopCont[s] = contBlk

	b.lowerStmt(s.LoopBody)
	if !b.cur.terminated() {
		b.cur.emit(Instr{Op: OpJump, To: contBlk})
		b.cur.addSucc(contBlk)
	}
	b.cur = contBlk
	b.lowerCond(s.LoopCond, bodyBlk, endBlk)
	b.cur = endBlk
}

func (b *Builder) lowerFor(s *ast.Stmt) {
	if s.Pre != nil {
		b.lowerStmt(s.Pre)
	}
	headBlk := b.startBlock("for_head")
	bodyBlk := b.fn.newBlock(b.label("for_body"))
	postBlk := b.fn.newBlock(b.label("for_post"))
	endBlk := b.fn.newBlock(b.label("for_end"))
	b.loopBreak[s] = endBlk
	b.loopCont[s] = postBlk

	if s.Cond != nil {
		b.lowerCond(s.Cond, bodyBlk, endBlk)
	} else {
		b.cur.emit(Instr{Op: OpJump, To: bodyBlk})
		b.cur.addSucc(bodyBlk)
	}

	b.cur = bodyBlk
	b.lowerStmt(s.LoopBody)
	if !b.cur.terminated() {
		b.cur.emit(Instr{Op: OpJump, To: postBlk})
		b.cur.addSucc(postBlk)
	}

	b.cur = postBlk
	if s.Post != nil {
		b.lowerExpr(s.Post)
	}
	b.cur.emit(Instr{Op: OpJump, To: headBlk})
	b.cur.addSucc(headBlk)

	b.cur = endBlk
}

// lowerSwitch implements spec.md §4.E "Lowered to a tjmp indirect jump
// through a table of basic-block addresses emitted into rodata;
// bounds/default handling is inserted by the builder." Per spec.md §8
// "Switch-table completeness", the table is sized exactly to the case
// count plus one default slot — it is never indexed directly by the
// runtime switch value, since case labels need not be 0-based or
// sequential. Instead the builder compares the value against each
// case's constant label in source order, materializing the matching
// case's table index (or the default slot's index, len(s.Cases), if
// nothing matches) before the tjmp ever consults the table, so the
// index handed to tjmp is always in bounds by construction.
func (b *Builder) lowerSwitch(s *ast.Stmt) {
	val := b.lowerExpr(s.Value)
	endBlk := b.fn.newBlock(b.label("switch_end"))
	b.loopBreak[s] = endBlk

	caseBlocks := make([]*Block, len(s.Cases))
	for i := range s.Cases {
		caseBlocks[i] = b.fn.newBlock(b.label(fmt.Sprintf("case%d", i)))
	}
	var defaultBlk *Block
	if s.Default != nil {
		defaultBlk = b.fn.newBlock(b.label("switch_default"))
	} else {
		defaultBlk = endBlk
	}

	sym := b.label("switchtbl")
	b.tables = append(b.tables, JumpTable{Sym: sym, Targets: append(append([]*Block{}, caseBlocks...), defaultBlk)})

	dispatch := b.fn.newBlock(b.label("switch_dispatch"))
	idx := b.lowerCaseSelect(s, val, dispatch)

	dispatch.emit(Instr{Op: OpTjmp, A: idx, Sym: sym})
	for _, cb := range caseBlocks {
		dispatch.addSucc(cb)
	}
	dispatch.addSucc(defaultBlk)
	b.cur = dispatch

	// Case/default bodies share the flat statement list s.Body.List;
	// walk it once, switching the current block at each case/default
	// marker so fallthrough naturally becomes an unconditional jump
	// between consecutive case blocks.
	blockFor := make(map[*ast.Stmt]*Block)
	for i, c := range s.Cases {
		blockFor[c] = caseBlocks[i]
	}
	if s.Default != nil {
		blockFor[s.Default] = defaultBlk
	}

	if s.Body != nil {
		for _, stmt := range s.Body.List {
			if blk, ok := blockFor[stmt]; ok {
				if !b.cur.terminated() {
					b.cur.emit(Instr{Op: OpJump, To: blk})
					b.cur.addSucc(blk)
				}
				b.cur = blk
				continue
			}
			b.lowerStmt(stmt)
		}
	}
	if !b.cur.terminated() {
		b.cur.emit(Instr{Op: OpJump, To: endBlk})
		b.cur.addSucc(endBlk)
	}
	b.cur = endBlk
}

// lowerCaseSelect builds the comparison chain that picks dispatch's tjmp
// index: idx starts at the default slot (len(s.Cases)), and each case in
// source order overwrites it with its own position if val equals that
// case's constant label. Control reaches dispatch exactly once, with idx
// holding the matching case's index or the default slot if none matched.
func (b *Builder) lowerCaseSelect(s *ast.Stmt, val VReg, dispatch *Block) VReg {
	idx := b.fn.newVReg(Size8, true, false)
	b.cur.emit(Instr{Op: OpLoadK, A: idx, Imm: int64(len(s.Cases)), Size: Size8, Unsigned: true})

	for i, c := range s.Cases {
		caseConst := b.loadConst(c.CaseVal.IntVal, SizeClassOf(s.Value.Type), s.Value.Type.Unsigned, false)
		eq := b.fn.newVReg(Size4, false, false)
		b.cur.emit(Instr{Op: OpEq, A: eq, B: val, C: caseConst})

		matchBlk := b.fn.newBlock(b.label(fmt.Sprintf("case%d_match", i)))
		nextBlk := b.fn.newBlock(b.label(fmt.Sprintf("case%d_test", i)))
		b.cur.emit(Instr{Op: OpBranch, A: eq, To: matchBlk, Else: nextBlk})
		b.cur.addSucc(matchBlk)
		b.cur.addSucc(nextBlk)

		matchBlk.emit(Instr{Op: OpLoadK, A: idx, Imm: int64(i), Size: Size8, Unsigned: true})
		matchBlk.emit(Instr{Op: OpJump, To: dispatch})
		matchBlk.addSucc(dispatch)

		b.cur = nextBlk
	}
	b.cur.emit(Instr{Op: OpJump, To: dispatch})
	b.cur.addSucc(dispatch)
	return idx
}

func (b *Builder) label(prefix string) string {
	b.blockSeq++
	return fmt.Sprintf("%s.%d", prefix, b.blockSeq)
}

// Tables returns the jump tables collected while lowering, for
// internal/target's Lower to materialize into rodata.
func (b *Builder) Tables() []JumpTable { return b.tables }
