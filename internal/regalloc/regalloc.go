// Package regalloc implements Component F (spec.md §4.F): it assigns
// physical registers to the virtual registers internal/irgen produced,
// computing liveness with a worklist fixed-point iteration across the
// basic-block graph (the teacher's frame-sizing convention in
// internal/vmregister/vm.go — `numRegisters: fn.Arity + N` — is the
// closest analogue in the pack to a per-function register budget; this
// allocator generalizes that fixed-budget idea into a real two-pool
// assignment with spilling instead of just widening the budget).
package regalloc

import (
	"sort"

	"minicc/internal/irgen"
)

// Pool describes one physical-register bank (integer or floating).
type Pool struct {
	Total       int // total physical registers in the bank
	ReservedLow int // low indices reserved by the target (zero reg, etc.)

	// CalleeSaveSet names exactly which physical indices are callee-save
	// (the target's ABI table); everything else allocatable is
	// caller-save. Explicit rather than a derived range, since a real
	// register file's callee-save set is rarely contiguous.
	CalleeSaveSet map[int]bool
}

// Settings is the per-architecture table spec.md §4.F calls for.
type Settings struct {
	IntPool   Pool
	FloatPool Pool

	// DetectExtraOccupied marks implicit uses before allocation begins:
	// the frame pointer when fn needs a stack frame, and any
	// platform-reserved register the target always keeps live.
	DetectExtraOccupied func(fn *irgen.Function) []int

	// TempReg is the single dedicated integer scratch register spilled
	// operands are routed through (spec.md §4.F).
	TempReg int
	// ImmRange is the largest signed offset the target can address
	// directly. Allocate does not consult it, and no spill slot offset
	// is rebuilt through TempReg when it falls outside this range:
	// internal/target/rv64 folds every slot offset into the memory
	// operand as it is.
	ImmRange int64
}

// Assignment is the allocator's verdict for one VReg.
type Assignment struct {
	Physical int  // physical register index, meaningful when !Spilled
	Spilled  bool
	SlotOff  int64 // frame-pointer-relative byte offset, meaningful when Spilled
}

// Result is the full per-function allocation, consumed by
// internal/target to pick concrete operands for each Instr.
type Result struct {
	Assign     map[irgen.VReg]Assignment
	FrameSize  int64
	UsedCallee map[int]bool // callee-save physical registers actually assigned, per pool
	UsedCalleeFloat map[int]bool
}

// live is the per-block liveness state carried by the worklist.
type live struct {
	liveIn, liveOut map[irgen.VReg]bool
}

// Allocate runs liveness then assigns physical registers, per spec.md
// §4.F: "linear-scan-style liveness across the basic blocks using a
// worklist until fixed point; virtual registers are ranked by spill
// cost and assigned physical registers from two pools".
func Allocate(fn *irgen.Function, st Settings) *Result {
	liveSets := computeLiveness(fn)
	ranges := buildLiveRanges(fn, liveSets)

	r := &Result{
		Assign:          make(map[irgen.VReg]Assignment),
		UsedCallee:      make(map[int]bool),
		UsedCalleeFloat: make(map[int]bool),
	}

	occupied := map[int]bool{}
	if st.DetectExtraOccupied != nil {
		for _, idx := range st.DetectExtraOccupied(fn) {
			occupied[idx] = true
		}
	}

	ranked := rankBySpillCost(fn, ranges)

	intFree := freeList(st.IntPool)
	floatFree := freeList(st.FloatPool)
	for r2 := range occupied {
		removeInt(&intFree, r2)
	}

	var nextSlot int64
	active := map[irgen.VReg]int{} // vreg -> physical reg, for pools currently holding it
	activeFloat := map[irgen.VReg]int{}

	for _, vr := range ranked {
		info := fn.VRegs[vr]
		pool := &intFree
		usedMap := r.UsedCallee
		activeMap := active
		poolSettings := st.IntPool
		if info.IsFloat {
			pool = &floatFree
			usedMap = r.UsedCalleeFloat
			activeMap = activeFloat
			poolSettings = st.FloatPool
		}

		// Expire any register whose owning vreg's live range has ended
		// before this one's starts (the "until fixed point" worklist
		// result gives us a conservative overlap count below, but
		// expiring strictly-ended ranges first keeps small functions
		// from spilling needlessly).
		expireEnded(ranges, vr, activeMap, pool)

		if len(*pool) == 0 {
			off := nextSlot
			nextSlot += 8
			r.Assign[vr] = Assignment{Spilled: true, SlotOff: off}
			continue
		}
		phys := (*pool)[0]
		*pool = (*pool)[1:]
		activeMap[vr] = phys
		r.Assign[vr] = Assignment{Physical: phys}
		if poolSettings.CalleeSaveSet[phys] {
			usedMap[phys] = true
		}
	}

	r.FrameSize = alignFrame(nextSlot)
	return r
}

// expireEnded releases physical registers held by vregs whose live
// range ends strictly before vr's range begins, returning them to pool
// in increasing index order so allocation stays deterministic.
func expireEnded(ranges map[irgen.VReg]liveRange, vr irgen.VReg, active map[irgen.VReg]int, pool *[]int) {
	cur := ranges[vr]
	var freed []int
	for other, phys := range active {
		if ranges[other].end < cur.start {
			freed = append(freed, phys)
			delete(active, other)
		}
	}
	sort.Ints(freed)
	*pool = append(freed, *pool...)
}

func freeList(p Pool) []int {
	var l []int
	for i := p.ReservedLow; i < p.Total; i++ {
		l = append(l, i)
	}
	return l
}

func removeInt(l *[]int, v int) {
	out := (*l)[:0]
	for _, x := range *l {
		if x != v {
			out = append(out, x)
		}
	}
	*l = out
}

func alignFrame(n int64) int64 {
	return (n + 15) &^ 15
}
