package ast

import "minicc/internal/ctypes"

// VarInfo is a declared variable, parameter or enum member (spec.md §3).
type VarInfo struct {
	Name    string
	Type    *ctypes.Type
	Storage StorageFlag

	// EnumValue is meaningful when Storage&StorageEnumMember != 0.
	EnumValue int64

	// GlobalTwin points at the synthesized file-scope VarInfo backing a
	// function-local `static` (spec.md §3). Address-of propagates
	// ref-taken to this twin (spec.md §4.B).
	GlobalTwin *VarInfo

	// Func is set when this VarInfo names a function (global holding a
	// Function), spec.md §3.
	Func *Function

	// IRSlot is populated by internal/irgen: the virtual register or
	// frame-slot identity assigned to this variable. Declared here as an
	// opaque int so ast stays independent of the ir package (A is used
	// by E, not the reverse, per spec.md §2's one-directional pipeline).
	IRSlot int

	// Init is the file-scope initializer tree, nil for a variable with
	// no initializer (spec.md §4.H "uninitialized -> bss"). Only
	// meaningful for a global (or a static local's GlobalTwin).
	Init *Initializer
}

// InitKind tags the variant held by an Initializer.
type InitKind int

const (
	// IkScalar holds a single constant-folded Expr (spec.md §4.H leaf
	// case: every scalar, and every pointer/array decay, bottoms out
	// here once elaboration has constant-folded it).
	IkScalar InitKind = iota
	// IkAggregate holds one Initializer per array element or struct
	// member, in declaration order.
	IkAggregate
	// IkString holds the escaped bytes of a string literal used to
	// initialize a character array (spec.md §4.H "for character arrays
	// with a string literal, emit the escaped bytes and zero-pad").
	IkString
)

// Initializer is the tree spec.md §4.H's emitter descends to serialize
// a global's initial value: a scalar leaf, a string-literal leaf, or
// an ordered list of child initializers for an array/struct/union.
type Initializer struct {
	Kind  InitKind
	Value *Expr // IkScalar
	Bytes []byte // IkString, already unescaped; caller zero-pads to array length
	Elems []*Initializer // IkAggregate
}

// HasStorage reports whether all bits of flag are set on v.Storage.
func (v *VarInfo) HasStorage(flag StorageFlag) bool { return v.Storage&flag == flag }

// MarkRefTaken sets the ref-taken flag on v, and — if v backs a
// function-local static — propagates the same mark to its global twin,
// per spec.md §4.B address-of.
func (v *VarInfo) MarkRefTaken() {
	v.Storage |= StorageRefTaken
	if v.GlobalTwin != nil {
		v.GlobalTwin.Storage |= StorageRefTaken
	}
}
