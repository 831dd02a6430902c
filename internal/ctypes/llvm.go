package ctypes

import (
	"github.com/llir/llvm/ir/types"
)

// ToLLVM bridges a ctypes.Type to the github.com/llir/llvm type system so
// Component H (internal/llvmout) never has to re-derive struct layout,
// array length or pointee shape by hand — it reads it straight off the
// llir type, per SPEC_FULL.md's domain-stack section.
func ToLLVM(t *Type) types.Type {
	switch t.Kind {
	case KindVoid:
		return types.Void
	case KindFixnum:
		return types.NewInt(uint64(FixnumSize(t.FixKind) * 8))
	case KindFlonum:
		switch t.FloKind {
		case Float:
			return types.NewFloat(types.FloatKindFloat)
		case LongDouble:
			return types.NewFloat(types.FloatKindX86_FP80)
		default:
			return types.NewFloat(types.FloatKindDouble)
		}
	case KindPointer:
		elem := t.Elem
		if elem == nil || elem.Kind == KindVoid {
			// LLVM has no void*; model it the conventional way as i8*.
			return types.NewPointer(types.I8)
		}
		return types.NewPointer(ToLLVM(elem))
	case KindArray:
		n := t.Len
		if n < 0 {
			n = 0
		}
		return types.NewArray(uint64(n), ToLLVM(t.Elem))
	case KindStruct:
		if t.Struct == nil || !t.Struct.Complete {
			return types.NewStruct() // opaque/incomplete: empty body
		}
		fields := make([]types.Type, 0, len(t.Struct.Members))
		if t.Struct.IsUnion {
			// LLVM has no union; model as a single byte-array of the
			// union's size, matching internal/dataemit's own
			// "emit the first initialized member, pad to full size"
			// treatment of unions (spec.md §4.H).
			return types.NewArray(uint64(t.Struct.Size), types.I8)
		}
		for _, m := range t.Struct.Members {
			fields = append(fields, ToLLVM(m.Type))
		}
		return types.NewStruct(fields...)
	case KindFunction:
		params := make([]types.Type, 0, len(t.Params))
		for _, p := range t.Params {
			params = append(params, ToLLVM(p.Type))
		}
		ft := types.NewFunc(ToLLVM(t.Ret), params...)
		ft.Variadic = t.VaArgs
		return ft
	}
	return types.Void
}
