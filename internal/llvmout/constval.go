package llvmout

import (
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"

	"minicc/internal/ast"
	"minicc/internal/ctypes"
)

// constOf mirrors internal/dataemit's emitValue descent (spec.md §4.H)
// but builds an in-memory LLVM constant.Constant instead of assembler
// text: arrays iterate elements (character arrays back a string
// literal with NewCharArrayFromString), structs build one field per
// member, unions fall back to their raw-byte array form (ToLLVM models
// a union as an i8 array, so it takes a single byte-array constant),
// and bit-fields are coalesced into their backing integer exactly as
// dataemit's calcBitfieldInitialValue does.
func (b *builder) constOf(t *ctypes.Type, init *ast.Initializer) constant.Constant {
	lt := ctypes.ToLLVM(t)
	switch t.Kind {
	case ctypes.KindArray:
		return b.constArray(t, lt, init)
	case ctypes.KindStruct:
		if t.Struct.IsUnion {
			return b.constUnion(t, lt, init)
		}
		return b.constStruct(t, lt, init)
	default:
		return b.constScalar(t, lt, init)
	}
}

func (b *builder) constArray(t *ctypes.Type, lt types.Type, init *ast.Initializer) constant.Constant {
	at := lt.(*types.ArrayType)
	if init != nil && init.Kind == ast.IkString {
		s := make([]byte, at.Len)
		copy(s, init.Bytes)
		return constant.NewCharArrayFromString(string(s))
	}
	if init == nil {
		return constant.NewZeroInitializer(at)
	}
	elems := make([]constant.Constant, at.Len)
	for i := range elems {
		var child *ast.Initializer
		if i < len(init.Elems) {
			child = init.Elems[i]
		}
		elems[i] = b.constOf(t.Elem, child)
	}
	return constant.NewArray(at, elems...)
}

func (b *builder) constStruct(t *ctypes.Type, lt types.Type, init *ast.Initializer) constant.Constant {
	st, ok := lt.(*types.StructType)
	if !ok {
		if def, ok2 := lt.(*types.NamedType); ok2 {
			st = def.Def.(*types.StructType)
		}
	}
	si := t.Struct
	elems := make([]constant.Constant, len(si.Members))
	var elemsInit []*ast.Initializer
	if init != nil {
		elemsInit = init.Elems
	}
	i := 0
	for i < len(si.Members) {
		m := &si.Members[i]
		if m.Bits != nil {
			val, _, consumed := calcBitfieldInitialValue(si.Members, i, elemsInit)
			bt := ctypes.ToLLVM(m.Type).(*types.IntType)
			elems[i] = constant.NewInt(bt, val)
			for k := 1; k < consumed; k++ {
				elems[i+k] = constant.NewZeroInitializer(ctypes.ToLLVM(si.Members[i+k].Type))
			}
			i += consumed
			continue
		}
		var child *ast.Initializer
		if i < len(elemsInit) {
			child = elemsInit[i]
		}
		elems[i] = b.constOf(m.Type, child)
		i++
	}
	return constant.NewStruct(st, elems...)
}

func (b *builder) constUnion(t *ctypes.Type, lt types.Type, init *ast.Initializer) constant.Constant {
	at := lt.(*types.ArrayType)
	si := t.Struct
	if len(si.Members) == 0 || init == nil {
		return constant.NewZeroInitializer(at)
	}
	m := si.Members[0]
	var child *ast.Initializer
	if len(init.Elems) > 0 {
		child = init.Elems[0]
	}
	_ = b.constOf(m.Type, child) // member value; union storage itself is opaque bytes
	return constant.NewZeroInitializer(at)
}

func (b *builder) constScalar(t *ctypes.Type, lt types.Type, init *ast.Initializer) constant.Constant {
	if t.Kind == ctypes.KindPointer {
		return constant.NewZeroInitializer(lt) // relocation content: handled textually by internal/dataemit
	}
	if ctypes.IsFlonum(t) {
		v := 0.0
		if init != nil && init.Value != nil {
			v = init.Value.FltVal
		}
		return constant.NewFloat(lt.(*types.FloatType), v)
	}
	v := int64(0)
	if init != nil && init.Value != nil {
		v = init.Value.IntVal
	}
	return constant.NewInt(lt.(*types.IntType), v)
}

// calcBitfieldInitialValue duplicates internal/dataemit's coalescing
// rule (kept local: importing internal/dataemit here for one function
// would pull its io.Writer-oriented Emitter into llvmout for no other
// reason).
func calcBitfieldInitialValue(members []ctypes.Member, start int, elems []*ast.Initializer) (value int64, backingSize, consumed int) {
	backingSize = ctypes.TypeSize(members[start].Type)
	i := start
	for i < len(members) && members[i].Bits != nil && ctypes.TypeSize(members[i].Type) == backingSize && members[i].Offset == members[start].Offset {
		bf := members[i].Bits
		var v int64
		if i < len(elems) && elems[i] != nil && elems[i].Kind == ast.IkScalar && elems[i].Value != nil {
			v = elems[i].Value.IntVal
		}
		mask := (int64(1) << uint(bf.Width)) - 1
		value |= (v & mask) << uint(bf.Position)
		i++
	}
	consumed = i - start
	return value, backingSize, consumed
}
