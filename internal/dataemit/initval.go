package dataemit

import (
	"fmt"
	"math"

	"minicc/internal/ast"
	"minicc/internal/ctypes"
)

// emitValue descends t/init the way spec.md §4.H prescribes: "arrays
// iterate and emit elements... structs emit member-by-member with
// alignment padding; unions emit the first initialized member and pad
// to the full size; bit-fields are coalesced within the backing
// integer using calc_bitfield_initial_value and emitted once per
// backing unit."
func (e *Emitter) emitValue(t *ctypes.Type, init *ast.Initializer) error {
	switch t.Kind {
	case ctypes.KindArray:
		return e.emitArray(t, init)
	case ctypes.KindStruct:
		if t.Struct.IsUnion {
			return e.emitUnion(t, init)
		}
		return e.emitStruct(t, init)
	default:
		return e.emitScalar(t, init)
	}
}

func (e *Emitter) emitArray(t *ctypes.Type, init *ast.Initializer) error {
	n := int(t.Len)
	if init != nil && init.Kind == ast.IkString {
		pad := n - len(init.Bytes)
		e.emitByteString(init.Bytes)
		if pad > 0 {
			e.fprintf("\t.zero %d\n", pad)
		}
		return nil
	}
	elems := childList(init)
	for i := 0; i < n; i++ {
		var child *ast.Initializer
		if i < len(elems) {
			child = elems[i]
		}
		if err := e.emitValue(t.Elem, child); err != nil {
			return err
		}
	}
	return nil
}

func (e *Emitter) emitByteString(b []byte) {
	e.fprintf("\t.byte ")
	for i, c := range b {
		if i > 0 {
			e.fprintf(", ")
		}
		e.fprintf("%d", c)
	}
	e.fprintf("\n")
}

func (e *Emitter) emitStruct(t *ctypes.Type, init *ast.Initializer) error {
	si := t.Struct
	elems := childList(init)
	pos := 0
	i := 0
	for i < len(si.Members) {
		m := &si.Members[i]
		if pos < m.Offset {
			e.fprintf("\t.zero %d\n", m.Offset-pos)
			pos = m.Offset
		}
		if m.Bits != nil {
			value, backingSize, consumed := calcBitfieldInitialValue(si.Members, i, elems)
			e.fprintf("\t%s %d\n", intDirective(backingSize), value)
			pos += backingSize
			i += consumed
			continue
		}
		var child *ast.Initializer
		if i < len(elems) {
			child = elems[i]
		}
		if err := e.emitValue(m.Type, child); err != nil {
			return err
		}
		pos += ctypes.TypeSize(m.Type)
		i++
	}
	if pos < si.Size {
		e.fprintf("\t.zero %d\n", si.Size-pos)
	}
	return nil
}

func (e *Emitter) emitUnion(t *ctypes.Type, init *ast.Initializer) error {
	si := t.Struct
	elems := childList(init)
	if len(si.Members) == 0 {
		e.fprintf("\t.zero %d\n", si.Size)
		return nil
	}
	m := si.Members[0]
	var child *ast.Initializer
	if len(elems) > 0 {
		child = elems[0]
	}
	if err := e.emitValue(m.Type, child); err != nil {
		return err
	}
	if rem := si.Size - ctypes.TypeSize(m.Type); rem > 0 {
		e.fprintf("\t.zero %d\n", rem)
	}
	return nil
}

// calcBitfieldInitialValue coalesces every consecutive bit-field
// member sharing one backing storage unit (spec.md §4.H) into a single
// integer, reading each member's constant-folded scalar value out of
// elems and packing it at its Bits.Position/Width.
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

func (e *Emitter) emitScalar(t *ctypes.Type, init *ast.Initializer) error {
	if t.Kind == ctypes.KindPointer {
		return e.emitPointerScalar(init)
	}
	if ctypes.IsFlonum(t) {
		v := 0.0
		if init != nil && init.Value != nil {
			v = init.Value.FltVal
		}
		e.fprintf("\t%s %s\n", floatDirective(t), formatFloat(v, t))
		return nil
	}
	v := int64(0)
	if init != nil && init.Value != nil {
		v = init.Value.IntVal
	}
	e.fprintf("\t%s %d\n", intDirective(ctypes.TypeSize(t)), v)
	return nil
}

// emitPointerScalar handles both a plain integer/null pointer constant
// and a relocation: a reference to another global (with a constant
// byte offset), emitted as the `label + offset` textual form spec.md
// §4.H's "Relocations" paragraph specifies.
func (e *Emitter) emitPointerScalar(init *ast.Initializer) error {
	if init == nil || init.Value == nil {
		e.fprintf("\t.dword 0\n")
		return nil
	}
	val := init.Value
	if val.IsConst && val.Kind == ast.EkLitInt {
		e.fprintf("\t.dword %d\n", val.IntVal)
		return nil
	}
	label, offset := relocationTarget(val)
	if label == "" {
		e.fprintf("\t.dword 0\n")
		return nil
	}
	if offset == 0 {
		e.fprintf("\t.dword %s\n", label)
	} else if offset > 0 {
		e.fprintf("\t.dword %s + %d\n", label, offset)
	} else {
		e.fprintf("\t.dword %s - %d\n", label, -offset)
	}
	return nil
}

// relocationTarget unwraps `&global`, `&global.member`, or
// `&global[const]` down to a symbol name and a constant byte offset.
func relocationTarget(e *ast.Expr) (label string, offset int64) {
	switch e.Kind {
	case ast.EkAddr:
		return relocationTarget(e.Sub)
	case ast.EkVar:
		if e.VarRef != nil {
			return e.VarRef.Name, 0
		}
	case ast.EkMember:
		base, off := relocationTarget(e.Target)
		si := e.Target.Type.Struct
		if e.Arrow {
			si = e.Target.Type.Elem.Struct
		}
		return base, off + int64(si.Members[e.MemberIdx].Offset)
	}
	return "", 0
}

func childList(init *ast.Initializer) []*ast.Initializer {
	if init == nil {
		return nil
	}
	return init.Elems
}

func intDirective(size int) string {
	switch size {
	case 1:
		return ".byte"
	case 2:
		return ".half"
	case 4:
		return ".word"
	default:
		return ".dword"
	}
}

func floatDirective(t *ctypes.Type) string {
	if ctypes.FlonumSize(t.FloKind) == 4 {
		return ".word"
	}
	return ".dword"
}

func formatFloat(v float64, t *ctypes.Type) string {
	if ctypes.FlonumSize(t.FloKind) == 4 {
		return fmt.Sprintf("%d", int64(math.Float32bits(float32(v))))
	}
	return fmt.Sprintf("%d", int64(math.Float64bits(v)))
}
