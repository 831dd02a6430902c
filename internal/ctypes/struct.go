package ctypes

// BitField describes a bit-field member's position within its backing
// integer, per spec.md §4.B "Bit-field lowering": its position and
// width. The backing integer's kind is the owning Member's Type.
type BitField struct {
	Position int // bit offset from the LSB of the backing integer
	Width    int
}

// Member is one struct/union field.
type Member struct {
	Name   string
	Type   *Type
	Offset int // byte offset of the backing storage
	Bits   *BitField
}

// StructInfo is the resolved definition of a struct or union. It is
// looked up by name through Registry.EnsureStruct rather than chased via
// a raw pointer, since a struct can be referenced (as a forward
// declaration) before its body is parsed — spec.md Design Notes §9 calls
// this the "info == null is a first-class incomplete-type variant" rule.
type StructInfo struct {
	Name    string
	IsUnion bool
	Members []Member
	Size    int
	Align   int
	// Complete is false for a forward-declared struct whose body hasn't
	// been seen yet; ensure_struct returns such an info so elaboration of
	// pointer-to-incomplete-struct code can proceed.
	Complete bool
}

// FindMember looks up a member by name, returning nil if absent.
func (si *StructInfo) FindMember(name string) *Member {
	for i := range si.Members {
		if si.Members[i].Name == name {
			return &si.Members[i]
		}
	}
	return nil
}

// Registry interns struct definitions by name, replacing the "compare by
// pointer identity" pattern flagged in spec.md Design Notes §9 with an
// explicit name-keyed table: two references to "struct Foo" always
// resolve to the same *StructInfo.
type Registry struct {
	structs map[string]*StructInfo
}

// NewRegistry creates an empty type registry.
func NewRegistry() *Registry {
	return &Registry{structs: make(map[string]*StructInfo)}
}

// StructNames returns every name ever passed to EnsureStruct, in no
// particular order (callers that need determinism, like
// internal/llvmout's type-section emission, sort it themselves).
func (r *Registry) StructNames() []string {
	names := make([]string, 0, len(r.structs))
	for name := range r.structs {
		names = append(names, name)
	}
	return names
}

// LookupStruct returns the StructInfo already interned under name, or
// nil if none was ever ensured.
func (r *Registry) LookupStruct(name string) *StructInfo {
	return r.structs[name]
}

// EnsureStruct returns the StructInfo for name, creating an incomplete
// placeholder if this is the first reference (spec.md §3 `ensure_struct`).
func (r *Registry) EnsureStruct(name string, isUnion bool) *StructInfo {
	if si, ok := r.structs[name]; ok {
		return si
	}
	si := &StructInfo{Name: name, IsUnion: isUnion}
	r.structs[name] = si
	return si
}

// Define completes a previously-ensured struct with its member layout,
// computing offsets/size/align with C struct layout rules (natural
// alignment, bit-field packing into the backing integer, trailing
// padding to the struct's own alignment).
func (r *Registry) Define(si *StructInfo, members []Member) {
	if si.IsUnion {
		defineUnion(si, members)
		return
	}
	offset := 0
	align := 1
	var bitPos int
	var bitBacking *Type
	flush := func() {
		if bitBacking != nil {
			offset += TypeSize(bitBacking)
			bitBacking = nil
			bitPos = 0
		}
	}
	for i := range members {
		m := &members[i]
		if m.Bits != nil {
			if bitBacking == nil || bitPos+m.Bits.Width > TypeSize(m.Type)*8 {
				flush()
				bitBacking = m.Type
			}
			m.Bits.Position = bitPos
			m.Offset = offset
			bitPos += m.Bits.Width
			if a := AlignSize(m.Type); a > align {
				align = a
			}
			continue
		}
		flush()
		a := AlignSize(m.Type)
		if a > align {
			align = a
		}
		offset = alignUp(offset, a)
		m.Offset = offset
		offset += TypeSize(m.Type)
	}
	flush()
	si.Members = members
	si.Align = align
	si.Size = alignUp(offset, align)
	si.Complete = true
}

func defineUnion(si *StructInfo, members []Member) {
	size, align := 0, 1
	for i := range members {
		m := &members[i]
		m.Offset = 0
		if m.Bits != nil {
			m.Bits.Position = 0
		}
		if s := TypeSize(m.Type); s > size {
			size = s
		}
		if a := AlignSize(m.Type); a > align {
			align = a
		}
	}
	si.Members = members
	si.Align = align
	si.Size = alignUp(size, align)
	si.Complete = true
}

func alignUp(v, align int) int {
	if align <= 1 {
		return v
	}
	return (v + align - 1) / align * align
}
