package ast

import "minicc/internal/ctypes"

// Scope is a node in the lexical scope tree (spec.md §3): a parent link,
// an ordered variable list, and the enum/struct/typedef tables attached
// at that nesting level. The global scope is the root; inner scopes are
// pushed by internal/cctx when entering a block.
type Scope struct {
	Parent *Scope
	Vars   []*VarInfo

	Enums    map[string]int64
	Typedefs map[string]*ctypes.Type

	// IsFuncTop marks scopes[0] of a Function: the scope holding its
	// parameters, per spec.md §3 "params live in scopes[0]".
	IsFuncTop bool
}

// NewScope creates a child scope of parent (nil for the global scope).
func NewScope(parent *Scope) *Scope {
	return &Scope{Parent: parent}
}

// Declare adds v to s and returns it, for chaining at declaration sites.
func (s *Scope) Declare(v *VarInfo) *VarInfo {
	s.Vars = append(s.Vars, v)
	return v
}

// Find looks up name in s, then each ancestor scope in turn — ordinary
// lexical scoping.
func (s *Scope) Find(name string) *VarInfo {
	for sc := s; sc != nil; sc = sc.Parent {
		for _, v := range sc.Vars {
			if v.Name == name {
				return v
			}
		}
	}
	return nil
}

// FindLocal looks up name only within s itself (used for redeclaration
// checks, which must not see shadowed outer bindings).
func (s *Scope) FindLocal(name string) *VarInfo {
	for _, v := range s.Vars {
		if v.Name == name {
			return v
		}
	}
	return nil
}
