package ast

import "minicc/internal/ctypes"

// TranslationUnit is the top-level result of elaborating one file:
// every file-scope variable and function declared in source order,
// plus the shared struct/union registry every Type in the unit was
// resolved against. Component G onward consumes this one function at
// a time; Component H (internal/dataemit) walks Globals directly.
type TranslationUnit struct {
	Globals   []*VarInfo
	Functions []*Function
	Structs   *ctypes.Registry
}
