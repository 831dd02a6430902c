// Package dataemit implements Component H (spec.md §4.H): choosing a
// section for each file-scope variable and serializing its initial
// value as assembler directives, grounded on the teacher's
// internal/bytecode.Chunk constant-pool idea (a flat, ordered table of
// values walked once at emission time) generalized from a bytecode
// constant pool into textual .data/.rodata/.bss directives.
package dataemit

import (
	"fmt"
	"io"

	"minicc/internal/ast"
	"minicc/internal/ctypes"
)

// Section is the assembler section a global's storage belongs in.
type Section int

const (
	SecBSS Section = iota
	SecData
	SecRodata
)

func (s Section) directive() string {
	switch s {
	case SecRodata:
		return ".section .rodata"
	case SecData:
		return ".data"
	default:
		return ".bss"
	}
}

// ClassifySection implements spec.md §4.H's choice rule: "const ->
// rodata; uninitialized -> bss; initialized -> data".
func ClassifySection(v *ast.VarInfo) Section {
	switch {
	case v.Type.Qual&ctypes.QualConst != 0:
		return SecRodata
	case v.Init == nil:
		return SecBSS
	default:
		return SecData
	}
}

// Emitter serializes a translation unit's globals to w.
type Emitter struct {
	w io.Writer
}

func New(w io.Writer) *Emitter { return &Emitter{w: w} }

// EmitGlobals walks unit.Globals in source order, grouped by section
// (spec.md §4.H lists `.text / .rodata / .data / .bss`; .text is
// internal/target's concern, so this only ever opens the latter
// three).
func (e *Emitter) EmitGlobals(unit *ast.TranslationUnit) error {
	var bss, data, rodata []*ast.VarInfo
	for _, v := range unit.Globals {
		if v.HasStorage(ast.StorageExtern) && v.Init == nil {
			continue // declared, not defined here
		}
		switch ClassifySection(v) {
		case SecBSS:
			bss = append(bss, v)
		case SecData:
			data = append(data, v)
		case SecRodata:
			rodata = append(rodata, v)
		}
	}

	if len(bss) > 0 {
		e.fprintf("%s\n", SecBSS.directive())
		for _, v := range bss {
			e.emitBSS(v)
		}
	}
	if len(data) > 0 {
		e.fprintf("%s\n", SecData.directive())
		for _, v := range data {
			if err := e.emitInitialized(v); err != nil {
				return err
			}
		}
	}
	if len(rodata) > 0 {
		e.fprintf("%s\n", SecRodata.directive())
		for _, v := range rodata {
			if err := e.emitInitialized(v); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Emitter) fprintf(format string, args ...interface{}) {
	fmt.Fprintf(e.w, format, args...)
}

func (e *Emitter) emitBSS(v *ast.VarInfo) {
	size := ctypes.TypeSize(v.Type)
	align := ctypes.AlignSize(v.Type)
	e.fprintf(".globl %s\n.align %d\n%s:\n\t.zero %d\n", v.Name, log2(align), v.Name, size)
}

func (e *Emitter) emitInitialized(v *ast.VarInfo) error {
	align := ctypes.AlignSize(v.Type)
	e.fprintf(".globl %s\n.align %d\n%s:\n", v.Name, log2(align), v.Name)
	return e.emitValue(v.Type, v.Init)
}

func log2(n int) int {
	shift := 0
	for n > 1 {
		n >>= 1
		shift++
	}
	return shift
}
