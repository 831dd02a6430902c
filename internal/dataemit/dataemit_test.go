package dataemit

import (
	"bytes"
	"strings"
	"testing"

	"minicc/internal/ast"
	"minicc/internal/ctypes"
)

func intType() *ctypes.Type { return ctypes.GetFixnumType(ctypes.Int, false, 0) }

// spec.md §4.H: uninitialized -> bss, no directive section emitted for
// anything else when that's the only global.
func TestEmitGlobalsUninitializedGoesToBSS(t *testing.T) {
	unit := &ast.TranslationUnit{Globals: []*ast.VarInfo{
		{Name: "counter", Type: intType()},
	}}
	var buf bytes.Buffer
	if err := New(&buf).EmitGlobals(unit); err != nil {
		t.Fatalf("EmitGlobals: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, ".bss") {
		t.Fatalf("expected .bss section, got:\n%s", out)
	}
	if !strings.Contains(out, "counter:\n\t.zero 4") {
		t.Fatalf("expected a 4-byte zero reservation for counter, got:\n%s", out)
	}
}

// spec.md §4.H: const -> rodata, even when initialized.
func TestEmitGlobalsConstGoesToRodata(t *testing.T) {
	ty := intType()
	ty.Qual |= ctypes.QualConst
	unit := &ast.TranslationUnit{Globals: []*ast.VarInfo{
		{Name: "limit", Type: ty, Init: &ast.Initializer{
			Kind:  ast.IkScalar,
			Value: ast.IntLit(ast.Token{}, 100, ty),
		}},
	}}
	var buf bytes.Buffer
	if err := New(&buf).EmitGlobals(unit); err != nil {
		t.Fatalf("EmitGlobals: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, ".section .rodata") {
		t.Fatalf("expected rodata section, got:\n%s", out)
	}
	if strings.Contains(out, "\n.data\n") {
		t.Fatalf("const global leaked into .data:\n%s", out)
	}
}

// spec.md §4.H: a declared-but-not-defined extern is skipped entirely.
func TestEmitGlobalsSkipsExternDeclaration(t *testing.T) {
	unit := &ast.TranslationUnit{Globals: []*ast.VarInfo{
		{Name: "from_elsewhere", Type: intType(), Storage: ast.StorageExtern},
	}}
	var buf bytes.Buffer
	if err := New(&buf).EmitGlobals(unit); err != nil {
		t.Fatalf("EmitGlobals: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output for an extern declaration, got:\n%s", buf.String())
	}
}

// spec.md §4.H: a character array initialized from a string literal
// emits the escaped bytes and zero-pads the remainder.
func TestEmitGlobalsStringArrayPadsRemainder(t *testing.T) {
	charTy := ctypes.GetFixnumType(ctypes.Char, false, 0)
	arrTy := ctypes.ArrayOf(charTy, 8)
	unit := &ast.TranslationUnit{Globals: []*ast.VarInfo{
		{Name: "greeting", Type: arrTy, Init: &ast.Initializer{
			Kind:  ast.IkString,
			Bytes: []byte("hi"),
		}},
	}}
	var buf bytes.Buffer
	if err := New(&buf).EmitGlobals(unit); err != nil {
		t.Fatalf("EmitGlobals: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, ".zero 6") {
		t.Fatalf("expected 6 bytes of zero padding after a 2-byte string in an 8-byte array, got:\n%s", out)
	}
}

// spec.md §4.H: struct members are emitted in declaration order with
// padding between them, per their declared offsets.
func TestEmitGlobalsStructPadsBetweenMembers(t *testing.T) {
	charTy := ctypes.GetFixnumType(ctypes.Char, false, 0)
	structTy := &ctypes.Type{
		Kind: ctypes.KindStruct,
		Struct: &ctypes.StructInfo{
			Name: "pair",
			Members: []ctypes.Member{
				{Name: "tag", Type: charTy, Offset: 0},
				{Name: "value", Type: intType(), Offset: 4},
			},
			Size: 8,
		},
	}
	unit := &ast.TranslationUnit{Globals: []*ast.VarInfo{
		{Name: "p", Type: structTy, Init: &ast.Initializer{
			Kind: ast.IkAggregate,
			Elems: []*ast.Initializer{
				{Kind: ast.IkScalar, Value: ast.IntLit(ast.Token{}, 1, charTy)},
				{Kind: ast.IkScalar, Value: ast.IntLit(ast.Token{}, 7, intType())},
			},
		}},
	}}
	var buf bytes.Buffer
	if err := New(&buf).EmitGlobals(unit); err != nil {
		t.Fatalf("EmitGlobals: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, ".zero 3") {
		t.Fatalf("expected 3 bytes of inter-member padding between a char and a 4-byte-aligned int, got:\n%s", out)
	}
}
