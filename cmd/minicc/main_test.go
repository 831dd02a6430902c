package main

import "testing"

func TestParseArgsPositionalInputs(t *testing.T) {
	opt, err := parseArgs([]string{"a.json", "b.json"})
	if err != nil {
		t.Fatalf("parseArgs: %v", err)
	}
	if len(opt.inputs) != 2 || opt.inputs[0] != "a.json" || opt.inputs[1] != "b.json" {
		t.Fatalf("unexpected inputs: %+v", opt.inputs)
	}
	if opt.module {
		t.Fatalf("expected module=false with no -export/-module flag")
	}
}

func TestParseArgsExportImpliesModule(t *testing.T) {
	opt, err := parseArgs([]string{"-export", "foo,bar", "in.json"})
	if err != nil {
		t.Fatalf("parseArgs: %v", err)
	}
	if !opt.module {
		t.Fatalf("expected -export to imply module output")
	}
	if !opt.exports["foo"] || !opt.exports["bar"] {
		t.Fatalf("expected foo and bar in exports, got %+v", opt.exports)
	}
}

func TestParseArgsOutputAndStackSize(t *testing.T) {
	opt, err := parseArgs([]string{"-o", "out.s", "-stack-size", "65536", "in.json"})
	if err != nil {
		t.Fatalf("parseArgs: %v", err)
	}
	if opt.output != "out.s" {
		t.Fatalf("expected output out.s, got %q", opt.output)
	}
	if opt.stackSize != 65536 {
		t.Fatalf("expected stack size 65536, got %d", opt.stackSize)
	}
}

func TestParseArgsVerboseFlags(t *testing.T) {
	opt, err := parseArgs([]string{"-vv", "in.json"})
	if err != nil {
		t.Fatalf("parseArgs: %v", err)
	}
	if opt.verbose != 2 {
		t.Fatalf("expected verbose level 2 for -vv, got %d", opt.verbose)
	}
}

func TestParseArgsRejectsUnknownOption(t *testing.T) {
	if _, err := parseArgs([]string{"-bogus"}); err == nil {
		t.Fatal("expected an error for an unknown option")
	}
}

func TestParseArgsMissingArgumentErrors(t *testing.T) {
	if _, err := parseArgs([]string{"-o"}); err == nil {
		t.Fatal("expected an error when -o has no following argument")
	}
}
