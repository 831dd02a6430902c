// Command minicc drives components A-H over an already-built
// translation unit, per spec.md §6. It never parses C source itself —
// the lexer and parser are out of scope (spec.md §1) — so its input
// files hold a JSON-encoded internal/ast.TranslationUnit, the stand-in
// for whatever real front end would otherwise hand the core a typed
// AST. Flag handling follows cmd/sentra/main.go: no third-party flag
// library, positional file arguments, hand-rolled option parsing.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"minicc/internal/ast"
	"minicc/internal/compile"
	"minicc/internal/dataemit"
	"minicc/internal/llvmout"
	"minicc/internal/target/rv64"
)

type options struct {
	inputs    []string
	output    string
	exports   map[string]bool
	stackSize int64
	verbose   int
	module    bool
}

func main() {
	opt, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "minicc: %v\n", err)
		os.Exit(1)
	}
	if len(opt.inputs) == 0 {
		usage()
		os.Exit(1)
	}

	out := os.Stdout
	if opt.output != "" && opt.output != "-" {
		f, err := os.Create(opt.output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "minicc: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	for _, path := range opt.inputs {
		if err := compileFile(path, opt, out); err != nil {
			fmt.Fprintf(os.Stderr, "minicc: %s: %v\n", path, err)
			os.Exit(1)
		}
	}
}

func compileFile(path string, opt *options, out *os.File) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var unit ast.TranslationUnit
	if err := json.Unmarshal(raw, &unit); err != nil {
		return fmt.Errorf("decoding translation unit: %w", err)
	}

	tgt := rv64.New()
	result, err := compile.Unit(&unit, tgt)
	if opt.verbose > 0 {
		for _, d := range result.Diags.Diagnostics() {
			fmt.Fprintln(os.Stderr, d.String())
		}
	}
	if err != nil {
		return err
	}

	if opt.module {
		m := llvmout.Build(&unit, llvmout.Options{StackSize: opt.stackSize, Exports: opt.exports})
		fmt.Fprint(out, m.String())
		return nil
	}

	for _, fn := range result.Functions {
		out.Write(fn.Text)
	}
	emitter := dataemit.New(out)
	return emitter.EmitGlobals(&unit)
}

func parseArgs(args []string) (*options, error) {
	opt := &options{exports: map[string]bool{}}
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "-o":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("-o requires an argument")
			}
			i++
			opt.output = args[i]
		case a == "-export":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("-export requires an argument")
			}
			i++
			for _, name := range strings.Split(args[i], ",") {
				if name != "" {
					opt.exports[name] = true
				}
			}
			opt.module = true
		case a == "-stack-size":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("-stack-size requires an argument")
			}
			i++
			n, err := strconv.ParseInt(args[i], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("-stack-size: %w", err)
			}
			opt.stackSize = n
		case a == "-v":
			opt.verbose = 1
		case a == "-vv":
			opt.verbose = 2
		case a == "-module":
			opt.module = true
		case strings.HasPrefix(a, "-"):
			return nil, fmt.Errorf("unknown option %q", a)
		default:
			opt.inputs = append(opt.inputs, a)
		}
	}
	return opt, nil
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: minicc [-o out] [-export sym,...] [-stack-size n] [-v|-vv] file.json...")
}
