// Command kailua type-checks Lua 5.1 source files annotated with the
// comment syntax of spec.md §6, grounded on the teacher's cmd/funxy main
// (plain argument scanning ahead of any flag package, panic recovery
// that prints "this is a bug" and exits 1, diagnostics written straight
// to stdout/stderr) pared down to this program's one job: parse, check,
// print.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/evolbug/kailua/internal/checker"
	"github.com/evolbug/kailua/internal/classenv"
	"github.com/evolbug/kailua/internal/config"
	"github.com/evolbug/kailua/internal/diagnostics"
	"github.com/evolbug/kailua/internal/lexer"
	"github.com/evolbug/kailua/internal/modulegraph"
	"github.com/evolbug/kailua/internal/parser"
	"github.com/evolbug/kailua/internal/term"
	"github.com/evolbug/kailua/internal/typesystem"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "internal error: %v\n", r)
			fmt.Fprintln(os.Stderr, "this is a bug, please report it")
			os.Exit(1)
		}
	}()

	cfgPath := ".kailua.yml"
	var paths []string
	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-config", "--config":
			i++
			if i >= len(args) {
				fmt.Fprintln(os.Stderr, "-config requires a path")
				os.Exit(1)
			}
			cfgPath = args[i]
		default:
			paths = append(paths, args[i])
		}
	}
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "usage: kailua [-config path] <file.lua>...")
		os.Exit(1)
	}

	cfg := config.Default()
	if _, err := os.Stat(cfgPath); err == nil {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		cfg = loaded
	}

	roots := cfg.Roots
	if len(roots) == 0 {
		roots = []string{"."}
	}

	graph := modulegraph.New(fileResolver(roots))
	env := classenv.New()
	consts := typesystem.NewConstraintEnv()
	sink := diagnostics.NewSink()

	for _, path := range paths {
		src, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %s\n", path, err)
			os.Exit(1)
		}
		checkUnit(path, string(src), env, consts, sink, graph, cfg)
	}

	printDiagnostics(sink)
	if sink.HasErrors() {
		os.Exit(1)
	}
}

// checkUnit runs the lex -> parse -> check pipeline for one file,
// folding parser and checker diagnostics into the shared session sink
// (spec.md §5: one sink, one module graph per run).
func checkUnit(unit, src string, env *classenv.ClassEnv, consts *typesystem.ConstraintEnv, sink *diagnostics.Sink, graph *modulegraph.Graph, cfg *config.Config) {
	toks := lexer.New(unit, src).Tokenize()
	p := parser.New(unit, toks)
	prog := p.ParseProgram()
	for _, e := range p.Errors {
		sink.Report(e)
	}
	c := checker.New(unit, env, consts, sink, graph, cfg)
	c.CheckProgram(prog)
}

// fileResolver turns a dotted `require` path into source text by
// searching each root for "<path>.lua" or "<path>/init.lua", matching
// Lua's package.path convention (spec.md §4.7).
func fileResolver(roots []string) func(path string) (string, bool) {
	return func(path string) (string, bool) {
		rel := strings.ReplaceAll(path, ".", string(filepath.Separator))
		candidates := []string{rel + ".lua", filepath.Join(rel, "init.lua")}
		for _, root := range roots {
			for _, cand := range candidates {
				data, err := os.ReadFile(filepath.Join(root, cand))
				if err == nil {
					return string(data), true
				}
			}
		}
		return "", false
	}
}

// printDiagnostics renders every reported diagnostic to stdout, colored
// by severity when stdout is a terminal (internal/term, kept decoupled
// from internal/diagnostics per SPEC_FULL.md §4.13).
func printDiagnostics(sink *diagnostics.Sink) {
	level := term.DetectLevel(os.Stdout)
	for _, d := range sink.All() {
		sev, label := term.SeverityError, "error"
		if d.Severity == diagnostics.SeverityWarning {
			sev, label = term.SeverityWarning, "warning"
		}
		fmt.Println(term.Paint(level, sev, label) + ": " + d.Error())
	}
	fmt.Printf("%d error(s), %d warning(s)\n", len(sink.Errors()), len(sink.Warnings()))
}
