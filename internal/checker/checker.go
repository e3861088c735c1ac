// Package checker implements the ExprChecker and StmtChecker components
// of spec.md §4.5/§4.6: the pass that walks a parsed ast.Program and
// assigns/validates types against the current ScopeContext, ClassEnv and
// ConstraintEnv, reporting diagnostics through a Sink. Grounded on the
// teacher's internal/analyzer (analyzer.go's top-level Analyzer struct
// bundling SymbolTable/TypeMap/errors, statements.go/expressions.go
// split by concern), generalized from funxy's declare-then-infer
// two-pass model to this system's single-pass, scope-as-you-go model
// (spec.md §4.6 doesn't call for header/body separation — everything
// resolves in source order, consistent with Lua having no forward
// declarations).
package checker

import (
	"github.com/evolbug/kailua/internal/ast"
	"github.com/evolbug/kailua/internal/classenv"
	"github.com/evolbug/kailua/internal/config"
	"github.com/evolbug/kailua/internal/diagnostics"
	"github.com/evolbug/kailua/internal/modulegraph"
	"github.com/evolbug/kailua/internal/scope"
	"github.com/evolbug/kailua/internal/typesystem"
)

// Checker walks one module's AST, grounded on the teacher's Analyzer —
// the per-file checking state, minus funxy's header/body pass flags
// which this single-pass design doesn't need.
type Checker struct {
	Unit string

	Scope  *scope.Context
	Env    *classenv.ClassEnv
	Consts *typesystem.ConstraintEnv
	Sink   *diagnostics.Sink
	Graph  *modulegraph.Graph
	Config *config.Config

	TypeMap map[ast.Node]typesystem.Type

	// loopDepth tracks nesting inside while/repeat/for bodies, so break
	// is rejected outside of a loop (spec.md §4.6).
	loopDepth int

	// returnStack holds one frame per enclosing function body; the top
	// frame accumulates the types of every `return` reachable in the
	// current function body, for building the enclosing FunctionLiteral's
	// inferred Function.Returns (spec.md §4.5).
	returnStack [][]typesystem.Type

	// moduleExport is set by the last top-level `return expr` statement,
	// becoming this module's require() result type (spec.md §4.7).
	moduleExport typesystem.Type

	// Attrs tracks which built-in nominal attributes are in scope via
	// `--# open NAME` (spec.md §4.3/§9).
	Attrs *classenv.BuiltinAttrRegistry

	// Opened tracks which pkg/embed library sets this file has loaded,
	// so a repeated `--# open lua51` is a no-op (spec.md §8).
	Opened *modulegraph.OpenedLibraries

	// varargStack holds the declared/inferred type of "..." for each
	// function literal currently being checked, innermost last.
	varargStack []typesystem.Type

	// narrowStack records the slot each active refinement replaced, so
	// applyRefinement/undoRefinement in expressions.go can restore exact
	// prior state once a narrowed branch (and/or/if) finishes checking.
	narrowStack []narrowFrame
}

// New creates a Checker sharing a session's collaborators — Env/Consts/
// Graph/Sink are session-scoped (spec.md §5: one module graph, one class
// environment per run), while Scope starts fresh per file.
func New(unit string, env *classenv.ClassEnv, consts *typesystem.ConstraintEnv, sink *diagnostics.Sink, graph *modulegraph.Graph, cfg *config.Config) *Checker {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Checker{
		Unit:    unit,
		Scope:   scope.NewContext(),
		Env:     env,
		Consts:  consts,
		Sink:    sink,
		Graph:   graph,
		Config:  cfg,
		TypeMap: map[ast.Node]typesystem.Type{},
		Attrs:   classenv.NewBuiltinAttrRegistry(),
		Opened:  modulegraph.NewOpenedLibraries(),
	}
}

func (c *Checker) report(d *diagnostics.DiagnosticError) {
	d.Unit = c.Unit
	c.Sink.Report(d)
}

// recordType caches an expression's resolved type, grounded on the
// teacher's ctx.TypeMap, used by narrowing's TypeOfFunc callback and by
// any later LSP-style hover query over the same AST.
func (c *Checker) recordType(n ast.Node, t typesystem.Type) typesystem.Type {
	c.TypeMap[n] = t
	return t
}

// CheckProgram checks every top-level statement in prog and returns this
// module's export type (spec.md §4.7: the value produced by the file's
// chunk, as the last `return` statement would produce it; Dynamic if the
// file never returns one).
func (c *Checker) CheckProgram(prog *ast.Program) typesystem.Type {
	c.applyConfiguredOpens()
	c.returnStack = append(c.returnStack, nil)
	for _, stmt := range prog.Statements {
		c.CheckStmt(stmt)
	}
	c.returnStack = c.returnStack[:len(c.returnStack)-1]
	if c.moduleExport != nil {
		return c.moduleExport
	}
	return typesystem.Dynamic{}
}
