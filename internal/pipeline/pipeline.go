// Package pipeline chains Lex -> Parse -> Check processing stages, each
// free to add diagnostics without aborting the run, grounded on the
// teacher's internal/pipeline (Pipeline/Processor/PipelineContext).
package pipeline

import (
	"github.com/evolbug/kailua/internal/ast"
	"github.com/evolbug/kailua/internal/classenv"
	"github.com/evolbug/kailua/internal/diagnostics"
	"github.com/evolbug/kailua/internal/token"
	"github.com/evolbug/kailua/internal/typesystem"
)

// Context holds all the data passed between pipeline stages for one
// source unit. Unlike the teacher's PipelineContext (one SymbolTable per
// file, module loading folded into a generic interface{} field), this
// carries the stronger-typed Session-scoped collaborators directly since
// this checker's module graph and class environment are shared session
// state, not per-file state (spec.md §4.7/§5).
type Context struct {
	Unit       string
	SourceCode string

	Tokens    []TokenLike
	rawTokens []token.Token
	AstRoot   *ast.Program

	TypeMap map[ast.Node]typesystem.Type
	Errors  []*diagnostics.DiagnosticError

	Env *classenv.ClassEnv
}

// TokenLike is the element type of the exported Context.Tokens slice;
// the concrete token.Token values the parse stage consumes are kept in
// the unexported rawTokens field. This matches the
// teacher's TokenStream abstraction in spirit though simplified to a
// plain slice since this checker doesn't need streaming/peek semantics
// beyond what the parser already does internally.
type TokenLike interface{}

func NewContext(unit, source string, env *classenv.ClassEnv) *Context {
	return &Context{
		Unit:       unit,
		SourceCode: source,
		TypeMap:    map[ast.Node]typesystem.Type{},
		Env:        env,
	}
}

// Processor is any pipeline stage.
type Processor interface {
	Process(ctx *Context) *Context
}

// Pipeline runs a fixed sequence of Processors, continuing past a stage
// that reported errors so later stages (e.g. an LSP host wanting both
// parse and check diagnostics) still get a chance to run, exactly as the
// teacher's Pipeline.Run does.
type Pipeline struct {
	stages []Processor
}

func New(stages ...Processor) *Pipeline {
	return &Pipeline{stages: stages}
}

func (p *Pipeline) Run(ctx *Context) *Context {
	for _, stage := range p.stages {
		ctx = stage.Process(ctx)
	}
	return ctx
}
