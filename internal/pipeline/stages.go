package pipeline

import (
	"github.com/evolbug/kailua/internal/checker"
	"github.com/evolbug/kailua/internal/config"
	"github.com/evolbug/kailua/internal/diagnostics"
	"github.com/evolbug/kailua/internal/lexer"
	"github.com/evolbug/kailua/internal/modulegraph"
	"github.com/evolbug/kailua/internal/parser"
	"github.com/evolbug/kailua/internal/typesystem"
)

// LexStage tokenizes ctx.SourceCode, grounded on the teacher's
// lexer-processor wiring pattern (a thin Processor around one lexer
// call) though this checker's lexer is simple enough to have no
// diagnostics of its own (spec.md: illegal characters produce ILLEGAL
// tokens the parser recovers from, rather than lexer-level errors).
type LexStage struct{}

func (LexStage) Process(ctx *Context) *Context {
	toks := lexer.New(ctx.Unit, ctx.SourceCode).Tokenize()
	generic := make([]TokenLike, len(toks))
	for i, t := range toks {
		generic[i] = t
	}
	ctx.Tokens = generic
	ctx.rawTokens = toks
	return ctx
}

// ParseStage runs the parser over the lexed token stream, grounded on
// the teacher's ParserProcessor (parser.New + ParseProgram, folding the
// parser's accumulated errors into the context).
type ParseStage struct{}

func (ParseStage) Process(ctx *Context) *Context {
	p := parser.New(ctx.Unit, ctx.rawTokens)
	ctx.AstRoot = p.ParseProgram()
	ctx.Errors = append(ctx.Errors, p.Errors...)
	return ctx
}

// CheckStage drives internal/checker over the parsed tree, grounded on
// the teacher's AnalyzerProcessor (wrapping one Analyzer per file,
// folding its errors into the shared context) but threading the
// session-scoped ConstraintEnv/Graph/Sink/Config in from the caller
// instead of constructing them fresh, since this checker's `require`
// graph and typedef table are shared across every file in one session
// (spec.md §4.7/§5).
type CheckStage struct {
	Consts *typesystem.ConstraintEnv
	Sink   *diagnostics.Sink
	Graph  *modulegraph.Graph
	Config *config.Config

	// Export receives the checked module's export type, for callers
	// (rpcservice, cmd/kailua) that need it without re-walking ctx.
	Export *typesystem.Type
}

func (s CheckStage) Process(ctx *Context) *Context {
	c := checker.New(ctx.Unit, ctx.Env, s.Consts, s.Sink, s.Graph, s.Config)
	export := c.CheckProgram(ctx.AstRoot)
	ctx.TypeMap = c.TypeMap
	if s.Export != nil {
		*s.Export = export
	}
	return ctx
}
