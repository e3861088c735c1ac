package checker

import (
	"strings"
	"testing"

	"github.com/evolbug/kailua/internal/classenv"
	"github.com/evolbug/kailua/internal/config"
	"github.com/evolbug/kailua/internal/diagnostics"
	"github.com/evolbug/kailua/internal/lexer"
	"github.com/evolbug/kailua/internal/modulegraph"
	"github.com/evolbug/kailua/internal/parser"
	"github.com/evolbug/kailua/internal/typesystem"
)

// checkSource lexes, parses and checks input against a fresh session,
// returning every diagnostic reported (parser and checker alike), the
// same way the teacher's analyzeSource helper drives its own pipeline.
func checkSource(input string, resolve func(string) (string, bool)) []*diagnostics.DiagnosticError {
	toks := lexer.New("test", input).Tokenize()
	p := parser.New("test", toks)
	prog := p.ParseProgram()

	sink := diagnostics.NewSink()
	for _, e := range p.Errors {
		sink.Report(e)
	}
	graph := modulegraph.New(resolve)
	c := New("test", classenv.New(), typesystem.NewConstraintEnv(), sink, graph, config.Default())
	c.CheckProgram(prog)
	return sink.All()
}

func noResolve(string) (string, bool) { return "", false }

func expectCode(t *testing.T, input string, code diagnostics.ErrorCode) *diagnostics.DiagnosticError {
	t.Helper()
	diags := checkSource(input, noResolve)
	for _, d := range diags {
		if d.Code == code {
			return d
		}
	}
	var msgs []string
	for _, d := range diags {
		msgs = append(msgs, d.Error())
	}
	t.Fatalf("expected diagnostic %s, got:\n%s\ninput: %s", code, strings.Join(msgs, "\n"), input)
	return nil
}

func expectNone(t *testing.T, input string) {
	t.Helper()
	diags := checkSource(input, noResolve)
	if len(diags) != 0 {
		var msgs []string
		for _, d := range diags {
			msgs = append(msgs, d.Error())
		}
		t.Fatalf("expected no diagnostics, got:\n%s\ninput: %s", strings.Join(msgs, "\n"), input)
	}
}

func TestOpenLua51DeclaresGlobals(t *testing.T) {
	expectNone(t, "--# open lua51\nprint('hi')\n")
}

func TestOpenUnknownLibraryIsModuleError(t *testing.T) {
	expectCode(t, "--# open nosuchlib\n", diagnostics.ErrModuleError)
}

func TestOpenIsIdempotent(t *testing.T) {
	// Two opens of the same library must not panic or re-error; this
	// only regresses if Opened.MarkOpen stops gating re-declaration.
	expectNone(t, "--# open lua51\n--# open lua51\nprint(type(1))\n")
}

func TestOpenBacktickMultiWordName(t *testing.T) {
	// The library name is backtick-quoted and contains a space — the
	// parser must not truncate it to the first word.
	expectNone(t, "--# open `internal kailua_test`\nkailua_test__identity(1)\n")
}

func TestUnresolvedRequireIsWarningNotError(t *testing.T) {
	d := expectCode(t, `local m = require("does.not.exist")`, diagnostics.WarnUnresolvedImport)
	if d.Severity != diagnostics.SeverityWarning {
		t.Fatalf("expected WarnUnresolvedImport to be a warning, got severity %s", d.Severity)
	}
}

func TestRequireCycleIsModuleError(t *testing.T) {
	resolve := func(path string) (string, bool) {
		switch path {
		case "a":
			return `return require("b")`, true
		case "b":
			return `return require("a")`, true
		}
		return "", false
	}
	diags := checkSource(`return require("a")`, resolve)
	found := false
	for _, d := range diags {
		if d.Code == diagnostics.ErrModuleError && strings.Contains(d.Error(), "cycle") {
			found = true
		}
	}
	if !found {
		var msgs []string
		for _, d := range diags {
			msgs = append(msgs, d.Error())
		}
		t.Fatalf("expected a require-cycle ModuleError, got:\n%s", strings.Join(msgs, "\n"))
	}
}

func TestUnknownFunctionAttributeWarns(t *testing.T) {
	d := expectCode(t, "--v [made_up_attr] function()\nlocal function f() end\n", diagnostics.WarnUnknownAttribute)
	if !strings.Contains(d.Error(), "made_up_attr") {
		t.Fatalf("expected warning to name the attribute, got: %s", d.Error())
	}
}

func TestKnownFunctionAttributeDoesNotWarn(t *testing.T) {
	diags := checkSource("--v [assert] function(boolean) --> boolean\nlocal function f(x) end\n", noResolve)
	for _, d := range diags {
		if d.Code == diagnostics.WarnUnknownAttribute {
			t.Fatalf("did not expect WarnUnknownAttribute for a recognized attribute, got: %s", d.Error())
		}
	}
}

func TestConfiguredOpenAppliesToEveryFile(t *testing.T) {
	toks := lexer.New("test", "print('hi')\n").Tokenize()
	p := parser.New("test", toks)
	prog := p.ParseProgram()

	sink := diagnostics.NewSink()
	cfg := config.Default()
	cfg.Open = []string{"lua51"}
	c := New("test", classenv.New(), typesystem.NewConstraintEnv(), sink, modulegraph.New(noResolve), cfg)
	c.CheckProgram(prog)

	for _, d := range sink.All() {
		t.Fatalf("expected no diagnostics with lua51 configured open, got: %s", d.Error())
	}
}
