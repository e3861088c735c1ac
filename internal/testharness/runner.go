package testharness

import (
	"fmt"
	"strings"

	"github.com/evolbug/kailua/internal/checker"
	"github.com/evolbug/kailua/internal/classenv"
	"github.com/evolbug/kailua/internal/config"
	"github.com/evolbug/kailua/internal/diagnostics"
	"github.com/evolbug/kailua/internal/lexer"
	"github.com/evolbug/kailua/internal/modulegraph"
	"github.com/evolbug/kailua/internal/parser"
	"github.com/evolbug/kailua/internal/typesystem"
)

// Result is one Case's outcome against a live checker run.
type Result struct {
	Case     *Case
	Diags    []*diagnostics.DiagnosticError
	Failures []string // human-readable mismatches; empty means the case passed
}

// Passed reports whether every expectation matched and the overall
// verdict (ok/error) agreed with whether any Error-severity diagnostic
// was emitted.
func (r *Result) Passed() bool {
	return len(r.Failures) == 0
}

// Run checks case c's first file (its other Files are registered as
// `require`-able modules) and compares the resulting diagnostics
// against c.Expects and c.Verdict, grounded on the teacher's
// expectAnalyzerError-shaped helpers — generalized from "assert one
// error code present" into "every fixture expectation must be matched
// by at least one diagnostic in the same file whose text contains the
// expected message". Expectation lines and byte spans are not compared,
// and c.Exact does not change the comparison.
func Run(c *Case, cfg *config.Config) *Result {
	res := &Result{Case: c}
	if len(c.Files) == 0 {
		res.Failures = append(res.Failures, "case has no files")
		return res
	}

	main := c.Files[0]
	byPath := map[string]string{}
	for _, f := range c.Files[1:] {
		byPath[f.Path] = f.Source
	}
	resolve := func(path string) (string, bool) {
		src, ok := byPath[path]
		return src, ok
	}

	graph := modulegraph.New(resolve)
	env := classenv.New()
	consts := typesystem.NewConstraintEnv()
	sink := diagnostics.NewSink()

	toks := lexer.New(main.Path, main.Source).Tokenize()
	p := parser.New(main.Path, toks)
	prog := p.ParseProgram()
	for _, perr := range p.Errors {
		sink.Report(perr)
	}

	chk := checker.New(main.Path, env, consts, sink, graph, cfg)
	chk.CheckProgram(prog)

	res.Diags = sink.All()
	res.Failures = compare(c, res.Diags)
	return res
}

func compare(c *Case, diags []*diagnostics.DiagnosticError) []string {
	var failures []string

	hasError := false
	for _, d := range diags {
		if d.Severity == diagnostics.SeverityError {
			hasError = true
			break
		}
	}
	wantError := c.Verdict == VerdictError
	if hasError != wantError {
		failures = append(failures, fmt.Sprintf("verdict mismatch: want %s, got hasError=%v", c.Verdict, hasError))
	}

	// Each expectation is matched by file and message substring only
	// (diagnostics.DiagnosticError carries a byte span, not a line
	// number, and exp.Line is not consulted here).
	for _, exp := range c.Expects {
		found := false
		for _, d := range diags {
			if d.Unit != fileUnit(c, exp.FilePath) {
				continue
			}
			if strings.Contains(d.Error(), exp.Message) {
				found = true
				break
			}
		}
		if !found {
			failures = append(failures, fmt.Sprintf("missing expected diagnostic at %s:%d: %q", exp.FilePath, exp.Line, exp.Message))
		}
	}

	return failures
}

func fileUnit(c *Case, path string) string {
	if path == "" {
		return c.Files[0].Path
	}
	return path
}
