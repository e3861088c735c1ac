package testharness

import (
	"strings"
	"testing"
)

func parseCases(t *testing.T, src string) []*Case {
	t.Helper()
	cases, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	return cases
}

func TestParseBasicCaseWithNoExpectations(t *testing.T) {
	cases := parseCases(t, `--8<-- basic-ok
local x = 1
--! ok
`)
	if len(cases) != 1 {
		t.Fatalf("expected 1 case, got %d", len(cases))
	}
	c := cases[0]
	if c.Name != "basic-ok" {
		t.Errorf("expected name %q, got %q", "basic-ok", c.Name)
	}
	if c.Verdict != VerdictOK {
		t.Errorf("expected VerdictOK, got %s", c.Verdict)
	}
	if len(c.Files) != 1 || c.Files[0].Path != "" {
		t.Fatalf("expected a single unnamed file, got %+v", c.Files)
	}
	if c.Files[0].Source != "local x = 1" {
		t.Errorf("unexpected source: %q", c.Files[0].Source)
	}
}

func TestParseCaseHeaderFeaturesAndExact(t *testing.T) {
	cases := parseCases(t, `--8<-- flagged -- feature:dead_code,always_truthy_warning exact
local x = 1
--! ok
`)
	c := cases[0]
	if !c.Exact {
		t.Errorf("expected Exact to be true")
	}
	if len(c.Features) != 2 || c.Features[0] != "dead_code" || c.Features[1] != "always_truthy_warning" {
		t.Errorf("expected features [dead_code always_truthy_warning], got %v", c.Features)
	}
}

func TestParseInlineMarkerAnchorsToItsOwnLine(t *testing.T) {
	cases := parseCases(t, `--8<-- bad-assign
local x = 1
x = "str" --@< type mismatch
--! error
`)
	c := cases[0]
	if c.Verdict != VerdictError {
		t.Errorf("expected VerdictError, got %s", c.Verdict)
	}
	if len(c.Expects) != 1 {
		t.Fatalf("expected 1 expectation, got %d", len(c.Expects))
	}
	exp := c.Expects[0]
	if exp.Line != 1 {
		t.Errorf("expected the inline marker to anchor to line 1, got %d", exp.Line)
	}
	if exp.Message != "type mismatch" {
		t.Errorf("expected message %q, got %q", "type mismatch", exp.Message)
	}
	// The marker text itself must not leak into the reconstructed source.
	if strings.Contains(c.Files[0].Source, "@<") {
		t.Errorf("expected the --@< marker to be stripped from the source, got %q", c.Files[0].Source)
	}
}

func TestParsePreviousLineMarkerAnchorsAbove(t *testing.T) {
	cases := parseCases(t, `--8<-- careted
local x = 1
--@^ previous line warning
--! ok
`)
	c := cases[0]
	if len(c.Expects) != 1 {
		t.Fatalf("expected 1 expectation, got %d", len(c.Expects))
	}
	if c.Expects[0].Line != 0 {
		t.Errorf("expected '--@^' to anchor to line 0, got %d", c.Expects[0].Line)
	}
	if c.Expects[0].Message != "previous line warning" {
		t.Errorf("unexpected message: %q", c.Expects[0].Message)
	}
}

func TestParseNextLineMarkerAnchorsBelow(t *testing.T) {
	cases := parseCases(t, `--8<-- veed
--@v next line warning
local x = 1
--! ok
`)
	c := cases[0]
	if len(c.Expects) != 1 {
		t.Fatalf("expected 1 expectation, got %d", len(c.Expects))
	}
	if c.Expects[0].Line != 0 {
		t.Errorf("expected '--@v' to anchor to the line that follows it (line 0), got %d", c.Expects[0].Line)
	}
}

func TestParseMultiFileSections(t *testing.T) {
	cases := parseCases(t, `--8<-- multi
local x = 1
--& mod.lua
return 1
--! ok
`)
	c := cases[0]
	if len(c.Files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(c.Files))
	}
	if c.Files[0].Path != "" || c.Files[0].Source != "local x = 1" {
		t.Errorf("unexpected first file: %+v", c.Files[0])
	}
	if c.Files[1].Path != "mod.lua" || c.Files[1].Source != "return 1" {
		t.Errorf("unexpected second file: %+v", c.Files[1])
	}
}

func TestParseMultipleCasesInOneFixture(t *testing.T) {
	cases := parseCases(t, `--8<-- first
local x = 1
--! ok

--8<-- second
local y = "a"
--! error
`)
	if len(cases) != 2 {
		t.Fatalf("expected 2 cases, got %d", len(cases))
	}
	if cases[0].Name != "first" || cases[1].Name != "second" {
		t.Errorf("unexpected case names: %q, %q", cases[0].Name, cases[1].Name)
	}
	if cases[1].Verdict != VerdictError {
		t.Errorf("expected second case's verdict to be error, got %s", cases[1].Verdict)
	}
}

func TestParseUnclosedCaseIsError(t *testing.T) {
	_, err := Parse(strings.NewReader("--8<-- unclosed\nlocal x = 1\n"))
	if err == nil {
		t.Fatalf("expected an error for a case missing its closing '--!' line")
	}
}

func TestParseMarkerOutsideCaseIsError(t *testing.T) {
	_, err := Parse(strings.NewReader("--@^ stray marker\n"))
	if err == nil {
		t.Fatalf("expected an error for an expectation marker outside any case")
	}
}
