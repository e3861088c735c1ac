package diagnostics

import (
	"strings"
	"testing"

	"github.com/evolbug/kailua/internal/token"
)

func TestNewSetsSeverityFromCode(t *testing.T) {
	d := New(PhaseChecker, ErrTypeMismatch, token.Span{Unit: "a.lua", Begin: 1, End: 2}, "integer", "string")
	if d.Severity != SeverityError {
		t.Errorf("expected K-A002 to be an error, got %s", d.Severity)
	}
	w := New(PhaseChecker, WarnUnusedLocal, token.Span{}, "x")
	if w.Severity != SeverityWarning {
		t.Errorf("expected K-W001 to be a warning, got %s", w.Severity)
	}
}

func TestErrorFormatsTemplateAndSpan(t *testing.T) {
	d := New(PhaseChecker, ErrUndefined, token.Span{Unit: "a.lua", Begin: 3, End: 4}, "foo")
	msg := d.Error()
	if !strings.Contains(msg, "K-A001") {
		t.Errorf("expected the error message to include the code K-A001, got %q", msg)
	}
	if !strings.Contains(msg, "undefined name 'foo'") {
		t.Errorf("expected the formatted template in the message, got %q", msg)
	}
	if !strings.Contains(msg, "a.lua:3-4") {
		t.Errorf("expected the span to be rendered in the message, got %q", msg)
	}
}

func TestErrorIncludesUnitPrefixWhenSet(t *testing.T) {
	d := New(PhaseChecker, ErrUndefined, token.Span{}, "foo")
	d.Unit = "mod.lua"
	if !strings.HasPrefix(d.Error(), "mod.lua: ") {
		t.Errorf("expected the message to be prefixed with the unit, got %q", d.Error())
	}
}

func TestErrorUnknownCodeFallsBack(t *testing.T) {
	d := &DiagnosticError{Code: ErrorCode("K-NOPE")}
	if !strings.Contains(d.Error(), "unknown error code") {
		t.Errorf("expected a fallback message for an unregistered code, got %q", d.Error())
	}
}

func TestWithCauseAppendsAndChains(t *testing.T) {
	d := New(PhaseChecker, ErrTypeMismatch, token.Span{}, "integer", "string")
	d.WithCause(token.Span{Unit: "a.lua", Begin: 0, End: 1}, "widened here")
	if len(d.Causes) != 1 {
		t.Fatalf("expected 1 cause, got %d", len(d.Causes))
	}
	if !strings.Contains(d.Error(), "caused by a.lua:0-1: widened here") {
		t.Errorf("expected the cause chain in the rendered message, got %q", d.Error())
	}
}

func TestInternalProducesK999(t *testing.T) {
	d := Internal(token.Span{}, "invariant broken")
	if d.Code != ErrInternal {
		t.Errorf("expected code %s, got %s", ErrInternal, d.Code)
	}
	if d.Severity != SeverityError {
		t.Errorf("expected internal diagnostics to be errors, got %s", d.Severity)
	}
}

func TestSinkSeparatesErrorsAndWarnings(t *testing.T) {
	s := NewSink()
	s.Report(New(PhaseChecker, ErrTypeMismatch, token.Span{}, "integer", "string"))
	s.Report(New(PhaseChecker, WarnUnusedLocal, token.Span{}, "x"))

	if len(s.All()) != 2 {
		t.Fatalf("expected 2 total diagnostics, got %d", len(s.All()))
	}
	if len(s.Errors()) != 1 || s.Errors()[0].Code != ErrTypeMismatch {
		t.Errorf("expected exactly 1 error diagnostic, got %v", s.Errors())
	}
	if len(s.Warnings()) != 1 || s.Warnings()[0].Code != WarnUnusedLocal {
		t.Errorf("expected exactly 1 warning diagnostic, got %v", s.Warnings())
	}
	if !s.HasErrors() {
		t.Errorf("expected HasErrors to be true")
	}
}

func TestSinkResetClearsDiagnostics(t *testing.T) {
	s := NewSink()
	s.Report(New(PhaseChecker, WarnUnusedLocal, token.Span{}, "x"))
	s.Reset()
	if len(s.All()) != 0 {
		t.Errorf("expected Reset to clear all diagnostics, got %d remaining", len(s.All()))
	}
	if s.HasErrors() {
		t.Errorf("expected HasErrors to be false after Reset")
	}
}
