// Package diagnostics implements the structured report sink spec.md §4
// calls ReportSink, grounded on the teacher's internal/diagnostics
// (DiagnosticError/ErrorCode/Phase), generalized with the K-prefixed
// code table and Cause chains SPEC_FULL.md §7 defines — diagnostic
// formatting/localization stays out of scope (spec.md §1 Non-goals),
// this package only produces structured values, never rendered strings
// for end users.
package diagnostics

import (
	"fmt"

	"github.com/evolbug/kailua/internal/token"
)

// Phase identifies which stage of the pipeline raised a diagnostic.
type Phase string

const (
	PhaseLexer   Phase = "lexer"
	PhaseParser  Phase = "parser"
	PhaseChecker Phase = "checker"
	PhaseModule  Phase = "module"
)

// Severity distinguishes hard errors from advisory warnings (spec.md §7:
// "a type mismatch is always an error; an unused local is always a
// warning, never escalated").
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

type ErrorCode string

const (
	// Parser.
	ErrSyntaxRecovery ErrorCode = "K-P001"

	// Analyzer / checker.
	ErrUndefined      ErrorCode = "K-A001"
	ErrTypeMismatch   ErrorCode = "K-A002"
	ErrOperatorMisuse ErrorCode = "K-A003"
	ErrIndexViolation ErrorCode = "K-A004"
	ErrCallViolation  ErrorCode = "K-A005"
	ErrRedefinition   ErrorCode = "K-A006"
	ErrUninitialized  ErrorCode = "K-A007"
	ErrModuleError    ErrorCode = "K-A008"

	// Warnings.
	WarnUnusedLocal      ErrorCode = "K-W001"
	WarnUnreachableCode  ErrorCode = "K-W002"
	WarnAlwaysTruthy     ErrorCode = "K-W003"
	WarnShadowedLocal    ErrorCode = "K-W004"
	WarnDeadBranch       ErrorCode = "K-W005"
	WarnUnknownAttribute ErrorCode = "K-W006"
	WarnUnresolvedImport ErrorCode = "K-W007"

	ErrInternal ErrorCode = "K-A999"
)

var errorTemplates = map[ErrorCode]string{
	ErrSyntaxRecovery:   "syntax error, recovered at '%s': %s",
	ErrUndefined:        "undefined name '%s'",
	ErrTypeMismatch:     "type mismatch: expected %s, got %s",
	ErrOperatorMisuse:   "operator misuse: %s",
	ErrIndexViolation:   "cannot index %s: %s",
	ErrCallViolation:    "cannot call %s: %s",
	ErrRedefinition:     "redefinition of '%s'",
	ErrUninitialized:    "use of possibly-uninitialized local '%s'",
	ErrModuleError:      "module error: %s",
	WarnUnusedLocal:     "unused local '%s'",
	WarnUnreachableCode: "unreachable code",
	WarnAlwaysTruthy:    "condition is always truthy",
	WarnShadowedLocal:    "'%s' shadows an outer local",
	WarnDeadBranch:       "branch can never be taken",
	WarnUnknownAttribute: "unknown attribute '%s', accepted without checking",
	WarnUnresolvedImport: "unresolved require target '%s', treated as Dynamic",
	ErrInternal:          "internal error: %s",
}

var severities = map[ErrorCode]Severity{
	WarnUnusedLocal:      SeverityWarning,
	WarnUnreachableCode:  SeverityWarning,
	WarnAlwaysTruthy:     SeverityWarning,
	WarnShadowedLocal:    SeverityWarning,
	WarnDeadBranch:       SeverityWarning,
	WarnUnknownAttribute: SeverityWarning,
	WarnUnresolvedImport: SeverityWarning,
}

func severityOf(code ErrorCode) Severity {
	if s, ok := severities[code]; ok {
		return s
	}
	return SeverityError
}

// Cause is one link in a diagnostic's explanation chain — e.g. a type
// mismatch caused by an earlier assignment that widened a slot. A
// diagnostic's Causes keep the order in which they were added.
type Cause struct {
	Span    token.Span
	Message string
}

// DiagnosticError is the structured diagnostic value every checker
// operation reports through, grounded on the teacher's DiagnosticError
// but carrying a Span directly (rather than a raw token.Token) since
// many of this checker's errors span a range wider than one token (a
// whole expression, a whole record type), and a Causes chain.
type DiagnosticError struct {
	Code     ErrorCode
	Phase    Phase
	Severity Severity
	Span     token.Span
	Args     []interface{}
	Unit     string
	Causes   []Cause
}

func (e *DiagnosticError) Error() string {
	template, ok := errorTemplates[e.Code]
	if !ok {
		return fmt.Sprintf("unknown error code: %s", e.Code)
	}
	message := fmt.Sprintf(template, e.Args...)

	prefix := ""
	if e.Unit != "" {
		prefix = fmt.Sprintf("%s: ", e.Unit)
	}
	result := fmt.Sprintf("%s[%s] %s (%s)", prefix, e.Code, message, e.Span)
	for _, c := range e.Causes {
		result += fmt.Sprintf("\n  caused by %s: %s", c.Span, c.Message)
	}
	return result
}

// New builds a diagnostic at the given phase and span.
func New(phase Phase, code ErrorCode, span token.Span, args ...interface{}) *DiagnosticError {
	return &DiagnosticError{
		Code:     code,
		Phase:    phase,
		Severity: severityOf(code),
		Span:     span,
		Args:     args,
	}
}

// WithCause appends a cause link and returns the same diagnostic, for
// chaining at the call site (e.g. checker/expressions.go attaching
// "the slot was widened here" to a later mismatch).
func (e *DiagnosticError) WithCause(span token.Span, message string) *DiagnosticError {
	e.Causes = append(e.Causes, Cause{Span: span, Message: message})
	return e
}

// Internal builds a K-A999 diagnostic for a checker invariant violation
// that should never happen in well-formed input — the checker still
// returns a diagnostic rather than panicking, so one malformed file
// never crashes a whole batch run (SPEC_FULL.md §7).
func Internal(span token.Span, message string) *DiagnosticError {
	return New(PhaseChecker, ErrInternal, span, message)
}

// Sink collects diagnostics emitted while checking one or more modules.
// Grounded on the teacher's analyzer.errors []*DiagnosticError
// accumulator field, pulled out into its own reusable type here since
// spec.md §4's ReportSink is an explicit, independently-named component.
type Sink struct {
	diags []*DiagnosticError
}

func NewSink() *Sink { return &Sink{} }

func (s *Sink) Report(d *DiagnosticError) { s.diags = append(s.diags, d) }

// All returns every diagnostic reported so far, in report order.
func (s *Sink) All() []*DiagnosticError { return s.diags }

// Errors returns only SeverityError diagnostics.
func (s *Sink) Errors() []*DiagnosticError {
	var out []*DiagnosticError
	for _, d := range s.diags {
		if d.Severity == SeverityError {
			out = append(out, d)
		}
	}
	return out
}

// Warnings returns only SeverityWarning diagnostics.
func (s *Sink) Warnings() []*DiagnosticError {
	var out []*DiagnosticError
	for _, d := range s.diags {
		if d.Severity == SeverityWarning {
			out = append(out, d)
		}
	}
	return out
}

// HasErrors reports whether any SeverityError diagnostic was reported,
// used by the pipeline to decide a non-zero exit status.
func (s *Sink) HasErrors() bool {
	for _, d := range s.diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Reset clears the sink for reuse across incremental re-checks of the
// same module (internal/modcache invalidation path).
func (s *Sink) Reset() { s.diags = nil }
