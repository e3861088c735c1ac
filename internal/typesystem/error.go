package typesystem

import "fmt"

// SubtypeError reports why T <: U failed. The checker wraps this into a
// diagnostics.DiagnosticError with spans; typesystem itself is
// span-agnostic (grounded on the teacher's typesystem.SymbolNotFoundError
// — a plain leaf error type with no span, since spans belong to the AST
// layer above it).
type SubtypeError struct {
	Sub, Super Type
	Reason     string
}

func (e *SubtypeError) Error() string {
	return fmt.Sprintf("%s is not a subtype of %s: %s", e.Sub, e.Super, e.Reason)
}

func errNotSubtype(sub, super Type, reason string) *SubtypeError {
	return &SubtypeError{Sub: sub, Super: super, Reason: reason}
}
