package typesystem

import "fmt"

// Mode is a slot's mutability mode (spec.md §3).
type Mode int

const (
	Var       Mode = iota // standard mutable variable
	Const                 // immutable; container cannot be index-assigned either
	Currently             // holds Type now, but may be reassigned to any compatible type
	Just                  // literal-tightened; a later same-base-type literal widens instead of erroring
)

func (m Mode) String() string {
	switch m {
	case Var:
		return "var"
	case Const:
		return "const"
	case Currently:
		return "currently"
	case Just:
		return "just"
	default:
		return "?"
	}
}

// NilAccept is the nil-acceptance flag carried by every reference type
// (spec.md §3): `?` accepts nil, unadorned accepts nil for implicitly
// initialized locals, `!` never accepts nil and requires definite
// assignment before use.
type NilAccept int

const (
	NilDefault NilAccept = iota
	NilAccepts
	NilRejects
)

// Slot holds (ty, mode) plus the nil-acceptance and definite-assignment
// bookkeeping spec.md §3/§4.6 require for `!`-flagged locals.
type Slot struct {
	Type        Type
	Mode        Mode
	Nil         NilAccept
	Initialized bool // tracks definite-assignment for `!` locals
}

func NewSlot(t Type, mode Mode) *Slot {
	return &Slot{Type: t, Mode: mode, Nil: NilDefault, Initialized: true}
}

func (s *Slot) Apply(subst Subst) *Slot {
	if s == nil {
		return nil
	}
	return &Slot{Type: s.Type.Apply(subst), Mode: s.Mode, Nil: s.Nil, Initialized: s.Initialized}
}

func (s *Slot) String() string {
	if s.Mode == Var {
		return s.Type.String()
	}
	return fmt.Sprintf("%s %s", s.Mode, s.Type.String())
}

// EffectiveType returns the type as it should be read, wrapping in a
// nilable union when the slot's nil-acceptance flag says it may hold nil.
func (s *Slot) EffectiveType() Type {
	if s.Nil == NilAccepts {
		return NormalizeUnion([]Type{s.Type, Nil{}})
	}
	return s.Type
}

// WidenLiteral implements the "implicit literal" rule of spec.md §3: a
// Just-mode slot widens to its literal's base type the first time it's
// reassigned a *different* literal of that same base kind, rather than
// erroring as a normal Var-mode reassignment would.
func (s *Slot) WidenLiteral(newLit Type) (ok bool) {
	if s.Mode != Just {
		return false
	}
	base := baseOfLiteral(s.Type)
	if base == nil {
		return false
	}
	if !sameLiteralBase(s.Type, newLit) {
		return false
	}
	s.Type = base
	s.Mode = Var
	return true
}

func baseOfLiteral(t Type) Type {
	switch t.(type) {
	case IntLit:
		return Integer{}
	case StrLit:
		return String{}
	case BoolLit:
		return Bool{}
	default:
		return nil
	}
}

func sameLiteralBase(a, b Type) bool {
	switch a.(type) {
	case IntLit:
		_, ok := b.(IntLit)
		return ok
	case StrLit:
		_, ok := b.(StrLit)
		return ok
	case BoolLit:
		_, ok := b.(BoolLit)
		return ok
	}
	return false
}
