package typesystem

import "fmt"

// Bound records one "X must be subtype of T" or "T must be subtype of X"
// assertion against a type variable, with enough context to report a
// two-span diagnostic when bounds turn out inconsistent (spec.md §4.2).
type Bound struct {
	Type   Type
	Origin interface{} // opaque span/context token set by the checker layer
}

// RowBound is the row-variable analogue: a set of committed fields plus
// whether the row is still open to new fields (spec.md §3/§4.2).
type RowBound struct {
	Fields map[string]*Slot
	Open   bool
}

// ConstraintEnv allocates type/row variables and tracks their bounds,
// grounded on the teacher's unify.go (Bind/OccursCheck) and
// inference_solver.go, generalized from "unify to one fixed type" to
// "accumulate subtype bounds, resolve when forced" per spec.md §4.2.
type ConstraintEnv struct {
	nextType int
	nextRow  int

	resolved    map[int]Type
	upperBounds map[int][]Bound
	lowerBounds map[int][]Bound

	rowResolved map[int]Type
	rowBounds   map[int]*RowBound
}

func NewConstraintEnv() *ConstraintEnv {
	return &ConstraintEnv{
		resolved:    map[int]Type{},
		upperBounds: map[int][]Bound{},
		lowerBounds: map[int][]Bound{},
		rowResolved: map[int]Type{},
		rowBounds:   map[int]*RowBound{},
	}
}

// Fresh allocates a new, unresolved TypeVar.
func (e *ConstraintEnv) Fresh() TypeVar {
	v := TypeVar{ID: e.nextType}
	e.nextType++
	return v
}

// FreshRow allocates a new, unresolved RowVar with an open field set.
func (e *ConstraintEnv) FreshRow() RowVar {
	v := RowVar{ID: e.nextRow}
	e.nextRow++
	e.rowBounds[v.ID] = &RowBound{Fields: map[string]*Slot{}, Open: true}
	return v
}

// Resolve follows a possibly-resolved TypeVar/RowVar chain to its current
// best-known type, leaving the variable itself if still unresolved.
func (e *ConstraintEnv) Resolve(t Type) Type {
	for {
		switch v := t.(type) {
		case TypeVar:
			if r, ok := e.resolved[v.ID]; ok {
				t = r
				continue
			}
			return v
		case RowVar:
			if r, ok := e.rowResolved[v.ID]; ok {
				t = r
				continue
			}
			return v
		default:
			return t
		}
	}
}

// AssertSubtype records "sub <: super" for constraint-solving purposes:
// if either side is an unresolved TypeVar, the bound is recorded instead
// of checked immediately; once a variable becomes concrete (via Bind),
// all of its recorded bounds are replayed through IsSubtype, surfacing
// any inconsistency at that point with both originating spans
// (spec.md §4.2).
func (e *ConstraintEnv) AssertSubtype(sub, super Type, origin interface{}) error {
	sub, super = e.Resolve(sub), e.Resolve(super)

	if v, ok := sub.(TypeVar); ok {
		if _, resolved := e.resolved[v.ID]; !resolved {
			e.upperBounds[v.ID] = append(e.upperBounds[v.ID], Bound{Type: super, Origin: origin})
			return nil
		}
	}
	if v, ok := super.(TypeVar); ok {
		if _, resolved := e.resolved[v.ID]; !resolved {
			e.lowerBounds[v.ID] = append(e.lowerBounds[v.ID], Bound{Type: sub, Origin: origin})
			return nil
		}
	}
	return IsSubtype(sub, super)
}

// OccursCheck reports whether v appears free in t, grounded on the
// teacher's unify.go OccursCheck — binding v to a type that contains v
// would build an infinite type (e.g. a record containing itself through
// an unresolved field).
func OccursCheck(v TypeVar, t Type) bool {
	for _, fv := range t.FreeTypeVariables() {
		if fv.ID == v.ID {
			return true
		}
	}
	return false
}

// Bind resolves a type variable to a concrete type, checking it against
// every previously recorded bound and returning the first violated bound's
// origin alongside the error (spec.md §4.2: "the offending assertion is
// reported with the two originating spans").
func (e *ConstraintEnv) Bind(v TypeVar, t Type) (conflictOrigin interface{}, err error) {
	if tv, ok := t.(TypeVar); ok && tv.ID == v.ID {
		return nil, nil
	}
	if OccursCheck(v, t) {
		return nil, fmt.Errorf("infinite type: %s occurs in %s", v, t)
	}
	if existing, ok := e.resolved[v.ID]; ok {
		if err := IsSubtype(t, existing); err != nil {
			if err2 := IsSubtype(existing, t); err2 != nil {
				return nil, fmt.Errorf("type variable %s already resolved to %s, incompatible with %s", v, existing, t)
			}
		}
	}
	e.resolved[v.ID] = t
	for _, b := range e.upperBounds[v.ID] {
		if err := IsSubtype(t, b.Type); err != nil {
			return b.Origin, err
		}
	}
	for _, b := range e.lowerBounds[v.ID] {
		if err := IsSubtype(b.Type, t); err != nil {
			return b.Origin, err
		}
	}
	return nil, nil
}

// IsResolved reports whether v has a concrete resolution.
func (e *ConstraintEnv) IsResolved(v TypeVar) bool {
	_, ok := e.resolved[v.ID]
	return ok
}

// ApplyAll produces a Subst covering every variable resolved so far, for
// the checker to flush into the types it's holding (spec.md §4.2
// "resolution is eager at the boundary of any operation requiring
// concrete structure").
func (e *ConstraintEnv) ApplyAll() Subst {
	s := NewSubst()
	for id, t := range e.resolved {
		s.Types[id] = t
	}
	for id, t := range e.rowResolved {
		s.Rows[id] = t
	}
	return s
}

// --- Row variables ---

// CommitField adds a field to a row variable's committed set, or checks
// it against an existing commitment. Returns an error if the row is
// closed and the field isn't already committed, or if a re-commitment's
// type is incompatible (spec.md §4.2 row-variable bookkeeping).
func (e *ConstraintEnv) CommitField(v RowVar, name string, slot *Slot) error {
	rb, ok := e.rowBounds[v.ID]
	if !ok {
		return fmt.Errorf("unknown row variable %s", v)
	}
	if existing, ok := rb.Fields[name]; ok {
		if err := IsSubtype(slot.Type, existing.Type); err != nil {
			if err2 := IsSubtype(existing.Type, slot.Type); err2 != nil {
				return fmt.Errorf("row field %q committed as %s, incompatible with %s", name, existing.Type, slot.Type)
			}
		}
		return nil
	}
	if !rb.Open {
		return fmt.Errorf("row is closed, cannot add field %q", name)
	}
	rb.Fields[name] = slot
	return nil
}

// CloseRow marks a row variable closed: no further fields may be
// committed to it (spec.md §4.3 "assignment to a closed-row record
// requires exact field-set compatibility").
func (e *ConstraintEnv) CloseRow(v RowVar) {
	if rb, ok := e.rowBounds[v.ID]; ok {
		rb.Open = false
	}
}

// MergeRows merges two open row variables' committed fields, or checks
// that every field of the open row is present, with a compatible type,
// in the closed one (spec.md §4.2).
func (e *ConstraintEnv) MergeRows(a, b RowVar) error {
	ra, oka := e.rowBounds[a.ID]
	rb, okb := e.rowBounds[b.ID]
	if !oka || !okb {
		return fmt.Errorf("unknown row variable in merge")
	}
	if ra.Open && rb.Open {
		for k, s := range rb.Fields {
			if err := e.CommitField(a, k, s); err != nil {
				return err
			}
		}
		return nil
	}
	closed, open := ra, rb
	if !ra.Open {
		closed, open = ra, rb
	} else {
		closed, open = rb, ra
	}
	for k, s := range open.Fields {
		cs, ok := closed.Fields[k]
		if !ok {
			return fmt.Errorf("closed row is missing field %q required by open row", k)
		}
		if err := IsSubtype(s.Type, cs.Type); err != nil {
			return err
		}
	}
	return nil
}

// RowFields returns the committed fields of a row variable for building
// a concrete record Table once the row is resolved/closed.
func (e *ConstraintEnv) RowFields(v RowVar) (map[string]*Slot, bool) {
	rb, ok := e.rowBounds[v.ID]
	if !ok {
		return nil, false
	}
	return rb.Fields, rb.Open
}
