// Package typesystem implements the TypeLattice and ConstraintEnv of
// spec.md §3/§4.1/§4.2: the type variant family, structural subtyping,
// operator rules, and type/row variable bookkeeping.
//
// Unlike the teacher's Hindley-Milner type system (which needs Kind to
// classify higher-kinded type constructors such as `List`/`Option`), this
// system has a fixed, closed set of table shapes (Empty/Record/Array/Map/
// Tuple/All) rather than user-defined generic type constructors — so there
// is no kind lattice here (see DESIGN.md).
package typesystem

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Type is the interface every type variant implements.
type Type interface {
	String() string
	Apply(Subst) Type
	FreeTypeVariables() []TypeVar
}

// --- Atoms ---

// Dynamic is the escape hatch ("WHATEVER"): bidirectionally assignable,
// but does not suppress structural-violation errors (spec.md §3).
type Dynamic struct{}

func (Dynamic) String() string                  { return "WHATEVER" }
func (d Dynamic) Apply(Subst) Type               { return d }
func (Dynamic) FreeTypeVariables() []TypeVar     { return nil }

// Any is the top type for values; usable only after a downcast.
type Any struct{}

func (Any) String() string              { return "any" }
func (a Any) Apply(Subst) Type          { return a }
func (Any) FreeTypeVariables() []TypeVar { return nil }

type Nil struct{}

func (Nil) String() string              { return "nil" }
func (n Nil) Apply(Subst) Type          { return n }
func (Nil) FreeTypeVariables() []TypeVar { return nil }

type Bool struct{}

func (Bool) String() string              { return "boolean" }
func (b Bool) Apply(Subst) Type          { return b }
func (Bool) FreeTypeVariables() []TypeVar { return nil }

type BoolLit struct{ Value bool }

func (b BoolLit) String() string {
	if b.Value {
		return "true"
	}
	return "false"
}
func (b BoolLit) Apply(Subst) Type          { return b }
func (BoolLit) FreeTypeVariables() []TypeVar { return nil }

type Number struct{}

func (Number) String() string              { return "number" }
func (n Number) Apply(Subst) Type          { return n }
func (Number) FreeTypeVariables() []TypeVar { return nil }

type Integer struct{}

func (Integer) String() string              { return "integer" }
func (i Integer) Apply(Subst) Type          { return i }
func (Integer) FreeTypeVariables() []TypeVar { return nil }

type IntLit struct{ Value int64 }

func (i IntLit) String() string              { return strconv.FormatInt(i.Value, 10) }
func (i IntLit) Apply(Subst) Type           { return i }
func (IntLit) FreeTypeVariables() []TypeVar  { return nil }

type String struct{}

func (String) String() string              { return "string" }
func (s String) Apply(Subst) Type          { return s }
func (String) FreeTypeVariables() []TypeVar { return nil }

type StrLit struct{ Value string }

func (s StrLit) String() string             { return strconv.Quote(s.Value) }
func (s StrLit) Apply(Subst) Type           { return s }
func (StrLit) FreeTypeVariables() []TypeVar { return nil }

type Thread struct{}

func (Thread) String() string              { return "thread" }
func (t Thread) Apply(Subst) Type          { return t }
func (Thread) FreeTypeVariables() []TypeVar { return nil }

type UserData struct{}

func (UserData) String() string              { return "userdata" }
func (u UserData) Apply(Subst) Type          { return u }
func (UserData) FreeTypeVariables() []TypeVar { return nil }

// --- Type variables & row variables ---

// TypeVar is an unresolved type placeholder owned by exactly one
// ConstraintEnv (spec.md §3 invariants).
type TypeVar struct {
	ID int
}

func (v TypeVar) String() string { return "t" + strconv.Itoa(v.ID) }
func (v TypeVar) Apply(s Subst) Type {
	if t, ok := s.Types[v.ID]; ok {
		if t == v {
			return v
		}
		return t.Apply(s)
	}
	return v
}
func (v TypeVar) FreeTypeVariables() []TypeVar { return []TypeVar{v} }

// RowVar is an unresolved placeholder for "the rest of a record's fields"
// (spec.md §3). It only ever appears as a record Table's Row.
type RowVar struct {
	ID int
}

func (v RowVar) String() string { return "r" + strconv.Itoa(v.ID) }
func (v RowVar) Apply(s Subst) Type {
	if t, ok := s.Rows[v.ID]; ok {
		return t
	}
	return v
}
func (v RowVar) FreeTypeVariables() []TypeVar { return nil }

// --- Functions ---

// TySeq is an ordered list of types with an optional tail type for
// varargs (spec.md §3).
type TySeq struct {
	Types []Type
	Tail  Type // nil if the sequence has no vararg tail
}

func (s TySeq) Apply(subst Subst) TySeq {
	out := make([]Type, len(s.Types))
	for i, t := range s.Types {
		out[i] = t.Apply(subst)
	}
	var tail Type
	if s.Tail != nil {
		tail = s.Tail.Apply(subst)
	}
	return TySeq{Types: out, Tail: tail}
}

func (s TySeq) String() string {
	parts := make([]string, len(s.Types))
	for i, t := range s.Types {
		parts[i] = t.String()
	}
	if s.Tail != nil {
		parts = append(parts, "..."+s.Tail.String())
	}
	return strings.Join(parts, ", ")
}

// Function is a function signature type (spec.md §3).
type Function struct {
	Args    TySeq
	Returns TySeq
}

func (f Function) String() string {
	return fmt.Sprintf("function(%s) -> (%s)", f.Args.String(), f.Returns.String())
}
func (f Function) Apply(s Subst) Type {
	return Function{Args: f.Args.Apply(s), Returns: f.Returns.Apply(s)}
}
func (f Function) FreeTypeVariables() []TypeVar {
	var vars []TypeVar
	for _, t := range f.Args.Types {
		vars = append(vars, t.FreeTypeVariables()...)
	}
	if f.Args.Tail != nil {
		vars = append(vars, f.Args.Tail.FreeTypeVariables()...)
	}
	for _, t := range f.Returns.Types {
		vars = append(vars, t.FreeTypeVariables()...)
	}
	if f.Returns.Tail != nil {
		vars = append(vars, f.Returns.Tail.FreeTypeVariables()...)
	}
	return uniqueVars(vars)
}

// --- Tables ---

// ShapeKind tags which of the five table shapes (plus the opaque `All`
// sentinel) a Table is in (spec.md §3).
type ShapeKind int

const (
	ShapeEmpty ShapeKind = iota
	ShapeRecord
	ShapeArray
	ShapeMap
	ShapeTuple
	ShapeAll // the opaque abstract `table` type
)

type Mutability int

const (
	Mutable Mutability = iota
	Immutable
)

// Table is the unified representation of spec.md's Table(shape, mutability).
type Table struct {
	Mut  Mutability // the table's own const-qualification (spec.md §3 const propagation)
	Kind ShapeKind

	// ShapeRecord
	Fields map[string]*Slot
	Row    Type // RowVar or nil; only meaningful for ShapeRecord

	// ShapeArray
	Elem *Slot

	// ShapeMap
	Key   Type
	Value *Slot

	// ShapeTuple
	Elems []*Slot
}

func (t Table) String() string {
	switch t.Kind {
	case ShapeEmpty:
		return "{}"
	case ShapeAll:
		return "table"
	case ShapeRecord:
		keys := make([]string, 0, len(t.Fields))
		for k := range t.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s = %s", k, t.Fields[k].Type.String()))
		}
		suffix := ""
		if t.Row != nil {
			suffix = " | " + t.Row.String()
		}
		return fmt.Sprintf("{%s%s}", strings.Join(parts, ", "), suffix)
	case ShapeArray:
		return fmt.Sprintf("vector<%s>", t.Elem.Type.String())
	case ShapeMap:
		return fmt.Sprintf("map<%s, %s>", t.Key.String(), t.Value.Type.String())
	case ShapeTuple:
		parts := make([]string, len(t.Elems))
		for i, e := range t.Elems {
			parts[i] = e.Type.String()
		}
		return fmt.Sprintf("{%s}", strings.Join(parts, ", "))
	}
	return "table"
}

func (t Table) Apply(s Subst) Type {
	out := t
	switch t.Kind {
	case ShapeRecord:
		fields := make(map[string]*Slot, len(t.Fields))
		for k, slot := range t.Fields {
			fields[k] = slot.Apply(s)
		}
		out.Fields = fields
		if t.Row != nil {
			out.Row = t.Row.Apply(s)
		}
	case ShapeArray:
		out.Elem = t.Elem.Apply(s)
	case ShapeMap:
		out.Key = t.Key.Apply(s)
		out.Value = t.Value.Apply(s)
	case ShapeTuple:
		elems := make([]*Slot, len(t.Elems))
		for i, e := range t.Elems {
			elems[i] = e.Apply(s)
		}
		out.Elems = elems
	}
	return out
}

func (t Table) FreeTypeVariables() []TypeVar {
	var vars []TypeVar
	switch t.Kind {
	case ShapeRecord:
		keys := make([]string, 0, len(t.Fields))
		for k := range t.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			vars = append(vars, t.Fields[k].Type.FreeTypeVariables()...)
		}
	case ShapeArray:
		vars = append(vars, t.Elem.Type.FreeTypeVariables()...)
	case ShapeMap:
		vars = append(vars, t.Key.FreeTypeVariables()...)
		vars = append(vars, t.Value.Type.FreeTypeVariables()...)
	case ShapeTuple:
		for _, e := range t.Elems {
			vars = append(vars, e.Type.FreeTypeVariables()...)
		}
	}
	return uniqueVars(vars)
}

// --- Unions ---

// Union is a set of disjoint atoms (spec.md §3 invariants: no two
// function/table atoms, no true|false together).
type Union struct {
	Types []Type
}

func (u Union) String() string {
	parts := make([]string, len(u.Types))
	for i, t := range u.Types {
		parts[i] = t.String()
	}
	return strings.Join(parts, "|")
}

func (u Union) Apply(s Subst) Type {
	out := make([]Type, len(u.Types))
	for i, t := range u.Types {
		out[i] = t.Apply(s)
	}
	return NormalizeUnion(out)
}

func (u Union) FreeTypeVariables() []TypeVar {
	var vars []TypeVar
	for _, t := range u.Types {
		vars = append(vars, t.FreeTypeVariables()...)
	}
	return uniqueVars(vars)
}

// BuiltinAttr decorates an inner type with a recognized built-in attribute
// (spec.md §3/§6, e.g. "assert", "require", "string_meta").
type BuiltinAttr struct {
	Attr  string
	Inner Type
}

func (b BuiltinAttr) String() string { return fmt.Sprintf("[%s] %s", b.Attr, b.Inner.String()) }
func (b BuiltinAttr) Apply(s Subst) Type {
	return BuiltinAttr{Attr: b.Attr, Inner: b.Inner.Apply(s)}
}
func (b BuiltinAttr) FreeTypeVariables() []TypeVar { return b.Inner.FreeTypeVariables() }

// subtypeTransparentAttrs are attributes that don't change subtyping
// behavior — Builtin(a, T) <: T and T <: Builtin(a, T) both hold
// (spec.md §4.1).
var subtypeTransparentAttrs = map[string]bool{
	"internal subtype": true,
	"assert":           true,
	"assert_not":       true,
	"assert_type":      true,
	"no_check":         true,
}

// IsSubtypeTransparent reports whether attr permits Builtin(attr,T)<:T.
func IsSubtypeTransparent(attr string) bool {
	return subtypeTransparentAttrs[attr]
}

// knownBuiltinAttrs lists every `--v [attr]` name this checker assigns
// meaning to (spec.md §6/§9). A name outside this set is still accepted
// as an opaque BuiltinAttr wrapper — it just never changes checking
// behavior — so the checker reports it with a warning rather than
// rejecting the file outright.
var knownBuiltinAttrs = map[string]bool{
	"assert":               true,
	"assert_not":           true,
	"assert_type":          true,
	"require":              true,
	"no_check":             true,
	"package_path":         true,
	"package_cpath":        true,
	"string_meta":          true,
	"internal subtype":     true,
	"internal no_subtype":  true,
	"internal kailua_test": true,
}

// IsKnownBuiltinAttr reports whether attr is one this checker recognizes.
func IsKnownBuiltinAttr(attr string) bool {
	return knownBuiltinAttrs[attr]
}

func uniqueVars(vars []TypeVar) []TypeVar {
	seen := map[int]bool{}
	var out []TypeVar
	for _, v := range vars {
		if !seen[v.ID] {
			seen[v.ID] = true
			out = append(out, v)
		}
	}
	return out
}
