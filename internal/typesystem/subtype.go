package typesystem

import "sort"

// IsSubtype implements spec.md §4.1's structural subtyping relation T <: U.
// Unlike the teacher's Unify (symmetric unification that also produces a
// substitution), this is a one-directional boolean/error check: spec.md's
// subtyping is explicitly asymmetric (contravariant function args, width
// subtyping on open records), which a unification-style algorithm can't
// express directly. ConstraintEnv (constraintenv.go) is what still needs
// unification-like behavior for *unresolved* TypeVars, and calls back into
// IsSubtype once both sides are concrete enough to compare.
func IsSubtype(sub, super Type) error {
	return isSubtype(sub, super, nil)
}

type pair struct{ a, b Type }

func isSubtype(sub, super Type, seen []pair) error {
	for _, p := range seen {
		if sameType(p.a, sub) && sameType(p.b, super) {
			return nil // co-inductive: recursive structural types assumed compatible
		}
	}
	seen = append(seen, pair{sub, super})

	// Dynamic is bidirectionally compatible with everything.
	if _, ok := sub.(Dynamic); ok {
		return nil
	}
	if _, ok := super.(Dynamic); ok {
		return nil
	}

	// Builtin attribute unwrapping.
	if b, ok := sub.(BuiltinAttr); ok {
		if IsSubtypeTransparent(b.Attr) {
			return isSubtype(b.Inner, super, seen)
		}
		if bs, ok2 := super.(BuiltinAttr); ok2 && bs.Attr == b.Attr {
			return isSubtype(b.Inner, bs.Inner, seen)
		}
		return errNotSubtype(sub, super, "nominal builtin attribute "+b.Attr+" does not subtype transparently")
	}
	if b, ok := super.(BuiltinAttr); ok {
		if IsSubtypeTransparent(b.Attr) {
			return isSubtype(sub, b.Inner, seen)
		}
		return errNotSubtype(sub, super, "nominal builtin attribute "+b.Attr+" does not accept a plain supertype value")
	}

	// Nil <: T? ; T <: T?
	if _, ok := sub.(Nil); ok {
		if acceptsNil(super) {
			return nil
		}
	}

	// Union on the left: every member must be a subtype of super.
	if u, ok := sub.(Union); ok {
		for _, m := range u.Types {
			if err := isSubtype(m, super, seen); err != nil {
				return errNotSubtype(sub, super, "union member "+m.String()+" is not a subtype: "+err.Error())
			}
		}
		return nil
	}

	// Union on the right: sub must match at least one member.
	if u, ok := super.(Union); ok {
		for _, m := range u.Types {
			if isSubtype(sub, m, seen) == nil {
				return nil
			}
		}
		return errNotSubtype(sub, super, "not a member of the union")
	}

	// TypeVar / RowVar: without a resolution, only identity holds here;
	// ConstraintEnv is responsible for recording a bound instead of
	// calling IsSubtype directly on an unresolved variable.
	if v, ok := sub.(TypeVar); ok {
		if v2, ok2 := super.(TypeVar); ok2 && v.ID == v2.ID {
			return nil
		}
		return errNotSubtype(sub, super, "unresolved type variable")
	}
	if v, ok := super.(TypeVar); ok {
		if v2, ok2 := sub.(TypeVar); ok2 && v.ID == v2.ID {
			return nil
		}
		return errNotSubtype(sub, super, "unresolved type variable")
	}

	switch s := sub.(type) {
	case IntLit:
		switch super.(type) {
		case IntLit:
			if s2 := super.(IntLit); s2.Value == s.Value {
				return nil
			}
			return errNotSubtype(sub, super, "literal mismatch")
		case Integer, Number:
			return nil
		}
		return errNotSubtype(sub, super, "literal not widened to expected type")
	case StrLit:
		switch super.(type) {
		case StrLit:
			if s2 := super.(StrLit); s2.Value == s.Value {
				return nil
			}
			return errNotSubtype(sub, super, "literal mismatch")
		case String:
			return nil
		}
		return errNotSubtype(sub, super, "literal not widened to expected type")
	case BoolLit:
		switch s2 := super.(type) {
		case BoolLit:
			if s2.Value == s.Value {
				return nil
			}
			return errNotSubtype(sub, super, "literal mismatch")
		case Bool:
			return nil
		}
		return errNotSubtype(sub, super, "literal not widened to expected type")
	case Integer:
		switch super.(type) {
		case Integer, Number:
			return nil
		}
		return errNotSubtype(sub, super, "integer is not a subtype")
	case Number:
		if _, ok := super.(Number); ok {
			return nil
		}
		return errNotSubtype(sub, super, "number is not a subtype")
	case String:
		if _, ok := super.(String); ok {
			return nil
		}
		return errNotSubtype(sub, super, "string is not a subtype")
	case Bool:
		if _, ok := super.(Bool); ok {
			return nil
		}
		return errNotSubtype(sub, super, "boolean is not a subtype")
	case Nil, Thread, UserData, Any:
		if sameType(sub, super) {
			return nil
		}
		return errNotSubtype(sub, super, "atom mismatch")
	case Function:
		sup, ok := super.(Function)
		if !ok {
			return errNotSubtype(sub, super, "not a function type")
		}
		return isSubtypeFunction(s, sup, seen)
	case Table:
		sup, ok := super.(Table)
		if !ok {
			return errNotSubtype(sub, super, "not a table type")
		}
		return isSubtypeTable(s, sup, seen)
	}

	return errNotSubtype(sub, super, "no subtyping rule applies")
}

func acceptsNil(t Type) bool {
	if _, ok := t.(Nil); ok {
		return true
	}
	if u, ok := t.(Union); ok {
		for _, m := range u.Types {
			if _, ok := m.(Nil); ok {
				return true
			}
		}
	}
	return false
}

func isSubtypeFunction(sub, super Function, seen []pair) error {
	// Contravariant in arguments: super's params must be subtypes of sub's.
	if len(sub.Args.Types) > len(super.Args.Types) && super.Args.Tail == nil {
		return errNotSubtype(sub, super, "too many required arguments")
	}
	n := len(sub.Args.Types)
	if len(super.Args.Types) < n {
		n = len(super.Args.Types)
	}
	for i := 0; i < n; i++ {
		if err := isSubtype(super.Args.Types[i], sub.Args.Types[i], seen); err != nil {
			return errNotSubtype(sub, super, "argument "+itoa(i+1)+" is not contravariant: "+err.Error())
		}
	}
	// Covariant in returns.
	m := len(sub.Returns.Types)
	if len(super.Returns.Types) < m {
		m = len(super.Returns.Types)
	}
	for i := 0; i < m; i++ {
		if err := isSubtype(sub.Returns.Types[i], super.Returns.Types[i], seen); err != nil {
			return errNotSubtype(sub, super, "return "+itoa(i+1)+" is not covariant: "+err.Error())
		}
	}
	return nil
}

func isSubtypeTable(sub, super Table, seen []pair) error {
	if super.Kind == ShapeAll {
		return nil // everything downcasts from the opaque `table` type
	}
	if sub.Kind == ShapeEmpty {
		// {} is a subtype of any record (vacuously, no fields to violate)
		// and of open arrays/maps, but not of a Tuple/closed shape mismatch.
		switch super.Kind {
		case ShapeRecord, ShapeArray, ShapeMap:
			return nil
		}
	}
	if sub.Kind != super.Kind {
		return errNotSubtype(sub, super, "incompatible table shapes")
	}
	switch sub.Kind {
	case ShapeRecord:
		for k, superSlot := range super.Fields {
			subSlot, ok := sub.Fields[k]
			if !ok {
				if sub.Row != nil {
					continue // open row on the subtype can still absorb it structurally
				}
				return errNotSubtype(sub, super, "missing field "+k)
			}
			if err := slotCompatible(subSlot, superSlot, seen); err != nil {
				return errNotSubtype(sub, super, "field "+k+": "+err.Error())
			}
		}
		return nil
	case ShapeArray:
		if sub.Elem.Mode == Const {
			return isSubtype(sub.Elem.Type, super.Elem.Type, seen) // covariant when const
		}
		return slotCompatible(sub.Elem, super.Elem, seen)
	case ShapeMap:
		if err := isSubtype(super.Key, sub.Key, seen); err != nil {
			return errNotSubtype(sub, super, "key type: "+err.Error())
		}
		if sub.Value.Mode == Const {
			return isSubtype(sub.Value.Type, super.Value.Type, seen)
		}
		return slotCompatible(sub.Value, super.Value, seen)
	case ShapeTuple:
		if len(sub.Elems) != len(super.Elems) {
			return errNotSubtype(sub, super, "tuple arity mismatch")
		}
		for i := range sub.Elems {
			if err := isSubtype(sub.Elems[i].Type, super.Elems[i].Type, seen); err != nil {
				return errNotSubtype(sub, super, "tuple element "+itoa(i+1)+": "+err.Error())
			}
		}
		return nil
	}
	return nil
}

// slotCompatible is depth-subtyping for a single field/element slot:
// invariant in general (mutable aliasing hazard, spec.md §4.1), except
// when the slot itself is const (covariant read-only access is then safe).
func slotCompatible(sub, super *Slot, seen []pair) error {
	if sub.Mode == Const || super.Mode == Const {
		return isSubtype(sub.Type, super.Type, seen)
	}
	if err := isSubtype(sub.Type, super.Type, seen); err != nil {
		return err
	}
	return isSubtype(super.Type, sub.Type, seen)
}

func sameType(a, b Type) bool {
	return a.String() == b.String()
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}

// NormalizeUnion flattens, deduplicates and sorts a union, and merges
// true|false into `boolean` (spec.md §3). It does not enforce the
// no-two-function/table-atoms invariant.
func NormalizeUnion(types []Type) Type {
	flat := flattenUnions(types)
	flat = mergeBoolLits(flat)
	flat = dedupeByString(flat)

	if len(flat) == 0 {
		return Nil{}
	}
	if len(flat) == 1 {
		return flat[0]
	}

	funcCount, tableCount := 0, 0
	for _, t := range flat {
		switch t.(type) {
		case Function:
			funcCount++
		case Table:
			tableCount++
		}
	}
	// Multiple function/table atoms are not collapsed: only duplicates of
	// the *same* rendered type are removed (by dedupe above), and distinct
	// function/table atoms all stay in the union.
	_ = funcCount
	_ = tableCount

	sort.Slice(flat, func(i, j int) bool { return flat[i].String() < flat[j].String() })
	return Union{Types: flat}
}

func flattenUnions(types []Type) []Type {
	var out []Type
	for _, t := range types {
		if u, ok := t.(Union); ok {
			out = append(out, flattenUnions(u.Types)...)
		} else {
			out = append(out, t)
		}
	}
	return out
}

func mergeBoolLits(types []Type) []Type {
	hasTrue, hasFalse := false, false
	var out []Type
	for _, t := range types {
		if b, ok := t.(BoolLit); ok {
			if b.Value {
				hasTrue = true
			} else {
				hasFalse = true
			}
			continue
		}
		out = append(out, t)
	}
	if hasTrue && hasFalse {
		out = append(out, Bool{})
	} else if hasTrue {
		out = append(out, BoolLit{Value: true})
	} else if hasFalse {
		out = append(out, BoolLit{Value: false})
	}
	return out
}

func dedupeByString(types []Type) []Type {
	seen := map[string]bool{}
	var out []Type
	for _, t := range types {
		s := t.String()
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, t)
	}
	return out
}
