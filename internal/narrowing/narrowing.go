// Package narrowing computes truthy/falsy type refinements from
// condition expressions, per spec.md §4.4. Grounded on the teacher's
// internal/analyzer/inference_narrowing.go (type-guard narrowing for
// `match`/`if let` patterns), generalized here from pattern-match arms
// to Lua's untyped `if`/`and`/`or`/`assert` idiom-based narrowing.
package narrowing

import (
	"github.com/evolbug/kailua/internal/ast"
	"github.com/evolbug/kailua/internal/token"
	"github.com/evolbug/kailua/internal/typesystem"
)

// Refinement is a pair of type maps keyed by a stable reference to the
// narrowed slot: the type it has if the condition turned out truthy, and
// the type it has if falsy. A name absent from a map is unaffected by
// that condition.
type Refinement struct {
	Truthy map[string]typesystem.Type
	Falsy  map[string]typesystem.Type
}

func empty() Refinement {
	return Refinement{Truthy: map[string]typesystem.Type{}, Falsy: map[string]typesystem.Type{}}
}

func (r Refinement) mergeTruthy(name string, t typesystem.Type) { r.Truthy[name] = t }
func (r Refinement) mergeFalsy(name string, t typesystem.Type)  { r.Falsy[name] = t }

// TypeOfFunc resolves an expression's static type, supplied by the
// caller (ExprChecker) so this package stays decoupled from the checker's
// environment plumbing.
type TypeOfFunc func(ast.Expression) typesystem.Type

// identifierName extracts a stable narrowing key from an expression: a
// bare identifier, or a dotted field-access chain (`t.field.sub`), since
// spec.md §4.4 narrows field reads too, not just locals. Returns "" if
// the expression isn't a narrowable reference.
func identifierName(e ast.Expression) string {
	switch v := e.(type) {
	case *ast.Identifier:
		return v.Value
	case *ast.FieldExpr:
		base := identifierName(v.Obj)
		if base == "" {
			return ""
		}
		return base + "." + v.Field
	}
	return ""
}

// FromCondition computes the truthy/falsy refinement produced by
// evaluating cond, per spec.md §4.4's rules for `type(x)==...`,
// `x == nil`/`x ~= nil`, bare references, `not`, `and`, `or`.
func FromCondition(cond ast.Expression, typeOf TypeOfFunc) Refinement {
	r := empty()
	applyCondition(cond, typeOf, r, false)
	return r
}

// applyCondition walks cond, writing truthy/falsy entries into r. When
// negate is true (inside a `not`), the roles of truthy/falsy are swapped
// for this subexpression.
func applyCondition(cond ast.Expression, typeOf TypeOfFunc, r Refinement, negate bool) {
	switch e := cond.(type) {
	case *ast.UnaryExpr:
		if e.Op == token.NOT {
			applyCondition(e.Operand, typeOf, r, !negate)
			return
		}

	case *ast.BinaryExpr:
		switch e.Op {
		case token.AND:
			applyAndCondition(e, typeOf, r, negate)
			return
		case token.OR:
			applyOrCondition(e, typeOf, r, negate)
			return
		case token.EQ, token.NEQ:
			applyEquality(e, typeOf, r, negate)
			return
		}

	case *ast.CallExpr:
		if name := calleeName(e.Fn); name == "assert" && len(e.Args) >= 1 {
			applyCondition(e.Args[0], typeOf, r, negate)
			return
		}
	}

	// Bare reference: `if x then` narrows x to its truthy/falsy residue.
	if name := identifierName(cond); name != "" {
		t := typeOf(cond)
		truthy := typesystem.EraseFalsy(t)
		falsy := typesystem.EraseTruthy(t)
		if negate {
			truthy, falsy = falsy, truthy
		}
		r.mergeTruthy(name, truthy)
		r.mergeFalsy(name, falsy)
	}
}

func calleeName(e ast.Expression) string {
	if id, ok := e.(*ast.Identifier); ok {
		return id.Value
	}
	return ""
}

// applyEquality handles `type(x) == "string"`, `x == nil`, `x ~= nil`
// per spec.md §4.4's named idioms.
func applyEquality(e *ast.BinaryExpr, typeOf TypeOfFunc, r Refinement, negate bool) {
	isNeq := e.Op == token.NEQ
	if negate {
		isNeq = !isNeq
	}

	// type(x) == "kind"
	if call, ok := e.Left.(*ast.CallExpr); ok {
		if calleeName(call.Fn) == "type" && len(call.Args) == 1 {
			if name := identifierName(call.Args[0]); name != "" {
				if lit, ok := e.Right.(*ast.StringLiteral); ok {
					full := typeOf(call.Args[0])
					matched := typeKindToType(lit.Value)
					rest := subtractKind(full, lit.Value)
					if !isNeq {
						r.mergeTruthy(name, matched)
						r.mergeFalsy(name, rest)
					} else {
						r.mergeTruthy(name, rest)
						r.mergeFalsy(name, matched)
					}
					return
				}
			}
		}
	}

	// x == nil / x ~= nil
	if _, ok := e.Right.(*ast.NilLiteral); ok {
		if name := identifierName(e.Left); name != "" {
			full := typeOf(e.Left)
			nonNil := typesystem.EraseFalsy(stripNil(full))
			if !isNeq {
				r.mergeTruthy(name, typesystem.Nil{})
				r.mergeFalsy(name, nonNil)
			} else {
				r.mergeTruthy(name, nonNil)
				r.mergeFalsy(name, typesystem.Nil{})
			}
		}
	}
}

func applyAndCondition(e *ast.BinaryExpr, typeOf TypeOfFunc, r Refinement, negate bool) {
	if negate {
		// not (L and R) == (not L) or (not R): De Morgan, treat as `or`.
		applyOrCondition(&ast.BinaryExpr{Tok: e.Tok, Op: token.OR,
			Left:  &ast.UnaryExpr{Tok: e.Tok, Op: token.NOT, Operand: e.Left},
			Right: &ast.UnaryExpr{Tok: e.Tok, Op: token.NOT, Operand: e.Right}}, typeOf, r, false)
		return
	}
	applyCondition(e.Left, typeOf, r, false)
	applyCondition(e.Right, typeOf, r, false)
}

func applyOrCondition(e *ast.BinaryExpr, typeOf TypeOfFunc, r Refinement, negate bool) {
	if negate {
		// not (L or R) == (not L) and (not R).
		applyAndCondition(&ast.BinaryExpr{Tok: e.Tok, Op: token.AND,
			Left:  &ast.UnaryExpr{Tok: e.Tok, Op: token.NOT, Operand: e.Left},
			Right: &ast.UnaryExpr{Tok: e.Tok, Op: token.NOT, Operand: e.Right}}, typeOf, r, false)
		return
	}
	// Only the falsy branch of an `or` is a conjunction of both operands'
	// falsy refinements; the truthy branch doesn't narrow either operand
	// individually since either could have been the one that was truthy.
	left, right := empty(), empty()
	applyCondition(e.Left, typeOf, left, false)
	applyCondition(e.Right, typeOf, right, false)
	for name, t := range left.Falsy {
		r.mergeFalsy(name, t)
	}
	for name, t := range right.Falsy {
		r.mergeFalsy(name, t)
	}
}

func stripNil(t typesystem.Type) typesystem.Type {
	if u, ok := t.(typesystem.Union); ok {
		var kept []typesystem.Type
		for _, m := range u.Types {
			if _, isNil := m.(typesystem.Nil); !isNil {
				kept = append(kept, m)
			}
		}
		return typesystem.NormalizeUnion(kept)
	}
	if _, isNil := t.(typesystem.Nil); isNil {
		return typesystem.NormalizeUnion(nil)
	}
	return t
}

// typeKindToType maps a Lua `type()` string result to the corresponding
// static type, per spec.md §4.4's `type(x)=='string'` idiom table.
func typeKindToType(kind string) typesystem.Type {
	switch kind {
	case "nil":
		return typesystem.Nil{}
	case "boolean":
		return typesystem.Bool{}
	case "number":
		return typesystem.Number{}
	case "string":
		return typesystem.String{}
	case "table":
		return typesystem.Table{Kind: typesystem.ShapeAll}
	case "function":
		// A function of any arity/signature: Dynamic would make
		// subtractKind's IsSubtype check match (and so erase) every union
		// member, not just function ones, since Dynamic is bidirectionally
		// compatible with everything. An open-tailed Function with no
		// fixed args/returns matches any function signature (the arity
		// checks in isSubtypeFunction short-circuit when Tail is set) while
		// still failing IsSubtype against any non-function atom.
		return typesystem.Function{
			Args:    typesystem.TySeq{Tail: typesystem.Dynamic{}},
			Returns: typesystem.TySeq{Tail: typesystem.Dynamic{}},
		}
	case "thread":
		return typesystem.Thread{}
	case "userdata":
		return typesystem.UserData{}
	default:
		return typesystem.Dynamic{}
	}
}

// subtractKind removes the members of full matching kind, returning the
// residual type for the falsy (mismatch) branch of a type() comparison.
func subtractKind(full typesystem.Type, kind string) typesystem.Type {
	target := typeKindToType(kind)
	if u, ok := full.(typesystem.Union); ok {
		var kept []typesystem.Type
		for _, m := range u.Types {
			if typesystem.IsSubtype(m, target) != nil {
				kept = append(kept, m)
			}
		}
		return typesystem.NormalizeUnion(kept)
	}
	if typesystem.IsSubtype(full, target) == nil {
		return typesystem.NormalizeUnion(nil)
	}
	return full
}
