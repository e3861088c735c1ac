package typesystem

import "github.com/evolbug/kailua/internal/token"

// BinaryOpResult computes the result type of a binary operator per
// spec.md §4.1's table, or an error describing the operand that violated
// the operator's constraint (for the checker to wrap with spans).
func BinaryOpResult(op token.Type, left, right Type) (Type, error) {
	switch op {
	case token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT, token.CARET:
		if err := IsSubtype(left, Number{}); err != nil {
			return nil, errNotSubtype(left, Number{}, "left operand of "+string(op)+" must be a number")
		}
		if err := IsSubtype(right, Number{}); err != nil {
			return nil, errNotSubtype(right, Number{}, "right operand of "+string(op)+" must be a number")
		}
		if op == token.SLASH || op == token.CARET {
			return Number{}, nil
		}
		if IsSubtype(left, Integer{}) == nil && IsSubtype(right, Integer{}) == nil {
			return Integer{}, nil
		}
		return Number{}, nil

	case token.CONCAT:
		both := Union{Types: []Type{Number{}, String{}}}
		if err := IsSubtype(left, both); err != nil {
			return nil, errNotSubtype(left, both, "left operand of .. must be a number or string")
		}
		if err := IsSubtype(right, both); err != nil {
			return nil, errNotSubtype(right, both, "right operand of .. must be a number or string")
		}
		if ls, ok := left.(StrLit); ok {
			if rs, ok := right.(StrLit); ok {
				return StrLit{Value: ls.Value + rs.Value}, nil
			}
		}
		return String{}, nil

	case token.LT, token.LTE, token.GT, token.GTE:
		leftIsNum, leftIsStr := IsSubtype(left, Number{}) == nil, IsSubtype(left, String{}) == nil
		rightIsNum, rightIsStr := IsSubtype(right, Number{}) == nil, IsSubtype(right, String{}) == nil
		if leftIsNum && rightIsNum {
			return Bool{}, nil
		}
		if leftIsStr && rightIsStr {
			return Bool{}, nil
		}
		return nil, errNotSubtype(left, right, "operands to "+string(op)+" should be either numbers or strings but not both")

	case token.EQ, token.NEQ:
		return Bool{}, nil

	default:
		return nil, errNotSubtype(left, right, "unknown binary operator "+string(op))
	}
}

func UnaryOpResult(op token.Type, operand Type) (Type, error) {
	switch op {
	case token.NOT:
		return Bool{}, nil
	case token.HASH:
		both := Union{Types: []Type{String{}, Table{Kind: ShapeAll}}}
		if IsSubtype(operand, String{}) != nil {
			if _, ok := operand.(Table); !ok {
				if IsSubtype(operand, Dynamic{}) != nil {
					return nil, errNotSubtype(operand, both, "# operand must be a string or table")
				}
			}
		}
		return Integer{}, nil
	case token.MINUS:
		if err := IsSubtype(operand, Number{}); err != nil {
			return nil, errNotSubtype(operand, Number{}, "unary - operand must be a number")
		}
		if IsSubtype(operand, Integer{}) == nil {
			return Integer{}, nil
		}
		return Number{}, nil
	default:
		return nil, errNotSubtype(operand, operand, "unknown unary operator "+string(op))
	}
}

// AndResult implements spec.md §4.1's `and`: erase_truthy(L) ∪ R if L can
// be falsy, else R.
func AndResult(left, right Type) Type {
	if !CanBeFalsy(left) {
		return right
	}
	return NormalizeUnion([]Type{EraseTruthy(left), right})
}

// OrResult implements spec.md §4.1's `or`: erase_falsy(L) ∪ R.
func OrResult(left, right Type) Type {
	return NormalizeUnion([]Type{EraseFalsy(left), right})
}

// CanBeFalsy reports whether t's value set includes nil or false — the
// only two falsy values in Lua.
func CanBeFalsy(t Type) bool {
	switch v := t.(type) {
	case Nil:
		return true
	case BoolLit:
		return !v.Value
	case Bool:
		return true
	case Dynamic, Any:
		return true
	case Union:
		for _, m := range v.Types {
			if CanBeFalsy(m) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// EraseTruthy removes every truthy value from t's type, leaving only the
// falsy residue (nil, or the `false` literal) — the value an expression
// carries down the branch where it turned out falsy.
func EraseTruthy(t Type) Type {
	switch v := t.(type) {
	case Nil:
		return v
	case BoolLit:
		if v.Value {
			return neverType()
		}
		return v
	case Bool:
		return BoolLit{Value: false}
	case Dynamic:
		return v
	case Any:
		return v
	case Union:
		var kept []Type
		for _, m := range v.Types {
			e := EraseTruthy(m)
			if !isNever(e) {
				kept = append(kept, e)
			}
		}
		return NormalizeUnion(kept)
	default:
		return neverType()
	}
}

// EraseFalsy removes nil/false from t's type, leaving only the values
// that would make the expression continue down the truthy branch.
func EraseFalsy(t Type) Type {
	switch v := t.(type) {
	case Nil:
		return neverType()
	case BoolLit:
		if !v.Value {
			return neverType()
		}
		return v
	case Bool:
		return BoolLit{Value: true}
	case Union:
		var kept []Type
		for _, m := range v.Types {
			e := EraseFalsy(m)
			if !isNever(e) {
				kept = append(kept, e)
			}
		}
		return NormalizeUnion(kept)
	default:
		return t
	}
}

// neverType represents an empty type (no values reach this branch). It's
// rendered as Nil{} stripped from unions at NormalizeUnion time via
// dedup — callers treat an empty kept-slice as "unreachable" directly,
// this helper exists only so Erase* can return *something* uniformly.
type neverMarker struct{}

func (neverMarker) String() string                  { return "<never>" }
func (neverMarker) Apply(Subst) Type                { return neverMarker{} }
func (neverMarker) FreeTypeVariables() []TypeVar     { return nil }

func neverType() Type        { return neverMarker{} }
func isNever(t Type) bool    { _, ok := t.(neverMarker); return ok }

// IsNeverType reports whether t is the unreachable marker type produced
// by narrowing a branch to nothing (spec.md §4.4 "truthy world is
// unreachable").
func IsNeverType(t Type) bool { return isNever(t) }
