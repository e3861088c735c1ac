package narrowing

import (
	"testing"

	"github.com/evolbug/kailua/internal/ast"
	"github.com/evolbug/kailua/internal/token"
	"github.com/evolbug/kailua/internal/typesystem"
)

func ident(name string) *ast.Identifier {
	return &ast.Identifier{Value: name}
}

func constTypeOf(types map[string]typesystem.Type) TypeOfFunc {
	return func(e ast.Expression) typesystem.Type {
		if id, ok := e.(*ast.Identifier); ok {
			return types[id.Value]
		}
		return typesystem.Dynamic{}
	}
}

func TestFromConditionBareReferenceNarrows(t *testing.T) {
	typeOf := constTypeOf(map[string]typesystem.Type{
		"x": typesystem.Union{Types: []typesystem.Type{typesystem.Integer{}, typesystem.Nil{}}},
	})
	r := FromCondition(ident("x"), typeOf)

	truthy, ok := r.Truthy["x"]
	if !ok {
		t.Fatalf("expected a truthy refinement for x")
	}
	if _, isInt := truthy.(typesystem.Integer); !isInt {
		t.Errorf("expected truthy residue to be integer, got %s", truthy.String())
	}
	falsy, ok := r.Falsy["x"]
	if !ok {
		t.Fatalf("expected a falsy refinement for x")
	}
	if _, isNil := falsy.(typesystem.Nil); !isNil {
		t.Errorf("expected falsy residue to be nil, got %s", falsy.String())
	}
}

func TestFromConditionNotSwapsTruthyAndFalsy(t *testing.T) {
	typeOf := constTypeOf(map[string]typesystem.Type{
		"x": typesystem.Union{Types: []typesystem.Type{typesystem.Integer{}, typesystem.Nil{}}},
	})
	cond := &ast.UnaryExpr{Op: token.NOT, Operand: ident("x")}
	r := FromCondition(cond, typeOf)

	if _, isNil := r.Truthy["x"].(typesystem.Nil); !isNil {
		t.Errorf("expected 'not x' truthy branch to carry x's falsy residue (nil), got %s", r.Truthy["x"].String())
	}
	if _, isInt := r.Falsy["x"].(typesystem.Integer); !isInt {
		t.Errorf("expected 'not x' falsy branch to carry x's truthy residue (integer), got %s", r.Falsy["x"].String())
	}
}

func TestFromConditionEqualNilIdiom(t *testing.T) {
	typeOf := constTypeOf(map[string]typesystem.Type{
		"x": typesystem.Union{Types: []typesystem.Type{typesystem.String{}, typesystem.Nil{}}},
	})
	cond := &ast.BinaryExpr{Op: token.EQ, Left: ident("x"), Right: &ast.NilLiteral{}}
	r := FromCondition(cond, typeOf)

	if _, isNil := r.Truthy["x"].(typesystem.Nil); !isNil {
		t.Errorf("expected 'x == nil' truthy branch to narrow x to nil, got %s", r.Truthy["x"].String())
	}
	if _, isStr := r.Falsy["x"].(typesystem.String); !isStr {
		t.Errorf("expected 'x == nil' falsy branch to narrow x to string, got %s", r.Falsy["x"].String())
	}
}

func TestFromConditionNotEqualNilIdiomInvertsBranches(t *testing.T) {
	typeOf := constTypeOf(map[string]typesystem.Type{
		"x": typesystem.Union{Types: []typesystem.Type{typesystem.String{}, typesystem.Nil{}}},
	})
	cond := &ast.BinaryExpr{Op: token.NEQ, Left: ident("x"), Right: &ast.NilLiteral{}}
	r := FromCondition(cond, typeOf)

	if _, isStr := r.Truthy["x"].(typesystem.String); !isStr {
		t.Errorf("expected 'x ~= nil' truthy branch to narrow x to string, got %s", r.Truthy["x"].String())
	}
	if _, isNil := r.Falsy["x"].(typesystem.Nil); !isNil {
		t.Errorf("expected 'x ~= nil' falsy branch to narrow x to nil, got %s", r.Falsy["x"].String())
	}
}

func TestFromConditionTypeOfEqualityIdiom(t *testing.T) {
	typeOf := constTypeOf(map[string]typesystem.Type{
		"x": typesystem.Union{Types: []typesystem.Type{typesystem.String{}, typesystem.Integer{}}},
	})
	cond := &ast.BinaryExpr{
		Op:   token.EQ,
		Left: &ast.CallExpr{Fn: ident("type"), Args: []ast.Expression{ident("x")}},
		Right: &ast.StringLiteral{Value: "string"},
	}
	r := FromCondition(cond, typeOf)

	if _, isStr := r.Truthy["x"].(typesystem.String); !isStr {
		t.Errorf("expected type(x)=='string' truthy branch to narrow x to string, got %s", r.Truthy["x"].String())
	}
	if _, isInt := r.Falsy["x"].(typesystem.Integer); !isInt {
		t.Errorf("expected type(x)=='string' falsy branch to narrow x to integer, got %s", r.Falsy["x"].String())
	}
}

func TestFromConditionAssertNarrowsLikeBareReference(t *testing.T) {
	typeOf := constTypeOf(map[string]typesystem.Type{
		"x": typesystem.Union{Types: []typesystem.Type{typesystem.Integer{}, typesystem.Nil{}}},
	})
	cond := &ast.CallExpr{Fn: ident("assert"), Args: []ast.Expression{ident("x")}}
	r := FromCondition(cond, typeOf)

	if _, isInt := r.Truthy["x"].(typesystem.Integer); !isInt {
		t.Errorf("expected assert(x) to narrow x to its truthy residue, got %s", r.Truthy["x"].String())
	}
}

func TestFromConditionAndNarrowsBothOperands(t *testing.T) {
	typeOf := constTypeOf(map[string]typesystem.Type{
		"x": typesystem.Union{Types: []typesystem.Type{typesystem.Integer{}, typesystem.Nil{}}},
		"y": typesystem.Union{Types: []typesystem.Type{typesystem.String{}, typesystem.Nil{}}},
	})
	cond := &ast.BinaryExpr{Op: token.AND, Left: ident("x"), Right: ident("y")}
	r := FromCondition(cond, typeOf)

	if _, ok := r.Truthy["x"]; !ok {
		t.Errorf("expected 'x and y' to narrow x in the truthy branch")
	}
	if _, ok := r.Truthy["y"]; !ok {
		t.Errorf("expected 'x and y' to narrow y in the truthy branch")
	}
}

func TestFromConditionOrOnlyJoinsFalsyWhenBothAgree(t *testing.T) {
	typeOf := constTypeOf(map[string]typesystem.Type{
		"x": typesystem.Union{Types: []typesystem.Type{typesystem.Integer{}, typesystem.Nil{}}},
		"y": typesystem.Union{Types: []typesystem.Type{typesystem.String{}, typesystem.Nil{}}},
	})
	cond := &ast.BinaryExpr{Op: token.OR, Left: ident("x"), Right: ident("y")}
	r := FromCondition(cond, typeOf)

	// The falsy branch of `x or y` requires both x and y to be falsy, so
	// both should be narrowed there.
	if _, ok := r.Falsy["x"]; !ok {
		t.Errorf("expected 'x or y' falsy branch to narrow x")
	}
	if _, ok := r.Falsy["y"]; !ok {
		t.Errorf("expected 'x or y' falsy branch to narrow y")
	}
	// Neither operand is individually narrowed in the truthy branch since
	// either one could have been the truthy operand.
	if _, ok := r.Truthy["x"]; ok {
		t.Errorf("expected 'x or y' not to narrow x in the truthy branch")
	}
}

func TestFromConditionFieldAccessUsesDottedKey(t *testing.T) {
	typeOf := func(e ast.Expression) typesystem.Type {
		return typesystem.Union{Types: []typesystem.Type{typesystem.Integer{}, typesystem.Nil{}}}
	}
	cond := &ast.FieldExpr{Obj: ident("t"), Field: "x"}
	r := FromCondition(cond, typeOf)

	if _, ok := r.Truthy["t.x"]; !ok {
		t.Errorf("expected a field access to narrow under its dotted key 't.x', got %v", r.Truthy)
	}
}
