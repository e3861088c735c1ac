package typesystem

import "testing"

func TestSubtypeLiterals(t *testing.T) {
	tests := []struct {
		name    string
		sub     Type
		super   Type
		wantErr bool
	}{
		{"int literal widens to integer", IntLit{Value: 3}, Integer{}, false},
		{"int literal widens to number", IntLit{Value: 3}, Number{}, false},
		{"int literal mismatch", IntLit{Value: 3}, IntLit{Value: 4}, true},
		{"integer not a subtype of int literal", Integer{}, IntLit{Value: 3}, true},
		{"integer widens to number", Integer{}, Number{}, false},
		{"number is not an integer", Number{}, Integer{}, true},
		{"string literal widens to string", StrLit{Value: "a"}, String{}, false},
		{"string literal mismatch", StrLit{Value: "a"}, StrLit{Value: "b"}, true},
		{"bool literal widens to boolean", BoolLit{Value: true}, Bool{}, false},
		{"nil widens to nilable union", Nil{}, Union{Types: []Type{String{}, Nil{}}}, false},
		{"nil does not widen to non-nilable type", Nil{}, String{}, true},
		{"any accepts dynamic", Dynamic{}, String{}, false},
		{"dynamic accepts anything", String{}, Dynamic{}, false},
		{"union member must all match", Union{Types: []Type{Integer{}, String{}}}, Union{Types: []Type{Integer{}, String{}, Bool{}}}, false},
		{"union member missing from target", Union{Types: []Type{Integer{}, Bool{}}}, Union{Types: []Type{Integer{}, String{}}}, true},
		{"sub matches one union member", Integer{}, Union{Types: []Type{Integer{}, String{}}}, false},
		{"sub matches no union member", Bool{}, Union{Types: []Type{Integer{}, String{}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := IsSubtype(tt.sub, tt.super)
			if (err != nil) != tt.wantErr {
				t.Errorf("IsSubtype(%s, %s) error = %v, wantErr %v", tt.sub, tt.super, err, tt.wantErr)
			}
		})
	}
}

func TestSubtypeFunctionVariance(t *testing.T) {
	// (integer) --> number
	narrow := Function{
		Args:    TySeq{Types: []Type{Integer{}}},
		Returns: TySeq{Types: []Type{Number{}}},
	}
	// (number) --> integer
	wide := Function{
		Args:    TySeq{Types: []Type{Number{}}},
		Returns: TySeq{Types: []Type{Integer{}}},
	}

	// A function accepting number can stand in anywhere one accepting
	// integer is expected (contravariant args), and its integer return
	// fits where a number return was promised (covariant returns):
	// wide <: narrow.
	if err := IsSubtype(wide, narrow); err != nil {
		t.Errorf("expected (number)-->integer to be a subtype of (integer)-->number, got %v", err)
	}
	// The reverse fails: narrow can't accept arbitrary numbers.
	if err := IsSubtype(narrow, wide); err == nil {
		t.Errorf("expected (integer)-->number not to be a subtype of (number)-->integer")
	}
}

func TestSubtypeTableRecordWidth(t *testing.T) {
	wide := Table{Kind: ShapeRecord, Fields: map[string]*Slot{
		"x": NewSlot(Integer{}, Var),
		"y": NewSlot(Integer{}, Var),
	}}
	narrow := Table{Kind: ShapeRecord, Fields: map[string]*Slot{
		"x": NewSlot(Integer{}, Var),
	}}

	// A record with more fields than required satisfies a narrower shape.
	if err := IsSubtype(wide, narrow); err != nil {
		t.Errorf("expected wide record to satisfy narrow shape, got %v", err)
	}
	// The narrow record is missing 'y', so it cannot stand in for wide.
	if err := IsSubtype(narrow, wide); err == nil {
		t.Errorf("expected narrow record to be rejected against wide shape")
	}
}

func TestSubtypeTableOpenRowAbsorbsMissingField(t *testing.T) {
	open := Table{Kind: ShapeRecord, Fields: map[string]*Slot{}, Row: RowVar{ID: 1}}
	target := Table{Kind: ShapeRecord, Fields: map[string]*Slot{
		"x": NewSlot(Integer{}, Var),
	}}
	if err := IsSubtype(open, target); err != nil {
		t.Errorf("expected open row to absorb missing field 'x', got %v", err)
	}
}

func TestSubtypeEmptyTableWidensToArrayOrMap(t *testing.T) {
	empty := Table{Kind: ShapeEmpty}
	arr := Table{Kind: ShapeArray, Elem: NewSlot(Integer{}, Var)}
	if err := IsSubtype(empty, arr); err != nil {
		t.Errorf("expected {} to be a subtype of vector<integer>, got %v", err)
	}
	tup := Table{Elems: []*Slot{NewSlot(Integer{}, Var), NewSlot(Integer{}, Var)}, Kind: ShapeTuple}
	if err := IsSubtype(empty, tup); err == nil {
		t.Errorf("expected {} not to satisfy a fixed-arity tuple")
	}
}

func TestSubtypeBuiltinAttrOpaque(t *testing.T) {
	wrapped := BuiltinAttr{Attr: "require", Inner: Function{Returns: TySeq{Types: []Type{Dynamic{}}}}}
	plain := Function{Returns: TySeq{Types: []Type{Dynamic{}}}}
	// A nominal, non-transparent attribute does not unwrap against a bare
	// value of the inner shape.
	if err := IsSubtype(plain, wrapped); err == nil {
		t.Errorf("expected a plain function not to satisfy a nominal [require] function")
	}
}

func TestNormalizeUnionDedupesAndMergesBools(t *testing.T) {
	u := NormalizeUnion([]Type{Integer{}, Integer{}, BoolLit{Value: true}, BoolLit{Value: false}})
	union, ok := u.(Union)
	if !ok {
		t.Fatalf("expected a union of integer and boolean, got %T", u)
	}
	if len(union.Types) != 2 {
		t.Fatalf("expected duplicate integer and true|false to collapse to 2 members, got %d: %s", len(union.Types), u.String())
	}
	var sawBool, sawInt bool
	for _, m := range union.Types {
		switch m.(type) {
		case Bool:
			sawBool = true
		case Integer:
			sawInt = true
		}
	}
	if !sawBool || !sawInt {
		t.Fatalf("expected the union to contain boolean and integer, got %s", u.String())
	}
}
