package typesystem

import "testing"

func TestFreshAllocatesDistinctVars(t *testing.T) {
	e := NewConstraintEnv()
	a := e.Fresh()
	b := e.Fresh()
	if a.ID == b.ID {
		t.Errorf("expected distinct type variable IDs, got %d and %d", a.ID, b.ID)
	}
}

func TestResolveReturnsUnresolvedVarUnchanged(t *testing.T) {
	e := NewConstraintEnv()
	v := e.Fresh()
	if got := e.Resolve(v); got.(TypeVar).ID != v.ID {
		t.Errorf("expected an unresolved var to resolve to itself, got %v", got)
	}
}

func TestBindResolvesAndSatisfiesBounds(t *testing.T) {
	e := NewConstraintEnv()
	v := e.Fresh()
	if err := e.AssertSubtype(v, Number{}, "origin-1"); err != nil {
		t.Fatalf("unexpected error asserting an unresolved var's upper bound: %v", err)
	}
	if origin, err := e.Bind(v, Integer{}); err != nil {
		t.Fatalf("unexpected error binding v=integer against upper bound number: %v (origin %v)", err, origin)
	}
	if !e.IsResolved(v) {
		t.Fatalf("expected v to be resolved after Bind")
	}
	if got := e.Resolve(v); got.String() != (Integer{}).String() {
		t.Errorf("expected Resolve(v) to be integer, got %s", got.String())
	}
}

func TestBindReportsViolatedUpperBoundOrigin(t *testing.T) {
	e := NewConstraintEnv()
	v := e.Fresh()
	if err := e.AssertSubtype(v, String{}, "origin-str"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	origin, err := e.Bind(v, Integer{})
	if err == nil {
		t.Fatalf("expected Bind to fail: integer is not a subtype of string")
	}
	if origin != "origin-str" {
		t.Errorf("expected the violated bound's origin to surface, got %v", origin)
	}
}

func TestAssertSubtypeChecksImmediatelyWhenBothConcrete(t *testing.T) {
	e := NewConstraintEnv()
	if err := e.AssertSubtype(Integer{}, Number{}, nil); err != nil {
		t.Errorf("expected integer <: number to pass immediately, got %v", err)
	}
	if err := e.AssertSubtype(String{}, Number{}, nil); err == nil {
		t.Errorf("expected string <: number to fail immediately")
	}
}

func TestFreshRowStartsOpenAndEmpty(t *testing.T) {
	e := NewConstraintEnv()
	v := e.FreshRow()
	fields, open := e.RowFields(v)
	if !open {
		t.Errorf("expected a freshly allocated row to be open")
	}
	if len(fields) != 0 {
		t.Errorf("expected a freshly allocated row to start with no committed fields")
	}
}

func TestCommitFieldAddsToOpenRow(t *testing.T) {
	e := NewConstraintEnv()
	v := e.FreshRow()
	if err := e.CommitField(v, "x", NewSlot(Integer{}, Var)); err != nil {
		t.Fatalf("unexpected error committing a field to an open row: %v", err)
	}
	fields, _ := e.RowFields(v)
	if _, ok := fields["x"]; !ok {
		t.Errorf("expected field 'x' to be committed")
	}
}

func TestCommitFieldRejectsNewFieldOnClosedRow(t *testing.T) {
	e := NewConstraintEnv()
	v := e.FreshRow()
	e.CloseRow(v)
	if err := e.CommitField(v, "x", NewSlot(Integer{}, Var)); err == nil {
		t.Errorf("expected committing a new field to a closed row to fail")
	}
}

func TestCommitFieldAllowsRecommittingCompatibleType(t *testing.T) {
	e := NewConstraintEnv()
	v := e.FreshRow()
	if err := e.CommitField(v, "x", NewSlot(Integer{}, Var)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := e.CommitField(v, "x", NewSlot(Integer{}, Var)); err != nil {
		t.Errorf("expected recommitting the same type to 'x' to succeed, got %v", err)
	}
}

func TestMergeRowsMergesTwoOpenRows(t *testing.T) {
	e := NewConstraintEnv()
	a := e.FreshRow()
	b := e.FreshRow()
	e.CommitField(b, "y", NewSlot(String{}, Var))

	if err := e.MergeRows(a, b); err != nil {
		t.Fatalf("unexpected error merging two open rows: %v", err)
	}
	fields, _ := e.RowFields(a)
	if _, ok := fields["y"]; !ok {
		t.Errorf("expected merging to carry 'y' from b into a, got %v", fields)
	}
}

func TestMergeRowsRequiresOpenRowFieldsPresentInClosedRow(t *testing.T) {
	e := NewConstraintEnv()
	open := e.FreshRow()
	e.CommitField(open, "x", NewSlot(Integer{}, Var))
	e.CommitField(open, "z", NewSlot(Integer{}, Var))

	closed := e.FreshRow()
	e.CommitField(closed, "x", NewSlot(Integer{}, Var))
	e.CloseRow(closed)

	if err := e.MergeRows(open, closed); err == nil {
		t.Errorf("expected merging to fail: the open row's field 'z' has no counterpart in the closed row")
	}
}

func TestApplyAllCoversResolvedVarsAndRows(t *testing.T) {
	e := NewConstraintEnv()
	v := e.Fresh()
	e.Bind(v, Integer{})

	s := e.ApplyAll()
	if got, ok := s.Types[v.ID]; !ok || got.String() != (Integer{}).String() {
		t.Errorf("expected ApplyAll's Subst to map %d to integer, got %v ok=%v", v.ID, got, ok)
	}
}
