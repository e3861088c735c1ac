package classenv

import (
	"testing"

	"github.com/evolbug/kailua/internal/typesystem"
)

func TestDefineAndResolve(t *testing.T) {
	env := New()
	env.Define("Point", typesystem.Integer{}, Local)

	typ, ok := env.Resolve("Point")
	if !ok {
		t.Fatalf("expected Point to resolve")
	}
	if typ.String() != (typesystem.Integer{}).String() {
		t.Errorf("expected Point to resolve to integer, got %s", typ.String())
	}
}

func TestDefineReportsRedefinitionForLocalAndGlobal(t *testing.T) {
	env := New()
	if redefined := env.Define("A", typesystem.Integer{}, Local); redefined {
		t.Fatalf("expected the first definition not to be a redefinition")
	}
	if redefined := env.Define("A", typesystem.String{}, Local); !redefined {
		t.Errorf("expected redefining a Local alias at the same depth to be reported")
	}

	env2 := New()
	env2.Define("B", typesystem.Integer{}, Global)
	if redefined := env2.Define("B", typesystem.String{}, Global); !redefined {
		t.Errorf("expected redefining a Global alias at the same depth to be reported")
	}
}

func TestDefineScopedShadowIsNotRedefinition(t *testing.T) {
	env := New()
	env.Define("A", typesystem.Integer{}, Scoped)
	env.EnterBlock()
	if redefined := env.Define("A", typesystem.String{}, Scoped); redefined {
		t.Errorf("expected shadowing a Scoped alias in a nested block not to be a redefinition")
	}
}

func TestLeaveBlockDropsScopedAliasesAtThatDepth(t *testing.T) {
	env := New()
	env.EnterBlock()
	env.Define("Local1", typesystem.Integer{}, Scoped)
	env.LeaveBlock()

	if _, ok := env.Resolve("Local1"); ok {
		t.Errorf("expected a Scoped alias to be dropped when its block exits")
	}
}

func TestLeaveBlockKeepsLocalAndGlobalAliases(t *testing.T) {
	env := New()
	env.EnterBlock()
	env.Define("L", typesystem.Integer{}, Local)
	env.Define("G", typesystem.String{}, Global)
	env.LeaveBlock()

	if _, ok := env.Resolve("L"); !ok {
		t.Errorf("expected a Local alias to survive its declaring block's exit")
	}
	if _, ok := env.Resolve("G"); !ok {
		t.Errorf("expected a Global alias to survive its declaring block's exit")
	}
}

func TestLeaveBlockAtRootIsNoop(t *testing.T) {
	env := New()
	env.LeaveBlock()
	env.Define("A", typesystem.Integer{}, Scoped)
	if _, ok := env.Resolve("A"); !ok {
		t.Errorf("expected LeaveBlock at depth 0 not to discard later definitions")
	}
}

func TestExportedReturnsOnlyGlobalAliases(t *testing.T) {
	env := New()
	env.Define("L", typesystem.Integer{}, Local)
	env.Define("G", typesystem.String{}, Global)
	env.Define("S", typesystem.Bool{}, Scoped)

	exported := env.Exported()
	if len(exported) != 1 {
		t.Fatalf("expected exactly 1 exported alias, got %d: %v", len(exported), exported)
	}
	if _, ok := exported["G"]; !ok {
		t.Errorf("expected 'G' to be exported, got %v", exported)
	}
}

func TestImportMergesExportsAsGlobalsUnlessShadowed(t *testing.T) {
	env := New()
	env.Define("Local1", typesystem.Bool{}, Local)
	env.Import(map[string]typesystem.Type{
		"Local1": typesystem.String{}, // shadowed by the existing local definition
		"Remote": typesystem.Integer{},
	})

	typ, _ := env.Resolve("Local1")
	if typ.String() != (typesystem.Bool{}).String() {
		t.Errorf("expected the local definition of 'Local1' to win over the import, got %s", typ.String())
	}
	remote, ok := env.Resolve("Remote")
	if !ok || remote.String() != (typesystem.Integer{}).String() {
		t.Errorf("expected 'Remote' to be imported as integer, got %v ok=%v", remote, ok)
	}
}

func TestBuiltinAttrRegistryOpen(t *testing.T) {
	r := NewBuiltinAttrRegistry()
	if r.IsOpen("assert") {
		t.Errorf("expected 'assert' not to be open before Open is called")
	}
	r.Open("assert")
	if !r.IsOpen("assert") {
		t.Errorf("expected 'assert' to be open after Open is called")
	}
}
