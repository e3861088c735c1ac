package embed

import (
	"testing"

	"github.com/evolbug/kailua/internal/typesystem"
)

func TestLookupResolvesLua51(t *testing.T) {
	lib, ok := Lookup("lua51")
	if !ok {
		t.Fatalf("expected lua51 to be registered")
	}
	for _, name := range []string{"print", "type", "tostring", "pairs", "ipairs", "assert", "pcall", "string", "table", "math"} {
		if _, ok := lib.Globals[name]; !ok {
			t.Errorf("expected lua51 to declare global %q", name)
		}
	}
}

func TestLookupResolvesKailuaTestLibrary(t *testing.T) {
	lib, ok := Lookup("internal kailua_test")
	if !ok {
		t.Fatalf("expected the kailua_test fixture library to be registered")
	}
	if _, ok := lib.Globals["kailua_test__identity"]; !ok {
		t.Errorf("expected kailua_test__identity to be declared")
	}
}

func TestLookupUnknownLibraryFails(t *testing.T) {
	if _, ok := Lookup("nonexistent"); ok {
		t.Errorf("expected an unregistered library name to fail lookup")
	}
}

func TestStringLibraryFunctionShapes(t *testing.T) {
	lib, _ := Lookup("lua51")
	strTbl, ok := lib.Globals["string"].(typesystem.Table)
	if !ok {
		t.Fatalf("expected the 'string' global to be a record table, got %T", lib.Globals["string"])
	}
	format, ok := strTbl.Fields["format"]
	if !ok {
		t.Fatalf("expected string.format to be declared")
	}
	formatFn, ok := format.Type.(typesystem.Function)
	if !ok {
		t.Fatalf("expected string.format to be a function, got %T", format.Type)
	}
	if len(formatFn.Args.Types) != 1 {
		t.Errorf("expected string.format to take 1 fixed argument, got %d", len(formatFn.Args.Types))
	}
	if formatFn.Args.Tail == nil {
		t.Errorf("expected string.format to accept a variadic tail for its format arguments")
	}
	if len(formatFn.Returns.Types) != 1 || formatFn.Returns.Types[0].String() != (typesystem.String{}).String() {
		t.Errorf("expected string.format to return a single string, got %v", formatFn.Returns.Types)
	}
}

func TestMathLibraryConstantsAreNotFunctions(t *testing.T) {
	lib, _ := Lookup("lua51")
	mathTbl, ok := lib.Globals["math"].(typesystem.Table)
	if !ok {
		t.Fatalf("expected the 'math' global to be a record table, got %T", lib.Globals["math"])
	}
	pi, ok := mathTbl.Fields["pi"]
	if !ok {
		t.Fatalf("expected math.pi to be declared")
	}
	if _, isFn := pi.Type.(typesystem.Function); isFn {
		t.Errorf("expected math.pi to be a plain number, not a function")
	}
	if pi.Type.String() != (typesystem.Number{}).String() {
		t.Errorf("expected math.pi to be number, got %s", pi.Type.String())
	}
}
