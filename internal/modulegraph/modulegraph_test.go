package modulegraph

import (
	"testing"

	"github.com/evolbug/kailua/internal/classenv"
	"github.com/evolbug/kailua/internal/typesystem"
)

func TestBeginThenFinishCachesModule(t *testing.T) {
	g := New(func(string) (string, bool) { return "", false })
	mod, cached, err := g.Begin("a")
	if cached || err != nil {
		t.Fatalf("expected a fresh module on first Begin, got cached=%v err=%v", cached, err)
	}
	g.Finish("a", typesystem.String{}, nil, nil)

	mod2, cached2, err2 := g.Begin("a")
	if !cached2 || err2 != nil {
		t.Fatalf("expected the second Begin to hit the cache, got cached=%v err=%v", cached2, err2)
	}
	if mod2.State != Loaded {
		t.Errorf("expected Loaded state, got %s", mod2.State)
	}
	if mod2.Export.String() != (typesystem.String{}).String() {
		t.Errorf("expected cached export to be string, got %s", mod2.Export.String())
	}
	_ = mod
}

func TestBeginDetectsCycle(t *testing.T) {
	g := New(func(string) (string, bool) { return "", false })
	if _, _, err := g.Begin("a"); err != nil {
		t.Fatalf("unexpected error on first Begin: %v", err)
	}
	_, _, err := g.Begin("a")
	if err == nil {
		t.Fatalf("expected Begin to report a cycle for a still-loading module")
	}
	if _, ok := err.(*CycleError); !ok {
		t.Errorf("expected a *CycleError, got %T", err)
	}
}

func TestFinishWithErrorMarksFailed(t *testing.T) {
	g := New(func(string) (string, bool) { return "", false })
	g.Begin("a")
	g.Finish("a", nil, nil, errTest{})

	mod, cached, err := g.Begin("a")
	if err != nil {
		t.Fatalf("a failed module should not itself be a cycle: %v", err)
	}
	if !cached {
		t.Fatalf("expected a failed module to be returned as cached")
	}
	if mod.State != Failed {
		t.Errorf("expected Failed state, got %s", mod.State)
	}
}

type errTest struct{}

func (errTest) Error() string { return "boom" }

func TestOpenedLibrariesMarkOpenIsOneShot(t *testing.T) {
	o := NewOpenedLibraries()
	if first := o.MarkOpen("lua51"); !first {
		t.Fatalf("expected the first MarkOpen to report true")
	}
	if again := o.MarkOpen("lua51"); again {
		t.Fatalf("expected a repeated MarkOpen to report false")
	}
	if first := o.MarkOpen("other"); !first {
		t.Fatalf("expected a distinct library name to report true")
	}
}

func TestApplyExportsMergesTypedefs(t *testing.T) {
	env := classenv.New()
	mod := &Module{Types: map[string]typesystem.Type{"Point": typesystem.Integer{}}}
	ApplyExports(env, mod)
	typ, ok := env.Resolve("Point")
	if !ok {
		t.Fatalf("expected ApplyExports to merge 'Point' into the requirer's ClassEnv")
	}
	if typ.String() != (typesystem.Integer{}).String() {
		t.Errorf("expected 'Point' to resolve to integer, got %s", typ.String())
	}
}

func TestApplyExportsNilModuleIsNoop(t *testing.T) {
	env := classenv.New()
	ApplyExports(env, nil) // must not panic
	if _, ok := env.Resolve("anything"); ok {
		t.Fatalf("expected no typedefs after applying a nil module")
	}
}
