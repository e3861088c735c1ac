package modcache

import (
	"context"
	"testing"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open("file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("unexpected error opening an in-memory cache: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestHashContentIsDeterministicAndSensitive(t *testing.T) {
	a := HashContent("local x = 1")
	b := HashContent("local x = 1")
	c := HashContent("local x = 2")
	if a != b {
		t.Errorf("expected the same content to hash identically")
	}
	if a == c {
		t.Errorf("expected different content to hash differently")
	}
}

func TestLookupMissOnEmptyCache(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()
	_, ok, err := c.Lookup(ctx, "mod.lua", HashContent("local x = 1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Errorf("expected a lookup against an empty cache to miss")
	}
}

func TestStoreThenLookupHit(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()
	hash := HashContent("return 1")

	state := &ModuleState{
		Path:         "mod.lua",
		ContentHash:  hash,
		ExportSyntax: "integer",
		Exports:      map[string]string{"Point": "{x: integer, y: integer}"},
	}
	if err := c.Store(ctx, state); err != nil {
		t.Fatalf("unexpected error storing: %v", err)
	}

	got, ok, err := c.Lookup(ctx, "mod.lua", hash)
	if err != nil {
		t.Fatalf("unexpected error looking up: %v", err)
	}
	if !ok {
		t.Fatalf("expected a cache hit after Store")
	}
	if got.ExportSyntax != "integer" {
		t.Errorf("expected export syntax 'integer', got %q", got.ExportSyntax)
	}
	if got.Exports["Point"] != "{x: integer, y: integer}" {
		t.Errorf("expected the Point export to round-trip, got %v", got.Exports)
	}
}

func TestLookupMissesOnContentHashMismatch(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()
	state := &ModuleState{Path: "mod.lua", ContentHash: HashContent("return 1"), ExportSyntax: "integer"}
	if err := c.Store(ctx, state); err != nil {
		t.Fatalf("unexpected error storing: %v", err)
	}

	_, ok, err := c.Lookup(ctx, "mod.lua", HashContent("return 2"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Errorf("expected a changed file's stale content hash to miss the cache")
	}
}

func TestStoreOverwritesPreviousExports(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	first := &ModuleState{
		Path:         "mod.lua",
		ContentHash:  HashContent("v1"),
		ExportSyntax: "integer",
		Exports:      map[string]string{"A": "integer", "B": "string"},
	}
	if err := c.Store(ctx, first); err != nil {
		t.Fatalf("unexpected error storing first version: %v", err)
	}

	second := &ModuleState{
		Path:         "mod.lua",
		ContentHash:  HashContent("v2"),
		ExportSyntax: "string",
		Exports:      map[string]string{"C": "boolean"},
	}
	if err := c.Store(ctx, second); err != nil {
		t.Fatalf("unexpected error storing second version: %v", err)
	}

	got, ok, err := c.Lookup(ctx, "mod.lua", HashContent("v2"))
	if err != nil || !ok {
		t.Fatalf("expected a hit for the latest version, got ok=%v err=%v", ok, err)
	}
	if len(got.Exports) != 1 || got.Exports["C"] != "boolean" {
		t.Errorf("expected only the second version's exports to remain, got %v", got.Exports)
	}
}

func TestInvalidateForcesNextLookupToMiss(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()
	hash := HashContent("return 1")
	if err := c.Store(ctx, &ModuleState{Path: "mod.lua", ContentHash: hash, ExportSyntax: "integer"}); err != nil {
		t.Fatalf("unexpected error storing: %v", err)
	}

	if err := c.Invalidate(ctx, "mod.lua"); err != nil {
		t.Fatalf("unexpected error invalidating: %v", err)
	}

	_, ok, err := c.Lookup(ctx, "mod.lua", hash)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Errorf("expected Invalidate to force the next lookup to miss")
	}
}
