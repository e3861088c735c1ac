package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultHasNoFeaturesEnabled(t *testing.T) {
	cfg := Default()
	if cfg.Features != (Features{}) {
		t.Errorf("expected Default() to start with every feature flag off, got %+v", cfg.Features)
	}
	if len(cfg.Roots) != 0 || len(cfg.Open) != 0 {
		t.Errorf("expected Default() to have no roots or opened libraries, got %+v", cfg)
	}
}

func TestLoadParsesFeaturesAndRoots(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".kailua.yml")
	content := `
roots:
  - src
  - lib
features:
  dead_code: true
  always_truthy_warning: true
open:
  - lua51
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}
	if len(cfg.Roots) != 2 || cfg.Roots[0] != "src" || cfg.Roots[1] != "lib" {
		t.Errorf("expected roots [src lib], got %v", cfg.Roots)
	}
	if !cfg.Features.DeadCode {
		t.Errorf("expected dead_code to be true")
	}
	if !cfg.Features.AlwaysTruthyWarning {
		t.Errorf("expected always_truthy_warning to be true")
	}
	if cfg.Features.NoImplicitFuncSig {
		t.Errorf("expected no_implicit_func_sig to remain false when absent from yaml")
	}
	if len(cfg.Open) != 1 || cfg.Open[0] != "lua51" {
		t.Errorf("expected open [lua51], got %v", cfg.Open)
	}
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yml")); err == nil {
		t.Fatalf("expected an error loading a nonexistent config file")
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".kailua.yml")
	if err := os.WriteFile(path, []byte("roots: [unterminated\n"), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected an error parsing malformed yaml")
	}
}
