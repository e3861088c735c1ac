// Package config loads per-project checker configuration from a
// .kailua.yml file, grounded on the teacher's internal/ext.Config
// (funxy.yaml parsing via yaml.v3), generalized here to SPEC_FULL.md
// §4.9's feature flags and package-path roots rather than Go-binding
// declarations.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Features toggles the checker behaviors spec.md §9's Open Questions and
// Design Notes leave as project-level choices rather than fixed rules.
type Features struct {
	// DeadCode enables an unreachable-statement warning (K-W002) for the
	// first statement after a `return` or `break` in the same block
	// (spec.md §4.6). Statements after an infinite loop are not flagged.
	DeadCode bool `yaml:"dead_code"`

	// NoImplicitFuncSig rejects an anonymous function literal with no
	// parameter annotations and no contextual hint, instead of silently
	// assigning Dynamic params (spec.md §1 Non-goals: "anonymous function
	// type inference without a contextual hint" — with this flag on, the
	// checker reports K-A002 instead of falling back).
	NoImplicitFuncSig bool `yaml:"no_implicit_func_sig"`

	// AlwaysTruthyWarning enables K-W003 for an `if`/`elseif` condition
	// whose type can never be nil or false (spec.md §4.4). `while` and
	// `repeat` conditions are not checked.
	AlwaysTruthyWarning bool `yaml:"always_truthy_warning"`
}

// DefaultFeatures matches the teacher's pattern of a permissive default
// config (ext.Config's BindAll/zero-value Dep is valid on its own) — all
// flags start off so an unconfigured project only sees hard type errors.
func DefaultFeatures() Features {
	return Features{}
}

// Config is the top-level .kailua.yml shape.
type Config struct {
	// Roots lists source directories to check, relative to the config
	// file (spec.md's external collaborator owns file discovery; this
	// just records what the project told it to look at).
	Roots []string `yaml:"roots,omitempty"`

	// Features holds the flags above.
	Features Features `yaml:"features,omitempty"`

	// Open lists built-in library modules to implicitly `--# open` in
	// every file of this project, without requiring a per-file directive.
	Open []string `yaml:"open,omitempty"`
}

func Default() *Config {
	return &Config{Features: DefaultFeatures()}
}

// Load reads and parses a .kailua.yml file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}
