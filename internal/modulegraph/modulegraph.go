// Package modulegraph resolves `require` calls between checked files
// and detects cycles, per spec.md §4.7. Grounded on the teacher's
// internal/modules (Loader/Module), generalized from funxy's
// directory-of-files package model to Lua's one-file-one-module
// `require("a.b.c")` dotted-path convention.
package modulegraph

import (
	"strings"

	"github.com/evolbug/kailua/internal/classenv"
	"github.com/evolbug/kailua/internal/typesystem"
)

// State is a module's position in the load lifecycle, grounded on the
// teacher's Loader.Processing cycle-detection flag, generalized into an
// explicit state enum per spec.md §4.7's "NotLoaded|Loading|Loaded|Failed"
// machine.
type State int

const (
	NotLoaded State = iota
	Loading
	Loaded
	Failed
)

func (s State) String() string {
	switch s {
	case NotLoaded:
		return "not-loaded"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Module is one `require`-able unit. Its export surface is the type the
// checker assigns to whatever the file's chunk returns, plus any Global
// typedefs it declared (spec.md §4.3/§4.7).
type Module struct {
	Path    string
	State   State
	Export  typesystem.Type
	Types   map[string]typesystem.Type // exported Global typedefs
	Err     error                      // set when State == Failed
}

// Graph tracks every module touched while checking a project, resolving
// `require` paths to Modules and detecting require cycles.
type Graph struct {
	modules map[string]*Module
	// Resolve turns a require path into source text, supplied by the
	// caller (pipeline) so this package stays free of file I/O per
	// spec.md §1's external-collaborator boundary.
	Resolve func(path string) (src string, ok bool)
}

func New(resolve func(path string) (string, bool)) *Graph {
	return &Graph{modules: map[string]*Module{}, Resolve: resolve}
}

// normalize turns a dotted require path ("a.b.c") into the canonical key
// used to index modules, matching Lua's package.path convention of
// dot-separated module names.
func normalize(path string) string {
	return strings.TrimSpace(path)
}

// Begin starts (or resumes) loading the module at path. The caller
// (pipeline) is expected to call Begin before checking a required file's
// body and Finish after, so cycles are caught between the two calls.
//
// Returns:
//   - mod, false, nil   if the module needs to be checked now
//   - mod, true, nil    if the module was already loaded (cache hit)
//   - nil, false, err   if path is already Loading: a require cycle
func (g *Graph) Begin(path string) (mod *Module, cached bool, cycleErr error) {
	key := normalize(path)
	if m, ok := g.modules[key]; ok {
		switch m.State {
		case Loaded:
			return m, true, nil
		case Loading:
			return nil, false, &CycleError{Path: key}
		case Failed:
			return m, true, nil
		}
	}
	m := &Module{Path: key, State: Loading}
	g.modules[key] = m
	return m, false, nil
}

// Finish marks a module Loaded with its resolved export type and typedef
// table, or Failed with an error if checking it didn't succeed.
func (g *Graph) Finish(path string, export typesystem.Type, types map[string]typesystem.Type, err error) {
	key := normalize(path)
	m, ok := g.modules[key]
	if !ok {
		m = &Module{Path: key}
		g.modules[key] = m
	}
	if err != nil {
		m.State = Failed
		m.Err = err
		return
	}
	m.State = Loaded
	m.Export = export
	m.Types = types
}

// Get returns the module at path if known.
func (g *Graph) Get(path string) (*Module, bool) {
	m, ok := g.modules[normalize(path)]
	return m, ok
}

// CycleError reports a require cycle. Begin returns one every time a
// path that is still Loading is required again, and Checker.Require
// reports each as a module error (K-A008) anchored at that require
// call's span, typing the call as Dynamic. A cycle re-entered through
// more than one branch is reported once per re-entry.
type CycleError struct {
	Path string
}

func (e *CycleError) Error() string {
	return "require cycle detected at '" + e.Path + "'"
}

// ApplyExports merges a required module's typedefs into a requirer's
// ClassEnv as Global-visibility aliases, per spec.md §4.3/§4.7.
func ApplyExports(env *classenv.ClassEnv, mod *Module) {
	if mod == nil || mod.Types == nil {
		return
	}
	env.Import(mod.Types)
}
