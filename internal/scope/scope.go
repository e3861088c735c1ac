// Package scope implements the lexical scope stack that holds local
// variable slots during checking, grounded on the teacher's
// internal/symbols (symbol_table.go, symbol_table_scopes.go) but
// generalized from funxy's symbol-kind taxonomy (var/func/type/module) to
// the flat "everything is a Slot" model spec.md §3/§4.6 describes.
package scope

import "github.com/evolbug/kailua/internal/typesystem"

// Scope is one lexical block: a function body, a do-block, a loop body,
// a branch arm. Scopes nest; lookups walk outward to the module root.
type Scope struct {
	parent  *Scope
	slots   map[string]*typesystem.Slot
	order   []string // declaration order, for dead-code / shadow-warning scans
	isFunc  bool     // true at a function-literal boundary (closures stop upvalue mutation tracking here)
}

// Context is the scope stack for one file/module being checked, plus the
// shared global table (spec.md §4.6: "globals are a single flat
// dictionary visible from every scope, distinct from locals").
type Context struct {
	current *Scope
	globals map[string]*typesystem.Slot
}

func NewContext() *Context {
	return &Context{
		current: &Scope{slots: map[string]*typesystem.Slot{}, isFunc: true},
		globals: map[string]*typesystem.Slot{},
	}
}

// Push opens a new nested block scope.
func (c *Context) Push() {
	c.current = &Scope{parent: c.current, slots: map[string]*typesystem.Slot{}}
}

// PushFunction opens a new function-boundary scope.
func (c *Context) PushFunction() {
	c.current = &Scope{parent: c.current, slots: map[string]*typesystem.Slot{}, isFunc: true}
}

// Pop closes the innermost scope, returning to its parent. Pop on the
// module root scope is a no-op (mirrors teacher's PopScope guard).
func (c *Context) Pop() {
	if c.current.parent != nil {
		c.current = c.current.parent
	}
}

// Declare introduces a new local slot in the current scope. Spec.md §4.6
// allows shadowing (a new `local x` hides an outer `x`), so this never
// errors on an existing name in the same scope — last declaration wins,
// the checker is responsible for emitting a redefinition warning if the
// feature flag calls for it.
func (c *Context) Declare(name string, slot *typesystem.Slot) {
	if _, exists := c.current.slots[name]; !exists {
		c.current.order = append(c.current.order, name)
	}
	c.current.slots[name] = slot
}

// Lookup walks outward from the current scope to find a local slot named
// name, returning ok=false if none exists at any enclosing scope (the
// caller then falls back to globals).
func (c *Context) Lookup(name string) (*typesystem.Slot, bool) {
	for s := c.current; s != nil; s = s.parent {
		if slot, ok := s.slots[name]; ok {
			return slot, true
		}
	}
	return nil, false
}

// LookupGlobal looks up a name in the shared global dictionary.
func (c *Context) LookupGlobal(name string) (*typesystem.Slot, bool) {
	slot, ok := c.globals[name]
	return slot, ok
}

// DeclareGlobal introduces or overwrites a global slot. Assigning to an
// undeclared global is itself a first-write declaration in Lua, so the
// checker calls this on the first assignment it observes to a name not
// already known as local or global (spec.md §4.5).
func (c *Context) DeclareGlobal(name string, slot *typesystem.Slot) {
	c.globals[name] = slot
}

// InFunctionScope reports whether the innermost function boundary scope
// is a nested function rather than the module root; it is false at module
// level (used to reject `...` vararg references and similar
// top-level-only constructs outside of function bodies where relevant).
func (c *Context) InFunctionScope() bool {
	for s := c.current; s != nil; s = s.parent {
		if s.isFunc {
			return s.parent != nil
		}
	}
	return false
}

// Names returns the names declared directly in the current scope, in
// declaration order, for dead-code reporting at scope exit.
func (c *Context) Names() []string {
	out := make([]string, len(c.current.order))
	copy(out, c.current.order)
	return out
}

// Snapshot captures the current scope chain's slot pointers for a later
// Restore, used by the statement checker to save/restore state across
// branch arms before joining (spec.md §4.6 flow joins operate on copies,
// not the live scope).
type Snapshot struct {
	slots map[string]*typesystem.Slot
}

// Snapshot copies the *values* (slot states) visible in every scope on
// the chain into a flat map keyed by name, shallow-copying each Slot so
// mutations inside a branch don't leak back before the join.
func (c *Context) Snapshot() Snapshot {
	flat := map[string]*typesystem.Slot{}
	var chain []*Scope
	for s := c.current; s != nil; s = s.parent {
		chain = append(chain, s)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		for name, slot := range chain[i].slots {
			cp := *slot
			flat[name] = &cp
		}
	}
	return Snapshot{slots: flat}
}

// Get reads a name out of a snapshot.
func (s Snapshot) Get(name string) (*typesystem.Slot, bool) {
	slot, ok := s.slots[name]
	return slot, ok
}

// Names returns every name captured in this snapshot, for callers that
// need to iterate a branch's end-of-block state (e.g. joining if/else
// arms back into the live scope).
func (s Snapshot) Names() []string {
	out := make([]string, 0, len(s.slots))
	for name := range s.slots {
		out = append(out, name)
	}
	return out
}

// Restore replaces the slot bound to name in the innermost scope on the
// live chain that declares it, or else the global of that name if one
// exists; an unknown name is ignored (used after computing a post-join
// type to commit it).
func (c *Context) Restore(name string, slot *typesystem.Slot) {
	for s := c.current; s != nil; s = s.parent {
		if _, ok := s.slots[name]; ok {
			s.slots[name] = slot
			return
		}
	}
	if _, ok := c.globals[name]; ok {
		c.globals[name] = slot
	}
}
