package modulegraph

// OpenedLibraries tracks which `--# open NAME` library sets a file has
// already loaded, so a second `open lua51` in the same session is a
// no-op (spec.md §8: "open lua51 is idempotent"). This lives alongside
// Graph rather than inside it since libraries are a per-file concern
// (each file opens its own set) while Graph tracks per-session `require`
// state; kept in this package regardless, per SPEC_FULL.md §4's
// component map, since both are "how a name outside this file's own
// declarations becomes visible" concerns.
type OpenedLibraries struct {
	opened map[string]bool
}

func NewOpenedLibraries() *OpenedLibraries {
	return &OpenedLibraries{opened: map[string]bool{}}
}

// MarkOpen records name as opened, returning true the first time (the
// caller should load the library's globals only on that first call) and
// false on every subsequent open of the same name.
func (o *OpenedLibraries) MarkOpen(name string) (first bool) {
	if o.opened[name] {
		return false
	}
	o.opened[name] = true
	return true
}
