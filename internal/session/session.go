// Package session identifies one checking run — one CLI invocation or
// one rpcservice.Check call — for log correlation (spec.md §5); no
// cache or diagnostic store keys on the ID. google/uuid isn't part of the teacher's own
// dependency surface; it's pulled in from the rest of the retrieval pack
// (mcgru-funxy's internal/evaluator/builtins_uuid.go, a lib/uuid virtual
// package wrapping uuid.New/uuid.NewV5/etc.) to mint one stable
// uuid.UUID per checking session, the same generator, used here for
// session identity instead of a user-facing value.
package session

import (
	"github.com/evolbug/kailua/internal/classenv"
	"github.com/evolbug/kailua/internal/config"
	"github.com/evolbug/kailua/internal/diagnostics"
	"github.com/evolbug/kailua/internal/modulegraph"
	"github.com/evolbug/kailua/internal/typesystem"
	"github.com/google/uuid"
)

// Session bundles the state one checking run needs across files: its own
// identity, the project configuration, and the shared module graph
// (spec.md §5: each run owns one module graph; concurrent sessions never
// share one).
type Session struct {
	ID       uuid.UUID
	Config   *config.Config
	Graph    *modulegraph.Graph
	Sink     *diagnostics.Sink
	Env      *classenv.ClassEnv
	Consts   *typesystem.ConstraintEnv
}

// New starts a session with a fresh identity, grounded on the teacher's
// per-testcase uuid.New() call but kept for the session's whole
// lifetime rather than discarded after one temp-dir name.
func New(cfg *config.Config, resolve func(path string) (string, bool)) *Session {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Session{
		ID:     uuid.New(),
		Config: cfg,
		Graph:  modulegraph.New(resolve),
		Sink:   diagnostics.NewSink(),
		Env:    classenv.New(),
		Consts: typesystem.NewConstraintEnv(),
	}
}

// String renders the session id for log correlation.
func (s *Session) String() string {
	return s.ID.String()
}
