// Package modcache persists ModuleState snapshots across checking
// sessions so an IDE host re-checking a large `require` graph after a
// single-file edit can skip re-driving modules whose content hash
// hasn't moved (SPEC_FULL.md §4.11). modernc.org/sqlite sits in the
// teacher's (funvibe-funxy) own go.mod require block but is never
// imported by its source — this package is what finally exercises it,
// opening a pure-Go modernc.org/sqlite connection via database/sql and
// driving it with plain Query/Exec calls the way mcgru-funxy's
// internal/evaluator/builtins_sql.go does (a different repo in the
// retrieval pack); generalized here from an ad-hoc scripting builtin
// surface to a small fixed schema this package owns outright.
//
// The cache only pre-seeds Loaded entries across sessions; within one
// session the in-memory modulegraph.Graph state machine stays
// authoritative, exactly as SPEC_FULL.md §4.11 specifies.
package modcache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"

	_ "modernc.org/sqlite"
)

// HashContent derives the content hash Lookup/Store compare against,
// grounded on the teacher's ext.Cache.computeKey (sha256 over the
// relevant bytes, hex-encoded).
func HashContent(source string) string {
	h := sha256.Sum256([]byte(source))
	return hex.EncodeToString(h[:])
}

// ModuleState is one cached `require` target: its content hash, the
// set of Global typedefs it exported (rendered to type syntax so a
// cache hit doesn't need to re-run the type resolver), and its export
// type rendered the same way.
type ModuleState struct {
	Path         string
	ContentHash  string
	ExportSyntax string
	Exports      map[string]string // exported alias name -> rendered type syntax
}

// Cache wraps one sqlite-backed module-state store. It is safe for
// concurrent use by multiple sessions the way database/sql connection
// pools generally are (the teacher's SqlDB wraps the same *sql.DB
// directly for the same reason).
type Cache struct {
	db *sql.DB
}

// Open opens (creating if necessary) a module cache at dsn, a
// database/sql data source name understood by modernc.org/sqlite
// (typically a file path, or ":memory:" for a throwaway cache used by
// tests).
func Open(dsn string) (*Cache, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("modcache: open %q: %w", dsn, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("modcache: ping %q: %w", dsn, err)
	}
	c := &Cache{db: db}
	if err := c.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

func (c *Cache) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS modules (
	path          TEXT PRIMARY KEY,
	content_hash  TEXT NOT NULL,
	export_syntax TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS module_exports (
	path  TEXT NOT NULL,
	name  TEXT NOT NULL,
	type_syntax TEXT NOT NULL,
	PRIMARY KEY (path, name),
	FOREIGN KEY (path) REFERENCES modules(path) ON DELETE CASCADE
);
`
	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("modcache: migrate: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Lookup returns the cached ModuleState for path if one exists and its
// contentHash still matches what's stored — a mismatch means the file
// changed since the last check and the caller must re-drive it rather
// than trust the cached entry.
func (c *Cache) Lookup(ctx context.Context, path, contentHash string) (*ModuleState, bool, error) {
	row := c.db.QueryRowContext(ctx, `SELECT content_hash, export_syntax FROM modules WHERE path = ?`, path)
	var storedHash, exportSyntax string
	switch err := row.Scan(&storedHash, &exportSyntax); err {
	case sql.ErrNoRows:
		return nil, false, nil
	case nil:
		// fall through
	default:
		return nil, false, fmt.Errorf("modcache: lookup %q: %w", path, err)
	}
	if storedHash != contentHash {
		return nil, false, nil
	}

	rows, err := c.db.QueryContext(ctx, `SELECT name, type_syntax FROM module_exports WHERE path = ?`, path)
	if err != nil {
		return nil, false, fmt.Errorf("modcache: lookup exports %q: %w", path, err)
	}
	defer rows.Close()

	exports := map[string]string{}
	for rows.Next() {
		var name, typeSyntax string
		if err := rows.Scan(&name, &typeSyntax); err != nil {
			return nil, false, fmt.Errorf("modcache: scan export %q: %w", path, err)
		}
		exports[name] = typeSyntax
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("modcache: iterate exports %q: %w", path, err)
	}

	return &ModuleState{
		Path:         path,
		ContentHash:  storedHash,
		ExportSyntax: exportSyntax,
		Exports:      exports,
	}, true, nil
}

// Store replaces the cached state for state.Path, overwriting any
// previous entry (a module is re-checked and re-stored as a whole; this
// package never patches a partial entry).
func (c *Cache) Store(ctx context.Context, state *ModuleState) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("modcache: store %q: %w", state.Path, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO modules (path, content_hash, export_syntax) VALUES (?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET content_hash = excluded.content_hash, export_syntax = excluded.export_syntax`,
		state.Path, state.ContentHash, state.ExportSyntax); err != nil {
		return fmt.Errorf("modcache: store %q: %w", state.Path, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM module_exports WHERE path = ?`, state.Path); err != nil {
		return fmt.Errorf("modcache: clear exports %q: %w", state.Path, err)
	}
	for name, typeSyntax := range state.Exports {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO module_exports (path, name, type_syntax) VALUES (?, ?, ?)`,
			state.Path, name, typeSyntax); err != nil {
			return fmt.Errorf("modcache: store export %q.%q: %w", state.Path, name, err)
		}
	}

	return tx.Commit()
}

// Invalidate drops any cached state for path, forcing the next Lookup
// to miss (used when a host knows a file changed but doesn't have a
// fresh hash handy yet).
func (c *Cache) Invalidate(ctx context.Context, path string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM modules WHERE path = ?`, path)
	if err != nil {
		return fmt.Errorf("modcache: invalidate %q: %w", path, err)
	}
	return nil
}
