// Package sqlite records run history in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"peptidesynth/internal/history/core"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

var _ core.Store = (*Store)(nil)

const defaultPath = "peptidesynth.db"

const schema = `CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	layout TEXT NOT NULL,
	generation INTEGER NOT NULL,
	operation TEXT NOT NULL,
	sequence TEXT NOT NULL,
	residues INTEGER NOT NULL,
	vial_units INTEGER NOT NULL,
	appended_units INTEGER NOT NULL,
	racks INTEGER NOT NULL,
	created_at TEXT NOT NULL
)`

// Store is a SQLite-backed history store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (creating if needed) the database at path.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = defaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create runs table: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Record inserts run and returns it with its assigned ID.
func (s *Store) Record(ctx context.Context, run core.Run) (core.Run, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO runs(layout,generation,operation,sequence,residues,vial_units,appended_units,racks,created_at) VALUES(?,?,?,?,?,?,?,?,?)`,
		run.Layout, run.Generation, string(run.Operation), run.Sequence, run.Residues, run.VialUnits, run.AppendedUnits, run.Racks, run.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return core.Run{}, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Run{}, fmt.Errorf("run id: %w", err)
	}
	run.ID = id
	return run, nil
}

// List returns runs newest first.
func (s *Store) List(ctx context.Context, layout string, limit int) ([]core.Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id,layout,generation,operation,sequence,residues,vial_units,appended_units,racks,created_at FROM runs WHERE (? = '' OR layout = ?) ORDER BY id DESC LIMIT ?`, layout, layout, limit)
	if err != nil {
		return nil, fmt.Errorf("select runs: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []core.Run
	for rows.Next() {
		var (
			run     core.Run
			op      string
			created string
		)
		if err := rows.Scan(&run.ID, &run.Layout, &run.Generation, &op, &run.Sequence, &run.Residues, &run.VialUnits, &run.AppendedUnits, &run.Racks, &created); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Operation = core.Operation(op)
		if run.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", created, err)
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return out, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }
