// Package postgres records run history in Postgres through the pgx
// database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"peptidesynth/internal/history/core"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

var _ core.Store = (*Store)(nil)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/peptidesynth?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

const schema = `CREATE TABLE IF NOT EXISTS runs (
	id BIGSERIAL PRIMARY KEY,
	layout TEXT NOT NULL,
	generation INTEGER NOT NULL,
	operation TEXT NOT NULL,
	sequence TEXT NOT NULL,
	residues INTEGER NOT NULL,
	vial_units INTEGER NOT NULL,
	appended_units INTEGER NOT NULL,
	racks INTEGER NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
)`

// Store persists runs to a Postgres table.
type Store struct {
	db *sql.DB
}

// NewStore opens dsn (falls back to defaultDSN), pings it and ensures the runs table exists.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure runs table: %w", err)
	}
	return &Store{db: db}, nil
}

// Record inserts run and returns it with its assigned ID.
func (s *Store) Record(ctx context.Context, run core.Run) (core.Run, error) {
	row := s.db.QueryRowContext(ctx, `INSERT INTO runs(layout,generation,operation,sequence,residues,vial_units,appended_units,racks,created_at) VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING id`,
		run.Layout, run.Generation, string(run.Operation), run.Sequence, run.Residues, run.VialUnits, run.AppendedUnits, run.Racks, run.CreatedAt.UTC())
	if err := row.Scan(&run.ID); err != nil {
		return core.Run{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// List returns runs newest first.
func (s *Store) List(ctx context.Context, layout string, limit int) ([]core.Run, error) {
	var lim any
	if limit > 0 {
		lim = limit
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id,layout,generation,operation,sequence,residues,vial_units,appended_units,racks,created_at FROM runs WHERE ($1 = '' OR layout = $1) ORDER BY id DESC LIMIT $2`, layout, lim)
	if err != nil {
		return nil, fmt.Errorf("select runs: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []core.Run
	for rows.Next() {
		var (
			run core.Run
			op  string
		)
		if err := rows.Scan(&run.ID, &run.Layout, &run.Generation, &op, &run.Sequence, &run.Residues, &run.VialUnits, &run.AppendedUnits, &run.Racks, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Operation = core.Operation(op)
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

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
