// Package history re-exports the run history contract and opens the
// configured persistence driver.
package history

import (
	"context"
	"fmt"

	"peptidesynth/internal/history/core"
	"peptidesynth/internal/infra/persistence/memory"
	"peptidesynth/internal/infra/persistence/postgres"
	"peptidesynth/internal/infra/persistence/sqlite"
)

type (
	// Run is one recorded plan or extend invocation.
	Run = core.Run
	// Store appends and lists runs.
	Store = core.Store
	// Operation names the service call that produced a run.
	Operation = core.Operation
	// Driver identifies a history backend.
	Driver = core.Driver
)

const (
	OperationPlan   = core.OperationPlan
	OperationExtend = core.OperationExtend

	DriverSQLite   = core.DriverSQLite
	DriverPostgres = core.DriverPostgres
	DriverMemory   = core.DriverMemory
	DriverNone     = core.DriverNone
)

// Config selects a driver. DSN is a file path for sqlite and a connection
// string for postgres.
type Config struct {
	Driver Driver `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// Open returns the Store named by cfg.Driver, defaulting to sqlite.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", DriverSQLite:
		return sqlite.NewStore(cfg.DSN)
	case DriverPostgres:
		return postgres.NewStore(ctx, cfg.DSN)
	case DriverMemory:
		return memory.NewStore(), nil
	case DriverNone:
		return Discard{}, nil
	default:
		return nil, fmt.Errorf("unknown history driver %q", cfg.Driver)
	}
}

// Discard drops every run.
type Discard struct{}

// Record returns run unchanged.
func (Discard) Record(_ context.Context, run Run) (Run, error) { return run, nil }

// List always returns no runs.
func (Discard) List(context.Context, string, int) ([]Run, error) { return nil, nil }

// Close is a no-op.
func (Discard) Close() error { return nil }
