// Package core defines the run history record and the store contract shared
// by the persistence drivers.
package core

import (
	"context"
	"time"
)

// Operation names the service call that produced a run.
type Operation string

const (
	// OperationPlan is a fresh layout.
	OperationPlan Operation = "plan"
	// OperationExtend reconciles against a prior layout.
	OperationExtend Operation = "extend"
)

// Run is one recorded plan or extend invocation.
type Run struct {
	ID            int64     `json:"id,omitempty"`
	Layout        string    `json:"layout"`
	Generation    int       `json:"generation"`
	Operation     Operation `json:"operation"`
	Sequence      string    `json:"sequence"`
	Residues      int       `json:"residues"`
	VialUnits     int       `json:"vial_units"`
	AppendedUnits int       `json:"appended_units"`
	Racks         int       `json:"racks"`
	CreatedAt     time.Time `json:"created_at"`
}

// Store appends runs and lists them newest first.
type Store interface {
	Record(ctx context.Context, run Run) (Run, error)
	// List returns up to limit runs for layout, newest first. An empty layout
	// lists every run; limit <= 0 means no limit.
	List(ctx context.Context, layout string, limit int) ([]Run, error)
	Close() error
}

// Driver identifies a history backend.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
	DriverMemory   Driver = "memory"
	DriverNone     Driver = "none"
)
