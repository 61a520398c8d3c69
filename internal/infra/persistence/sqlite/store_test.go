package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"peptidesynth/internal/history/core"
)

func TestSQLiteStorePersistAndReload(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	store, err := NewStore(path)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, layout := range []string{"alpha", "beta", "alpha"} {
		run := core.Run{Layout: layout, Generation: i + 1, Operation: core.OperationExtend, Sequence: "A C D", Residues: 3, VialUnits: 3, AppendedUnits: 1, Racks: 1, CreatedAt: created}
		if _, err := store.Record(ctx, run); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reloaded, err := NewStore(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	t.Cleanup(func() { _ = reloaded.Close() })
	runs, err := reloaded.List(ctx, "alpha", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 2 || runs[0].Generation != 3 || runs[1].Generation != 1 {
		t.Fatalf("unexpected runs %+v", runs)
	}
	if runs[0].Operation != core.OperationExtend || !runs[0].CreatedAt.Equal(created) || runs[0].AppendedUnits != 1 {
		t.Fatalf("fields not round-tripped: %+v", runs[0])
	}
	limited, err := reloaded.List(ctx, "", 1)
	if err != nil || len(limited) != 1 || limited[0].Layout != "alpha" {
		t.Fatalf("limited list: %v %+v", err, limited)
	}
}

func TestSQLiteStoreCreatesRunsTable(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "h.db")
	store, err := NewStore(dbPath)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if store.Path() != dbPath {
		t.Fatalf("path %q, want %q", store.Path(), dbPath)
	}
	var name string
	if err := store.DB().QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name = ?", "runs").Scan(&name); err != nil {
		t.Fatalf("lookup runs table: %v", err)
	}
}
