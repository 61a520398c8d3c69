package history

import (
	"context"
	"path/filepath"
	"testing"
)

func TestOpen_Drivers(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name     string
		cfg      Config
		keepRuns bool
	}{
		{"memory", Config{Driver: DriverMemory}, true},
		{"sqlite", Config{Driver: DriverSQLite, DSN: filepath.Join(t.TempDir(), "h.db")}, true},
		{"default", Config{DSN: filepath.Join(t.TempDir(), "d.db")}, true},
		{"none", Config{Driver: DriverNone}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store, err := Open(ctx, tc.cfg)
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			t.Cleanup(func() { _ = store.Close() })
			if _, err := store.Record(ctx, Run{Layout: "l", Generation: 1, Operation: OperationPlan}); err != nil {
				t.Fatalf("record: %v", err)
			}
			runs, err := store.List(ctx, "l", 0)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if got := len(runs) == 1; got != tc.keepRuns {
				t.Fatalf("expected keepRuns=%v, got %d runs", tc.keepRuns, len(runs))
			}
		})
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), Config{Driver: "mongo"}); err == nil {
		t.Fatalf("expected error")
	}
}
