package testutil

import (
	"context"
	"database/sql/driver"
	"testing"
)

func TestStubConnInsertAndSelect(t *testing.T) {
	ctx := context.Background()
	_, conn := NewStubDB()
	if err := conn.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	for _, layout := range []string{"a", "b", "a"} {
		rows, err := conn.QueryContext(ctx, "INSERT INTO runs(layout,racks) VALUES($1,$2) RETURNING id", []driver.NamedValue{{Value: layout}, {Value: int64(1)}})
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
		_ = rows.Close()
	}
	rows, err := conn.QueryContext(ctx, "SELECT id, layout FROM runs WHERE layout = $1 LIMIT $2", []driver.NamedValue{{Value: "a"}, {Value: int64(5)}})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	dest := make([]driver.Value, 2)
	if err := rows.Next(dest); err != nil {
		t.Fatalf("next: %v", err)
	}
	if dest[0] != int64(3) || dest[1] != "a" {
		t.Fatalf("expected newest row first, got %v", dest)
	}
}
