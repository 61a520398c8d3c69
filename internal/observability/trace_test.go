package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestJSONTracer_RecordsSpans(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewJSONTracer(&buf)
	_, span := tracer.Start(context.Background(), "plan")
	span.End(nil)
	_, span = tracer.Start(context.Background(), "extend")
	span.End(errors.New("layout reconciliation failed"))

	entries := tracer.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Status != "success" || entries[1].Status != "error" || entries[1].Error == "" {
		t.Fatalf("unexpected entries %+v", entries)
	}
	dec := json.NewDecoder(&buf)
	var first TraceEntry
	if err := dec.Decode(&first); err != nil || first.Operation != "plan" {
		t.Fatalf("decode first line: %v %+v", err, first)
	}
}

func TestNoopTracer(t *testing.T) {
	ctx := context.Background()
	got, span := NoopTracer{}.Start(ctx, "plan")
	span.End(nil)
	if got != ctx {
		t.Fatalf("noop tracer should return the same context")
	}
}
