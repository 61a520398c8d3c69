package blob

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func TestOpen_Drivers(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name string
		cfg  Config
		want Driver
	}{
		{"memory", Config{Driver: DriverMemory}, DriverMemory},
		{"fs", Config{Driver: DriverFilesystem, FSRoot: t.TempDir()}, DriverFilesystem},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store, err := Open(ctx, tc.cfg)
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			if store.Driver() != tc.want {
				t.Fatalf("driver %s, want %s", store.Driver(), tc.want)
			}
			if _, err := store.Put(ctx, "k", bytes.NewReader([]byte("v")), PutOptions{}); err != nil {
				t.Fatalf("put: %v", err)
			}
			if _, err := store.Put(ctx, "k", bytes.NewReader([]byte("v")), PutOptions{}); !errors.Is(err, ErrExists) {
				t.Fatalf("expected ErrExists, got %v", err)
			}
		})
	}
}

func TestOpen_Errors(t *testing.T) {
	if _, err := Open(context.Background(), Config{Driver: "tape"}); err == nil {
		t.Fatalf("expected unknown driver error")
	}
	if _, err := Open(context.Background(), Config{Driver: DriverS3}); err == nil {
		t.Fatalf("expected missing bucket error")
	}
}

func TestMockS3_SharesContract(t *testing.T) {
	ctx := context.Background()
	store := NewMockS3ForTests("pfx")
	if _, err := store.Head(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
