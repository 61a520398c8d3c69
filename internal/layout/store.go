// Package layout persists rack layout snapshots as generational JSON
// documents in a blob store.
package layout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"peptidesynth/internal/blob"
	"peptidesynth/internal/plan"
)

// DefaultRetain is the number of generations kept per layout name.
const DefaultRetain = 5

const keyPrefix = "layouts"

var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Document is the persisted form of a layout snapshot.
type Document struct {
	Name       string             `json:"name"`
	Generation int                `json:"generation"`
	RackSize   int                `json:"rack_size"`
	Sequence   []plan.ResidueCode `json:"sequence"`
	Slots      []plan.RackSlot    `json:"slots"`
	// DeprotectionRack is where the run placed its deprotection vials.
	DeprotectionRack int       `json:"deprotection_rack,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// Snapshot returns the plan baseline held by the document.
func (d Document) Snapshot() plan.Snapshot {
	snap := plan.NewSnapshot(d.Slots, d.RackSize)
	snap.DeprotectionRack = d.DeprotectionRack
	return snap
}

// ErrNotFound reports a missing layout or generation.
type ErrNotFound struct {
	Name       string
	Generation int
}

func (e ErrNotFound) Error() string {
	if e.Generation > 0 {
		return fmt.Sprintf("layout %s generation %d not found", e.Name, e.Generation)
	}
	return fmt.Sprintf("layout %s not found", e.Name)
}

// ErrGenerationConflict is returned when another writer already stored the
// generation Save tried to create.
type ErrGenerationConflict struct {
	Name       string
	Generation int
}

func (e ErrGenerationConflict) Error() string {
	return fmt.Sprintf("layout %s generation %d already exists", e.Name, e.Generation)
}

// Option customises a Store.
type Option func(*Store)

// WithRetain sets how many generations survive pruning. Zero or less keeps all.
func WithRetain(n int) Option {
	return func(s *Store) { s.retain = n }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store reads and writes layout documents.
type Store struct {
	blobs  blob.Store
	retain int
	now    func() time.Time
}

// NewStore wraps a blob store.
func NewStore(blobs blob.Store, opts ...Option) *Store {
	s := &Store{blobs: blobs, retain: DefaultRetain, now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ValidateName checks that name is usable as a blob key segment.
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("invalid layout name %q", name)
	}
	return nil
}

func documentKey(name string, generation int) string {
	return path.Join(keyPrefix, name, fmt.Sprintf("%08d.json", generation))
}

// Save stores snap as generation base+1 of name, then prunes old generations.
// base is the generation the caller read, 0 for a new layout.
func (s *Store) Save(ctx context.Context, name string, base int, snap plan.Snapshot, sequence []plan.ResidueCode) (Document, error) {
	if err := ValidateName(name); err != nil {
		return Document{}, err
	}
	if base < 0 {
		return Document{}, fmt.Errorf("layout %s: negative base generation %d", name, base)
	}
	doc := Document{
		Name:             name,
		Generation:       base + 1,
		RackSize:         snap.RackSize,
		Sequence:         append([]plan.ResidueCode(nil), sequence...),
		Slots:            plan.SortSlots(snap.Slots),
		DeprotectionRack: snap.DeprotectionRack,
		CreatedAt:        s.now(),
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return Document{}, fmt.Errorf("encode layout %s: %w", name, err)
	}
	_, err = s.blobs.Put(ctx, documentKey(name, doc.Generation), bytes.NewReader(data), blob.PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"generation": strconv.Itoa(doc.Generation)},
	})
	if errors.Is(err, blob.ErrExists) {
		return Document{}, ErrGenerationConflict{Name: name, Generation: doc.Generation}
	}
	if err != nil {
		return Document{}, fmt.Errorf("store layout %s: %w", name, err)
	}
	if err := s.prune(ctx, name); err != nil {
		return doc, err
	}
	return doc, nil
}

// Latest returns the highest stored generation of name.
func (s *Store) Latest(ctx context.Context, name string) (Document, error) {
	gens, err := s.Generations(ctx, name)
	if err != nil {
		return Document{}, err
	}
	if len(gens) == 0 {
		return Document{}, ErrNotFound{Name: name}
	}
	return s.Load(ctx, name, gens[len(gens)-1])
}

// Load reads one generation of name.
func (s *Store) Load(ctx context.Context, name string, generation int) (Document, error) {
	if err := ValidateName(name); err != nil {
		return Document{}, err
	}
	_, rc, err := s.blobs.Get(ctx, documentKey(name, generation))
	if errors.Is(err, blob.ErrNotFound) {
		return Document{}, ErrNotFound{Name: name, Generation: generation}
	}
	if err != nil {
		return Document{}, fmt.Errorf("read layout %s: %w", name, err)
	}
	defer func() { _ = rc.Close() }()
	var doc Document
	if err := json.NewDecoder(rc).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("decode layout %s generation %d: %w", name, generation, err)
	}
	if doc.Name != name || doc.Generation != generation {
		return Document{}, fmt.Errorf("layout %s generation %d: document claims %s generation %d", name, generation, doc.Name, doc.Generation)
	}
	return doc, nil
}

// Generations lists the stored generations of name in ascending order.
func (s *Store) Generations(ctx context.Context, name string) ([]int, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	prefix := path.Join(keyPrefix, name) + "/"
	infos, err := s.blobs.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list layout %s: %w", name, err)
	}
	gens := make([]int, 0, len(infos))
	for _, info := range infos {
		base := strings.TrimPrefix(info.Key, prefix)
		if strings.Contains(base, "/") || !strings.HasSuffix(base, ".json") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(base, ".json"))
		if err != nil || n < 1 {
			continue
		}
		gens = append(gens, n)
	}
	sort.Ints(gens)
	return gens, nil
}

func (s *Store) prune(ctx context.Context, name string) error {
	if s.retain <= 0 {
		return nil
	}
	gens, err := s.Generations(ctx, name)
	if err != nil {
		return err
	}
	if len(gens) <= s.retain {
		return nil
	}
	for _, g := range gens[:len(gens)-s.retain] {
		if _, err := s.blobs.Delete(ctx, documentKey(name, g)); err != nil {
			return fmt.Errorf("prune layout %s generation %d: %w", name, g, err)
		}
	}
	return nil
}
