// Package residue loads the residue lookup table and resolves raw sequences
// into tokens understood by the planning engine.
package residue

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"peptidesynth/internal/plan"
)

//go:embed amino_acids.csv
var defaultTable []byte

// Residue is one entry of the lookup table.
type Residue struct {
	Code plan.ResidueCode `yaml:"code"`
	// MW is the molecular weight in g/mol.
	MW   float64 `yaml:"mw"`
	Name string  `yaml:"name,omitempty"`
}

// Table maps residue codes to their properties. It is immutable once built.
type Table struct {
	entries []Residue
	byCode  map[plan.ResidueCode]Residue
	// longest code first, so "Pra" is matched before "P"
	matchOrder []plan.ResidueCode
}

// TableError reports a malformed lookup table entry.
type TableError struct {
	Source string
	Line   int
	Reason string
}

func (e TableError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("residue table %s line %d: %s", e.Source, e.Line, e.Reason)
	}
	return fmt.Sprintf("residue table %s: %s", e.Source, e.Reason)
}

type yamlTable struct {
	Residues []Residue `yaml:"residues"`
}

// NewTable validates entries and builds a table.
func NewTable(entries []Residue) (*Table, error) {
	t := &Table{byCode: make(map[plan.ResidueCode]Residue, len(entries))}
	for i, r := range entries {
		r.Code = plan.ResidueCode(strings.TrimSpace(string(r.Code)))
		r.Name = strings.TrimSpace(r.Name)
		switch {
		case r.Code == "":
			return nil, TableError{Line: i + 1, Reason: "empty residue code"}
		case strings.ContainsAny(string(r.Code), " \t\r\n"):
			return nil, TableError{Line: i + 1, Reason: fmt.Sprintf("residue code %q contains whitespace", r.Code)}
		case r.MW <= 0:
			return nil, TableError{Line: i + 1, Reason: fmt.Sprintf("residue %s has non-positive molecular weight %v", r.Code, r.MW)}
		}
		if _, dup := t.byCode[r.Code]; dup {
			return nil, TableError{Line: i + 1, Reason: fmt.Sprintf("duplicate residue code %s", r.Code)}
		}
		t.byCode[r.Code] = r
		t.entries = append(t.entries, r)
		t.matchOrder = append(t.matchOrder, r.Code)
	}
	if len(t.entries) == 0 {
		return nil, TableError{Reason: "no residues defined"}
	}
	sort.SliceStable(t.matchOrder, func(i, j int) bool { return len(t.matchOrder[i]) > len(t.matchOrder[j]) })
	return t, nil
}

// Default returns the embedded table of the twenty standard amino acids.
func Default() *Table {
	t, err := ParseCSV(bytes.NewReader(defaultTable))
	if err != nil {
		panic(fmt.Sprintf("embedded residue table: %v", err))
	}
	return t
}

// Load reads a table from path. YAML is used for .yaml/.yml files, CSV otherwise.
// An empty path yields the embedded default table.
func Load(path string) (*Table, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open residue table: %w", err)
	}
	defer func() { _ = f.Close() }()
	var t *Table
	if isYAML(path) {
		t, err = ParseYAML(f)
	} else {
		t, err = ParseCSV(f)
	}
	var te TableError
	if errors.As(err, &te) {
		te.Source = path
		return nil, te
	}
	return t, err
}

// ParseCSV reads an `AA,MW,Name` table. The Name column is optional.
func ParseCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, TableError{Reason: err.Error()}
	}
	if len(rows) == 0 {
		return nil, TableError{Reason: "missing header"}
	}
	cols := map[string]int{}
	for i, h := range rows[0] {
		cols[strings.ToUpper(strings.TrimSpace(h))] = i
	}
	codeCol, okCode := cols["AA"]
	mwCol, okMW := cols["MW"]
	if !okCode || !okMW {
		return nil, TableError{Line: 1, Reason: "header must contain AA and MW columns"}
	}
	nameCol, hasName := cols["NAME"]
	var entries []Residue
	for i, row := range rows[1:] {
		line := i + 2
		if len(row) <= codeCol || len(row) <= mwCol {
			return nil, TableError{Line: line, Reason: "missing columns"}
		}
		mw, err := strconv.ParseFloat(strings.TrimSpace(row[mwCol]), 64)
		if err != nil {
			return nil, TableError{Line: line, Reason: fmt.Sprintf("molecular weight %q is not a number", row[mwCol])}
		}
		r := Residue{Code: plan.ResidueCode(row[codeCol]), MW: mw}
		if hasName && len(row) > nameCol {
			r.Name = row[nameCol]
		}
		entries = append(entries, r)
	}
	t, err := NewTable(entries)
	var te TableError
	if errors.As(err, &te) && te.Line > 0 {
		// entries start on the second line
		te.Line++
		return nil, te
	}
	return t, err
}

// ParseYAML reads a table of the form `residues: [{code, mw, name}]`.
func ParseYAML(r io.Reader) (*Table, error) {
	var doc yamlTable
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, TableError{Reason: err.Error()}
	}
	return NewTable(doc.Residues)
}

// Lookup returns the entry for code.
func (t *Table) Lookup(code plan.ResidueCode) (Residue, bool) {
	r, ok := t.byCode[code]
	return r, ok
}

// Residues returns the entries in table order.
func (t *Table) Residues() []Residue {
	return append([]Residue(nil), t.entries...)
}

// Len returns the number of residues.
func (t *Table) Len() int { return len(t.entries) }

// With returns a new table that also holds r.
func (t *Table) With(r Residue) (*Table, error) {
	return NewTable(append(t.Residues(), r))
}

// Save writes the table to path, replacing any existing file atomically.
func Save(path string, t *Table) error {
	var buf bytes.Buffer
	if isYAML(path) {
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(yamlTable{Residues: t.entries}); err != nil {
			return fmt.Errorf("encode residue table: %w", err)
		}
		_ = enc.Close()
	} else {
		w := csv.NewWriter(&buf)
		_ = w.Write([]string{"AA", "MW", "Name"})
		for _, r := range t.entries {
			_ = w.Write([]string{string(r.Code), strconv.FormatFloat(r.MW, 'f', -1, 64), r.Name})
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return fmt.Errorf("encode residue table: %w", err)
		}
	}
	return writeFileAtomic(path, buf.Bytes())
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
