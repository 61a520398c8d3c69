package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"peptidesynth/internal/plan"
)

// WriteVialPlanCSV writes one row per vial in rack order.
func WriteVialPlanCSV(w io.Writer, r Report) error {
	return writeCSV(w, vialPlanHeader, r.vialPlanRows())
}

// WriteSynthesisCSV writes one row per step in synthesis order.
func WriteSynthesisCSV(w io.Writer, r Report) error {
	rows, err := r.synthesisRows()
	if err != nil {
		return err
	}
	return writeCSV(w, synthesisHeader, rows)
}

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// ReadVialPlan parses a vial plan CSV back into a layout snapshot. Only the
// Rack, Position, Vial, Code and Occurrences columns are read; header names
// are matched case-insensitively and may be padded. Rows with zero
// occurrences are idle vials and still occupy their slot.
func ReadVialPlan(rd io.Reader, rackSize int) (plan.Snapshot, error) {
	cr := csv.NewReader(rd)
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return plan.Snapshot{}, fmt.Errorf("read vial plan: %w", err)
	}
	if len(records) == 0 {
		return plan.Snapshot{}, fmt.Errorf("read vial plan: empty file")
	}
	cols := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	idx := make(map[string]int, 5)
	for _, name := range []string{"rack", "position", "vial", "code", "occurrences"} {
		i, ok := cols[name]
		if !ok {
			return plan.Snapshot{}, fmt.Errorf("read vial plan: missing column %q", name)
		}
		idx[name] = i
	}

	slots := make([]plan.RackSlot, 0, len(records)-1)
	for n, rec := range records[1:] {
		line := n + 2
		field := func(name string) string { return strings.TrimSpace(rec[idx[name]]) }
		rack, err := strconv.Atoi(field("rack"))
		if err != nil {
			return plan.Snapshot{}, fmt.Errorf("vial plan line %d: rack: %w", line, err)
		}
		pos, err := strconv.Atoi(field("position"))
		if err != nil {
			return plan.Snapshot{}, fmt.Errorf("vial plan line %d: position: %w", line, err)
		}
		capacity, err := strconv.Atoi(field("occurrences"))
		if err != nil {
			return plan.Snapshot{}, fmt.Errorf("vial plan line %d: occurrences: %w", line, err)
		}
		if capacity < 0 {
			return plan.Snapshot{}, fmt.Errorf("vial plan line %d: negative occurrences %d", line, capacity)
		}
		code := plan.ResidueCode(field("code"))
		suffix, err := vialSuffix(field("vial"), code)
		if err != nil {
			return plan.Snapshot{}, fmt.Errorf("vial plan line %d: %w", line, err)
		}
		slots = append(slots, plan.RackSlot{
			Cursor: plan.Cursor{Rack: rack, Position: pos},
			Unit:   plan.VialUnit{Code: code, Suffix: suffix, Capacity: capacity},
		})
	}
	return plan.NewSnapshot(slots, rackSize), nil
}

func vialSuffix(vial string, code plan.ResidueCode) (int, error) {
	if code == "" {
		return 0, fmt.Errorf("vial %q has no code", vial)
	}
	if vial == string(code) {
		return 1, nil
	}
	rest, ok := strings.CutPrefix(vial, string(code))
	if !ok {
		return 0, fmt.Errorf("vial %q does not belong to code %s", vial, code)
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 2 {
		return 0, fmt.Errorf("vial %q has an invalid suffix", vial)
	}
	return n, nil
}
