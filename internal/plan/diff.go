package plan

import (
	"fmt"
	"sort"
)

// Reconciliation is the outcome of extending a prior layout for a new sequence.
type Reconciliation struct {
	// Merged is the prior layout, untouched, followed by the appended slots.
	Merged Snapshot
	// Assigned holds one slot per required unit, carrying this run's capacity.
	Assigned []RackSlot
	// Appended lists only the units that had no slot in the prior layout.
	Appended []RackSlot
	// Next is the first free slot after the merged layout.
	Next Cursor
}

// Reconcile maps required units onto a prior layout. Units already present,
// matched by code and suffix, keep their slot; the rest are appended after the
// highest occupied slot. Prior slots are never moved, removed or reused.
func Reconcile(prior Snapshot, required []VialUnit, rackSize int) (Reconciliation, error) {
	if rackSize <= 0 {
		return Reconciliation{}, InvalidRackSizeError{RackSize: rackSize}
	}
	existing, next, err := indexSnapshot(prior, rackSize)
	if err != nil {
		return Reconciliation{}, err
	}

	assigned := make([]RackSlot, len(required))
	var missing []VialUnit
	var missingAt []int
	for i, u := range required {
		if slot, ok := existing[u.key()]; ok {
			assigned[i] = RackSlot{Cursor: slot.Cursor, Unit: u}
			continue
		}
		missing = append(missing, u)
		missingAt = append(missingAt, i)
	}

	appended, next, err := MapToRacks(missing, rackSize, next)
	if err != nil {
		return Reconciliation{}, err
	}
	for j, slot := range appended {
		assigned[missingAt[j]] = slot
	}

	merged := prior.Clone()
	merged.RackSize = rackSize
	merged.Slots = append(merged.Slots, appended...)
	return Reconciliation{Merged: merged, Assigned: assigned, Appended: appended, Next: next}, nil
}

// NewSnapshot wraps freshly mapped slots as a layout baseline.
func NewSnapshot(slots []RackSlot, rackSize int) Snapshot {
	return Snapshot{RackSize: rackSize, Slots: append([]RackSlot(nil), slots...)}
}

// SortSlots returns a copy of slots ordered by rack then position.
func SortSlots(slots []RackSlot) []RackSlot {
	out := append([]RackSlot(nil), slots...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Before(out[j].Cursor) })
	return out
}

func indexSnapshot(prior Snapshot, rackSize int) (map[unitKey]RackSlot, Cursor, error) {
	if prior.RackSize != 0 && prior.RackSize != rackSize {
		return nil, Cursor{}, LayoutReconciliationError{
			Reason: fmt.Sprintf("layout was built for racks of %d positions, configuration uses %d", prior.RackSize, rackSize),
		}
	}
	byUnit := make(map[unitKey]RackSlot, len(prior.Slots))
	byCursor := make(map[Cursor]struct{}, len(prior.Slots))
	last := Cursor{}
	for i := range prior.Slots {
		slot := prior.Slots[i]
		switch {
		case slot.Rack < 1:
			return nil, Cursor{}, LayoutReconciliationError{Slot: &slot, Reason: "rack number must be at least 1"}
		case slot.Position < 1 || slot.Position > rackSize:
			return nil, Cursor{}, LayoutReconciliationError{Slot: &slot, Reason: fmt.Sprintf("position outside rack of %d", rackSize)}
		case slot.Unit.Code == "" || slot.Unit.Suffix < 1:
			return nil, Cursor{}, LayoutReconciliationError{Slot: &slot, Reason: "vial has no residue code or suffix"}
		}
		if _, dup := byCursor[slot.Cursor]; dup {
			return nil, Cursor{}, LayoutReconciliationError{Slot: &slot, Reason: "slot occupied twice"}
		}
		if _, dup := byUnit[slot.Unit.key()]; dup {
			return nil, Cursor{}, LayoutReconciliationError{Slot: &slot, Reason: "vial placed twice"}
		}
		byCursor[slot.Cursor] = struct{}{}
		byUnit[slot.Unit.key()] = slot
		if last.Before(slot.Cursor) {
			last = slot.Cursor
		}
	}
	if len(prior.Slots) == 0 {
		return byUnit, Start, nil
	}
	return byUnit, last.Next(rackSize), nil
}
