package plan

import "fmt"

// EmptySequenceError is returned when a sequence contains no residues.
type EmptySequenceError struct{}

func (EmptySequenceError) Error() string { return "sequence is empty" }

// UnknownCodeError reports a token that does not resolve against the residue table.
type UnknownCodeError struct {
	Token    string
	Position int
}

func (e UnknownCodeError) Error() string {
	return fmt.Sprintf("unknown residue %q at position %d", e.Token, e.Position)
}

// InvalidCapacityError reports a non-positive vial capacity.
type InvalidCapacityError struct {
	MaxPerVial int
}

func (e InvalidCapacityError) Error() string {
	return fmt.Sprintf("invalid vial capacity %d: must be positive", e.MaxPerVial)
}

// InvalidRackSizeError reports a non-positive rack size.
type InvalidRackSizeError struct {
	RackSize int
}

func (e InvalidRackSizeError) Error() string {
	return fmt.Sprintf("invalid rack size %d: must be positive", e.RackSize)
}

// PlanInconsistencyError signals that vial units and tokens disagree. It indicates a bug.
type PlanInconsistencyError struct {
	Code   ResidueCode
	Step   int
	Reason string
}

func (e PlanInconsistencyError) Error() string {
	return fmt.Sprintf("plan inconsistency at step %d (%s): %s", e.Step, e.Code, e.Reason)
}

// LayoutReconciliationError reports a prior layout that cannot be extended with
// the current configuration. The layout is never renumbered to work around it.
type LayoutReconciliationError struct {
	Slot   *RackSlot
	Reason string
}

func (e LayoutReconciliationError) Error() string {
	if e.Slot == nil {
		return "layout reconciliation: " + e.Reason
	}
	return fmt.Sprintf("layout reconciliation: vial %s at rack %d position %d: %s",
		e.Slot.Unit.ID(), e.Slot.Rack, e.Slot.Position, e.Reason)
}

// DeprotectionCapacityError reports that deprotection vials do not fit on their rack.
type DeprotectionCapacityError struct {
	Needed    int
	Available int
}

func (e DeprotectionCapacityError) Error() string {
	return fmt.Sprintf("not enough rack space for deprotection vials: need %d, rack holds %d", e.Needed, e.Available)
}
