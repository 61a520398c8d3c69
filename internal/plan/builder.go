package plan

// Options configures plan construction.
type Options struct {
	MaxPerVial int
	RackSize   int
}

func (o Options) validate() error {
	if o.MaxPerVial <= 0 {
		return InvalidCapacityError{MaxPerVial: o.MaxPerVial}
	}
	if o.RackSize <= 0 {
		return InvalidRackSizeError{RackSize: o.RackSize}
	}
	return nil
}

// Result bundles the vial plan and synthesis plan for one sequence.
type Result struct {
	Occurrences []OccurrenceCount `json:"occurrences"`
	Units       []VialUnit        `json:"units"`
	// Slots is the vial plan for this run, ordered by rack and position.
	Slots []RackSlot      `json:"slots"`
	Steps []SynthesisStep `json:"steps"`
	// Layout is the baseline to persist for later reconciliation.
	Layout Snapshot `json:"layout"`
	// Appended is empty for a fresh layout.
	Appended []RackSlot `json:"appended,omitempty"`
}

// Build plans a fresh layout starting at rack 1 position 1.
func Build(tokens []Token, opts Options) (Result, error) {
	return build(tokens, opts, nil)
}

// Extend plans tokens on top of a prior layout without moving any existing vial.
func Extend(prior Snapshot, tokens []Token, opts Options) (Result, error) {
	return build(tokens, opts, &prior)
}

func build(tokens []Token, opts Options, prior *Snapshot) (Result, error) {
	if err := opts.validate(); err != nil {
		return Result{}, err
	}
	occ, err := CountOccurrences(tokens)
	if err != nil {
		return Result{}, err
	}
	units, err := Allocate(occ, opts.MaxPerVial)
	if err != nil {
		return Result{}, err
	}
	steps, err := BuildSynthesis(tokens, units)
	if err != nil {
		return Result{}, err
	}
	res := Result{Occurrences: occ.Entries(), Units: units, Steps: steps}
	if prior == nil {
		slots, _, err := MapToRacks(units, opts.RackSize, Start)
		if err != nil {
			return Result{}, err
		}
		res.Slots = slots
		res.Layout = NewSnapshot(slots, opts.RackSize)
		return res, nil
	}
	rec, err := Reconcile(*prior, units, opts.RackSize)
	if err != nil {
		return Result{}, err
	}
	res.Slots = SortSlots(rec.Assigned)
	res.Layout = rec.Merged
	res.Appended = rec.Appended
	return res, nil
}

// Racks returns the highest rack number used by this run's vials.
func (r Result) Racks() int { return maxRack(r.Slots) }
