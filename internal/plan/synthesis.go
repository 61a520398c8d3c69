package plan

import "sort"

// vialCursor tracks which vial of a residue is being drawn from and how many
// samples it still holds.
type vialCursor struct {
	units     []VialUnit
	index     int
	remaining int
}

// BuildSynthesis assigns every token, in order, to a vial of its residue. Each
// vial is drained completely before the next suffix is started.
func BuildSynthesis(tokens []Token, units []VialUnit) ([]SynthesisStep, error) {
	if len(tokens) == 0 {
		return nil, EmptySequenceError{}
	}
	cursors := make(map[ResidueCode]*vialCursor)
	for _, u := range units {
		c, ok := cursors[u.Code]
		if !ok {
			c = &vialCursor{}
			cursors[u.Code] = c
		}
		c.units = append(c.units, u)
	}
	for _, c := range cursors {
		sort.SliceStable(c.units, func(i, j int) bool { return c.units[i].Suffix < c.units[j].Suffix })
		c.remaining = c.units[0].Capacity
	}

	steps := make([]SynthesisStep, 0, len(tokens))
	for i, t := range tokens {
		c, ok := cursors[t.Code]
		if !ok {
			return nil, PlanInconsistencyError{Code: t.Code, Step: i + 1, Reason: "no vial allocated for residue"}
		}
		for c.remaining == 0 {
			c.index++
			if c.index >= len(c.units) {
				return nil, PlanInconsistencyError{Code: t.Code, Step: i + 1, Reason: "vials exhausted before sequence end"}
			}
			c.remaining = c.units[c.index].Capacity
		}
		c.remaining--
		steps = append(steps, SynthesisStep{Index: i + 1, Token: t, VialID: c.units[c.index].ID()})
	}
	return steps, nil
}
