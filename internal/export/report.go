// Package export renders vial and synthesis plans as CSV, autosampler
// programs, xlsx workbooks and terminal tables, and reads vial plans back.
package export

import (
	"fmt"
	"strconv"

	"peptidesynth/internal/plan"
	"peptidesynth/internal/residue"
)

// Report is everything an export needs about one run.
type Report struct {
	RackSize int
	// Slots is this run's vial plan in rack order.
	Slots []plan.RackSlot
	// Layout is every vial on the racks, including prior vials this run does
	// not sample from. Empty means Slots is the whole layout.
	Layout []plan.RackSlot
	// Quantities is keyed by vial ID; vials without an entry export zeros.
	Quantities map[string]residue.Quantities
	Steps      []plan.SynthesisStep
	// Deprotection is nil when no deprotection vials were planned.
	Deprotection *plan.DeprotectionPlan
}

var (
	vialPlanHeader  = []string{"Rack", "Position", "Vial", "Code", "Occurrences", "mmol", "Mass (g)", "Volume (mL)"}
	synthesisHeader = []string{"Step", "Vial", "Code", "Rack", "Position", "Deprotection Vial"}
)

// vialPlanRows lists every vial on the racks. Idle vials kept from a prior
// layout are written with zero occurrences so the file can be read back as a
// prior layout without freeing their slots.
func (r Report) vialPlanRows() [][]string {
	active := r.slotIndex()
	all := r.Layout
	if len(all) == 0 {
		all = r.Slots
	}
	rows := make([][]string, 0, len(all))
	for _, s := range plan.SortSlots(all) {
		occurrences := 0
		if cur, ok := active[s.Unit.ID()]; ok && cur.Cursor == s.Cursor {
			occurrences = cur.Unit.Capacity
		}
		q := r.Quantities[s.Unit.ID()]
		if occurrences == 0 {
			q = residue.Quantities{}
		}
		rows = append(rows, []string{
			strconv.Itoa(s.Rack),
			strconv.Itoa(s.Position),
			s.Unit.ID(),
			string(s.Unit.Code),
			strconv.Itoa(occurrences),
			formatFloat(q.MMol),
			formatFloat(q.MassG),
			formatFloat(q.VolumeML),
		})
	}
	return rows
}

func (r Report) synthesisRows() ([][]string, error) {
	byVial := r.slotIndex()
	rows := make([][]string, 0, len(r.Steps))
	for _, st := range r.Steps {
		slot, ok := byVial[st.VialID]
		if !ok {
			return nil, fmt.Errorf("step %d: vial %s has no rack slot", st.Index, st.VialID)
		}
		dep := ""
		if st.Deprotection > 0 {
			dep = strconv.Itoa(st.Deprotection)
		}
		rows = append(rows, []string{
			strconv.Itoa(st.Index),
			st.VialID,
			string(st.Token.Code),
			strconv.Itoa(slot.Rack),
			strconv.Itoa(slot.Position),
			dep,
		})
	}
	return rows, nil
}

func (r Report) slotIndex() map[string]plan.RackSlot {
	out := make(map[string]plan.RackSlot, len(r.Slots))
	for _, s := range r.Slots {
		out[s.Unit.ID()] = s
	}
	return out
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(residue.Round2(v), 'f', 2, 64)
}
