package export

import (
	"fmt"
	"io"
	"strconv"

	"peptidesynth/internal/plan"
)

// AutosamplerParams are the instrument settings written on every program row.
type AutosamplerParams struct {
	CouplingFlowA     float64
	CouplingFlowB     float64
	DeprotectionFlowD float64
	ReagentConcA      float64
	CouplingConcB     float64
	DeprotectionConcB float64
	ReagentUseML      float64
	ReactorTempC      float64
	CleaningFlow      float64
	ManualCleanML     float64
}

// DefaultAutosampler matches the settings the reactor is normally run with.
func DefaultAutosampler() AutosamplerParams {
	return AutosamplerParams{
		CouplingFlowA:     0.889,
		CouplingFlowB:     0.444,
		DeprotectionFlowD: 0.8,
		ReagentConcA:      0.1,
		CouplingConcB:     0.24,
		DeprotectionConcB: 0.1,
		ReagentUseML:      4,
		ReactorTempC:      75,
		CleaningFlow:      2,
		ManualCleanML:     4,
	}
}

var autosamplerHeader = []string{
	"NAME",
	"FLOW RATE A (ml/min)",
	"FLOW RATE B (ml/min)",
	"FLOW RATE D (ml/min)",
	"RESIDENCE 2",
	"AUTOSAMPLER SITE A",
	"REAGENT CONC A (M)",
	"AUTOSAMPLER SITE B",
	"REAGENT CONC B (M)",
	"DO NOT FILL",
	"REAGENT USE (ml)",
	"REACTOR TEMPERATURE 2 (C)",
	"REACTOR TEMPERATURE 3 (C)",
	"WHOLE PEAK",
	"DO NOT COLLECT",
	"CLEANING FLOW RATE (ml/min)",
	"MANUAL CLEAN (ml)",
}

// WriteAutosamplerCSV writes the reactor program: a coupling row followed by
// a deprotection row for every step. Sites are numbered across racks.
func WriteAutosamplerCSV(w io.Writer, r Report, p AutosamplerParams) error {
	rows, err := r.autosamplerRows(p)
	if err != nil {
		return err
	}
	return writeCSV(w, autosamplerHeader, rows)
}

func (r Report) autosamplerRows(p AutosamplerParams) ([][]string, error) {
	if r.RackSize <= 0 {
		return nil, plan.InvalidRackSizeError{RackSize: r.RackSize}
	}
	byVial := r.slotIndex()
	rows := make([][]string, 0, 2*len(r.Steps))
	for _, st := range r.Steps {
		slot, ok := byVial[st.VialID]
		if !ok {
			return nil, fmt.Errorf("step %d: vial %s has no rack slot", st.Index, st.VialID)
		}
		siteA := slot.Site(r.RackSize)
		siteB := 0
		if r.Deprotection != nil && st.Deprotection > 0 {
			siteB = r.Deprotection.Slot(st.Deprotection).Site(r.RackSize)
		}
		rows = append(rows,
			programRow(fmt.Sprintf("%s%d", st.Token.Code, st.Index), p.CouplingFlowA, p.CouplingFlowB, 0, siteA, siteB, p.CouplingConcB, p),
			programRow(fmt.Sprintf("deprotection %d", st.Index), 0, 0, p.DeprotectionFlowD, siteA, siteB, p.DeprotectionConcB, p),
		)
	}
	return rows, nil
}

func programRow(name string, flowA, flowB, flowD float64, siteA, siteB int, concB float64, p AutosamplerParams) []string {
	num := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return []string{
		name,
		num(flowA),
		num(flowB),
		num(flowD),
		"True",
		strconv.Itoa(siteA),
		num(p.ReagentConcA),
		strconv.Itoa(siteB),
		num(concB),
		"False",
		num(p.ReagentUseML),
		num(p.ReactorTempC),
		num(p.ReactorTempC),
		"False",
		"True",
		num(p.CleaningFlow),
		num(p.ManualCleanML),
	}
}
