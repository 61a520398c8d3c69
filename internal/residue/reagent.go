package residue

import (
	"fmt"
	"math"

	"peptidesynth/internal/plan"
)

// ReagentParams holds the physical constants of a coupling run.
type ReagentParams struct {
	// Concentration in mol/L.
	Concentration float64
	VialVolumeML  float64
	CoilVolumeML  float64
	MaxPerVial    int
}

// Quantities is the amount of residue to weigh into one vial.
type Quantities struct {
	MMol     float64 `json:"mmol"`
	MassG    float64 `json:"mass_g"`
	VolumeML float64 `json:"volume_ml"`
}

// MaxPerVial derives the number of couplings one vial can feed.
func MaxPerVial(vialVolumeML, coilVolumeML float64) int {
	if vialVolumeML <= 0 || coilVolumeML <= 0 {
		return 0
	}
	return int(math.Floor(vialVolumeML / coilVolumeML))
}

// VialQuantities computes the reagent required for unit.
func (t *Table) VialQuantities(u plan.VialUnit, p ReagentParams) (Quantities, error) {
	r, ok := t.byCode[u.Code]
	if !ok {
		return Quantities{}, plan.UnknownCodeError{Token: string(u.Code)}
	}
	if p.MaxPerVial <= 0 {
		return Quantities{}, plan.InvalidCapacityError{MaxPerVial: p.MaxPerVial}
	}
	if p.Concentration <= 0 || p.VialVolumeML <= 0 || p.CoilVolumeML <= 0 {
		return Quantities{}, fmt.Errorf("reagent parameters must be positive: %+v", p)
	}
	perCoupling := p.VialVolumeML * p.Concentration / float64(p.MaxPerVial)
	mmol := float64(u.Capacity) * perCoupling
	return Quantities{
		MMol:     mmol,
		MassG:    mmol * r.MW / 1000,
		VolumeML: float64(u.Capacity) * p.CoilVolumeML,
	}, nil
}

// SequenceMass sums the molecular weights of tokens.
func (t *Table) SequenceMass(tokens []plan.Token) (float64, error) {
	var total float64
	for _, tok := range tokens {
		r, ok := t.byCode[tok.Code]
		if !ok {
			return 0, plan.UnknownCodeError{Token: string(tok.Code), Position: tok.Position}
		}
		total += r.MW
	}
	return total, nil
}

// Round2 rounds to two decimals for reporting.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
