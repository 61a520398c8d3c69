package plan

import (
	"fmt"
	"math"
)

// DeprotectionPlan describes the deprotection reagent vials consumed after each coupling.
type DeprotectionPlan struct {
	Vials       int `json:"vials"`
	UsesPerVial int `json:"uses_per_vial"`
	// Rack is the dedicated rack holding the vials at positions 1..Vials.
	Rack int `json:"rack"`
}

// Slot returns the rack slot of the n-th deprotection vial.
func (d DeprotectionPlan) Slot(n int) Cursor {
	return Cursor{Rack: d.Rack, Position: n}
}

// PlanDeprotection sizes the deprotection vials for steps couplings and
// stamps each step with the vial it draws from. The vials sit on rack, which
// must hold them all.
func PlanDeprotection(steps []SynthesisStep, volumeML, injectML float64, rack, rackSize int) (DeprotectionPlan, []SynthesisStep, error) {
	if rackSize <= 0 {
		return DeprotectionPlan{}, nil, InvalidRackSizeError{RackSize: rackSize}
	}
	if volumeML <= 0 || injectML <= 0 {
		return DeprotectionPlan{}, nil, fmt.Errorf("deprotection volumes must be positive (vial %.2f mL, inject %.2f mL)", volumeML, injectML)
	}
	if len(steps) == 0 {
		return DeprotectionPlan{}, nil, EmptySequenceError{}
	}
	perVial := int(math.Ceil(volumeML / injectML))
	vials := (len(steps) + perVial - 1) / perVial
	if vials > rackSize {
		return DeprotectionPlan{}, nil, DeprotectionCapacityError{Needed: vials, Available: rackSize}
	}
	uses := (len(steps) + vials - 1) / vials

	out := make([]SynthesisStep, len(steps))
	for i, s := range steps {
		n := i / uses
		if n >= vials {
			n = vials - 1
		}
		s.Deprotection = n + 1
		out[i] = s
	}
	return DeprotectionPlan{Vials: vials, UsesPerVial: uses, Rack: rack}, out, nil
}
