// Package plan implements the vial allocation, rack layout, synthesis ordering
// and layout reconciliation engine. Everything in this package is pure: inputs
// are never mutated and every call returns freshly allocated results.
package plan

import (
	"strconv"
)

// Defaults for the synthesiser hardware.
const (
	DefaultMaxPerVial = 6
	DefaultRackSize   = 30
)

// ResidueCode identifies an amino acid (single letter or a custom multi-letter code).
type ResidueCode string

// Token is one occurrence of a residue in the input sequence.
type Token struct {
	Code ResidueCode `json:"code"`
	// Position is the 1-based index in the sequence as written.
	Position int `json:"position"`
}

// Tokens builds a token sequence from plain codes, numbering positions from 1.
func Tokens(codes ...ResidueCode) []Token {
	out := make([]Token, len(codes))
	for i, c := range codes {
		out[i] = Token{Code: c, Position: i + 1}
	}
	return out
}

// Reverse returns the tokens in reverse order, keeping their as-written positions.
func Reverse(tokens []Token) []Token {
	out := make([]Token, len(tokens))
	for i, t := range tokens {
		out[len(tokens)-1-i] = t
	}
	return out
}

// VialUnit is a single physical dispensing vial for one residue.
type VialUnit struct {
	Code ResidueCode `json:"code"`
	// Suffix is 1 for the unsuffixed vial, then 2, 3, ... for "A2", "A3".
	Suffix   int `json:"suffix"`
	Capacity int `json:"capacity"`
}

// ID renders the vial label used on the rack and in exported plans.
func (u VialUnit) ID() string {
	return VialID(u.Code, u.Suffix)
}

func (u VialUnit) key() unitKey { return unitKey{code: u.Code, suffix: u.Suffix} }

// VialID renders the label of the suffix-th vial of code.
func VialID(code ResidueCode, suffix int) string {
	if suffix <= 1 {
		return string(code)
	}
	return string(code) + strconv.Itoa(suffix)
}

type unitKey struct {
	code   ResidueCode
	suffix int
}

// Cursor addresses a rack slot.
type Cursor struct {
	Rack     int `json:"rack"`
	Position int `json:"position"`
}

// Start is the first slot of the first rack.
var Start = Cursor{Rack: 1, Position: 1}

// Before reports whether c sorts before o in rack-major order.
func (c Cursor) Before(o Cursor) bool {
	if c.Rack != o.Rack {
		return c.Rack < o.Rack
	}
	return c.Position < o.Position
}

// Next returns the slot following c on racks of the given size.
func (c Cursor) Next(rackSize int) Cursor {
	if c.Position >= rackSize {
		return Cursor{Rack: c.Rack + 1, Position: 1}
	}
	return Cursor{Rack: c.Rack, Position: c.Position + 1}
}

// Site numbers the slot globally across racks, as the autosampler addresses it.
func (c Cursor) Site(rackSize int) int {
	return (c.Rack-1)*rackSize + c.Position
}

// RackSlot places a vial unit at a rack position.
type RackSlot struct {
	Cursor
	Unit VialUnit `json:"unit"`
}

// SynthesisStep maps one token, in synthesis order, to the vial it is sampled from.
type SynthesisStep struct {
	Index  int    `json:"index"`
	Token  Token  `json:"token"`
	VialID string `json:"vial_id"`
	// Deprotection is the 1-based deprotection vial used after coupling; 0 when not planned.
	Deprotection int `json:"deprotection,omitempty"`
}

// Snapshot is a persisted rack layout used as the baseline for reconciliation.
type Snapshot struct {
	RackSize int        `json:"rack_size"`
	Slots    []RackSlot `json:"slots"`
	// DeprotectionRack is the rack the deprotection vials were placed on by
	// the run that produced the snapshot, 0 when none were planned.
	DeprotectionRack int `json:"deprotection_rack,omitempty"`
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{RackSize: s.RackSize, DeprotectionRack: s.DeprotectionRack}
	if s.Slots != nil {
		out.Slots = append([]RackSlot(nil), s.Slots...)
	}
	return out
}

// Racks returns the highest rack number in use, or 0 for an empty layout.
func (s Snapshot) Racks() int {
	return maxRack(s.Slots)
}

func maxRack(slots []RackSlot) int {
	n := 0
	for _, sl := range slots {
		if sl.Rack > n {
			n = sl.Rack
		}
	}
	return n
}
