package plan

import "strings"

// OccurrenceCount is the number of tokens carrying one residue code.
type OccurrenceCount struct {
	Code  ResidueCode `json:"code"`
	Count int         `json:"count"`
}

// Occurrences is an ordered map of residue counts, keyed in first-seen order.
type Occurrences struct {
	order  []ResidueCode
	counts map[ResidueCode]int
}

// CountOccurrences tallies tokens per residue code, preserving first appearance order.
func CountOccurrences(tokens []Token) (Occurrences, error) {
	if len(tokens) == 0 {
		return Occurrences{}, EmptySequenceError{}
	}
	occ := Occurrences{counts: make(map[ResidueCode]int)}
	for i, t := range tokens {
		if strings.TrimSpace(string(t.Code)) == "" {
			pos := t.Position
			if pos == 0 {
				pos = i + 1
			}
			return Occurrences{}, UnknownCodeError{Token: string(t.Code), Position: pos}
		}
		if _, seen := occ.counts[t.Code]; !seen {
			occ.order = append(occ.order, t.Code)
		}
		occ.counts[t.Code]++
	}
	return occ, nil
}

// Len returns the number of distinct codes.
func (o Occurrences) Len() int { return len(o.order) }

// Count returns the occurrences of code, or 0 when absent.
func (o Occurrences) Count(code ResidueCode) int { return o.counts[code] }

// Codes returns the distinct codes in first-seen order.
func (o Occurrences) Codes() []ResidueCode {
	return append([]ResidueCode(nil), o.order...)
}

// Entries returns the counts in first-seen order.
func (o Occurrences) Entries() []OccurrenceCount {
	out := make([]OccurrenceCount, 0, len(o.order))
	for _, c := range o.order {
		out = append(out, OccurrenceCount{Code: c, Count: o.counts[c]})
	}
	return out
}
