package plan

// Substitution is a position where the new sequence differs from the previous one.
// An empty Previous marks a residue appended beyond the old sequence's end.
type Substitution struct {
	Position int         `json:"position"`
	Previous ResidueCode `json:"previous,omitempty"`
	Current  ResidueCode `json:"current"`
}

// CompareSequences lists position-wise substitutions and appended residues.
// Residues removed from the end are not reported.
func CompareSequences(previous, current []ResidueCode) []Substitution {
	var subs []Substitution
	for i, c := range current {
		if i >= len(previous) {
			subs = append(subs, Substitution{Position: i + 1, Current: c})
			continue
		}
		if previous[i] != c {
			subs = append(subs, Substitution{Position: i + 1, Previous: previous[i], Current: c})
		}
	}
	return subs
}

// Codes extracts the residue codes from tokens.
func Codes(tokens []Token) []ResidueCode {
	out := make([]ResidueCode, len(tokens))
	for i, t := range tokens {
		out[i] = t.Code
	}
	return out
}
