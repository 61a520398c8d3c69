package residue

import (
	"strings"
	"unicode"

	"peptidesynth/internal/plan"
)

// Tokenize resolves a raw sequence against the table. Whitespace-separated
// input is split on whitespace; a compact string is matched greedily, longest
// code first. Positions in the result count residues from 1.
func (t *Table) Tokenize(input string) ([]plan.Token, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, plan.EmptySequenceError{}
	}
	if strings.IndexFunc(input, unicode.IsSpace) >= 0 {
		return t.tokenizeFields(strings.Fields(input))
	}
	return t.tokenizeCompact(input)
}

// TokenizeArgs resolves command-line arguments; each argument may itself be
// compact or whitespace-separated.
func (t *Table) TokenizeArgs(args []string) ([]plan.Token, error) {
	return t.Tokenize(strings.Join(args, " "))
}

func (t *Table) tokenizeFields(fields []string) ([]plan.Token, error) {
	tokens := make([]plan.Token, 0, len(fields))
	for i, f := range fields {
		code := plan.ResidueCode(f)
		if _, ok := t.byCode[code]; !ok {
			return nil, plan.UnknownCodeError{Token: f, Position: i + 1}
		}
		tokens = append(tokens, plan.Token{Code: code, Position: i + 1})
	}
	return tokens, nil
}

func (t *Table) tokenizeCompact(s string) ([]plan.Token, error) {
	var tokens []plan.Token
	for i := 0; i < len(s); {
		var match plan.ResidueCode
		for _, code := range t.matchOrder {
			if strings.HasPrefix(s[i:], string(code)) {
				match = code
				break
			}
		}
		if match == "" {
			return nil, plan.UnknownCodeError{Token: s[i:], Position: len(tokens) + 1}
		}
		tokens = append(tokens, plan.Token{Code: match, Position: len(tokens) + 1})
		i += len(match)
	}
	return tokens, nil
}
