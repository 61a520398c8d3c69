package plan

import "fmt"

// Direction is the order in which the sequence is coupled.
type Direction string

const (
	// AsWritten couples residues in the order they were entered.
	AsWritten Direction = "as-written"
	// CToN couples from the C-terminus, as solid-phase synthesis builds chains.
	CToN Direction = "c-to-n"
)

// ParseDirection accepts the configuration spelling; empty means AsWritten.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case "", AsWritten:
		return AsWritten, nil
	case CToN:
		return CToN, nil
	}
	return "", fmt.Errorf("unknown synthesis direction %q (want %s or %s)", s, AsWritten, CToN)
}

// Orient returns tokens in synthesis order for d.
func (d Direction) Orient(tokens []Token) []Token {
	if d == CToN {
		return Reverse(tokens)
	}
	return append([]Token(nil), tokens...)
}
