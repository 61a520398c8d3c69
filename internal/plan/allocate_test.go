package plan

import (
	"errors"
	"testing"
)

func repeat(code ResidueCode, n int) []ResidueCode {
	out := make([]ResidueCode, n)
	for i := range out {
		out[i] = code
	}
	return out
}

func TestCountOccurrences_FirstSeenOrder(t *testing.T) {
	occ, err := CountOccurrences(Tokens("K", "A", "K", "Pra", "A", "K"))
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	want := []OccurrenceCount{{"K", 3}, {"A", 2}, {"Pra", 1}}
	got := occ.Entries()
	if len(got) != len(want) {
		t.Fatalf("entries %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entry %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	if occ.Count("Z") != 0 || occ.Len() != 3 {
		t.Fatalf("unexpected lookup results")
	}
}

func TestCountOccurrences_Errors(t *testing.T) {
	if _, err := CountOccurrences(nil); !errors.As(err, &EmptySequenceError{}) {
		t.Fatalf("expected EmptySequenceError, got %v", err)
	}
	_, err := CountOccurrences([]Token{{Code: "A", Position: 1}, {Code: " ", Position: 2}})
	var unknown UnknownCodeError
	if !errors.As(err, &unknown) || unknown.Position != 2 {
		t.Fatalf("expected UnknownCodeError at 2, got %v", err)
	}
}

func TestAllocate_Partitions(t *testing.T) {
	for _, m := range []int{1, 2, 5, 6, 7} {
		for c := 1; c <= 25; c++ {
			occ, err := CountOccurrences(Tokens(repeat("A", c)...))
			if err != nil {
				t.Fatalf("count: %v", err)
			}
			units, err := Allocate(occ, m)
			if err != nil {
				t.Fatalf("allocate: %v", err)
			}
			if want := (c + m - 1) / m; len(units) != want {
				t.Fatalf("c=%d m=%d: %d units, want %d", c, m, len(units), want)
			}
			sum := 0
			for i, u := range units {
				sum += u.Capacity
				if u.Suffix != i+1 {
					t.Fatalf("c=%d m=%d: suffix %d at index %d", c, m, u.Suffix, i)
				}
				if i < len(units)-1 && u.Capacity != m {
					t.Fatalf("c=%d m=%d: non-final unit capacity %d", c, m, u.Capacity)
				}
				if u.Capacity < 1 || u.Capacity > m {
					t.Fatalf("c=%d m=%d: capacity %d out of range", c, m, u.Capacity)
				}
			}
			if sum != c {
				t.Fatalf("c=%d m=%d: capacities sum to %d", c, m, sum)
			}
		}
	}
}

func TestAllocate_ExactMultipleHasNoEmptyVial(t *testing.T) {
	occ, _ := CountOccurrences(Tokens(repeat("G", 12)...))
	units, err := Allocate(occ, 6)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if len(units) != 2 || units[0].Capacity != 6 || units[1].Capacity != 6 {
		t.Fatalf("unexpected units %+v", units)
	}
}

func TestAllocate_InvalidCapacity(t *testing.T) {
	occ, _ := CountOccurrences(Tokens("A"))
	for _, m := range []int{0, -3} {
		var ice InvalidCapacityError
		if _, err := Allocate(occ, m); !errors.As(err, &ice) || ice.MaxPerVial != m {
			t.Fatalf("m=%d: expected InvalidCapacityError, got %v", m, err)
		}
	}
}

func TestVialID(t *testing.T) {
	tests := []struct {
		unit VialUnit
		want string
	}{
		{VialUnit{Code: "A", Suffix: 1}, "A"},
		{VialUnit{Code: "A", Suffix: 2}, "A2"},
		{VialUnit{Code: "Pra", Suffix: 11}, "Pra11"},
	}
	for _, tt := range tests {
		if got := tt.unit.ID(); got != tt.want {
			t.Fatalf("ID() = %s, want %s", got, tt.want)
		}
	}
}

func TestAllocate_Deterministic(t *testing.T) {
	tokens := Tokens("W", "A", "W", "C", "A", "W", "W", "W", "W", "W", "C")
	var first []VialUnit
	for i := 0; i < 20; i++ {
		occ, _ := CountOccurrences(tokens)
		units, err := Allocate(occ, 6)
		if err != nil {
			t.Fatalf("allocate: %v", err)
		}
		if first == nil {
			first = units
			continue
		}
		for j := range units {
			if units[j] != first[j] {
				t.Fatalf("run %d differs at %d: %+v vs %+v", i, j, units[j], first[j])
			}
		}
	}
	if first[0].Code != "W" || first[1].Code != "W" || first[2].Code != "A" || first[3].Code != "C" {
		t.Fatalf("unexpected order %+v", first)
	}
}
