package plan

// Allocate splits each residue's occurrences into vial units of at most
// maxPerVial samples. Codes keep first-seen order and suffixes ascend within a
// code. An exact multiple of maxPerVial yields only full vials.
func Allocate(occ Occurrences, maxPerVial int) ([]VialUnit, error) {
	if maxPerVial <= 0 {
		return nil, InvalidCapacityError{MaxPerVial: maxPerVial}
	}
	var units []VialUnit
	for _, e := range occ.Entries() {
		n := (e.Count + maxPerVial - 1) / maxPerVial
		for i := 1; i <= n; i++ {
			capacity := maxPerVial
			if i == n {
				capacity = e.Count - maxPerVial*(n-1)
			}
			units = append(units, VialUnit{Code: e.Code, Suffix: i, Capacity: capacity})
		}
	}
	return units, nil
}
