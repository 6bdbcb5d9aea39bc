package normalizers

import "strings"

// NameCandidates holds the institution-name candidates extracted from one
// raw composite string. Callers try Current first, then Previous.
type NameCandidates struct {
	Current  string
	Previous *string
}

// ExtractPrimaryName splits a raw composite string into name candidates.
//
// Counselling exports routinely append the address after the name
// ("KEM HOSPITAL, PAREL, MUMBAI") and carry a renamed institution's old name
// in a trailing parenthetical ("ABC MEDICAL COLLEGE (FORMERLY XYZ)").
// The rule: everything after the first comma is address and is discarded;
// a trailing parenthetical on what remains is the previous-name candidate
// and the text before it the current-name candidate.
//
// Both candidates are in canonical text form. Empty input yields empty
// output; this never fails.
func ExtractPrimaryName(raw string) NameCandidates {
	name := raw
	if idx := strings.Index(name, ","); idx >= 0 {
		name = name[:idx]
	}
	name = Canonical(name)
	if name == "" {
		return NameCandidates{}
	}

	// Trailing parenthetical = previous-name candidate.
	if strings.HasSuffix(name, ")") {
		if open := strings.LastIndex(name, "("); open > 0 {
			inner := Canonical(name[open+1 : len(name)-1])
			current := Canonical(name[:open])
			if inner != "" && current != "" {
				return NameCandidates{Current: current, Previous: &inner}
			}
		}
	}

	return NameCandidates{Current: name}
}
