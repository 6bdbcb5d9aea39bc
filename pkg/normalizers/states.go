package normalizers

// stateVariants maps every known raw spelling of a state to its canonical
// form. Keys are canonical-text form (see Canonical). Covers NCT
// designations, renamed states and the misspellings that show up in
// counselling exports. Unknown states pass through unchanged; state data is
// frequently wrong even when the institution name is right, and the matcher
// compensates with its relaxed stage.
var stateVariants = map[string]string{
	// NCT of Delhi
	"NEW DELHI":    "DELHI",
	"DELHI (NCT)":  "DELHI",
	"NCT OF DELHI": "DELHI",
	"DELHI NCT":    "DELHI",

	// Renamed states
	"ORISSA":      "ODISHA",
	"PONDICHERRY": "PUDUCHERRY",
	"UTTARANCHAL": "UTTARAKHAND",

	// Spelling variants and compacted forms
	"CHATTISGARH":       "CHHATTISGARH",
	"CHHATISGARH":       "CHHATTISGARH",
	"TAMILNADU":         "TAMIL NADU",
	"TAMIL NADU (TN)":   "TAMIL NADU",
	"WESTBENGAL":        "WEST BENGAL",
	"MAHARASTRA":        "MAHARASHTRA",
	"KERELA":            "KERALA",
	"TELENGANA":         "TELANGANA",
	"GUJRAT":            "GUJARAT",
	"ANDHRAPRADESH":     "ANDHRA PRADESH",
	"JHARKAND":          "JHARKHAND",
	"KARNATAK":          "KARNATAKA",
	"JAMMU & KASHMIR":   "JAMMU AND KASHMIR",
	"J&K":               "JAMMU AND KASHMIR",
	"J & K":             "JAMMU AND KASHMIR",
	"A & N ISLANDS":     "ANDAMAN AND NICOBAR ISLANDS",
	"ANDAMAN & NICOBAR": "ANDAMAN AND NICOBAR ISLANDS",

	// Common abbreviations
	"UP": "UTTAR PRADESH",
	"MP": "MADHYA PRADESH",
	"HP": "HIMACHAL PRADESH",
	"AP": "ANDHRA PRADESH",
	"TN": "TAMIL NADU",
	"WB": "WEST BENGAL",
}

// NormalizeState canonicalizes a reported state name through the fixed
// variant table. The raw value is first put in canonical text form; if no
// variant matches, that form is returned as-is (identity fallback, never an
// error).
func NormalizeState(raw string) string {
	canon := Canonical(raw)
	if canon == "" {
		return ""
	}
	if mapped, ok := stateVariants[canon]; ok {
		return mapped
	}
	return canon
}
