package normalizers

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// typoCorrection is one known-misspelling rule, applied as a
// case-insensitive substring replacement.
type typoCorrection struct {
	from string
	to   string
}

// typoCorrections are applied in declaration order, and later corrections
// may act on text already rewritten by earlier ones. That makes CorrectTypos
// deliberately non-idempotent with respect to rule interaction; the table
// was tuned against real counselling exports and reordering it changes
// output. Do not sort it.
var typoCorrections = []typoCorrection{
	{"VARDHAMAN", "VARDHMAN"},
	{"MAHAVEER", "MAHAVIR"},
	{"JAWAHAR LAL", "JAWAHARLAL"},
	{"MEDICAL COLLAGE", "MEDICAL COLLEGE"},
	{"COLLAGE", "COLLEGE"},
	{"COLELGE", "COLLEGE"},
	{"INSITUTE", "INSTITUTE"},
	{"INSTITUE", "INSTITUTE"},
	{"INSTT.", "INSTITUTE"},
	{"SCEINCES", "SCIENCES"},
	{"SCINCES", "SCIENCES"},
	{"RESERCH", "RESEARCH"},
	{"HOSPITALL", "HOSPITAL"},
	{"UNIVERSTY", "UNIVERSITY"},
}

// CorrectTypos rewrites known misspellings as case-insensitive substring
// replacements, in table order.
func CorrectTypos(s string) string {
	if s == "" {
		return ""
	}
	for _, c := range typoCorrections {
		s = replaceFold(s, c.from, c.to)
	}
	return s
}

// replaceFold replaces every case-insensitive occurrence of from with to.
// Scans rune by rune; folding a rune can change its byte length (İ), so byte
// offsets into s are never derived from a lowered copy.
func replaceFold(s, from, to string) string {
	if from == "" {
		return s
	}

	var result strings.Builder
	for i := 0; i < len(s); {
		if n, ok := foldPrefixLen(s[i:], from); ok {
			result.WriteString(to)
			i += n
			continue
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		result.WriteString(s[i : i+size])
		i += size
	}
	return result.String()
}

// foldPrefixLen reports whether s begins with a case-insensitive match of
// from, and the byte length of that prefix in s.
func foldPrefixLen(s, from string) (int, bool) {
	n := 0
	for _, fr := range from {
		r, size := utf8.DecodeRuneInString(s[n:])
		if size == 0 {
			return 0, false
		}
		if unicode.ToLower(r) != unicode.ToLower(fr) {
			return 0, false
		}
		n += size
	}
	return n, true
}

// abbreviation is one whole-word expansion rule.
type abbreviation struct {
	abbrev    string
	expansion string
	re        *regexp.Regexp
}

// abbreviations expand institutional shorthand. Matching is whole-word only;
// "INST" inside "INSTITUTE" is never touched. Multiple abbreviations in one
// string all expand.
var abbreviations = compileAbbreviations([]abbreviation{
	{abbrev: "ESIC", expansion: "EMPLOYEES STATE INSURANCE CORPORATION"},
	{abbrev: "ESI", expansion: "EMPLOYEES STATE INSURANCE"},
	{abbrev: "GOVT", expansion: "GOVERNMENT"},
	{abbrev: "PG", expansion: "POST GRADUATE"},
	{abbrev: "HOSP", expansion: "HOSPITAL"},
	{abbrev: "SSH", expansion: "SUPER SPECIALITY HOSPITAL"},
	{abbrev: "SDH", expansion: "SUB DISTRICT HOSPITAL"},
	{abbrev: "MED", expansion: "MEDICAL"},
	{abbrev: "COLL", expansion: "COLLEGE"},
	{abbrev: "INST", expansion: "INSTITUTE"},
	{abbrev: "UNIV", expansion: "UNIVERSITY"},
	{abbrev: "MAHAVIDYALAYA", expansion: "COLLEGE"},
})

func compileAbbreviations(entries []abbreviation) []abbreviation {
	for i := range entries {
		entries[i].re = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(entries[i].abbrev) + `\b`)
	}
	return entries
}

// ExpandAbbreviations replaces whole-word institutional abbreviations with
// their expansions, in table order.
func ExpandAbbreviations(s string) string {
	if s == "" {
		return ""
	}
	for _, a := range abbreviations {
		s = a.re.ReplaceAllString(s, a.expansion)
	}
	return s
}
