// Package matching implements institution record resolution against the
// canonical registry.
package matching

import (
	"github.com/Ramsey-B/clover/pkg/normalizers"
)

// Scorer provides the string comparison primitives shared by the matcher's
// fuzzy stages and the duplicate detector. Keeping one scorer keeps the
// thresholds comparable across both.
type Scorer struct{}

// NewScorer creates a new Scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Similarity calculates string similarity over alphanumeric-folded text.
// Both strings are case-folded and stripped of non-alphanumeric characters
// before the edit distance is computed; two strings that are both empty
// after folding score 1.0. Symmetric, and Similarity(x, x) == 1.0.
func (s *Scorer) Similarity(a, b string) float64 {
	return s.Levenshtein(normalizers.Alphanumeric(a), normalizers.Alphanumeric(b))
}

// Levenshtein calculates the Levenshtein distance between two strings
// Returns a similarity score between 0.0 and 1.0
func (s *Scorer) Levenshtein(a, b string) float64 {
	distance := s.LevenshteinDistance(a, b)
	maxLen := max(len(a), len(b))
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(distance)/float64(maxLen)
}

// LevenshteinDistance calculates the edit distance between two strings
func (s *Scorer) LevenshteinDistance(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	// Create two rows for dynamic programming
	row := make([]int, len(b)+1)
	prevRow := make([]int, len(b)+1)

	for j := 0; j <= len(b); j++ {
		prevRow[j] = j
	}

	for i := 1; i <= len(a); i++ {
		row[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			row[j] = min(min(row[j-1]+1, prevRow[j]+1), prevRow[j-1]+cost)
		}
		row, prevRow = prevRow, row
	}

	return prevRow[len(b)]
}
