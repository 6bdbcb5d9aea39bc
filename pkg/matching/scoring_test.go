package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScorerSimilarity(t *testing.T) {
	scorer := NewScorer()

	t.Run("should return 1.0 for identical strings", func(t *testing.T) {
		assert.Equal(t, 1.0, scorer.Similarity("GRANT MEDICAL COLLEGE", "GRANT MEDICAL COLLEGE"))
	})

	t.Run("should ignore case and punctuation", func(t *testing.T) {
		assert.Equal(t, 1.0, scorer.Similarity("St. John's Medical", "ST JOHNS MEDICAL"))
	})

	t.Run("should be symmetric", func(t *testing.T) {
		a, b := "MAULANA AZAD MEDICAL COLLEGE", "MAULANA AZAD MEDICAL COLEGE"
		assert.Equal(t, scorer.Similarity(a, b), scorer.Similarity(b, a))
	})

	t.Run("should score near misses above 0.9", func(t *testing.T) {
		score := scorer.Similarity("VARDHMAN MAHAVIR MEDICAL COLLEGE", "VARDHAMAN MAHAVIR MEDICAL COLLEGE")
		assert.Greater(t, score, 0.9)
		assert.Less(t, score, 1.0)
	})

	t.Run("should score unrelated strings low", func(t *testing.T) {
		assert.Less(t, scorer.Similarity("GRANT MEDICAL COLLEGE", "INDIAN INSTITUTE OF TECHNOLOGY"), 0.5)
	})

	t.Run("should return 1.0 when both strings are empty after folding", func(t *testing.T) {
		assert.Equal(t, 1.0, scorer.Similarity("---", "..."))
	})
}

func TestScorerLevenshteinDistance(t *testing.T) {
	scorer := NewScorer()

	t.Run("should return 0 for equal strings", func(t *testing.T) {
		assert.Equal(t, 0, scorer.LevenshteinDistance("abc", "abc"))
	})

	t.Run("should return the other length when one side is empty", func(t *testing.T) {
		assert.Equal(t, 3, scorer.LevenshteinDistance("", "abc"))
		assert.Equal(t, 3, scorer.LevenshteinDistance("abc", ""))
	})

	t.Run("should count substitutions insertions and deletions", func(t *testing.T) {
		assert.Equal(t, 1, scorer.LevenshteinDistance("college", "colege"))
		assert.Equal(t, 3, scorer.LevenshteinDistance("kitten", "sitting"))
	})
}
