package normalizers

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestCanonical(t *testing.T) {
	t.Run("should uppercase and collapse whitespace", func(t *testing.T) {
		assert.Equal(t, "KEM HOSPITAL", Canonical("  kem   Hospital "))
	})

	t.Run("should return empty for empty input", func(t *testing.T) {
		assert.Equal(t, "", Canonical(""))
		assert.Equal(t, "", Canonical("   "))
	})
}

func TestAlphanumeric(t *testing.T) {
	t.Run("should strip punctuation and fold case", func(t *testing.T) {
		assert.Equal(t, "stjohnsmedical", Alphanumeric("St. John's Medical"))
	})

	t.Run("should keep digits", func(t *testing.T) {
		assert.Equal(t, "sector12", Alphanumeric("Sector-12"))
	})
}

func TestApplyChain(t *testing.T) {
	t.Run("should apply registered normalizers in order", func(t *testing.T) {
		assert.Equal(t, "GOVERNMENT MEDICAL COLLEGE", ApplyChain(" govt medical college ", "abbreviations", "canonical"))
	})

	t.Run("should ignore unknown normalizers", func(t *testing.T) {
		assert.Equal(t, "abc", ApplyChain("abc", "no_such_normalizer"))
	})
}

func TestNormalizeState(t *testing.T) {
	t.Run("should canonicalize NCT designations", func(t *testing.T) {
		assert.Equal(t, "DELHI", NormalizeState("New Delhi"))
		assert.Equal(t, "DELHI", NormalizeState("NCT OF DELHI"))
	})

	t.Run("should map renamed states", func(t *testing.T) {
		assert.Equal(t, "ODISHA", NormalizeState("Orissa"))
		assert.Equal(t, "PUDUCHERRY", NormalizeState("pondicherry"))
	})

	t.Run("should fix common misspellings", func(t *testing.T) {
		assert.Equal(t, "TAMIL NADU", NormalizeState("TAMILNADU"))
		assert.Equal(t, "CHHATTISGARH", NormalizeState("Chattisgarh"))
	})

	t.Run("should pass unknown states through unchanged", func(t *testing.T) {
		assert.Equal(t, "NARNIA", NormalizeState("Narnia"))
	})

	t.Run("should return empty for empty input", func(t *testing.T) {
		assert.Equal(t, "", NormalizeState("  "))
	})
}

func TestCorrectTypos(t *testing.T) {
	t.Run("should rewrite known misspellings case-insensitively", func(t *testing.T) {
		assert.Equal(t, "VARDHMAN MAHAVIR", CorrectTypos("Vardhaman Mahaveer"))
	})

	t.Run("should apply corrections in table order", func(t *testing.T) {
		// "MEDICAL COLLAGE" is rewritten before the generic "COLLAGE" rule runs.
		assert.Equal(t, "MEDICAL COLLEGE AND DENTAL COLLEGE", CorrectTypos("MEDICAL COLLAGE AND DENTAL COLLAGE"))
	})

	t.Run("should leave clean text untouched", func(t *testing.T) {
		assert.Equal(t, "GRANT MEDICAL COLLEGE", CorrectTypos("GRANT MEDICAL COLLEGE"))
	})

	t.Run("should return empty for empty input", func(t *testing.T) {
		assert.Equal(t, "", CorrectTypos(""))
	})

	t.Run("should correct text after runes whose case fold changes byte length", func(t *testing.T) {
		// U+0130 lowers to a longer byte sequence; earlier occurrences must
		// not shift where a correction lands.
		got := CorrectTypos("İİİİİ VARDHAMAN MAHAVIR MEDICAL COLLEGE")
		assert.True(t, utf8.ValidString(got))
		assert.Equal(t, "İİİİİ VARDHMAN MAHAVIR MEDICAL COLLEGE", got)
	})
}

func TestExpandAbbreviations(t *testing.T) {
	t.Run("should expand whole words only", func(t *testing.T) {
		assert.Equal(t, "GOVERNMENT MEDICAL COLLEGE", ExpandAbbreviations("GOVT MED COLL"))
	})

	t.Run("should not expand inside longer words", func(t *testing.T) {
		assert.Equal(t, "INSTITUTE", ExpandAbbreviations("INSTITUTE"))
		assert.Equal(t, "MEDICO", ExpandAbbreviations("MEDICO"))
	})

	t.Run("should expand multiple abbreviations in one string", func(t *testing.T) {
		assert.Equal(t, "EMPLOYEES STATE INSURANCE CORPORATION HOSPITAL", ExpandAbbreviations("ESIC HOSP"))
	})

	t.Run("should prefer ESIC over ESI", func(t *testing.T) {
		assert.Equal(t, "EMPLOYEES STATE INSURANCE CORPORATION MEDICAL COLLEGE", ExpandAbbreviations("ESIC MEDICAL COLLEGE"))
	})
}

func TestExtractPrimaryName(t *testing.T) {
	t.Run("should discard everything after the first comma", func(t *testing.T) {
		got := ExtractPrimaryName("KEM HOSPITAL, PAREL, MUMBAI")
		assert.Equal(t, "KEM HOSPITAL", got.Current)
		assert.Nil(t, got.Previous)
	})

	t.Run("should treat a trailing parenthetical as the previous name", func(t *testing.T) {
		got := ExtractPrimaryName("ABC MEDICAL COLLEGE (FORMERLY XYZ)")
		assert.Equal(t, "ABC MEDICAL COLLEGE", got.Current)
		if assert.NotNil(t, got.Previous) {
			assert.Equal(t, "FORMERLY XYZ", *got.Previous)
		}
	})

	t.Run("should canonicalize both candidates", func(t *testing.T) {
		got := ExtractPrimaryName("  grant   medical college , mumbai")
		assert.Equal(t, "GRANT MEDICAL COLLEGE", got.Current)
	})

	t.Run("should return empty candidates for empty input", func(t *testing.T) {
		got := ExtractPrimaryName("")
		assert.Equal(t, "", got.Current)
		assert.Nil(t, got.Previous)
	})
}
