package matching

import (
	"context"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/clover/pkg/models"
)

func testResolver(institutions []models.CanonicalInstitution) *Resolver {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	return NewResolver(logger, NewRegistry(institutions), DefaultResolverConfig())
}

func strPtr(s string) *string {
	return &s
}

func testRegistryFixture() []models.CanonicalInstitution {
	return []models.CanonicalInstitution{
		{ID: "1", Name: "VARDHMAN MAHAVIR MEDICAL COLLEGE AND SAFDARJUNG HOSPITAL", State: "DELHI"},
		{ID: "2", Name: "MAULANA AZAD MEDICAL COLLEGE", State: "DELHI"},
		{ID: "3", Name: "GRANT MEDICAL COLLEGE", State: "MAHARASHTRA"},
		{ID: "4", Name: "KING GEORGES MEDICAL UNIVERSITY", State: "UTTAR PRADESH", PreviousName: strPtr("KING GEORGES MEDICAL COLLEGE")},
		{ID: "5", Name: "GOVERNMENT MEDICAL COLLEGE NAGPUR", State: "MAHARASHTRA"},
		{ID: "6", Name: "GOVERNMENT MEDICAL COLLEGE AKOLA", State: "MAHARASHTRA"},
	}
}

func TestResolverResolve(t *testing.T) {
	ctx := context.Background()
	resolver := testResolver(testRegistryFixture())

	t.Run("should resolve an exact name at confidence 1.0", func(t *testing.T) {
		result := resolver.Resolve(ctx, models.RawReference{Name: "MAULANA AZAD MEDICAL COLLEGE", State: "DELHI"})

		assert.True(t, result.IsMatch())
		assert.Equal(t, models.MatchStageExact, result.Stage)
		assert.Equal(t, 1.0, result.Confidence)
		assert.Equal(t, "2", result.MatchedInstitution.ID)
	})

	t.Run("should resolve a typo-corrected name at the exact stage", func(t *testing.T) {
		result := resolver.Resolve(ctx, models.RawReference{
			Name:  "VARDHAMAN MAHAVIR MEDICAL COLLEGE AND SAFDARJUNG HOSPITAL",
			State: "NEW DELHI",
		})

		assert.True(t, result.IsMatch())
		assert.Equal(t, models.MatchStageExact, result.Stage)
		assert.Equal(t, 1.0, result.Confidence)
		assert.Equal(t, "1", result.MatchedInstitution.ID)
		assert.Equal(t, "typo_corrected", result.Details["variant"])
	})

	t.Run("should match against a previous name", func(t *testing.T) {
		result := resolver.Resolve(ctx, models.RawReference{Name: "KING GEORGES MEDICAL COLLEGE", State: "UP"})

		assert.Equal(t, models.MatchStageExact, result.Stage)
		assert.Equal(t, "4", result.MatchedInstitution.ID)
		assert.Equal(t, "previous_name", result.Details["matched_on"])
	})

	t.Run("should discard an address suffix before matching", func(t *testing.T) {
		result := resolver.Resolve(ctx, models.RawReference{Name: "GRANT MEDICAL COLLEGE, BYCULLA, MUMBAI", State: "MAHARASHTRA"})

		assert.Equal(t, models.MatchStageExact, result.Stage)
		assert.Equal(t, "3", result.MatchedInstitution.ID)
	})

	t.Run("should accept a unique partial match at confidence 0.9", func(t *testing.T) {
		result := resolver.Resolve(ctx, models.RawReference{Name: "MAULANA AZAD MEDICAL", State: "DELHI"})

		assert.Equal(t, models.MatchStagePartial, result.Stage)
		assert.Equal(t, 0.9, result.Confidence)
		assert.Equal(t, "2", result.MatchedInstitution.ID)
	})

	t.Run("should not pick arbitrarily between ambiguous partial candidates", func(t *testing.T) {
		// "GOVERNMENT MEDICAL COLLEGE" is a substring of two Maharashtra
		// entries, so the partial stage is inconclusive and the fuzzy
		// stage decides instead.
		result := resolver.Resolve(ctx, models.RawReference{Name: "GOVERNMENT MEDICAL COLLEGE", State: "MAHARASHTRA"})

		assert.NotEqual(t, models.MatchStagePartial, result.Stage)
	})

	t.Run("should resolve close misspellings at the fuzzy in-state stage", func(t *testing.T) {
		result := resolver.Resolve(ctx, models.RawReference{Name: "MAULANA AZAD MEDICL COLLEGE", State: "DELHI"})

		assert.Equal(t, models.MatchStageFuzzyInState, result.Stage)
		assert.Equal(t, "2", result.MatchedInstitution.ID)
		assert.GreaterOrEqual(t, result.Confidence, 0.8)
		assert.Less(t, result.Confidence, 1.0)
	})

	t.Run("should fall back to the full registry when the state has no candidates", func(t *testing.T) {
		result := resolver.Resolve(ctx, models.RawReference{Name: "GRANT MEDICAL COLLEGE", State: "GOA"})

		assert.Equal(t, models.MatchStageFuzzyRelaxed, result.Stage)
		assert.Equal(t, "3", result.MatchedInstitution.ID)
		assert.True(t, result.NeedsReview())
	})

	t.Run("should cap fuzzy confidence below 1.0", func(t *testing.T) {
		// Differs from the registry entry only in punctuation, so raw
		// similarity is 1.0.
		result := resolver.Resolve(ctx, models.RawReference{Name: "MAULANA-AZAD MEDICAL COLLEGE.", State: "DELHI"})

		assert.Equal(t, models.MatchStageFuzzyInState, result.Stage)
		assert.Equal(t, 0.99, result.Confidence)
	})

	t.Run("should return the no-match result for unrecognizable input", func(t *testing.T) {
		result := resolver.Resolve(ctx, models.RawReference{Name: "ZZQX", State: "DELHI"})

		assert.False(t, result.IsMatch())
		assert.Equal(t, models.MatchStageNone, result.Stage)
		assert.Equal(t, 0.0, result.Confidence)
		assert.Nil(t, result.MatchedInstitution)
		assert.True(t, result.NeedsReview())
	})

	t.Run("should not fail on empty input", func(t *testing.T) {
		result := resolver.Resolve(ctx, models.RawReference{})

		assert.Equal(t, models.MatchStageNone, result.Stage)
	})

	t.Run("should be deterministic for a fixed snapshot", func(t *testing.T) {
		raw := models.RawReference{Name: "GOVERNMENT MEDICAL COLLEGE NAGPUR", State: "MAHARASHTRA"}
		first := resolver.Resolve(ctx, raw)
		second := resolver.Resolve(ctx, raw)

		assert.Equal(t, first.Stage, second.Stage)
		assert.Equal(t, first.Confidence, second.Confidence)
		assert.Equal(t, first.MatchedInstitution.ID, second.MatchedInstitution.ID)
	})
}
