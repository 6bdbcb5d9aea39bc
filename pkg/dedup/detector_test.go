package dedup

import (
	"context"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/clover/pkg/models"
)

func testDetector() *Detector {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	return NewDetector(logger, DefaultDetectorConfig())
}

func TestDetectBySimilarity(t *testing.T) {
	ctx := context.Background()
	detector := testDetector()

	t.Run("should group near-identical names", func(t *testing.T) {
		report := detector.Detect(ctx, models.EntityKindInstitution, []Record{
			{ID: "a", Name: "GRANT MEDICAL COLLEGE"},
			{ID: "b", Name: "GRANT MEDICAL COLEGE"},
			{ID: "c", Name: "MAULANA AZAD MEDICAL COLLEGE"},
		})

		assert.Len(t, report.Groups, 1)
		group := report.Groups[0]
		assert.Len(t, group.Items, 2)
		assert.Equal(t, "a", group.Items[0].ID)
		assert.Equal(t, "b", group.Items[1].ID)
		assert.Equal(t, "name similarity", group.Reason)
		assert.GreaterOrEqual(t, group.SimilarityScore, 0.85)
		assert.Equal(t, 2, report.Summary.FlaggedItems)
		assert.Equal(t, 1, report.Summary.GroupCount)
		assert.Equal(t, 2, report.Summary.ByKind[models.EntityKindInstitution])
	})

	t.Run("should ignore punctuation and case differences", func(t *testing.T) {
		report := detector.Detect(ctx, models.EntityKindCourse, []Record{
			{ID: "a", Name: "M.B.B.S."},
			{ID: "b", Name: "MBBS"},
		})

		assert.Len(t, report.Groups, 1)
		assert.Equal(t, 1.0, report.Groups[0].SimilarityScore)
	})

	t.Run("should not group dissimilar names", func(t *testing.T) {
		report := detector.Detect(ctx, models.EntityKindInstitution, []Record{
			{ID: "a", Name: "GRANT MEDICAL COLLEGE"},
			{ID: "b", Name: "INDIAN INSTITUTE OF TECHNOLOGY"},
		})

		assert.Empty(t, report.Groups)
		assert.Equal(t, 0, report.Summary.FlaggedItems)
	})

	t.Run("should assign each item to at most one group", func(t *testing.T) {
		report := detector.Detect(ctx, models.EntityKindInstitution, []Record{
			{ID: "a", Name: "GOVERNMENT MEDICAL COLLEGE NAGPUR"},
			{ID: "b", Name: "GOVERNMENT MEDICAL COLLEGE NAGPURR"},
			{ID: "c", Name: "GOVERNMENT MEDICAL COLLEGE NAGPUR."},
		})

		seen := map[string]int{}
		for _, g := range report.Groups {
			assert.GreaterOrEqual(t, len(g.Items), 2)
			for _, item := range g.Items {
				seen[item.ID]++
			}
		}
		for id, count := range seen {
			assert.Equal(t, 1, count, "item %s appears in multiple groups", id)
		}
	})

	t.Run("should skip records with empty names", func(t *testing.T) {
		report := detector.Detect(ctx, models.EntityKindInstitution, []Record{
			{ID: "a", Name: ""},
			{ID: "b", Name: "..."},
			{ID: "c", Name: "GRANT MEDICAL COLLEGE"},
		})

		assert.Empty(t, report.Groups)
	})
}

func TestDetectByCompositeKey(t *testing.T) {
	ctx := context.Background()
	detector := testDetector()

	t.Run("should group rows sharing the composite key", func(t *testing.T) {
		shared := map[string]any{
			"institution_id": "inst-1",
			"program_id":     "mbbs",
			"year":           2024,
			"round":          1,
			"quota":          "AIQ",
			"category":       "GENERAL",
		}
		row1 := map[string]any{"closing_rank": 1200}
		row2 := map[string]any{"closing_rank": 1180}
		for k, v := range shared {
			row1[k] = v
			row2[k] = v
		}

		report := detector.Detect(ctx, models.EntityKindCutoff, []Record{
			{ID: "a", Raw: row1},
			{ID: "b", Raw: row2},
		})

		assert.Len(t, report.Groups, 1)
		group := report.Groups[0]
		assert.Len(t, group.Items, 2)
		assert.Equal(t, 1.0, group.SimilarityScore)
		assert.Equal(t, "exact key collision", group.Reason)
	})

	t.Run("should not group rows differing in any key field", func(t *testing.T) {
		report := detector.Detect(ctx, models.EntityKindCutoff, []Record{
			{ID: "a", Raw: map[string]any{"institution_id": "inst-1", "program_id": "mbbs", "year": 2024, "round": 1, "quota": "AIQ", "category": "GENERAL"}},
			{ID: "b", Raw: map[string]any{"institution_id": "inst-1", "program_id": "mbbs", "year": 2024, "round": 2, "quota": "AIQ", "category": "GENERAL"}},
		})

		assert.Empty(t, report.Groups)
	})

	t.Run("should keep groups disjoint across keys", func(t *testing.T) {
		report := detector.Detect(ctx, models.EntityKindCutoff, []Record{
			{ID: "a", Raw: map[string]any{"institution_id": "i1", "program_id": "p", "year": 2024, "round": 1, "quota": "q", "category": "c"}},
			{ID: "b", Raw: map[string]any{"institution_id": "i1", "program_id": "p", "year": 2024, "round": 1, "quota": "q", "category": "c"}},
			{ID: "c", Raw: map[string]any{"institution_id": "i2", "program_id": "p", "year": 2024, "round": 1, "quota": "q", "category": "c"}},
			{ID: "d", Raw: map[string]any{"institution_id": "i2", "program_id": "p", "year": 2024, "round": 1, "quota": "q", "category": "c"}},
		})

		assert.Len(t, report.Groups, 2)
		assert.Equal(t, 4, report.Summary.FlaggedItems)
	})
}
