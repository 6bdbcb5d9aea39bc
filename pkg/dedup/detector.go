// Package dedup flags duplicate records inside freshly-ingested batches
// before they reach the canonical store.
package dedup

import (
	"context"
	"fmt"
	"strings"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/clover/pkg/matching"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizers"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// compositeKeyFields define uniqueness for fact records. Two cutoff rows
// agreeing on every one of these describe the same fact.
var compositeKeyFields = []string{"institution_id", "program_id", "year", "round", "quota", "category"}

// Record is one batch row under inspection. Name is read for name-based
// kinds; the composite key fields are read from Raw for fact kinds.
type Record struct {
	ID   string
	Name string
	Raw  map[string]any
}

// DetectorConfig contains configuration for the duplicate detector
type DetectorConfig struct {
	SimilarityThreshold float64 // Minimum similarity for two names to join a group (default: 0.85)
}

// DefaultDetectorConfig returns default detector configuration
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		SimilarityThreshold: 0.85,
	}
}

// Detector partitions a batch into duplicate groups. Detection is read-only
// over its input; it never mutates or deletes records.
type Detector struct {
	logger ectologger.Logger
	scorer *matching.Scorer
	config DetectorConfig
}

// NewDetector creates a new Detector
func NewDetector(logger ectologger.Logger, config DetectorConfig) *Detector {
	return &Detector{
		logger: logger,
		scorer: matching.NewScorer(),
		config: config,
	}
}

// Detect partitions records of one entity kind into duplicate groups and
// returns them with summary counts. Name-based kinds group by similarity,
// fact kinds by exact composite key. Groups are pairwise disjoint and every
// group has at least two items.
func (d *Detector) Detect(ctx context.Context, kind models.EntityKind, records []Record) *models.DuplicateReport {
	ctx, span := tracing.StartSpan(ctx, "dedup.Detector.Detect")
	defer span.End()

	log := d.logger.WithContext(ctx).WithFields(map[string]any{
		"entity_kind":  kind,
		"record_count": len(records),
	})

	var groups []models.DuplicateGroup
	if kind.IsNameBased() {
		groups = d.groupBySimilarity(kind, records)
	} else {
		groups = d.groupByCompositeKey(kind, records)
	}

	flagged := 0
	for _, g := range groups {
		flagged += len(g.Items)
	}

	log.WithFields(map[string]any{
		"group_count":   len(groups),
		"flagged_items": flagged,
	}).Info("Duplicate detection complete")

	return &models.DuplicateReport{
		Groups: groups,
		Summary: models.DuplicateSummary{
			GroupCount:   len(groups),
			FlaggedItems: flagged,
			ByKind:       map[models.EntityKind]int{kind: flagged},
		},
	}
}

// groupBySimilarity groups records whose normalized names score at or above
// the similarity threshold. Grouping is single-pass and greedy: each
// unassigned record seeds a group and absorbs every later unassigned record
// similar enough to the seed. Membership is not transitively closed; two
// records can land in one group while scoring below threshold against each
// other. Known approximation, kept for output compatibility.
//
// Records whose names fold to an empty key are excluded entirely. The scorer
// scores two empty strings 1.0, which would group every nameless record with
// every other; an empty key carries no evidence of sameness, so those records
// are left unflagged instead.
func (d *Detector) groupBySimilarity(kind models.EntityKind, records []Record) []models.DuplicateGroup {
	keys := make([]string, len(records))
	for i, rec := range records {
		keys[i] = normalizers.Alphanumeric(rec.Name)
	}

	assigned := make([]bool, len(records))
	var groups []models.DuplicateGroup

	for i, seed := range records {
		if assigned[i] || keys[i] == "" {
			continue
		}

		items := []models.DuplicateItem{{ID: seed.ID, NormalizedKey: keys[i], Raw: seed.Raw}}
		groupScore := 1.0

		for j := i + 1; j < len(records); j++ {
			if assigned[j] || keys[j] == "" {
				continue
			}
			score := d.scorer.Levenshtein(keys[i], keys[j])
			if score < d.config.SimilarityThreshold {
				continue
			}
			assigned[j] = true
			items = append(items, models.DuplicateItem{ID: records[j].ID, NormalizedKey: keys[j], Raw: records[j].Raw})
			if score < groupScore {
				groupScore = score
			}
		}

		if len(items) < 2 {
			continue
		}
		assigned[i] = true
		groups = append(groups, models.DuplicateGroup{
			ID:              uuid.New().String(),
			EntityKind:      kind,
			Items:           items,
			SimilarityScore: groupScore,
			Reason:          "name similarity",
		})
	}

	return groups
}

// groupByCompositeKey groups fact records sharing the exact composite key.
// Unrelated fields are ignored.
func (d *Detector) groupByCompositeKey(kind models.EntityKind, records []Record) []models.DuplicateGroup {
	byKey := make(map[string][]int)
	order := make([]string, 0)

	for i, rec := range records {
		key := compositeKey(rec.Raw)
		if _, seen := byKey[key]; !seen {
			order = append(order, key)
		}
		byKey[key] = append(byKey[key], i)
	}

	var groups []models.DuplicateGroup
	for _, key := range order {
		indexes := byKey[key]
		if len(indexes) < 2 {
			continue
		}

		items := make([]models.DuplicateItem, 0, len(indexes))
		for _, i := range indexes {
			items = append(items, models.DuplicateItem{ID: records[i].ID, NormalizedKey: key, Raw: records[i].Raw})
		}

		groups = append(groups, models.DuplicateGroup{
			ID:              uuid.New().String(),
			EntityKind:      kind,
			Items:           items,
			SimilarityScore: 1.0,
			Reason:          "exact key collision",
		})
	}

	return groups
}

// compositeKey serializes the composite key fields of a fact record into a
// comparable string. Missing fields serialize as empty components.
func compositeKey(raw map[string]any) string {
	parts := make([]string, len(compositeKeyFields))
	for i, field := range compositeKeyFields {
		if v, ok := raw[field]; ok && v != nil {
			parts[i] = fmt.Sprint(v)
		}
	}
	return strings.Join(parts, "|")
}
