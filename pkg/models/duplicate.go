package models

// EntityKind classifies what a batch of records contains, which decides the
// duplicate detection strategy: name-based kinds group by similarity, fact
// kinds group by exact composite key.
type EntityKind string

const (
	EntityKindInstitution EntityKind = "institution"
	EntityKindCourse      EntityKind = "course"
	EntityKindCutoff      EntityKind = "cutoff"
)

// IsNameBased reports whether duplicates of this kind are detected by
// name similarity rather than composite key equality.
func (k EntityKind) IsNameBased() bool {
	return k == EntityKindInstitution || k == EntityKindCourse
}

// DuplicateItem is one record flagged inside a duplicate group.
type DuplicateItem struct {
	ID            string         `json:"id"`
	NormalizedKey string         `json:"normalized_key"`
	Raw           map[string]any `json:"raw,omitempty"`
}

// DuplicateGroup is a set of records believed to describe the same entity.
//
// Invariants: every group has at least 2 items, and within one detection run
// an item id belongs to at most one group.
type DuplicateGroup struct {
	ID              string          `json:"id"`
	EntityKind      EntityKind      `json:"entity_kind"`
	Items           []DuplicateItem `json:"items"`
	SimilarityScore float64         `json:"similarity_score"`
	Reason          string          `json:"reason"`
}

// DuplicateSummary aggregates a detection run for the review UI.
type DuplicateSummary struct {
	GroupCount   int                `json:"group_count"`
	FlaggedItems int                `json:"flagged_items"`
	ByKind       map[EntityKind]int `json:"by_kind"`
}

// DuplicateReport is the full output of one detection run. Detection is
// read-only over its input; removal or merging is an external,
// human-reviewed action.
type DuplicateReport struct {
	Groups  []DuplicateGroup `json:"groups"`
	Summary DuplicateSummary `json:"summary"`
}
