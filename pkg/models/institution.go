package models

// CanonicalInstitution is one entry in the canonical registry: the trusted,
// deduplicated list of known institutions used as the match target. The
// registry is owned by an external service; clover loads a read-only
// snapshot once per matching session and never writes back.
type CanonicalInstitution struct {
	ID           string  `json:"id" db:"id"`
	Name         string  `json:"name" db:"name"`
	State        string  `json:"state" db:"state"`
	Address      string  `json:"address" db:"address"`
	PreviousName *string `json:"previous_name,omitempty" db:"previous_name"`
}

// RawReference is a free-text institution mention plus its reported state,
// as extracted from one ingested row. Transient; discarded after resolution.
type RawReference struct {
	Name  string `json:"name"`
	State string `json:"state"`
}

// MatchStage identifies the pipeline phase that produced a match decision.
type MatchStage string

const (
	MatchStageExact        MatchStage = "exact"
	MatchStagePartial      MatchStage = "partial"
	MatchStageFuzzyInState MatchStage = "fuzzy_in_state"
	MatchStageFuzzyRelaxed MatchStage = "fuzzy_relaxed"
	MatchStageNone         MatchStage = "none"
)

// MatchResult is the resolution decision for one RawReference.
//
// Invariants:
//   - MatchedInstitution is nil iff Stage == MatchStageNone iff Confidence == 0
//   - Confidence == 1.0 iff Stage == MatchStageExact
type MatchResult struct {
	MatchedInstitution *CanonicalInstitution `json:"matched_institution,omitempty"`
	Stage              MatchStage            `json:"stage"`
	Confidence         float64               `json:"confidence"`
	Details            map[string]any        `json:"details,omitempty"` // Explainability: variant used, candidates considered
}

// IsMatch reports whether the resolver produced a canonical match.
func (r *MatchResult) IsMatch() bool {
	return r.Stage != MatchStageNone && r.MatchedInstitution != nil
}

// NeedsReview reports whether the result should be routed to the manual
// review queue rather than applied directly. Exact, partial and in-state
// fuzzy matches are trusted; relaxed matches and non-matches are not.
func (r *MatchResult) NeedsReview() bool {
	switch r.Stage {
	case MatchStageExact, MatchStagePartial, MatchStageFuzzyInState:
		return false
	default:
		return true
	}
}

// NoMatch returns the canonical non-match result.
func NoMatch() *MatchResult {
	return &MatchResult{Stage: MatchStageNone, Confidence: 0}
}
