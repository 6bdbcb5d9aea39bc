package matching

import (
	"context"
	"strings"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizers"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Confidence 1.0 is reserved for exact matches, so fuzzy scores are capped
// just below it. A fuzzy score can reach 1.0 when two names differ only in
// punctuation or spacing.
const maxFuzzyConfidence = 0.99

// ResolverConfig contains the acceptance thresholds for the resolver stages.
type ResolverConfig struct {
	FuzzyInStateThreshold float64 // Minimum similarity for an in-state fuzzy match (default: 0.8)
	FuzzyRelaxedThreshold float64 // Minimum similarity for a cross-state fuzzy match (default: 0.6)
	PartialConfidence     float64 // Confidence assigned to an unambiguous partial match (default: 0.9)
}

// DefaultResolverConfig returns default resolver configuration
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		FuzzyInStateThreshold: 0.8,
		FuzzyRelaxedThreshold: 0.6,
		PartialConfidence:     0.9,
	}
}

// Resolver matches raw institution references against a registry snapshot.
// Resolution is deterministic for a fixed snapshot and configuration.
type Resolver struct {
	logger   ectologger.Logger
	registry *Registry
	scorer   *Scorer
	config   ResolverConfig
}

// NewResolver creates a new Resolver over a registry snapshot.
func NewResolver(logger ectologger.Logger, registry *Registry, config ResolverConfig) *Resolver {
	return &Resolver{
		logger:   logger,
		registry: registry,
		scorer:   NewScorer(),
		config:   config,
	}
}

// variant is one rewriting of the raw name, with its extracted name
// candidates in canonical text form (current name first).
type variant struct {
	label string
	names []string
}

// buildVariants produces the rewritings tried by every stage, most literal
// first. Cheaper transforms are preferred over aggressive ones, so a stage
// always exhausts the original text before consulting a corrected form.
func buildVariants(rawName string) []variant {
	build := func(label, name string) variant {
		v := variant{label: label}
		cand := normalizers.ExtractPrimaryName(name)
		if cand.Current != "" {
			v.names = append(v.names, cand.Current)
		}
		if cand.Previous != nil {
			v.names = append(v.names, *cand.Previous)
		}
		return v
	}

	return []variant{
		build("original", rawName),
		build("typo_corrected", normalizers.CorrectTypos(rawName)),
		build("abbreviation_expanded", normalizers.ExpandAbbreviations(rawName)),
	}
}

// Resolve matches one raw reference against the registry. It returns at most
// one canonical match; "no match" is a normal outcome surfaced through the
// stage, never an error. Stages are tried in trust order and every variant is
// tried within a stage before the next stage runs, so an exact hit on a
// corrected spelling beats a fuzzy hit on the original.
func (r *Resolver) Resolve(ctx context.Context, raw models.RawReference) *models.MatchResult {
	ctx, span := tracing.StartSpan(ctx, "matching.Resolver.Resolve")
	defer span.End()

	state := normalizers.NormalizeState(raw.State)
	variants := buildVariants(raw.Name)

	log := r.logger.WithContext(ctx).WithFields(map[string]any{
		"raw_name":         raw.Name,
		"normalized_state": state,
	})

	inState := r.registry.InState(state)

	// State data is often wrong even when the name is right; with no
	// in-state candidates the resolver goes straight to the relaxed stage
	// over the full registry instead of declaring failure.
	if len(inState) > 0 {
		for _, v := range variants {
			if e, matchedOn := r.exactIn(inState, v); e != nil {
				log.WithFields(map[string]any{"variant": v.label}).Debug("Resolved at exact stage")
				return r.result(e, models.MatchStageExact, 1.0, v, matchedOn, state, len(inState))
			}
		}

		for _, v := range variants {
			outcome, e, matchedOn := r.partialIn(inState, v)
			switch outcome {
			case partialFound:
				log.WithFields(map[string]any{"variant": v.label}).Debug("Resolved at partial stage")
				return r.result(e, models.MatchStagePartial, r.config.PartialConfidence, v, matchedOn, state, len(inState))
			case partialAmbiguous:
				// Never guess between equally-valid partial candidates;
				// fall through to the fuzzy stages.
				log.WithFields(map[string]any{"variant": v.label}).Debug("Partial stage ambiguous")
			}
		}

		for _, v := range variants {
			e, matchedOn, score := r.bestFuzzy(inState, v)
			if e != nil && score >= r.config.FuzzyInStateThreshold {
				log.WithFields(map[string]any{"variant": v.label, "score": score}).Debug("Resolved at fuzzy in-state stage")
				return r.result(e, models.MatchStageFuzzyInState, fuzzyConfidence(score), v, matchedOn, state, len(inState))
			}
		}
	}

	all := r.registry.All()
	for _, v := range variants {
		e, matchedOn, score := r.bestFuzzy(all, v)
		if e != nil && score >= r.config.FuzzyRelaxedThreshold {
			log.WithFields(map[string]any{"variant": v.label, "score": score}).Debug("Resolved at fuzzy relaxed stage")
			return r.result(e, models.MatchStageFuzzyRelaxed, fuzzyConfidence(score), v, matchedOn, state, len(inState))
		}
	}

	log.Debug("No match found")
	return models.NoMatch()
}

// exactIn looks for a candidate whose name or previous name equals one of
// the variant's extracted names. First hit wins.
func (r *Resolver) exactIn(candidates []*entry, v variant) (*entry, string) {
	for _, name := range v.names {
		for _, e := range candidates {
			if e.name == name {
				return e, "name"
			}
			if e.previous != "" && e.previous == name {
				return e, "previous_name"
			}
		}
	}
	return nil, ""
}

// partialOutcome is the closed set of partial-stage results. Ambiguity is a
// first-class outcome, distinct from not finding anything.
type partialOutcome int

const (
	partialNotFound partialOutcome = iota
	partialFound
	partialAmbiguous
)

// partialIn selects candidates related to the variant's names by substring
// containment in either direction. Exactly one qualifying institution is a
// find; more than one is ambiguous.
func (r *Resolver) partialIn(candidates []*entry, v variant) (partialOutcome, *entry, string) {
	var found *entry
	var matchedOn string
	count := 0

	for _, e := range candidates {
		on := ""
		for _, name := range v.names {
			if containsEither(e.name, name) {
				on = "name"
				break
			}
			if e.previous != "" && containsEither(e.previous, name) {
				on = "previous_name"
				break
			}
		}
		if on == "" {
			continue
		}
		count++
		if count > 1 {
			return partialAmbiguous, nil, ""
		}
		found = e
		matchedOn = on
	}

	if count == 1 {
		return partialFound, found, matchedOn
	}
	return partialNotFound, nil, ""
}

// bestFuzzy scores the variant's names against every candidate's name and
// previous name, returning the best-scoring candidate. Ties keep the earliest
// candidate so resolution stays deterministic.
func (r *Resolver) bestFuzzy(candidates []*entry, v variant) (*entry, string, float64) {
	var best *entry
	var matchedOn string
	bestScore := 0.0

	for _, e := range candidates {
		for _, name := range v.names {
			if score := r.scorer.Similarity(name, e.name); score > bestScore {
				best, matchedOn, bestScore = e, "name", score
			}
			if e.previous != "" {
				if score := r.scorer.Similarity(name, e.previous); score > bestScore {
					best, matchedOn, bestScore = e, "previous_name", score
				}
			}
		}
	}

	return best, matchedOn, bestScore
}

func (r *Resolver) result(e *entry, stage models.MatchStage, confidence float64, v variant, matchedOn, state string, inState int) *models.MatchResult {
	return &models.MatchResult{
		MatchedInstitution: e.inst,
		Stage:              stage,
		Confidence:         confidence,
		Details: map[string]any{
			"variant":             v.label,
			"matched_on":          matchedOn,
			"normalized_state":    state,
			"in_state_candidates": inState,
		},
	}
}

func fuzzyConfidence(score float64) float64 {
	if score > maxFuzzyConfidence {
		return maxFuzzyConfidence
	}
	return score
}

func containsEither(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}
