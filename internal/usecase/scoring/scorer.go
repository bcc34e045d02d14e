// Package scoring buckets candidates into skill-coverage tiers and rescales their similarity.
package scoring

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/kailas-cloud/skillrank/internal/domain/candidate"
	"github.com/kailas-cloud/skillrank/internal/domain/ontology"
	"github.com/kailas-cloud/skillrank/internal/domain/query"
	"github.com/kailas-cloud/skillrank/internal/domain/search/result"
)

// Mode selects how zero-coverage candidates are tiered.
type Mode int

const (
	// FiveTier separates zero coverage (tier 4) from partial coverage (tier 3).
	FiveTier Mode = iota
	// ThreeTier folds zero coverage into tier 3.
	ThreeTier
)

// ParseMode maps the config value ("three" or "five") to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "five", "":
		return FiveTier, nil
	case "three":
		return ThreeTier, nil
	}
	return FiveTier, fmt.Errorf("unknown tier mode %q", s)
}

// Score transform constants.
const (
	perfectBoost   = 1.3
	strongBase     = 0.2
	strongSlope    = 0.4
	weakMultiplier = 0.3
	strongRatio    = 0.5
	shortSkillLen  = 2
)

// Outcome is the result of scoring one candidate against the required skills.
type Outcome struct {
	Tier       result.Tier
	FinalScore float64
	Matched    []string
}

// Scorer is stateless apart from its mode and the shared read-only ontology.
type Scorer struct {
	mode Mode
	ont  *ontology.Ontology
}

// New creates a scorer. ont may be nil, in which case candidate skills are only lowercased.
func New(mode Mode, ont *ontology.Ontology) *Scorer {
	return &Scorer{mode: mode, ont: ont}
}

// Score tiers a candidate. base is clamped to [0,1].
func (s *Scorer) Score(required, candidateSkills []string, base float64) Outcome {
	base = clamp01(base)
	if len(required) == 0 {
		return Outcome{Tier: result.TierUnconstrained, FinalScore: base}
	}

	skills := s.canonical(candidateSkills)
	var matched []string
	for _, req := range required {
		req = strings.ToLower(req)
		if slices.ContainsFunc(skills, func(c string) bool { return skillMatches(req, c) }) {
			matched = append(matched, req)
		}
	}

	ratio := float64(len(matched)) / float64(len(required))
	out := Outcome{Matched: matched}
	switch {
	case ratio >= 1:
		out.Tier = result.TierPerfect
		out.FinalScore = math.Min(1, base*perfectBoost)
	case ratio >= strongRatio:
		out.Tier = result.TierStrong
		out.FinalScore = base * (strongBase + ratio*strongSlope)
	case ratio > 0:
		out.Tier = result.TierPartial
		out.FinalScore = base * weakMultiplier
	default:
		out.Tier = result.TierNoMatch
		if s.mode == ThreeTier {
			out.Tier = result.TierPartial
		}
		out.FinalScore = base * weakMultiplier
	}
	return out
}

// Apply scores a competency view and builds the ranked representation.
func (s *Scorer) Apply(
	parsed *query.Parsed, view candidate.CompetencyView, base float64, src result.Source,
) result.ScoredCandidate {
	out := s.Score(parsed.Skills, view.Skills, base)
	return result.ScoredCandidate{
		ID:              view.ID,
		Tier:            out.Tier,
		TierLabel:       out.Tier.Label(),
		MatchedSkills:   out.Matched,
		FinalScore:      out.FinalScore,
		BaseScore:       clamp01(base),
		Source:          src,
		Headline:        view.Headline,
		Skills:          slices.Clone(view.Skills),
		ExperienceYears: view.ExperienceYears,
	}
}

// Sort orders results by tier, then final score descending, then id.
// A tier outside 1..5 is a scorer defect and panics.
func Sort(results []result.ScoredCandidate) {
	for i := range results {
		if !results[i].Tier.Valid() {
			panic(fmt.Sprintf("scoring: candidate %s has invalid tier %d", results[i].ID, results[i].Tier))
		}
	}
	slices.SortStableFunc(results, result.Compare)
}

func (s *Scorer) canonical(skills []string) []string {
	if s.ont != nil {
		return s.ont.CanonicalizeAll(skills)
	}
	out := make([]string, len(skills))
	for i, sk := range skills {
		out[i] = strings.ToLower(sk)
	}
	return out
}

// skillMatches is a case-insensitive substring test. One- and two-letter skills (r, c, go)
// must appear as a whole token so "r" never matches "ruby" or "react".
func skillMatches(required, candidateSkill string) bool {
	if len(required) <= shortSkillLen {
		return slices.Contains(query.Tokenize(candidateSkill), required)
	}
	return strings.Contains(candidateSkill, required)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
