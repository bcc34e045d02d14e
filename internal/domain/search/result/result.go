package result

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/kailas-cloud/skillrank/internal/domain/candidate"
)

// Tier is the match bucket of a candidate; lower is better.
type Tier int

// Tier constants. TierNoMatch is only produced in five-tier mode; three-tier mode folds zero matches into TierPartial.
const (
	TierPerfect       Tier = 1
	TierStrong        Tier = 2
	TierPartial       Tier = 3
	TierNoMatch       Tier = 4
	TierUnconstrained Tier = 5
)

// Valid reports whether t is within 1..5.
func (t Tier) Valid() bool { return t >= TierPerfect && t <= TierUnconstrained }

// Label returns the display label. Panics on an invalid tier: that is a scorer defect.
func (t Tier) Label() string {
	switch t {
	case TierPerfect:
		return "perfect"
	case TierStrong:
		return "strong"
	case TierPartial:
		return "partial"
	case TierNoMatch:
		return "no_match"
	case TierUnconstrained:
		return "unconstrained"
	}
	panic(fmt.Sprintf("result: invalid tier %d", int(t)))
}

// Source tells which retrieval produced the candidate.
type Source string

// Source constants.
const (
	SourceKeyword Source = "keyword"
	SourceVector  Source = "vector"
	SourceBoth    Source = "both"
)

// Merge combines the sources of the same candidate seen by two retrievals.
func (s Source) Merge(other Source) Source {
	if s == "" {
		return other
	}
	if other == "" || s == other {
		return s
	}
	return SourceBoth
}

// ScoredCandidate is a ranked candidate with its tier and final score.
type ScoredCandidate struct {
	ID              string                `json:"id"`
	Tier            Tier                  `json:"tier"`
	TierLabel       string                `json:"tier_label"`
	MatchedSkills   []string              `json:"matched_skills"`
	FinalScore      float64               `json:"final_score"`
	BaseScore       float64               `json:"base_score"`
	Source          Source                `json:"source"`
	Headline        string                `json:"headline,omitempty"`
	Skills          []string              `json:"skills"`
	ExperienceYears int                   `json:"experience_years,omitempty"`
	Annotation      *candidate.Annotation `json:"annotation,omitempty"`
}

// Compare orders by tier ascending, final score descending, then id for determinism.
func Compare(a, b ScoredCandidate) int {
	if c := cmp.Compare(a.Tier, b.Tier); c != 0 {
		return c
	}
	if c := cmp.Compare(b.FinalScore, a.FinalScore); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// Clone deep-copies the slice so stages never share backing arrays.
func Clone(in []ScoredCandidate) []ScoredCandidate {
	if in == nil {
		return nil
	}
	out := make([]ScoredCandidate, len(in))
	for i, c := range in {
		c.MatchedSkills = slices.Clone(c.MatchedSkills)
		c.Skills = slices.Clone(c.Skills)
		if c.Annotation != nil {
			a := *c.Annotation
			c.Annotation = &a
		}
		out[i] = c
	}
	return out
}
