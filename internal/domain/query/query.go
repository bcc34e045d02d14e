// Package query holds the structured form of a recruiter search query.
package query

import "strings"

// Correction is a single token rewrite proposed by a typo corrector.
type Correction struct {
	From       string  `json:"from"`
	To         string  `json:"to"`
	Confidence float64 `json:"confidence"`
}

// Parsed is the decomposition of a free-text query into search constraints.
type Parsed struct {
	OriginalQuery   string       `json:"original_query"`
	CorrectedQuery  *string      `json:"corrected_query,omitempty"`
	Corrections     []Correction `json:"corrections,omitempty"`
	Skills          []string     `json:"skills"`
	PrimarySkill    *string      `json:"primary_skill,omitempty"`
	Seniority       *string      `json:"seniority,omitempty"`
	Roles           []string     `json:"roles"`
	ExperienceYears *int         `json:"experience_years,omitempty"`
	RemainingTerms  []string     `json:"remaining_terms"`
}

// HasSkills reports whether the query carries explicit skill constraints.
func (p *Parsed) HasSkills() bool { return len(p.Skills) > 0 }

// EffectiveQuery returns the corrected query when present, the original otherwise.
func (p *Parsed) EffectiveQuery() string {
	if p.CorrectedQuery != nil {
		return *p.CorrectedQuery
	}
	return p.OriginalQuery
}

// KeywordTerms returns the terms a keyword filter should look for: skills first, then leftovers.
func (p *Parsed) KeywordTerms() []string {
	terms := make([]string, 0, len(p.Skills)+len(p.RemainingTerms))
	seen := make(map[string]struct{}, cap(terms))
	for _, group := range [][]string{p.Skills, p.RemainingTerms} {
		for _, t := range group {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			terms = append(terms, t)
		}
	}
	return terms
}

// Clone returns a deep copy so stage snapshots never share slices.
func (p *Parsed) Clone() Parsed {
	out := Parsed{
		OriginalQuery:  p.OriginalQuery,
		CorrectedQuery: cloneString(p.CorrectedQuery),
		Corrections:    append([]Correction(nil), p.Corrections...),
		Skills:         append([]string(nil), p.Skills...),
		PrimarySkill:   cloneString(p.PrimarySkill),
		Seniority:      cloneString(p.Seniority),
		Roles:          append([]string(nil), p.Roles...),
		RemainingTerms: append([]string(nil), p.RemainingTerms...),
	}
	if p.ExperienceYears != nil {
		years := *p.ExperienceYears
		out.ExperienceYears = &years
	}
	return out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// Normalize lowercases text and collapses runs of whitespace into single spaces.
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}
