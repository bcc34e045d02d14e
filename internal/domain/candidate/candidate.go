// Package candidate holds the read-side views of candidates that the ranking pipeline consumes.
package candidate

// CompetencyView is the denormalized competency record for one candidate.
// BaseSimilarityScore is in [0,1] and comes from whichever retrieval produced the candidate.
type CompetencyView struct {
	ID                  string   `json:"id"`
	ScopeID             string   `json:"scope_id,omitempty"`
	Headline            string   `json:"headline,omitempty"`
	Skills              []string `json:"skills"`
	ExperienceYears     int      `json:"experience_years,omitempty"`
	BaseSimilarityScore float64  `json:"base_similarity_score"`
}

// Annotation is the best-effort analytics decoration added in the complete stage.
type Annotation struct {
	Availability     float64 `json:"availability"`
	LearningVelocity float64 `json:"learning_velocity"`
	CareerPattern    string  `json:"career_pattern,omitempty"`
}

// Valid reports whether both scores are within [0,1].
func (a Annotation) Valid() bool {
	return a.Availability >= 0 && a.Availability <= 1 &&
		a.LearningVelocity >= 0 && a.LearningVelocity <= 1
}

// Hit is a vector-index match: a candidate id and its cosine similarity in [0,1].
type Hit struct {
	ID    string
	Score float64
}
