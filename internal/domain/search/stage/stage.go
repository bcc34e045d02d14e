package stage

import (
	"github.com/kailas-cloud/skillrank/internal/domain/query"
	"github.com/kailas-cloud/skillrank/internal/domain/search/result"
)

// Stage is one step of a progressive search.
type Stage string

// Stage constants in emission order.
const (
	// Instant is keyword-only and always emitted.
	Instant Stage = "instant"
	// Enhanced merges in vector similarity.
	Enhanced Stage = "enhanced"
	// Complete adds analytics annotations and ends the stream.
	Complete Stage = "complete"
)

// IsValid checks if the stage is one of the supported values.
func (s Stage) IsValid() bool {
	return s == Instant || s == Enhanced || s == Complete
}

// IsFinal reports whether no stage follows s.
func (s Stage) IsFinal() bool { return s == Complete }

// Degrade reasons recorded on a stage result.
const (
	DegradedKeywordSearch = "keyword_search"
	DegradedEmbedding     = "embedding"
	DegradedVectorSearch  = "vector_search"
	DegradedResumeStore   = "resume_store"
	DegradedEnrichment    = "enrichment"
)

// Result is an immutable snapshot emitted for one stage.
// Results is never shared with another stage's Result.
type Result struct {
	Stage    Stage                    `json:"stage"`
	SearchID string                   `json:"search_id"`
	Query    query.Parsed             `json:"query"`
	Results  []result.ScoredCandidate `json:"results"`
	Count    int                      `json:"count"`
	Degraded []string                 `json:"degraded,omitempty"`
}

// IsDegraded reports whether any collaborator failed before this stage.
func (r *Result) IsDegraded() bool { return len(r.Degraded) > 0 }
