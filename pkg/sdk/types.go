package skillrank

import (
	"github.com/kailas-cloud/skillrank/internal/domain/candidate"
	"github.com/kailas-cloud/skillrank/internal/domain/query"
	"github.com/kailas-cloud/skillrank/internal/domain/search/result"
	"github.com/kailas-cloud/skillrank/internal/domain/search/stage"
)

// StageResult is one snapshot of a progressive search.
type StageResult = stage.Result

// Stage identifies a step of a progressive search.
type Stage = stage.Stage

// Stage values in emission order.
const (
	StageInstant  = stage.Instant
	StageEnhanced = stage.Enhanced
	StageComplete = stage.Complete
)

// ScoredCandidate is a ranked candidate.
type ScoredCandidate = result.ScoredCandidate

// Tier is the match bucket of a candidate; lower is better.
type Tier = result.Tier

// Annotation is the analytics decoration added in the complete stage.
type Annotation = candidate.Annotation

// ParsedQuery is the server's decomposition of the query text.
type ParsedQuery = query.Parsed

// Correction is one token rewrite applied by the server.
type Correction = query.Correction

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            `json:"status"` // "ok", "degraded", "error"
	Checks map[string]string `json:"checks"` // component → "ok"/"error"
}
