// Package analytics reads per-candidate analytics hashes used to decorate complete-stage results.
package analytics

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/kailas-cloud/skillrank/internal/domain"
	"github.com/kailas-cloud/skillrank/internal/domain/candidate"
	"github.com/kailas-cloud/skillrank/internal/logger"
)

// KeyPrefix namespaces analytics hashes: skillrank:analytics:<candidate id>.
var KeyPrefix = domain.KeyPrefix + "analytics:"

// Hash field names.
const (
	FieldAvailability     = "availability"
	FieldLearningVelocity = "learning_velocity"
	FieldCareerPattern    = "career_pattern"
)

// store is the consumer interface for analytics reads (ISP).
type store interface {
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
}

// Repo implements the search Enricher over valkey hashes.
type Repo struct {
	store store
}

// New creates an analytics repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Annotate fetches annotations for ids in one pipelined round-trip.
// Missing or malformed entries are omitted from the result.
func (r *Repo) Annotate(ctx context.Context, ids []string) (map[string]candidate.Annotation, error) {
	if len(ids) == 0 {
		return map[string]candidate.Annotation{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = KeyPrefix + id
	}

	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("annotate %d candidates: %w: %w", len(ids), domain.ErrEnricherUnavailable, err)
	}

	out := make(map[string]candidate.Annotation, len(ids))
	for i, h := range hashes {
		if i >= len(ids) || len(h) == 0 {
			continue
		}
		a, err := parse(h)
		if err != nil {
			logger.FromContext(ctx).Debug("Skipping malformed analytics entry",
				zap.String("candidate_id", ids[i]), zap.Error(err))
			continue
		}
		out[ids[i]] = a
	}
	return out, nil
}

func parse(h map[string]string) (candidate.Annotation, error) {
	avail, err := strconv.ParseFloat(h[FieldAvailability], 64)
	if err != nil {
		return candidate.Annotation{}, fmt.Errorf("availability: %w", err)
	}
	velocity, err := strconv.ParseFloat(h[FieldLearningVelocity], 64)
	if err != nil {
		return candidate.Annotation{}, fmt.Errorf("learning_velocity: %w", err)
	}
	a := candidate.Annotation{
		Availability:     avail,
		LearningVelocity: velocity,
		CareerPattern:    h[FieldCareerPattern],
	}
	if !a.Valid() {
		return candidate.Annotation{}, fmt.Errorf("scores out of range: %+v", a)
	}
	return a, nil
}
