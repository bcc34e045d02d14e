package search

import (
	"context"

	"github.com/kailas-cloud/skillrank/internal/domain"
	"github.com/kailas-cloud/skillrank/internal/domain/candidate"
	"github.com/kailas-cloud/skillrank/internal/domain/query"
	"github.com/kailas-cloud/skillrank/internal/usecase/correction"
)

// Corrector fixes typos; it never fails.
type Corrector interface {
	Correct(ctx context.Context, text string) correction.Result
}

// Parser turns corrected text into structured constraints.
type Parser interface {
	ParseCorrected(original, corrected string, corrections []query.Correction) query.Parsed
}

// ResumeStore is the relational candidate store.
type ResumeStore interface {
	MatchKeywords(ctx context.Context, scope string, terms []string, limit int) ([]candidate.CompetencyView, error)
	FetchCompetencyViews(ctx context.Context, ids []string) ([]candidate.CompetencyView, error)
}

// Embedder vectorizes the query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// VectorIndex finds candidates similar to a query vector within a scope.
type VectorIndex interface {
	SearchSimilar(ctx context.Context, vector []float32, scope string, limit int) ([]candidate.Hit, error)
}

// Enricher annotates candidates; any subset may be omitted.
type Enricher interface {
	Annotate(ctx context.Context, ids []string) (map[string]candidate.Annotation, error)
}
