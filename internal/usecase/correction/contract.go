package correction

import (
	"context"

	"github.com/kailas-cloud/skillrank/internal/domain/query"
)

// Strategy proposes token corrections for a whole normalized query.
type Strategy interface {
	Name() string
	Correct(ctx context.Context, text string) ([]query.Correction, error)
}

// LearnedStore persists accepted corrections across restarts.
type LearnedStore interface {
	LoadAll(ctx context.Context) (map[string]string, error)
	Save(ctx context.Context, from, to string) error
}
