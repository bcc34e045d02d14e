// Package corrections persists learned typo corrections in a single valkey hash.
package corrections

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/skillrank/internal/domain"
)

// Key is the hash holding misspelling -> canonical term.
var Key = domain.KeyPrefix + "corrections"

// store is the consumer interface for the learned-corrections hash (ISP).
type store interface {
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HSet(ctx context.Context, key string, fields map[string]string) error
}

// Repo implements correction.LearnedStore.
type Repo struct {
	store store
}

// New creates a learned-corrections repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// LoadAll returns every learned correction.
func (r *Repo) LoadAll(ctx context.Context) (map[string]string, error) {
	m, err := r.store.HGetAll(ctx, Key)
	if err != nil {
		return nil, fmt.Errorf("load learned corrections: %w", err)
	}
	return m, nil
}

// Save records one correction, overwriting an earlier mapping for the same token.
func (r *Repo) Save(ctx context.Context, from, to string) error {
	if from == "" || to == "" {
		return fmt.Errorf("save learned correction: empty token")
	}
	if err := r.store.HSet(ctx, Key, map[string]string{from: to}); err != nil {
		return fmt.Errorf("save learned correction %q: %w", from, err)
	}
	return nil
}
