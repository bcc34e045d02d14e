// Package candidate stores candidate vectors in a valkey-search HNSW index and queries it by scope.
package candidate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/kailas-cloud/skillrank/internal/db"
	"github.com/kailas-cloud/skillrank/internal/domain"
	"github.com/kailas-cloud/skillrank/internal/domain/candidate"
	"github.com/kailas-cloud/skillrank/internal/domain/search/filter"
)

// Index layout.
var (
	IndexName = domain.KeyPrefix + "candidates:idx"
	KeyPrefix = domain.KeyPrefix + "cand:"
)

const (
	fieldScope  = "scope"
	fieldSkills = "skills"
	fieldVector = "vector"
	skillsSep   = ","
)

// store is the consumer interface for the vector index (ISP).
type store interface {
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.KNNResult, error)
}

// IndexConfig sizes the HNSW index.
type IndexConfig struct {
	Dimensions  int
	M           int
	EFConstruct int
}

// Entry is one candidate vector to index.
type Entry struct {
	ID     string
	Scope  string
	Skills []string
	Vector []float32
}

// Repo is the candidate vector index.
type Repo struct {
	store store
	cfg   IndexConfig
}

// New creates a candidate index repository.
func New(s store, cfg IndexConfig) *Repo {
	return &Repo{store: s, cfg: cfg}
}

// Definition returns the FT.CREATE definition for the candidate index.
func (r *Repo) Definition() (*db.IndexDefinition, error) {
	def, err := db.NewIndex(IndexName).
		Prefix(KeyPrefix).
		Tag(fieldScope).
		TagList(fieldSkills, skillsSep).
		Vector(fieldVector, db.HNSW{
			Dim:            r.cfg.Dimensions,
			Distance:       db.Cosine,
			M:              r.cfg.M,
			EFConstruction: r.cfg.EFConstruct,
		}).
		Build()
	if err != nil {
		return nil, fmt.Errorf("candidate index definition: %w", err)
	}
	return def, nil
}

// EnsureIndex creates the index unless it already exists. Safe to call from several replicas.
func (r *Repo) EnsureIndex(ctx context.Context) (created bool, err error) {
	exists, err := r.store.IndexExists(ctx, IndexName)
	if err != nil {
		return false, fmt.Errorf("check candidate index: %w", err)
	}
	if exists {
		return false, nil
	}

	def, err := r.Definition()
	if err != nil {
		return false, err
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return false, nil
		}
		return false, fmt.Errorf("create candidate index: %w", err)
	}
	return true, nil
}

// Upsert writes candidate vectors in one pipelined round-trip.
func (r *Repo) Upsert(ctx context.Context, entries []Entry) error {
	items := make([]db.HashSetItem, 0, len(entries))
	for _, e := range entries {
		if e.ID == "" {
			return fmt.Errorf("candidate id is required")
		}
		if r.cfg.Dimensions > 0 && len(e.Vector) != r.cfg.Dimensions {
			return fmt.Errorf("candidate %s: vector has %d dimensions, index expects %d",
				e.ID, len(e.Vector), r.cfg.Dimensions)
		}
		skills := make([]string, len(e.Skills))
		for i, s := range e.Skills {
			skills[i] = strings.ToLower(strings.TrimSpace(s))
		}
		items = append(items, db.HashSetItem{
			Key: KeyPrefix + e.ID,
			Fields: map[string]string{
				fieldScope:  e.Scope,
				fieldSkills: strings.Join(skills, skillsSep),
				fieldVector: db.VectorBlob(e.Vector),
			},
		})
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("upsert candidates: %w", err)
	}
	return nil
}

// SearchSimilar returns up to limit candidates in scope, most similar first.
func (r *Repo) SearchSimilar(
	ctx context.Context, vector []float32, scope string, limit int,
) ([]candidate.Hit, error) {
	if strings.TrimSpace(scope) == "" {
		return nil, fmt.Errorf("search candidates: %w", domain.ErrScopeRequired)
	}
	q := &db.KNNQuery{
		Index:  IndexName,
		Field:  fieldVector,
		Filter: filter.Scope(scope),
		Vector: vector,
		K:      limit,
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search candidates in scope %q: %w", scope, err)
	}
	return parseHits(sr), nil
}

func parseHits(res *db.KNNResult) []candidate.Hit {
	if res == nil || len(res.Matches) == 0 {
		return nil
	}
	hits := make([]candidate.Hit, 0, len(res.Matches))
	for _, m := range res.Matches {
		id, ok := strings.CutPrefix(m.Key, KeyPrefix)
		if !ok || id == "" {
			continue
		}
		hits = append(hits, candidate.Hit{ID: id, Score: math.Max(0, math.Min(1, m.Similarity))})
	}
	return hits
}
