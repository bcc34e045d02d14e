// Package embcache caches query embeddings in valkey and collapses concurrent identical requests.
package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/skillrank/internal/db"
	"github.com/kailas-cloud/skillrank/internal/domain"
)

var keyPrefix = domain.KeyPrefix + "emb_cache:"

type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Config configures an Embedder. Lookups, when set, is counted by result: hit, miss or shared.
type Config struct {
	Model   string
	TTL     time.Duration
	Lookups *prometheus.CounterVec
	Logger  *zap.Logger
}

// Embedder serves vectors from the cache and falls back to inner. Cache failures degrade to misses.
type Embedder struct {
	inner  domain.Embedder
	store  store
	cfg    Config
	flight singleflight.Group
}

func New(inner domain.Embedder, s store, cfg Config) *Embedder {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Embedder{inner: inner, store: s, cfg: cfg}
}

// Embed returns a cached vector at zero token cost, or embeds text once for all concurrent callers
// asking for it. The provider call runs under the first caller's context; the others stop waiting
// when their own context ends.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := e.key(text)
	if vec := e.load(ctx, key); vec != nil {
		e.count("hit")
		return domain.EmbeddingResult{Embedding: vec}, nil
	}

	ch := e.flight.DoChan(key, func() (any, error) {
		res, err := e.inner.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		e.save(ctx, key, res.Embedding)
		return res, nil
	})

	select {
	case <-ctx.Done():
		return domain.EmbeddingResult{}, fmt.Errorf("wait for embedding: %w", ctx.Err())
	case r := <-ch:
		if r.Shared {
			e.count("shared")
		} else {
			e.count("miss")
		}
		if r.Err != nil {
			return domain.EmbeddingResult{}, fmt.Errorf("embed query: %w", r.Err)
		}
		res := r.Val.(domain.EmbeddingResult) //nolint:errcheck // the flight only stores EmbeddingResult
		if r.Shared {
			res.PromptTokens, res.TotalTokens = 0, 0
		}
		return res, nil
	}
}

func (e *Embedder) Unwrap() domain.Embedder { return e.inner }

// key is namespaced by model so switching models never serves vectors from the old one.
func (e *Embedder) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return keyPrefix + e.cfg.Model + ":" + base64.RawURLEncoding.EncodeToString(sum[:])
}

func (e *Embedder) load(ctx context.Context, key string) []float32 {
	raw, err := e.store.Get(ctx, key)
	switch {
	case errors.Is(err, db.ErrKeyNotFound):
		return nil
	case err != nil:
		e.cfg.Logger.Warn("Embedding cache read failed", zap.String("key", key), zap.Error(err))
		return nil
	}
	vec, err := decodeVector(raw)
	if err != nil {
		e.cfg.Logger.Warn("Dropping unreadable cached embedding", zap.String("key", key), zap.Error(err))
		return nil
	}
	return vec
}

func (e *Embedder) save(ctx context.Context, key string, vec []float32) {
	if len(vec) == 0 {
		return
	}
	if err := e.store.SetWithTTL(ctx, key, []byte(db.VectorBlob(vec)), e.cfg.TTL); err != nil {
		e.cfg.Logger.Warn("Embedding cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (e *Embedder) count(result string) {
	if e.cfg.Lookups != nil {
		e.cfg.Lookups.WithLabelValues(result).Inc()
	}
}

// decodeVector reverses db.VectorBlob.
func decodeVector(raw []byte) ([]float32, error) {
	if len(raw) == 0 || len(raw)%4 != 0 {
		return nil, fmt.Errorf("cached vector has %d bytes", len(raw))
	}
	vec := make([]float32, 0, len(raw)/4)
	for b := raw; len(b) > 0; b = b[4:] {
		vec = append(vec, math.Float32frombits(binary.LittleEndian.Uint32(b)))
	}
	return vec, nil
}
