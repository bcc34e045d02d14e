// Package embedding holds the outermost link of the query embedding chain used by search.
package embedding

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kailas-cloud/skillrank/internal/domain"
	"github.com/kailas-cloud/skillrank/internal/logger"
)

// Checked rejects vectors whose length differs from the index dimension and logs every call.
// Provider request metrics live in the transport; this layer sees cache hits too.
type Checked struct {
	inner  domain.Embedder
	dims   int
	fields []zap.Field
}

// NewChecked wraps inner. dims <= 0 accepts any length.
func NewChecked(inner domain.Embedder, dims int, provider, model string) *Checked {
	return &Checked{
		inner:  inner,
		dims:   dims,
		fields: []zap.Field{zap.String("provider", provider), zap.String("model", model)},
	}
}

func (c *Checked) Embed(ctx context.Context, text string) (res domain.EmbeddingResult, err error) {
	start := time.Now()
	defer func() {
		level, msg := zapcore.DebugLevel, "Query embedded"
		if err != nil {
			level, msg = zapcore.ErrorLevel, "Query embedding failed"
		}
		if ce := logger.FromContext(ctx).Check(level, msg); ce != nil {
			ce.Write(slices.Concat(c.fields, []zap.Field{
				zap.Duration("duration", time.Since(start)),
				zap.Int("dimensions", len(res.Embedding)),
				zap.Int("total_tokens", res.TotalTokens),
				zap.Error(err),
			})...)
		}
	}()

	res, err = c.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	if c.dims > 0 && len(res.Embedding) != c.dims {
		got := len(res.Embedding)
		return domain.EmbeddingResult{}, fmt.Errorf("embed: got %d dimensions, index expects %d: %w",
			got, c.dims, domain.ErrEmbeddingProviderError)
	}
	return res, nil
}

func (c *Checked) Unwrap() domain.Embedder { return c.inner }
