package domain

import (
	"context"
	"fmt"
)

// Embedder turns text into a vector. Decorators wrap a provider and expose it through Unwrap.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult is a vector plus the provider tokens spent on it; cached vectors cost zero tokens.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// HealthChecker is implemented by embedders that can probe their provider.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type unwrapper interface {
	Unwrap() Embedder
}

// CheckEmbedder runs the health check of the first embedder in the chain that has one.
// A chain without a checker counts as healthy.
func CheckEmbedder(ctx context.Context, e Embedder) error {
	for e != nil {
		if hc, ok := e.(HealthChecker); ok {
			return hc.HealthCheck(ctx) //nolint:wrapcheck // caller names the component
		}
		u, ok := e.(unwrapper)
		if !ok {
			return nil
		}
		e = u.Unwrap()
	}
	return nil
}

// WithInstruction prefixes every text with instruction before embedding it, as instruction-tuned
// models expect for queries. An empty instruction returns inner unchanged.
func WithInstruction(inner Embedder, instruction string) Embedder {
	if instruction == "" {
		return inner
	}
	return &instructed{inner: inner, instruction: instruction}
}

type instructed struct {
	inner       Embedder
	instruction string
}

func (e *instructed) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	res, err := e.inner.Embed(ctx, e.instruction+text)
	if err != nil {
		return EmbeddingResult{}, fmt.Errorf("embed with instruction: %w", err)
	}
	return res, nil
}

func (e *instructed) Unwrap() Embedder { return e.inner }
