package domain

import (
	"context"
	"errors"
	"testing"
)

type stubEmbedder struct {
	result EmbeddingResult
	err    error
	got    string
}

func (s *stubEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	s.got = text
	return s.result, s.err
}

type checkedEmbedder struct {
	stubEmbedder
	healthErr error
}

func (c *checkedEmbedder) HealthCheck(context.Context) error { return c.healthErr }

type passthrough struct{ inner Embedder }

func (p passthrough) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return p.inner.Embed(ctx, text)
}

func (p passthrough) Unwrap() Embedder { return p.inner }

func TestWithInstruction(t *testing.T) {
	inner := &stubEmbedder{result: EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}}}
	emb := WithInstruction(inner, "query: ")

	res, err := emb.Embed(context.Background(), "python developer")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if inner.got != "query: python developer" {
		t.Errorf("inner saw %q", inner.got)
	}
	if len(res.Embedding) != 3 {
		t.Errorf("vector has %d elements", len(res.Embedding))
	}

	if WithInstruction(inner, "") != Embedder(inner) {
		t.Error("empty instruction should not wrap")
	}
}

func TestWithInstruction_Error(t *testing.T) {
	cause := errors.New("provider down")
	_, err := WithInstruction(&stubEmbedder{err: cause}, "query: ").Embed(context.Background(), "hello")
	if !errors.Is(err, cause) {
		t.Errorf("err = %v", err)
	}
}

func TestCheckEmbedder(t *testing.T) {
	down := errors.New("unreachable")
	tests := []struct {
		name  string
		chain Embedder
		want  error
	}{
		{"bare provider without checker", &stubEmbedder{}, nil},
		{"checker at the root", &checkedEmbedder{healthErr: down}, down},
		{"checker behind decorators", passthrough{WithInstruction(&checkedEmbedder{healthErr: down}, "q: ")}, down},
		{"healthy checker", passthrough{&checkedEmbedder{}}, nil},
		{"nil", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := CheckEmbedder(context.Background(), tt.chain); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCollaboratorError_Unwrap(t *testing.T) {
	err := NewCollaboratorError("vector_index", "enhanced", ErrVectorSearchUnavailable)
	if !errors.Is(err, ErrVectorSearchUnavailable) {
		t.Fatal("expected errors.Is to see the wrapped sentinel")
	}
	want := "vector_index (stage enhanced): vector search unavailable"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}
