package metrics

import "sync"

// Embedding provider and cache metrics.
var (
	EmbeddingRequestsTotal = counterVec("embedding_requests_total",
		"Total number of embedding requests", "provider", "model", "status")

	EmbeddingRequestDuration = histogramVec("embedding_request_duration_seconds",
		"Embedding request duration in seconds",
		[]float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}, "provider", "model")

	EmbeddingTokensTotal = counterVec("embedding_tokens_total",
		"Total embedding tokens consumed", "provider", "model", "type")

	EmbeddingErrorsTotal = counterVec("embedding_errors_total",
		"Total embedding errors", "provider", "model", "error_type")

	// EmbeddingCacheTotal is labeled by result: hit, miss or shared.
	EmbeddingCacheTotal = counterVec("embedding_cache_total",
		"Query embedding cache lookups by result", "result")
)

var embeddingOnce sync.Once

// RegisterEmbeddingMetrics registers the embedding collectors.
func RegisterEmbeddingMetrics() {
	registerOnce(&embeddingOnce,
		EmbeddingRequestsTotal,
		EmbeddingRequestDuration,
		EmbeddingTokensTotal,
		EmbeddingErrorsTotal,
		EmbeddingCacheTotal,
	)
}
