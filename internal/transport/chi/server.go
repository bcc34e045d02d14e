// Package chi exposes the search engine over HTTP: a Server-Sent Events search stream,
// correction feedback, health and metrics.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/skillrank/internal/domain"
	"github.com/kailas-cloud/skillrank/internal/domain/search/stage"
	"github.com/kailas-cloud/skillrank/internal/logger"
	healthuc "github.com/kailas-cloud/skillrank/internal/usecase/health"
)

// Searcher streams progressive search stages.
type Searcher interface {
	Search(ctx context.Context, text, scope string, limit int) iter.Seq[stage.Result]
}

// FeedbackRecorder learns corrections from accepted queries.
type FeedbackRecorder interface {
	RecordFeedback(ctx context.Context, original, accepted string) (int, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// maxFeedbackBody caps POST /corrections/feedback bodies.
const maxFeedbackBody = 16 << 10

// Server implements the HTTP handlers.
type Server struct {
	search        Searcher
	feedback      FeedbackRecorder
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. feedback may be nil, in which case feedback requests are accepted
// but nothing is learned.
func NewServer(search Searcher, feedback FeedbackRecorder, health HealthChecker, logger *zap.Logger) *Server {
	s := &Server{
		search:   search,
		feedback: feedback,
		health:   health,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrCandidateNotFound, http.StatusNotFound, ErrorCodeNotFound),
		sentinelHandler(domain.ErrResumeStoreUnavailable, http.StatusBadGateway, ErrorCodeUpstreamError),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, ErrorCodeUpstreamError),
	}
	return s
}

// Search handles GET /search. Each stage is written as one SSE event and flushed immediately.
// A client disconnect cancels the request context, which stops the search before its next stage.
func (s *Server) Search(w http.ResponseWriter, r *http.Request, params SearchParams) {
	limit := 0
	if params.Limit != nil {
		limit = *params.Limit
	}
	if limit < 0 {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "limit must not be negative")
		return
	}
	scope := strings.TrimSpace(params.Scope)
	if scope == "" {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "scope must not be blank")
		return
	}

	rc := http.NewResponseController(w)
	// Streams outlive the server write timeout.
	_ = rc.SetWriteDeadline(time.Time{})

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	log := logger.FromContext(r.Context())
	for res := range s.search.Search(r.Context(), params.Q, scope, limit) {
		if err := writeEvent(w, res); err != nil {
			log.Warn("sse write failed", zap.String("stage", string(res.Stage)), zap.Error(err))
			return
		}
		if err := rc.Flush(); err != nil {
			log.Warn("sse flush failed", zap.String("stage", string(res.Stage)), zap.Error(err))
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, res stage.Result) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal %s stage: %w", res.Stage, err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\nid: %s:%s\ndata: %s\n\n", res.Stage, res.SearchID, res.Stage, data); err != nil {
		return fmt.Errorf("write %s stage: %w", res.Stage, err)
	}
	return nil
}

// RecordFeedback handles POST /corrections/feedback.
func (s *Server) RecordFeedback(w http.ResponseWriter, r *http.Request) {
	var req FeedbackRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFeedbackBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Original) == "" || strings.TrimSpace(req.Accepted) == "" {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "original and accepted are required")
		return
	}

	if s.feedback == nil {
		writeJSON(w, http.StatusOK, FeedbackResponse{})
		return
	}

	learned, err := s.feedback.RecordFeedback(r.Context(), req.Original, req.Accepted)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, FeedbackResponse{Learned: learned})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidQuery,
		domain.ErrCandidateNotFound,
		domain.ErrResumeStoreUnavailable,
		domain.ErrEmbeddingProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
