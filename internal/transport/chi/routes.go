package chi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/runtime"

	"github.com/kailas-cloud/skillrank/internal/metrics"
)

// InvalidParamFormatError reports a query parameter that failed to bind.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("Invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error { return e.Err }

// Handler builds the router: recoverer, request id, wide-event logging and metrics middleware,
// then the API routes.
func Handler(s *Server) http.Handler {
	r := chi.NewRouter()
	r.Use(JSONRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEventMiddleware(s.logger))
	r.Use(metrics.Middleware())

	r.Get("/search", s.searchWrapper)
	r.Post("/corrections/feedback", s.RecordFeedback)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	return r
}

// searchWrapper binds query parameters the way generated oapi-codegen wrappers do.
func (s *Server) searchWrapper(w http.ResponseWriter, r *http.Request) {
	var params SearchParams
	query := r.URL.Query()

	if err := runtime.BindQueryParameter("form", true, true, "q", query, &params.Q); err != nil {
		s.paramError(w, &InvalidParamFormatError{ParamName: "q", Err: err})
		return
	}
	if err := runtime.BindQueryParameter("form", true, true, "scope", query, &params.Scope); err != nil {
		s.paramError(w, &InvalidParamFormatError{ParamName: "scope", Err: err})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", query, &params.Limit); err != nil {
		s.paramError(w, &InvalidParamFormatError{ParamName: "limit", Err: err})
		return
	}

	s.Search(w, r, params)
}

func (s *Server) paramError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
}
