package chi

// ErrorCode is a machine-readable error code in API responses.
type ErrorCode string

// ErrorCode constants.
const (
	ErrorCodeBadRequest       ErrorCode = "bad_request"
	ErrorCodeValidationFailed ErrorCode = "validation_failed"
	ErrorCodeNotFound         ErrorCode = "not_found"
	ErrorCodeUpstreamError    ErrorCode = "upstream_error"
	ErrorCodeInternalError    ErrorCode = "internal_error"
	ErrorCodeStreamingFailed  ErrorCode = "streaming_unsupported"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// SearchParams are the query parameters of GET /search.
type SearchParams struct {
	Q     string  `form:"q" json:"q"`
	Scope string  `form:"scope" json:"scope"`
	Limit *int    `form:"limit,omitempty" json:"limit,omitempty"`
}

// FeedbackRequest is the body of POST /corrections/feedback.
type FeedbackRequest struct {
	Original string `json:"original"`
	Accepted string `json:"accepted"`
}

// FeedbackResponse reports how many token rewrites were learned.
type FeedbackResponse struct {
	Learned int `json:"learned"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
