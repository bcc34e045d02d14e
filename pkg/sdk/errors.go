package skillrank

import (
	"errors"
	"fmt"
)

// ErrIncompleteStream is returned when the server closed the stream before the complete stage.
var ErrIncompleteStream = errors.New("skillrank: stream ended before the complete stage")

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("skillrank: %d %s: %s", e.StatusCode, e.Code, e.Message)
}
