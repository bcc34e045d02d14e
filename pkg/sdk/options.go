package skillrank

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	httpClient *http.Client
	headers    http.Header

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithHTTPClient replaces http.DefaultClient. Do not set a client Timeout shorter than a full search.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *clientConfig) {
		if hc != nil {
			c.httpClient = hc
		}
	})
}

// WithHeader adds a header to every request, e.g. for a gateway in front of the server.
func WithHeader(key, value string) Option {
	return optionFunc(func(c *clientConfig) {
		c.headers.Add(key, value)
	})
}

// WithLogger enables operation logging.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithMetrics registers SDK operation metrics on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

// SearchOption narrows a single search.
type SearchOption func(*searchParams)

type searchParams struct {
	scope string
	limit int
}

// InScope sets the tenant scope of the search. Every search needs one; the server rejects
// a missing or blank scope with a validation error.
func InScope(scope string) SearchOption {
	return func(p *searchParams) { p.scope = scope }
}

// WithLimit caps results per stage. The server applies its own maximum.
func WithLimit(n int) SearchOption {
	return func(p *searchParams) { p.limit = n }
}
