package skillrank

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// clientMetrics are the optional collectors enabled by WithMetrics.
type clientMetrics struct {
	calls  *prometheus.CounterVec
	took   *prometheus.HistogramVec
	stages *prometheus.CounterVec
}

func newClientMetrics(reg prometheus.Registerer) (*clientMetrics, error) {
	calls, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "skillrank",
		Subsystem: "client",
		Name:      "calls_total",
		Help:      "Client calls by operation and outcome.",
	}, []string{"operation", "outcome"}))
	if err != nil {
		return nil, err
	}
	took, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "skillrank",
		Subsystem: "client",
		Name:      "call_duration_seconds",
		Help:      "Client call duration; for search this spans the whole stream.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"operation"}))
	if err != nil {
		return nil, err
	}
	stages, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "skillrank",
		Subsystem: "client",
		Name:      "stages_received_total",
		Help:      "Search stages received from the server.",
	}, []string{"stage"}))
	if err != nil {
		return nil, err
	}
	return &clientMetrics{calls: calls, took: took, stages: stages}, nil
}

// register adds c to reg. When an identical collector is already registered, that one is returned
// so several clients can share a registry.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var dup prometheus.AlreadyRegisteredError
	if !errors.As(err, &dup) {
		return c, fmt.Errorf("skillrank: register metric: %w", err)
	}
	existing, ok := dup.ExistingCollector.(T)
	if !ok {
		return c, fmt.Errorf("skillrank: metric registered with a different type %T", dup.ExistingCollector)
	}
	return existing, nil
}

type observer struct {
	logger  *slog.Logger
	metrics *clientMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	o := &observer{logger: logger}
	if reg != nil {
		m, err := newClientMetrics(reg)
		if err != nil {
			return nil, err
		}
		o.metrics = m
	}
	return o, nil
}

// call tracks one client operation from start to end.
type call struct {
	obs    *observer
	op     string
	start  time.Time
	stages int
}

func (o *observer) begin(op string) *call {
	return &call{obs: o, op: op, start: time.Now()}
}

func (c *call) stage(st Stage) {
	c.stages++
	if m := c.obs.metrics; m != nil {
		m.stages.WithLabelValues(string(st)).Inc()
	}
}

// end records the outcome. A cancelled context counts as abandoned, not as an error.
func (c *call) end(err error) {
	took := time.Since(c.start)
	outcome := "ok"
	switch {
	case errors.Is(err, context.Canceled):
		outcome = "abandoned"
	case err != nil:
		outcome = "error"
	}

	if m := c.obs.metrics; m != nil {
		m.calls.WithLabelValues(c.op, outcome).Inc()
		m.took.WithLabelValues(c.op).Observe(took.Seconds())
	}

	if c.obs.logger == nil {
		return
	}
	attrs := []any{"op", c.op, "duration", took}
	if c.op == "search" {
		attrs = append(attrs, "stages", c.stages)
	}
	if outcome == "error" {
		c.obs.logger.Warn("skillrank call failed", append(attrs, "error", err)...)
		return
	}
	c.obs.logger.Debug("skillrank call finished", append(attrs, "outcome", outcome)...)
}
