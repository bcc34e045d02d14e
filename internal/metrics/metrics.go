// Package metrics declares the Prometheus collectors of the service. Nothing is registered
// at import time; main calls the Register functions, each of which is idempotent.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "skillrank"

func counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, labels)
}

func histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	}, labels)
}

// registerOnce registers collectors with the default registerer the first time it runs.
func registerOnce(once *sync.Once, collectors ...prometheus.Collector) {
	once.Do(func() {
		prometheus.MustRegister(collectors...)
	})
}
