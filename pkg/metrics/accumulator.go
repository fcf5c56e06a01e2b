package metrics

import (
	"github.com/marmos91/streambuf/pkg/accumulator"
	"github.com/marmos91/streambuf/pkg/bufpool"
)

// NewAccumulatorMetrics creates a Prometheus-backed accumulator.Metrics.
//
// Returns nil if metrics are not enabled (InitRegistry not called) or the
// prometheus package was not linked in. Pass the result straight to
// accumulator.WithMetrics; nil disables collection.
//
// Example usage:
//
//	metrics.InitRegistry()
//	reg := accumulator.NewRegistry(cfg, accumulator.WithMetrics(metrics.NewAccumulatorMetrics()))
func NewAccumulatorMetrics() accumulator.Metrics {
	if !IsEnabled() || newPrometheusAccumulatorMetrics == nil {
		return nil
	}
	return newPrometheusAccumulatorMetrics()
}

// NewBufferPoolMetrics creates a Prometheus-backed bufpool.Metrics.
// Returns nil when metrics are disabled.
func NewBufferPoolMetrics() bufpool.Metrics {
	if !IsEnabled() || newPrometheusBufferPoolMetrics == nil {
		return nil
	}
	return newPrometheusBufferPoolMetrics()
}

// These are set by pkg/metrics/prometheus during package initialization.
// The indirection avoids an import cycle while keeping the API clean.
var (
	newPrometheusAccumulatorMetrics func() accumulator.Metrics
	newPrometheusBufferPoolMetrics  func() bufpool.Metrics
)

// RegisterAccumulatorMetricsConstructor registers the Prometheus accumulator
// metrics constructor.
func RegisterAccumulatorMetricsConstructor(constructor func() accumulator.Metrics) {
	newPrometheusAccumulatorMetrics = constructor
}

// RegisterBufferPoolMetricsConstructor registers the Prometheus buffer pool
// metrics constructor.
func RegisterBufferPoolMetricsConstructor(constructor func() bufpool.Metrics) {
	newPrometheusBufferPoolMetrics = constructor
}
