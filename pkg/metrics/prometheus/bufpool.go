package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/streambuf/pkg/bufpool"
	"github.com/marmos91/streambuf/pkg/metrics"
)

func init() {
	metrics.RegisterBufferPoolMetricsConstructor(NewBufferPoolMetrics)
}

// bufferPoolMetrics is the Prometheus implementation of bufpool.Metrics.
type bufferPoolMetrics struct {
	borrows  *prometheus.CounterVec
	recycles *prometheus.CounterVec
	idle     prometheus.Gauge
}

// NewBufferPoolMetrics creates a new Prometheus-backed bufpool.Metrics.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewBufferPoolMetrics() bufpool.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}
	return newBufferPoolMetrics(metrics.GetRegistry())
}

func newBufferPoolMetrics(reg prometheus.Registerer) *bufferPoolMetrics {
	factory := promauto.With(reg)

	return &bufferPoolMetrics{
		borrows: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "streambuf_bufpool_borrow_total",
				Help: "Total number of buffer borrows by source",
			},
			[]string{"source"}, // pool, alloc
		),
		recycles: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "streambuf_bufpool_recycle_total",
				Help: "Total number of buffer returns by outcome",
			},
			[]string{"outcome"}, // pooled, oversized, full
		),
		idle: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "streambuf_bufpool_idle",
				Help: "Number of buffers waiting in the pool",
			},
		),
	}
}

func (m *bufferPoolMetrics) RecordBorrow(reused bool) {
	if m == nil {
		return
	}
	source := "alloc"
	if reused {
		source = "pool"
	}
	m.borrows.WithLabelValues(source).Inc()
}

func (m *bufferPoolMetrics) RecordRecycle(outcome bufpool.RecycleOutcome) {
	if m == nil || outcome == bufpool.RecycleIgnored {
		return
	}
	m.recycles.WithLabelValues(string(outcome)).Inc()
}

func (m *bufferPoolMetrics) RecordIdle(n int) {
	if m == nil {
		return
	}
	m.idle.Set(float64(n))
}
