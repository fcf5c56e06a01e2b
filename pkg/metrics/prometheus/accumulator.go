// Package prometheus implements component metrics on client_golang.
//
// Importing this package (usually for side effects) registers its
// constructors with pkg/metrics.
package prometheus

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/streambuf/pkg/accumulator"
	"github.com/marmos91/streambuf/pkg/metrics"
)

func init() {
	metrics.RegisterAccumulatorMetricsConstructor(NewAccumulatorMetrics)
}

// accumulatorMetrics is the Prometheus implementation of accumulator.Metrics.
type accumulatorMetrics struct {
	appends         *prometheus.CounterVec
	appendBytes     *prometheus.HistogramVec
	reads           *prometheus.CounterVec
	misses          *prometheus.CounterVec
	finalized       *prometheus.CounterVec
	sessionDuration prometheus.Histogram
	evicted         prometheus.Counter
	sweepDuration   prometheus.Histogram
	sweepVisited    prometheus.Histogram
	activeUsers     prometheus.Gauge
	activeSessions  prometheus.Gauge
}

// NewAccumulatorMetrics creates a new Prometheus-backed accumulator.Metrics.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewAccumulatorMetrics() accumulator.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}
	return newAccumulatorMetrics(metrics.GetRegistry())
}

func newAccumulatorMetrics(reg prometheus.Registerer) *accumulatorMetrics {
	factory := promauto.With(reg)

	return &accumulatorMetrics{
		appends: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "streambuf_accumulator_appends_total",
				Help: "Total number of append calls by channel, status and failure reason",
			},
			[]string{"channel", "status", "reason"},
		),
		appendBytes: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "streambuf_accumulator_append_bytes",
				Help: "Distribution of accepted fragment sizes in bytes",
				Buckets: []float64{
					8,     // single tokens
					32,    // typical delta
					128,   //
					512,   //
					2048,  // large deltas
					8192,  //
					65536, // bulk appends
				},
			},
			[]string{"channel"},
		),
		reads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "streambuf_accumulator_reads_total",
				Help: "Total number of content reads by channel",
			},
			[]string{"channel", "destructive"},
		),
		misses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "streambuf_accumulator_misses_total",
				Help: "Total number of non-append operations rejected for an invalid key or missing session",
			},
			[]string{"operation", "reason"},
		),
		finalized: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "streambuf_accumulator_finalized_total",
				Help: "Total number of sessions removed from the registry by reason",
			},
			[]string{"reason"}, // read, clear, evict, shutdown
		),
		sessionDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name: "streambuf_accumulator_session_duration_seconds",
				Help: "Lifetime of sessions from init to finalize",
				Buckets: []float64{
					0.5, 1, 5, 15, 30, 60, 300, 900, 1800, 3600,
				},
			},
		),
		evicted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "streambuf_accumulator_evicted_total",
				Help: "Total number of sessions evicted for inactivity",
			},
		),
		sweepDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "streambuf_accumulator_sweep_duration_seconds",
				Help:    "Duration of eviction sweeps",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8), // 100us .. ~1.6s
			},
		),
		sweepVisited: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "streambuf_accumulator_sweep_visited_users",
				Help:    "Number of users visited per eviction sweep",
				Buckets: []float64{0, 1, 10, 50, 100, 500, 1000},
			},
		),
		activeUsers: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "streambuf_accumulator_active_users",
				Help: "Number of users with at least one open session",
			},
		),
		activeSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "streambuf_accumulator_active_sessions",
				Help: "Number of open sessions",
			},
		),
	}
}

func (m *accumulatorMetrics) RecordAppend(channel accumulator.Channel, ok bool, reason string, bytes int) {
	if m == nil {
		return
	}
	status := "success"
	if !ok {
		status = "failure"
	}
	m.appends.WithLabelValues(channel.String(), status, reason).Inc()
	if ok {
		m.appendBytes.WithLabelValues(channel.String()).Observe(float64(bytes))
	}
}

func (m *accumulatorMetrics) RecordRead(channel accumulator.Channel, destructive bool) {
	if m == nil {
		return
	}
	m.reads.WithLabelValues(channel.String(), strconv.FormatBool(destructive)).Inc()
}

func (m *accumulatorMetrics) RecordMiss(op, reason string) {
	if m == nil {
		return
	}
	m.misses.WithLabelValues(op, reason).Inc()
}

func (m *accumulatorMetrics) RecordFinalize(reason string, lifetime time.Duration) {
	if m == nil {
		return
	}
	m.finalized.WithLabelValues(reason).Inc()
	m.sessionDuration.Observe(lifetime.Seconds())
}

func (m *accumulatorMetrics) RecordSweep(visitedUsers, evicted int, duration time.Duration) {
	if m == nil {
		return
	}
	m.sweepDuration.Observe(duration.Seconds())
	m.sweepVisited.Observe(float64(visitedUsers))
	if evicted > 0 {
		m.evicted.Add(float64(evicted))
	}
}

func (m *accumulatorMetrics) RecordActive(users, sessions int64) {
	if m == nil {
		return
	}
	m.activeUsers.Set(float64(users))
	m.activeSessions.Set(float64(sessions))
}
