package config

import (
	"fmt"
	"net/http"
	"time"

	"github.com/marmos91/streambuf/internal/logger"
	"github.com/marmos91/streambuf/pkg/metrics"

	// Registers the Prometheus constructors with pkg/metrics.
	_ "github.com/marmos91/streambuf/pkg/metrics/prometheus"
)

// InitializeMetrics enables the metrics registry when configured and
// returns the HTTP server exposing /metrics. It returns nil when metrics
// are disabled; the server is not started.
func InitializeMetrics(cfg *Config) *http.Server {
	if !cfg.Metrics.Enabled {
		logger.Debug("Metrics collection disabled")
		return nil
	}

	metrics.InitRegistry()

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	logger.Info("Metrics collection enabled", logger.KeyPort, cfg.Metrics.Port)

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
