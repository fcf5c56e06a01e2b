package config

import (
	"strings"
	"time"

	"github.com/marmos91/streambuf/internal/bytesize"
	"github.com/marmos91/streambuf/pkg/accumulator"
	"github.com/marmos91/streambuf/pkg/api"
	"github.com/marmos91/streambuf/pkg/bufpool"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and environment
// variables to fill in any missing values with sensible defaults.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyShutdownTimeoutDefaults(cfg)
	applyMetricsDefaults(&cfg.Metrics)
	applyAPIDefaults(&cfg.API)
	applyAccumulatorDefaults(&cfg.Accumulator)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyTelemetryDefaults sets OpenTelemetry defaults.
func applyTelemetryDefaults(cfg *TelemetryConfig) {
	// Default endpoint is localhost:4317 (standard OTLP gRPC port)
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}

	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}

	applyProfilingDefaults(&cfg.Profiling)
}

// applyProfilingDefaults sets Pyroscope profiling defaults.
func applyProfilingDefaults(cfg *ProfilingConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://localhost:4040"
	}

	if len(cfg.ProfileTypes) == 0 {
		cfg.ProfileTypes = []string{
			"cpu",
			"alloc_objects",
			"alloc_space",
			"inuse_objects",
			"inuse_space",
			"goroutines",
		}
	}
}

func applyShutdownTimeoutDefaults(cfg *Config) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

// applyMetricsDefaults sets metrics defaults.
// Port defaults to 9090 only when metrics are enabled.
func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Enabled && cfg.Port == 0 {
		cfg.Port = 9090
	}
}

func applyAPIDefaults(cfg *api.APIConfig) {
	cfg.ApplyDefaults()
}

// applyAccumulatorDefaults fills the registry, pool and evictor settings.
func applyAccumulatorDefaults(cfg *AccumulatorConfig) {
	if cfg.DefaultSessionTimeout == 0 {
		cfg.DefaultSessionTimeout = accumulator.DefaultSessionTimeout
	}
	if cfg.MaxContentLength == 0 {
		cfg.MaxContentLength = bytesize.ByteSize(accumulator.DefaultMaxContentLength)
	}
	if cfg.CleanFixedRate == 0 {
		cfg.CleanFixedRate = accumulator.DefaultCleanFixedRate
	}
	if cfg.CleanBatchSize == 0 {
		cfg.CleanBatchSize = accumulator.DefaultCleanBatchSize
	}
	if cfg.BufferPoolSize == 0 {
		cfg.BufferPoolSize = bufpool.DefaultSize
	}
	if cfg.BufferInitialCapacity == 0 {
		cfg.BufferInitialCapacity = bytesize.ByteSize(bufpool.DefaultInitialCapacity)
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{
		Telemetry: TelemetryConfig{
			Insecure: true,
		},
		API: api.APIConfig{
			Enabled: true,
		},
	}

	ApplyDefaults(cfg)
	return cfg
}
