// Package config loads, validates and persists the streambuf configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/marmos91/streambuf/internal/bytesize"
	"github.com/marmos91/streambuf/pkg/accumulator"
	"github.com/marmos91/streambuf/pkg/api"
)

// EnvPrefix is the prefix of environment variable overrides.
const EnvPrefix = "STREAMBUF"

// Config represents the streambuf configuration.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (STREAMBUF_*)
//  2. Configuration file (YAML)
//  3. Default values
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Telemetry controls OpenTelemetry distributed tracing
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`

	// Metrics contains Prometheus metrics server configuration
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// API contains admin API server configuration
	API api.APIConfig `mapstructure:"api" yaml:"api"`

	// Accumulator tunes session buffering and eviction
	Accumulator AccumulatorConfig `mapstructure:"accumulator" yaml:"accumulator"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
// When enabled, each eviction sweep is exported as a span to an
// OTLP-compatible collector (Jaeger, Tempo, ...).
type TelemetryConfig struct {
	// Enabled controls whether distributed tracing is enabled
	// Default: false
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the OTLP collector endpoint (host:port)
	// Default: "localhost:4317"
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// Insecure controls whether to use insecure (non-TLS) connection
	// Default: true
	Insecure bool `mapstructure:"insecure" yaml:"insecure"`

	// SampleRate controls the trace sampling rate (0.0 to 1.0)
	// Default: 1.0
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`

	// Profiling contains Pyroscope continuous profiling configuration
	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	// Enabled controls whether continuous profiling is enabled
	// Default: false
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the Pyroscope server endpoint (URL)
	// Default: "http://localhost:4040"
	Endpoint string `mapstructure:"endpoint" validate:"omitempty,url" yaml:"endpoint"`

	// ProfileTypes specifies which profile types to collect
	// Valid values: cpu, alloc_objects, alloc_space, inuse_objects, inuse_space,
	//               goroutines, mutex_count, mutex_duration, block_count, block_duration
	ProfileTypes []string `mapstructure:"profile_types" validate:"dive,oneof=cpu alloc_objects alloc_space inuse_objects inuse_space goroutines mutex_count mutex_duration block_count block_duration" yaml:"profile_types"`
}

// MetricsConfig configures the Prometheus metrics HTTP server.
// When Enabled is false, no metrics are collected (zero overhead).
type MetricsConfig struct {
	// Enabled controls whether metrics collection and HTTP server are enabled
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the HTTP port for the metrics endpoint
	// Default: 9090
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// AccumulatorConfig tunes the session registry, its buffer pool and the evictor.
type AccumulatorConfig struct {
	// DefaultSessionTimeout is the idle duration after which a session is evicted.
	// Default: 30m
	DefaultSessionTimeout time.Duration `mapstructure:"default_session_timeout" validate:"gt=0" yaml:"default_session_timeout"`

	// MaxContentLength caps each channel buffer ("1MiB", "65536").
	// Default: 1MiB
	MaxContentLength bytesize.ByteSize `mapstructure:"max_content_length" validate:"gt=0" yaml:"max_content_length"`

	// CleanFixedRate is the evictor sweep interval.
	// Default: 1m
	CleanFixedRate time.Duration `mapstructure:"clean_fixed_rate" validate:"gt=0" yaml:"clean_fixed_rate"`

	// CleanBatchSize is the maximum number of users visited per sweep.
	// Default: 100
	CleanBatchSize int `mapstructure:"clean_batch_size" validate:"gt=0" yaml:"clean_batch_size"`

	// BufferPoolSize is the maximum number of pooled buffers.
	// Default: 256
	BufferPoolSize int `mapstructure:"buffer_pool_size" validate:"gt=0" yaml:"buffer_pool_size"`

	// BufferInitialCapacity is the capacity of a fresh buffer ("4KiB").
	// Default: 4KiB
	BufferInitialCapacity bytesize.ByteSize `mapstructure:"buffer_initial_capacity" validate:"gt=0,ltefield=MaxContentLength" yaml:"buffer_initial_capacity"`
}

// RegistryConfig converts the section into an accumulator.Config.
func (c AccumulatorConfig) RegistryConfig() accumulator.Config {
	return accumulator.Config{
		DefaultSessionTimeout: c.DefaultSessionTimeout,
		MaxContentLength:      c.MaxContentLength.Int(),
		CleanFixedRate:        c.CleanFixedRate,
		CleanBatchSize:        c.CleanBatchSize,
		BufferPoolSize:        c.BufferPoolSize,
		BufferInitialCapacity: c.BufferInitialCapacity.Int(),
	}
}

// Load loads configuration from file, environment, and defaults.
//
// A missing file is not an error: defaults plus environment overrides are
// used. configPath may be empty to search the default location.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)
	registerDefaults(v)

	if _, err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration, requiring the file to exist. The error
// explains how to create one.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please initialize a configuration file first:\n"+
				"  streambuf init\n\n"+
				"Or specify a custom config file:\n"+
				"  streambuf <command> --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("configuration file not found: %s\n\n"+
			"Please create the configuration file:\n"+
			"  streambuf init --config %s",
			configPath, configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// SaveConfig saves the configuration to path in YAML format.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// STREAMBUF_ACCUMULATOR_MAX_CONTENT_LENGTH=2MiB
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.AddConfigPath(getConfigDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

// registerDefaults makes every key known to viper so that environment
// variables apply even when the file omits the key or does not exist.
func registerDefaults(v *viper.Viper) {
	d := GetDefaultConfig()

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output", d.Logging.Output)

	v.SetDefault("telemetry.enabled", d.Telemetry.Enabled)
	v.SetDefault("telemetry.endpoint", d.Telemetry.Endpoint)
	v.SetDefault("telemetry.insecure", d.Telemetry.Insecure)
	v.SetDefault("telemetry.sample_rate", d.Telemetry.SampleRate)
	v.SetDefault("telemetry.profiling.enabled", d.Telemetry.Profiling.Enabled)
	v.SetDefault("telemetry.profiling.endpoint", d.Telemetry.Profiling.Endpoint)
	v.SetDefault("telemetry.profiling.profile_types", d.Telemetry.Profiling.ProfileTypes)

	v.SetDefault("shutdown_timeout", d.ShutdownTimeout.String())

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.port", d.Metrics.Port)

	v.SetDefault("api.enabled", d.API.Enabled)
	v.SetDefault("api.port", d.API.Port)
	v.SetDefault("api.read_timeout", d.API.ReadTimeout.String())
	v.SetDefault("api.write_timeout", d.API.WriteTimeout.String())
	v.SetDefault("api.idle_timeout", d.API.IdleTimeout.String())
	v.SetDefault("api.request_timeout", d.API.RequestTimeout.String())

	a := d.Accumulator
	v.SetDefault("accumulator.default_session_timeout", a.DefaultSessionTimeout.String())
	v.SetDefault("accumulator.max_content_length", a.MaxContentLength.Format())
	v.SetDefault("accumulator.clean_fixed_rate", a.CleanFixedRate.String())
	v.SetDefault("accumulator.clean_batch_size", a.CleanBatchSize)
	v.SetDefault("accumulator.buffer_pool_size", a.BufferPoolSize)
	v.SetDefault("accumulator.buffer_initial_capacity", a.BufferInitialCapacity.Format())
}

// readConfigFile reads the configuration file if it exists.
// Returns (fileFound, error) where fileFound indicates if a config file was found.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

// configDecodeHooks returns a combined decode hook for all custom types.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		durationDecodeHook(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// byteSizeDecodeHook converts strings and numbers to bytesize.ByteSize so
// config files can use sizes like "64KiB" or plain byte counts.
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return bytesize.ParseByteSize(v)
		case int:
			if v < 0 {
				return nil, fmt.Errorf("negative byte size: %d", v)
			}
			return bytesize.ByteSize(v), nil
		case int64:
			if v < 0 {
				return nil, fmt.Errorf("negative byte size: %d", v)
			}
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			// YAML often deserializes numbers as float64
			if v < 0 {
				return nil, fmt.Errorf("negative byte size: %v", v)
			}
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

// durationDecodeHook converts strings like "30s" or "5m" to time.Duration.
// Raw integers are taken as nanoseconds.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns $XDG_CONFIG_HOME/streambuf, ~/.config/streambuf, or
// "." when the home directory is unknown.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "streambuf")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "streambuf")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks if a config file exists at the default location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path.
func GetConfigDir() string {
	return getConfigDir()
}
