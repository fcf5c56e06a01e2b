package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marmos91/streambuf/internal/logger"
	"github.com/marmos91/streambuf/internal/telemetry"
	"github.com/marmos91/streambuf/pkg/config"
	"github.com/marmos91/streambuf/pkg/server"
)

var (
	pidFile  string
	noReload bool
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the streambuf server",
	Long: `Start the streambuf server in the foreground.

Use --config to specify a custom configuration file, or it will use the
default location at $XDG_CONFIG_HOME/streambuf/config.yaml. Without a
configuration file the built-in defaults apply.

While running, edits to the configuration file are picked up for the log
level and the accumulator session timeout and content cap.

Examples:
  # Start with the default configuration
  streambuf start

  # Start with custom config file
  streambuf start --config /etc/streambuf/config.yaml

  # Start with environment variable overrides
  STREAMBUF_LOGGING_LEVEL=DEBUG streambuf start`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().StringVar(&pidFile, "pid-file", "", "Path to PID file")
	startCmd.Flags().BoolVar(&noReload, "no-reload", false, "Disable configuration hot reload")
}

func runStart(cmd *cobra.Command, args []string) error {
	configPath := GetConfigFile()
	if configPath == "" && config.DefaultConfigExists() {
		configPath = config.GetDefaultConfigPath()
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "streambuf",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(context.Background()); err != nil {
			logger.Error("telemetry shutdown error", logger.KeyError, err)
		}
	}()

	profilingShutdown, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "streambuf",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", logger.KeyError, err)
		}
	}()

	logger.Info("Log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("Configuration loaded", "source", getConfigSource(configPath))
	if telemetry.IsEnabled() {
		logger.Info("Telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	}
	if telemetry.IsProfilingEnabled() {
		logger.Info("Profiling enabled", "endpoint", cfg.Telemetry.Profiling.Endpoint)
	}

	metricsServer := config.InitializeMetrics(cfg)

	watchPath := configPath
	if noReload {
		watchPath = ""
	}
	srv := server.New(cfg, watchPath, metricsServer)

	if pidFile != "" {
		if err := os.WriteFile(pidFile, []byte(fmt.Sprintf("%d", os.Getpid())), 0644); err != nil {
			return fmt.Errorf("failed to write PID file: %w", err)
		}
		defer func() { _ = os.Remove(pidFile) }()
	}

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Serve(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	logger.Info("Server is running. Press Ctrl+C to stop.", logger.KeyInstanceID, srv.InstanceID())

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received, initiating graceful shutdown")
		cancel()
		if err := <-serverDone; err != nil {
			logger.Error("Server shutdown error", logger.KeyError, err)
			return err
		}
		logger.Info("Server stopped gracefully")

	case err := <-serverDone:
		if err != nil {
			logger.Error("Server error", logger.KeyError, err)
			return err
		}
		logger.Info("Server stopped")
	}

	return nil
}
