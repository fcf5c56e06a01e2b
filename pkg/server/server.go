// Package server assembles the streambuf runtime: the session registry, its
// evictor, the admin API and the metrics endpoint.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/streambuf/internal/logger"
	"github.com/marmos91/streambuf/pkg/accumulator"
	"github.com/marmos91/streambuf/pkg/api"
	"github.com/marmos91/streambuf/pkg/config"
	"github.com/marmos91/streambuf/pkg/metrics"
)

// Server owns every long-running component of a streambuf process.
type Server struct {
	cfg        *config.Config
	configPath string
	instanceID string

	registry      *accumulator.Registry
	evictor       *accumulator.Evictor
	apiServer     *api.Server
	metricsServer *http.Server

	serveOnce sync.Once
}

// New builds a Server from cfg. Metrics must be initialized (see
// config.InitializeMetrics) before New for the registry to report them.
//
// configPath enables hot reload of the logging level and accumulator limits
// when non-empty.
func New(cfg *config.Config, configPath string, metricsServer *http.Server) *Server {
	regCfg := cfg.Accumulator.RegistryConfig()

	registry := accumulator.NewRegistry(regCfg,
		accumulator.WithMetrics(metrics.NewAccumulatorMetrics()),
		accumulator.WithPoolMetrics(metrics.NewBufferPoolMetrics()),
	)

	s := &Server{
		cfg:           cfg,
		configPath:    configPath,
		instanceID:    uuid.NewString(),
		registry:      registry,
		evictor:       accumulator.NewEvictor(registry, regCfg.CleanFixedRate),
		metricsServer: metricsServer,
	}

	if cfg.API.Enabled {
		s.apiServer = api.NewServer(cfg.API, registry, s.evictor, s.instanceID)
	}
	return s
}

// Registry returns the session registry. Stream producers call Init,
// Append and GetContent on it.
func (s *Server) Registry() *accumulator.Registry {
	return s.registry
}

// Evictor returns the background evictor.
func (s *Server) Evictor() *accumulator.Evictor {
	return s.evictor
}

// InstanceID returns the identifier generated for this process.
func (s *Server) InstanceID() string {
	return s.instanceID
}

// Serve starts every component and blocks until ctx is cancelled or the
// API server fails. On return the evictor is stopped, the servers are shut
// down and every remaining session has been cleared.
//
// Serve may only be called once; later calls return nil immediately.
func (s *Server) Serve(ctx context.Context) error {
	var err error
	s.serveOnce.Do(func() {
		err = s.serve(ctx)
	})
	return err
}

func (s *Server) serve(ctx context.Context) error {
	logger.Info("Starting streambuf",
		logger.KeyInstanceID, s.instanceID,
		logger.KeyTimeout, s.registry.DefaultTimeout(),
		logger.KeyMaxLength, s.registry.MaxContentLength(),
		logger.KeyInterval, s.evictor.Interval(),
		logger.KeyPoolSize, s.registry.Pool().Size())

	s.evictor.Start(ctx)

	if s.configPath != "" {
		if err := config.Watch(ctx, s.configPath, s.applyReload); err != nil {
			logger.Warn("Config hot reload unavailable", logger.KeyConfigPath, s.configPath, logger.KeyError, err)
		}
	}

	metricsErrChan := make(chan error, 1)
	if s.metricsServer != nil {
		go func() {
			logger.Info("Metrics server listening", logger.KeyAddr, s.metricsServer.Addr)
			if err := s.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				metricsErrChan <- err
			}
		}()
	}

	apiErrChan := make(chan error, 1)
	if s.apiServer != nil {
		go func() {
			if err := s.apiServer.Start(ctx); err != nil {
				apiErrChan <- err
			}
		}()
	}

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received", logger.KeyReason, ctx.Err())
	case err := <-apiErrChan:
		logger.Error("API server failed - initiating shutdown", logger.KeyError, err)
		serveErr = fmt.Errorf("API server error: %w", err)
	case err := <-metricsErrChan:
		logger.Error("Metrics server failed - initiating shutdown", logger.KeyError, err)
		serveErr = fmt.Errorf("metrics server error: %w", err)
	}

	s.shutdown()
	return serveErr
}

// shutdown stops components in reverse dependency order.
func (s *Server) shutdown() {
	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	s.evictor.Stop(timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if s.apiServer != nil {
		if err := s.apiServer.Stop(ctx); err != nil {
			logger.Warn("API server stop error", logger.KeyError, err)
		}
	}
	if s.metricsServer != nil {
		if err := s.metricsServer.Shutdown(ctx); err != nil {
			logger.Warn("Metrics server stop error", logger.KeyError, err)
		}
	}

	cleared := s.registry.Shutdown()
	logger.Info("streambuf stopped", logger.KeyCount, cleared)
}

// applyReload applies the settings that can change without a restart.
// Everything else in the new file is ignored until the next start.
func (s *Server) applyReload(cfg *config.Config) {
	if cfg.Logging.Level != s.cfg.Logging.Level {
		logger.SetLevel(cfg.Logging.Level)
	}
	s.registry.SetLimits(cfg.Accumulator.DefaultSessionTimeout, cfg.Accumulator.MaxContentLength.Int())

	s.cfg.Logging.Level = cfg.Logging.Level
	s.cfg.Accumulator.DefaultSessionTimeout = cfg.Accumulator.DefaultSessionTimeout
	s.cfg.Accumulator.MaxContentLength = cfg.Accumulator.MaxContentLength
}
