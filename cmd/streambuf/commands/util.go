package commands

import (
	"fmt"

	"github.com/marmos91/streambuf/internal/logger"
	"github.com/marmos91/streambuf/pkg/apiclient"
	"github.com/marmos91/streambuf/pkg/config"
)

// InitLogger initializes the structured logger from configuration.
func InitLogger(cfg *config.Config) error {
	loggerCfg := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}
	if err := logger.Init(loggerCfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// apiPort is shared by the commands that talk to a running server.
var apiPort int

// newClient returns an admin API client for the local server.
func newClient() *apiclient.Client {
	return apiclient.New(fmt.Sprintf("http://localhost:%d", apiPort))
}

// getConfigSource returns a description of where the config was loaded from.
func getConfigSource(configFile string) string {
	if configFile != "" {
		return configFile
	}
	if config.DefaultConfigExists() {
		return config.GetDefaultConfigPath()
	}
	return "defaults"
}
