package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/streambuf/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the streambuf configuration file.

Checks for syntax errors, missing required fields, and invalid values.

Examples:
  # Validate default config
  streambuf config validate

  # Validate specific config file
  streambuf config validate --config /etc/streambuf/config.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	// Get config path from parent's persistent flag
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	displayPath := configPath
	if displayPath == "" {
		displayPath = config.GetDefaultConfigPath()
	}

	var warnings []string
	acc := cfg.Accumulator
	if acc.CleanFixedRate > acc.DefaultSessionTimeout {
		warnings = append(warnings, fmt.Sprintf(
			"accumulator.clean_fixed_rate (%s) exceeds default_session_timeout (%s); idle sessions outlive their timeout",
			acc.CleanFixedRate, acc.DefaultSessionTimeout))
	}
	if !cfg.API.Enabled {
		warnings = append(warnings, "admin API disabled - status, session and sweep commands will not work")
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file: %s\n", displayPath)
	_, _ = fmt.Fprintln(out, "Validation: OK")

	if len(warnings) > 0 {
		_, _ = fmt.Fprintln(out, "\nWarnings:")
		for _, w := range warnings {
			_, _ = fmt.Fprintf(out, "  - %s\n", w)
		}
	}

	_, _ = fmt.Fprintf(out, "\nConfiguration summary:\n")
	_, _ = fmt.Fprintf(out, "  Session timeout:  %s\n", acc.DefaultSessionTimeout)
	_, _ = fmt.Fprintf(out, "  Content cap:      %s\n", acc.MaxContentLength.Format())
	_, _ = fmt.Fprintf(out, "  Sweep:            every %s, %d users\n", acc.CleanFixedRate, acc.CleanBatchSize)
	_, _ = fmt.Fprintf(out, "  Buffer pool:      %d x %s\n", acc.BufferPoolSize, acc.BufferInitialCapacity.Format())
	_, _ = fmt.Fprintf(out, "  API port:         %d\n", cfg.API.Port)
	_, _ = fmt.Fprintf(out, "  Log level:        %s\n", cfg.Logging.Level)
	return nil
}
