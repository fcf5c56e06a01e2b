package config

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/streambuf/internal/cli/output"
	"github.com/marmos91/streambuf/pkg/config"
)

var showOutput string

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display effective configuration",
	Long: `Display the effective streambuf configuration: the file merged with
environment overrides and defaults.

By default outputs YAML format. Use --output to change format.

Examples:
  # Show effective config as YAML
  streambuf config show

  # Show as JSON
  streambuf config show --output json

  # Show specific config file
  streambuf config show --config /etc/streambuf/config.yaml`,
	RunE: runConfigShow,
}

func init() {
	showCmd.Flags().StringVarP(&showOutput, "output", "o", "yaml", "Output format (yaml|json)")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	// Get config path from parent's persistent flag
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(showOutput)
	if err != nil {
		return err
	}
	if format == output.FormatTable {
		format = output.FormatYAML
	}
	return output.Print(cmd.OutOrStdout(), format, cfg)
}
