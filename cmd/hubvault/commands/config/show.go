package config

import (
	"os"

	"github.com/hubvault/hubvault/internal/cli/output"
	"github.com/hubvault/hubvault/pkg/config"
	"github.com/spf13/cobra"
)

var showOutput string

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	Long: `Display the current HubVault configuration.

By default outputs YAML format. Use --output to change format.

Examples:
  # Show default config as YAML
  hubvault config show

  # Show as JSON
  hubvault config show --output json

  # Show specific config file
  hubvault config show --config /etc/hubvault/config.yaml`,
	RunE: runConfigShow,
}

func init() {
	showCmd.Flags().StringVarP(&showOutput, "output", "o", "yaml", "Output format (yaml|json)")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	// Get config path from parent's persistent flag
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	// The master key and JWT secret must not leak through a casual
	// config dump.
	cfg.Encryption.MasterKey = redactIfSet(cfg.Encryption.MasterKey)
	cfg.API.JWT.Secret = redactIfSet(cfg.API.JWT.Secret)

	format, err := output.ParseFormat(showOutput)
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, cfg)
	default:
		return output.PrintYAML(os.Stdout, cfg)
	}
}

func redactIfSet(s string) string {
	if s == "" {
		return ""
	}
	return "[redacted]"
}
