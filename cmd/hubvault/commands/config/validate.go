package config

import (
	"fmt"

	"github.com/hubvault/hubvault/pkg/config"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the HubVault configuration file.

Checks for syntax errors, missing required fields, and invalid values.

Examples:
  # Validate default config
  hubvault config validate

  # Validate specific config file
  hubvault config validate --config /etc/hubvault/config.yaml`,
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

	if cfg.API.GetJWTSecret() == "" {
		warnings = append(warnings, "JWT secret not configured - management API will stay disabled")
	}
	if cfg.Encryption.Mode == config.EncryptionModeStandard {
		warnings = append(warnings, "encryption mode is standard - content is stored unencrypted")
	}
	if !cfg.Deletion.SecureWipeEnabled() {
		warnings = append(warnings, "secure wipe disabled - deletions will only unlink blobs")
	}

	fmt.Printf("Configuration file: %s\n", displayPath)
	fmt.Println("Validation: OK")

	if len(warnings) > 0 {
		fmt.Println("\nWarnings:")
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w)
		}
	}

	fmt.Printf("\nConfiguration summary:\n")
	fmt.Printf("  Database type:   %s\n", cfg.Database.Type)
	fmt.Printf("  Encryption mode: %s\n", cfg.Encryption.Mode)
	fmt.Printf("  Token store:     %s\n", cfg.Tokens.Store)
	fmt.Printf("  API port:        %d\n", cfg.API.Port)
	fmt.Printf("  Log level:       %s\n", cfg.Logging.Level)

	return nil
}
