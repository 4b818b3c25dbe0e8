package commands

import (
	"fmt"
	"os"

	"github.com/hubvault/hubvault/pkg/api"
	"github.com/hubvault/hubvault/pkg/config"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample HubVault configuration file.

By default, the configuration file is created at $XDG_CONFIG_HOME/hubvault/config.yaml.
Use --config to specify a custom path.

Examples:
  # Initialize with default location
  hubvault init

  # Initialize with custom path
  hubvault init --config /etc/hubvault/config.yaml

  # Force overwrite existing config
  hubvault init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := GetConfigFile()
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	if _, err := os.Stat(configPath); err == nil && !initForce {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	cfg := config.GetDefaultConfig()
	if err := config.SaveConfig(cfg, configPath); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file to customize your setup")
	fmt.Println("  2. Start the server with: hubvault start")
	fmt.Printf("  3. Or specify custom config: hubvault start --config %s\n", configPath)
	fmt.Println("\nSecurity note:")
	fmt.Println("  The management API stays disabled until a JWT secret is configured.")
	fmt.Println("  Generate a secure secret and pass it via environment variable:")
	fmt.Println("    # Generates a 64-character hex string (32 bytes of entropy)")
	fmt.Printf("    export %s=$(openssl rand -hex 32)\n", api.EnvJWTSecret)

	return nil
}
