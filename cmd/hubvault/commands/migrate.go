package commands

import (
	"context"
	"fmt"

	"github.com/hubvault/hubvault/internal/logger"
	"github.com/hubvault/hubvault/pkg/config"
	"github.com/hubvault/hubvault/pkg/store"
	"github.com/hubvault/hubvault/pkg/store/postgres"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long: `Run database migrations for the metadata database.

This command applies pending schema migrations to the configured metadata
database (SQLite or PostgreSQL). It is required after upgrading HubVault
when schema changes have been made.

Examples:
  # Run migrations with default config
  hubvault migrate

  # Run migrations with custom config
  hubvault migrate --config /etc/hubvault/config.yaml`,
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	// Initialize the structured logger
	if err := InitLogger(cfg); err != nil {
		return err
	}

	logger.Info("Running database migrations", "type", string(cfg.Database.Type))

	ctx := context.Background()

	// PostgreSQL runs the versioned migrations; SQLite gets its schema
	// from GORM auto-migration.
	if cfg.Database.Type == store.DatabaseTypePostgres {
		if err := postgres.RunMigrations(ctx, &cfg.Database); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	} else {
		enabled := true
		cfg.Database.AutoMigrate = &enabled
	}

	metaStore, err := store.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	defer func() { _ = metaStore.Close() }()

	// Verify the migration worked by pinging the database
	if err := metaStore.HealthCheck(ctx); err != nil {
		return fmt.Errorf("migration verification failed: %w", err)
	}

	fmt.Printf("Migrations completed successfully (database type: %s)\n", cfg.Database.Type)
	return nil
}
