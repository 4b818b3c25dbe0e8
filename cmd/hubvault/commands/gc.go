package commands

import (
	"context"
	"fmt"

	"github.com/hubvault/hubvault/internal/logger"
	"github.com/hubvault/hubvault/pkg/config"
	"github.com/hubvault/hubvault/pkg/content"
	"github.com/hubvault/hubvault/pkg/store"
	"github.com/spf13/cobra"
)

var gcDryRun bool

var gcCmd = &cobra.Command{
	Use:   "gc",
	Short: "Remove orphaned content blobs",
	Long: `Scan the content store for blobs no file version references and
remove them.

Orphans appear when a crash lands between a blob write and the metadata
transaction that would have referenced it. The sweep only deletes blobs
with zero references across the whole vault; shared content always
survives.

Run this against a stopped server, or accept that a blob written by an
in-flight upload may be swept before its metadata commits.

Examples:
  # Show what would be removed
  hubvault gc --dry-run

  # Remove orphaned blobs
  hubvault gc`,
	RunE: runGC,
}

func init() {
	gcCmd.Flags().BoolVar(&gcDryRun, "dry-run", false, "List orphaned blobs without deleting them")
}

func runGC(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx := context.Background()

	metaStore, err := store.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open metadata store: %w", err)
	}
	defer func() { _ = metaStore.Close() }()

	blobs, err := content.New(content.DefaultConfig(cfg.Storage.Path))
	if err != nil {
		return fmt.Errorf("failed to open content store: %w", err)
	}

	hashes, err := blobs.ListHashes(ctx)
	if err != nil {
		return fmt.Errorf("failed to list content blobs: %w", err)
	}

	var scanned, orphaned, removed int
	for _, hash := range hashes {
		scanned++

		refs, err := metaStore.CountVersionsByHash(ctx, hash)
		if err != nil {
			return fmt.Errorf("failed to count references for %s: %w", hash, err)
		}
		if refs > 0 {
			continue
		}
		orphaned++

		if gcDryRun {
			fmt.Printf("orphan: %s\n", hash)
			continue
		}

		if err := blobs.Delete(ctx, hash); err != nil {
			logger.Warn("failed to remove orphaned blob", "hash", hash, "error", err)
			continue
		}
		removed++
		logger.Info("removed orphaned blob", "hash", hash)
	}

	if gcDryRun {
		fmt.Printf("Scanned %d blobs, %d orphaned (dry run, nothing removed)\n", scanned, orphaned)
	} else {
		fmt.Printf("Scanned %d blobs, removed %d of %d orphaned\n", scanned, removed, orphaned)
	}
	return nil
}
