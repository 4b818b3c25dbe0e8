// Package deletion implements secure deletion subcommands.
package deletion

import (
	"github.com/spf13/cobra"
)

// Cmd is the deletion subcommand.
var Cmd = &cobra.Command{
	Use:   "deletion",
	Short: "Manage secure deletions (admin)",
	Long: `Manage secure content deletions. All subcommands are admin only.

A wipe overwrites the blob DoD 5220.22-M style before unlinking it and
records the whole operation; finished records yield a deletion
certificate for compliance evidence.`,
}

func init() {
	Cmd.AddCommand(wipeCmd)
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(getCmd)
	Cmd.AddCommand(retryCmd)
	Cmd.AddCommand(certificateCmd)
}
