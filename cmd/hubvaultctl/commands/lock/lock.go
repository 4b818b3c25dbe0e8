// Package lock implements lock inspection subcommands.
package lock

import (
	"github.com/spf13/cobra"
)

// Cmd is the lock subcommand.
var Cmd = &cobra.Command{
	Use:   "lock",
	Short: "Inspect and manage file locks",
	Long: `Inspect and manage checkout locks.

Locks release on check-in, cancel, or expiry. Force release is the
admin escape hatch for a colleague on vacation holding a lock.`,
}

func init() {
	Cmd.AddCommand(getCmd)
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(releaseCmd)
}
