// Package file implements file management subcommands.
package file

import (
	"github.com/spf13/cobra"
)

// Cmd is the file subcommand.
var Cmd = &cobra.Command{
	Use:   "file",
	Short: "Manage files and checkouts",
	Long: `Manage vault files.

Files live in projects and version through checkout/checkin: check a
file out to claim the exclusive editing lock, check new content in to
create the next immutable version and release the lock. Downloads go
through expiring single-use links.`,
}

func init() {
	Cmd.AddCommand(uploadCmd)
	Cmd.AddCommand(getCmd)
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(versionsCmd)
	Cmd.AddCommand(deleteCmd)
	Cmd.AddCommand(checkoutCmd)
	Cmd.AddCommand(checkinCmd)
	Cmd.AddCommand(cancelCmd)
	Cmd.AddCommand(extendCmd)
	Cmd.AddCommand(linkCmd)
	Cmd.AddCommand(downloadCmd)
}
