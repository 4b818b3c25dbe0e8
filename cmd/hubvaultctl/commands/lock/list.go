package lock

import (
	"fmt"
	"os"

	"github.com/hubvault/hubvault/cmd/hubvaultctl/cmdutil"
	"github.com/hubvault/hubvault/pkg/apiclient"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list <project-id>",
	Short: "List a project's live locks",
	Long: `List the files currently checked out in a project.

Examples:
  # List locks as table
  hubvaultctl lock list 7c1e...

  # List as JSON
  hubvaultctl lock list 7c1e... -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runList,
}

// LockList is a list of locks for table rendering.
type LockList []apiclient.FileLock

// Headers implements TableRenderer.
func (ll LockList) Headers() []string {
	return []string{"FILE ID", "LOCKED BY", "LOCKED AT", "EXPIRES", "REASON"}
}

// Rows implements TableRenderer.
func (ll LockList) Rows() [][]string {
	rows := make([][]string, 0, len(ll))
	for _, l := range ll {
		expires := "never"
		if l.ExpiresAt != nil {
			expires = l.ExpiresAt.Local().Format("2006-01-02 15:04")
		}
		reason := ""
		if l.Reason != nil {
			reason = *l.Reason
		}
		rows = append(rows, []string{
			l.FileID,
			l.LockedBy,
			l.LockedAt.Local().Format("2006-01-02 15:04"),
			expires,
			cmdutil.EmptyOr(reason, "-"),
		})
	}
	return rows
}

func runList(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	locks, err := client.ListLocks(args[0])
	if err != nil {
		return fmt.Errorf("failed to list locks: %w", err)
	}

	return cmdutil.PrintOutput(os.Stdout, locks, len(locks) == 0, "No files are checked out.", LockList(locks))
}
