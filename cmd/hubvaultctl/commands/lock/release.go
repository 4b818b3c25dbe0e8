package lock

import (
	"fmt"

	"github.com/hubvault/hubvault/cmd/hubvaultctl/cmdutil"
	"github.com/hubvault/hubvault/internal/cli/prompt"
	"github.com/spf13/cobra"
)

var releaseForce bool

var releaseCmd = &cobra.Command{
	Use:   "release <file-id>",
	Short: "Force release a lock (admin)",
	Long: `Break a checkout lock regardless of owner. Admin only.

The owner's in-flight edit is lost when someone else checks out after a
force release. The action lands in the audit trail.

Examples:
  # Force release a lock
  hubvaultctl lock release 9a2f...

  # Skip confirmation
  hubvaultctl lock release 9a2f... --force`,
	Args: cobra.ExactArgs(1),
	RunE: runRelease,
}

func init() {
	releaseCmd.Flags().BoolVarP(&releaseForce, "force", "f", false, "Skip confirmation")
}

func runRelease(cmd *cobra.Command, args []string) error {
	fileID := args[0]

	confirmed, err := prompt.ConfirmWithForce(
		fmt.Sprintf("Force release the lock on file '%s'? The holder's edit may be lost", fileID), releaseForce)
	if err != nil {
		return cmdutil.HandleAbort(err)
	}
	if !confirmed {
		fmt.Println("Aborted.")
		return nil
	}

	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	if err := client.ForceReleaseLock(fileID); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}

	cmdutil.PrintSuccess("Lock released")
	return nil
}
