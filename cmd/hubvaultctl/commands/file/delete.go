package file

import (
	"fmt"

	"github.com/hubvault/hubvault/cmd/hubvaultctl/cmdutil"
	"github.com/spf13/cobra"
)

var deleteForce bool

var deleteCmd = &cobra.Command{
	Use:   "delete <file-id>",
	Short: "Delete a file",
	Long: `Delete a file with its whole version history.

Content blobs no other file references are removed; a checked-out file
cannot be deleted until its lock releases.

Examples:
  # Delete a file
  hubvaultctl file delete 9a2f...

  # Delete without confirmation
  hubvaultctl file delete 9a2f... --force`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "Skip confirmation")
}

func runDelete(cmd *cobra.Command, args []string) error {
	fileID := args[0]

	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	file, err := client.GetFile(fileID)
	if err != nil {
		return fmt.Errorf("failed to get file: %w", err)
	}

	return cmdutil.RunDeleteWithConfirmation("File", file.Name, deleteForce, func() error {
		return client.DeleteFile(fileID)
	})
}
