package deletion

import (
	"fmt"
	"os"

	"github.com/hubvault/hubvault/cmd/hubvaultctl/cmdutil"
	"github.com/spf13/cobra"
)

var retryCmd = &cobra.Command{
	Use:   "retry <record-id>",
	Short: "Retry a failed wipe",
	Long: `Rerun a failed secure deletion. Admin only.

Only records in failed status can be retried.

Examples:
  # Retry a failed wipe
  hubvaultctl deletion retry 4b8d...`,
	Args: cobra.ExactArgs(1),
	RunE: runRetry,
}

func runRetry(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	record, err := client.RetryDeletion(args[0])
	if err != nil {
		return fmt.Errorf("failed to retry deletion: %w", err)
	}

	return cmdutil.PrintResourceWithSuccess(os.Stdout, record,
		fmt.Sprintf("Deletion %s: %s", record.ID, record.Status))
}
