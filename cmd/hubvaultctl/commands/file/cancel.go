package file

import (
	"fmt"

	"github.com/hubvault/hubvault/cmd/hubvaultctl/cmdutil"
	"github.com/spf13/cobra"
)

var cancelCmd = &cobra.Command{
	Use:   "cancel <file-id>",
	Short: "Release your lock without a new version",
	Long: `Cancel a checkout, releasing your lock without creating a version.

Examples:
  # Abandon an edit
  hubvaultctl file cancel 9a2f...`,
	Args: cobra.ExactArgs(1),
	RunE: runCancel,
}

func runCancel(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	if err := client.CancelCheckout(args[0]); err != nil {
		return fmt.Errorf("failed to cancel checkout: %w", err)
	}

	cmdutil.PrintSuccess("Checkout cancelled")
	return nil
}
