package deletion

import (
	"fmt"
	"os"

	"github.com/hubvault/hubvault/cmd/hubvaultctl/cmdutil"
	"github.com/hubvault/hubvault/internal/cli/prompt"
	"github.com/hubvault/hubvault/pkg/apiclient"
	"github.com/spf13/cobra"
)

var (
	wipeReason string
	wipeForce  bool
)

var wipeCmd = &cobra.Command{
	Use:   "wipe <content-hash>",
	Short: "Securely destroy content",
	Long: `Securely destroy a content blob by hash. Admin only.

The blob must be unreferenced: delete the files holding it first. The
wipe overwrites the content before unlinking and cannot be undone.

Examples:
  # Wipe an orphaned blob
  hubvaultctl deletion wipe e3b0c442... --reason "GDPR erasure request #812"`,
	Args: cobra.ExactArgs(1),
	RunE: runWipe,
}

func init() {
	wipeCmd.Flags().StringVar(&wipeReason, "reason", "", "Reason recorded with the deletion (required)")
	wipeCmd.Flags().BoolVarP(&wipeForce, "force", "f", false, "Skip confirmation")
	_ = wipeCmd.MarkFlagRequired("reason")
}

func runWipe(cmd *cobra.Command, args []string) error {
	contentHash := args[0]

	confirmed, err := prompt.ConfirmWithForce(
		fmt.Sprintf("Securely wipe content %s? This cannot be undone", contentHash), wipeForce)
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

	record, err := client.Wipe(apiclient.WipeRequest{
		ContentHash: contentHash,
		Reason:      wipeReason,
	})
	if err != nil {
		return fmt.Errorf("failed to wipe content: %w", err)
	}

	return cmdutil.PrintResourceWithSuccess(os.Stdout, record,
		fmt.Sprintf("Deletion %s: %s", record.ID, record.Status))
}
