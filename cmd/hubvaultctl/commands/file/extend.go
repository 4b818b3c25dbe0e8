package file

import (
	"fmt"
	"time"

	"github.com/hubvault/hubvault/cmd/hubvaultctl/cmdutil"
	"github.com/spf13/cobra"
)

var extendHours int

var extendCmd = &cobra.Command{
	Use:   "extend <file-id>",
	Short: "Push your lock expiry out",
	Long: `Extend your checkout lock by a number of hours.

Examples:
  # Keep the lock another day
  hubvaultctl file extend 9a2f... --hours 24`,
	Args: cobra.ExactArgs(1),
	RunE: runExtend,
}

func init() {
	extendCmd.Flags().IntVar(&extendHours, "hours", 24, "Hours to extend the lock by")
}

func runExtend(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	lock, err := client.ExtendCheckout(args[0], extendHours)
	if err != nil {
		return fmt.Errorf("failed to extend checkout: %w", err)
	}

	msg := "Lock extended"
	if lock.ExpiresAt != nil {
		msg = fmt.Sprintf("Lock extended until %s", lock.ExpiresAt.Local().Format(time.RFC3339))
	}
	cmdutil.PrintSuccess(msg)
	return nil
}
