package deletion

import (
	"fmt"
	"os"
	"time"

	"github.com/hubvault/hubvault/cmd/hubvaultctl/cmdutil"
	"github.com/hubvault/hubvault/internal/cli/output"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <record-id>",
	Short: "Show a deletion record",
	Long: `Display one secure deletion record. Admin only.

Examples:
  # Show a record
  hubvaultctl deletion get 4b8d...

  # As JSON
  hubvaultctl deletion get 4b8d... -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	record, err := client.GetDeletion(args[0])
	if err != nil {
		return fmt.Errorf("failed to get deletion record: %w", err)
	}

	format, err := cmdutil.GetOutputFormatParsed()
	if err != nil {
		return err
	}
	if format != output.FormatTable {
		return cmdutil.PrintResource(os.Stdout, record, nil)
	}

	pairs := [][2]string{
		{"ID", record.ID},
		{"Status", record.Status},
		{"Requested by", record.RequestedBy},
		{"Requested at", record.RequestedAt.Local().Format(time.RFC3339)},
		{"Reason", record.Reason},
		{"Secure wipe", cmdutil.BoolToYesNo(record.SecureWipe)},
	}
	if record.ContentHash != nil {
		pairs = append(pairs, [2]string{"Content hash", *record.ContentHash})
	}
	if record.CompletedAt != nil {
		pairs = append(pairs, [2]string{"Completed at", record.CompletedAt.Local().Format(time.RFC3339)})
	}
	if record.VerificationHash != nil {
		pairs = append(pairs, [2]string{"Verification", *record.VerificationHash})
	}
	return output.SimpleTable(os.Stdout, pairs)
}
