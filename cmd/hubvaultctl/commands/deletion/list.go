package deletion

import (
	"fmt"
	"os"

	"github.com/hubvault/hubvault/cmd/hubvaultctl/cmdutil"
	"github.com/hubvault/hubvault/pkg/apiclient"
	"github.com/spf13/cobra"
)

var listStatus string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List deletion records",
	Long: `List secure deletion records, newest first. Admin only.

Examples:
  # All records
  hubvaultctl deletion list

  # Only failures
  hubvaultctl deletion list --status failed`,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listStatus, "status", "", "Filter by status (pending|in_progress|completed|failed)")
}

// RecordList is a list of deletion records for table rendering.
type RecordList []apiclient.DeletionRecord

// Headers implements TableRenderer.
func (rl RecordList) Headers() []string {
	return []string{"ID", "STATUS", "REQUESTED BY", "REQUESTED AT", "REASON"}
}

// Rows implements TableRenderer.
func (rl RecordList) Rows() [][]string {
	rows := make([][]string, 0, len(rl))
	for _, r := range rl {
		rows = append(rows, []string{
			r.ID,
			r.Status,
			r.RequestedBy,
			r.RequestedAt.Local().Format("2006-01-02 15:04"),
			cmdutil.Truncate(r.Reason, 40),
		})
	}
	return rows
}

func runList(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	records, err := client.ListDeletions(listStatus)
	if err != nil {
		return fmt.Errorf("failed to list deletions: %w", err)
	}

	return cmdutil.PrintOutput(os.Stdout, records, len(records) == 0, "No deletion records.", RecordList(records))
}
