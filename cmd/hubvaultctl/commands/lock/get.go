package lock

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hubvault/hubvault/cmd/hubvaultctl/cmdutil"
	"github.com/hubvault/hubvault/internal/cli/output"
	"github.com/hubvault/hubvault/pkg/apiclient"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <file-id>",
	Short: "Show the active lock on a file",
	Long: `Display the checkout lock on a file, if any.

Examples:
  # Inspect a lock
  hubvaultctl lock get 9a2f...

  # As JSON
  hubvaultctl lock get 9a2f... -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	lock, err := client.GetLock(args[0])
	if err != nil {
		var apiErr *apiclient.APIError
		if errors.As(err, &apiErr) && apiErr.IsNotFound() {
			fmt.Println("File is not checked out.")
			return nil
		}
		return fmt.Errorf("failed to get lock: %w", err)
	}

	format, err := cmdutil.GetOutputFormatParsed()
	if err != nil {
		return err
	}
	if format != output.FormatTable {
		return cmdutil.PrintResource(os.Stdout, lock, nil)
	}

	pairs := [][2]string{
		{"File", lock.FileID},
		{"Locked by", lock.LockedBy},
		{"Locked at", lock.LockedAt.Local().Format(time.RFC3339)},
	}
	if lock.ExpiresAt != nil {
		pairs = append(pairs, [2]string{"Expires at", lock.ExpiresAt.Local().Format(time.RFC3339)})
	}
	if lock.Reason != nil && *lock.Reason != "" {
		pairs = append(pairs, [2]string{"Reason", *lock.Reason})
	}
	return output.SimpleTable(os.Stdout, pairs)
}
