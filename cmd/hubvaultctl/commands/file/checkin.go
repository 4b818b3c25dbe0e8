package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hubvault/hubvault/cmd/hubvaultctl/cmdutil"
	"github.com/spf13/cobra"
)

var checkinMessage string

var checkinCmd = &cobra.Command{
	Use:   "checkin <file-id> <local-file>",
	Short: "Check in a new version",
	Long: `Store local content as the file's next version and release your lock.

You must hold the checkout lock on the file. The previous versions stay
untouched; history never rewrites.

Examples:
  # Check in edited content
  hubvaultctl file checkin 9a2f... ./report.pdf -m "fixed totals"`,
	Args: cobra.ExactArgs(2),
	RunE: runCheckin,
}

func init() {
	checkinCmd.Flags().StringVarP(&checkinMessage, "message", "m", "", "Version message")
}

func runCheckin(cmd *cobra.Command, args []string) error {
	fileID, localPath := args[0], args[1]

	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer func() { _ = f.Close() }()

	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	result, err := client.Checkin(fileID, filepath.Base(localPath), f, checkinMessage)
	if err != nil {
		return fmt.Errorf("failed to check in file: %w", err)
	}

	return cmdutil.PrintResourceWithSuccess(os.Stdout, result,
		fmt.Sprintf("Checked in '%s' as version %d", result.File.Name, result.Version.VersionNumber))
}
