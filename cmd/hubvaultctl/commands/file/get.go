package file

import (
	"fmt"
	"os"
	"time"

	"github.com/hubvault/hubvault/cmd/hubvaultctl/cmdutil"
	"github.com/hubvault/hubvault/internal/bytesize"
	"github.com/hubvault/hubvault/internal/cli/output"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <file-id>",
	Short: "Show file details",
	Long: `Display metadata for a file.

Examples:
  # Show a file
  hubvaultctl file get 9a2f...

  # Show as JSON
  hubvaultctl file get 9a2f... -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	file, err := client.GetFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to get file: %w", err)
	}

	format, err := cmdutil.GetOutputFormatParsed()
	if err != nil {
		return err
	}
	if format != output.FormatTable {
		return cmdutil.PrintResource(os.Stdout, file, nil)
	}

	return output.SimpleTable(os.Stdout, [][2]string{
		{"ID", file.ID},
		{"Name", file.Name},
		{"Project", file.ProjectID},
		{"Path", cmdutil.EmptyOr(file.Path, "-")},
		{"Size", bytesize.ByteSize(file.SizeBytes).String()},
		{"MIME type", cmdutil.EmptyOr(file.MimeType, "-")},
		{"Version", fmt.Sprintf("%d", file.CurrentVersion)},
		{"Content hash", file.ContentHash},
		{"Updated at", file.UpdatedAt.Local().Format(time.RFC3339)},
	})
}
