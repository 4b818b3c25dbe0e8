package file

import (
	"fmt"
	"os"

	"github.com/hubvault/hubvault/cmd/hubvaultctl/cmdutil"
	"github.com/hubvault/hubvault/internal/bytesize"
	"github.com/hubvault/hubvault/pkg/apiclient"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list <project-id>",
	Short: "List a project's files",
	Long: `List all files in a project.

Examples:
  # List files as table
  hubvaultctl file list 7c1e...

  # List as JSON
  hubvaultctl file list 7c1e... -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runList,
}

// FileList is a list of files for table rendering.
type FileList []apiclient.File

// Headers implements TableRenderer.
func (fl FileList) Headers() []string {
	return []string{"ID", "NAME", "SIZE", "VERSION", "UPDATED"}
}

// Rows implements TableRenderer.
func (fl FileList) Rows() [][]string {
	rows := make([][]string, 0, len(fl))
	for _, f := range fl {
		rows = append(rows, []string{
			f.ID,
			f.Name,
			bytesize.ByteSize(f.SizeBytes).String(),
			fmt.Sprintf("%d", f.CurrentVersion),
			f.UpdatedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	return rows
}

func runList(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	files, err := client.ListFiles(args[0])
	if err != nil {
		return fmt.Errorf("failed to list files: %w", err)
	}

	return cmdutil.PrintOutput(os.Stdout, files, len(files) == 0, "No files in project.", FileList(files))
}
