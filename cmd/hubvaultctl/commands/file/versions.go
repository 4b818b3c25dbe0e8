package file

import (
	"fmt"
	"os"

	"github.com/hubvault/hubvault/cmd/hubvaultctl/cmdutil"
	"github.com/hubvault/hubvault/internal/bytesize"
	"github.com/hubvault/hubvault/pkg/apiclient"
	"github.com/spf13/cobra"
)

var versionsCmd = &cobra.Command{
	Use:   "versions <file-id>",
	Short: "Show a file's version history",
	Long: `List a file's versions, newest first.

Every check-in creates an immutable version; the history never rewrites.

Examples:
  # Show version history
  hubvaultctl file versions 9a2f...

  # Show as JSON
  hubvaultctl file versions 9a2f... -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runVersions,
}

// VersionList is a version history for table rendering.
type VersionList []apiclient.FileVersion

// Headers implements TableRenderer.
func (vl VersionList) Headers() []string {
	return []string{"VERSION", "SIZE", "UPLOADED BY", "DATE", "MESSAGE"}
}

// Rows implements TableRenderer.
func (vl VersionList) Rows() [][]string {
	rows := make([][]string, 0, len(vl))
	for _, v := range vl {
		message := "-"
		if v.Message != nil && *v.Message != "" {
			message = cmdutil.Truncate(*v.Message, 40)
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", v.VersionNumber),
			bytesize.ByteSize(v.SizeBytes).String(),
			v.UploadedBy,
			v.CreatedAt.Local().Format("2006-01-02 15:04"),
			message,
		})
	}
	return rows
}

func runVersions(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	versions, err := client.ListVersions(args[0])
	if err != nil {
		return fmt.Errorf("failed to list versions: %w", err)
	}

	return cmdutil.PrintOutput(os.Stdout, versions, len(versions) == 0, "No versions found.", VersionList(versions))
}
