package file

import (
	"fmt"
	"os"
	"time"

	"github.com/hubvault/hubvault/cmd/hubvaultctl/cmdutil"
	"github.com/hubvault/hubvault/internal/cli/output"
	"github.com/spf13/cobra"
)

var linkVersion int32

var linkCmd = &cobra.Command{
	Use:   "link <file-id>",
	Short: "Issue a single-use download link",
	Long: `Issue an expiring single-use download link for a file.

The link is the credential: anyone holding it can download once before
it expires. Treat it like the content itself.

Examples:
  # Link to the current version
  hubvaultctl file link 9a2f...

  # Link to a historical version
  hubvaultctl file link 9a2f... --version 3`,
	Args: cobra.ExactArgs(1),
	RunE: runLink,
}

func init() {
	linkCmd.Flags().Int32Var(&linkVersion, "version", 0, "Version number (default: current)")
}

func runLink(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	issued, err := client.CreateDownloadToken(args[0], linkVersion)
	if err != nil {
		return fmt.Errorf("failed to issue download link: %w", err)
	}

	format, err := cmdutil.GetOutputFormatParsed()
	if err != nil {
		return err
	}
	if format != output.FormatTable {
		return cmdutil.PrintResource(os.Stdout, issued, nil)
	}

	fmt.Println(issued.URL)
	fmt.Printf("Expires: %s\n", issued.Token.ExpiresAt.Local().Format(time.RFC3339))
	return nil
}
