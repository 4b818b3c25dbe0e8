package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hubvault/hubvault/cmd/hubvaultctl/cmdutil"
	"github.com/hubvault/hubvault/pkg/apiclient"
	"github.com/spf13/cobra"
)

var (
	uploadName     string
	uploadPath     string
	uploadMimeType string
	uploadMessage  string
)

var uploadCmd = &cobra.Command{
	Use:   "upload <project-id> <local-file>",
	Short: "Upload a new file",
	Long: `Upload a local file as a new vault file in a project.

The content streams to the server; files larger than memory are fine.

Examples:
  # Upload a file
  hubvaultctl file upload 7c1e... ./report.pdf

  # Upload under a different name with a message
  hubvaultctl file upload 7c1e... ./v2-draft.pdf --name report.pdf -m "initial draft"`,
	Args: cobra.ExactArgs(2),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVar(&uploadName, "name", "", "Stored name (default: local filename)")
	uploadCmd.Flags().StringVar(&uploadPath, "path", "", "Logical path within the project")
	uploadCmd.Flags().StringVar(&uploadMimeType, "mime-type", "", "Content type (default: detected by the server)")
	uploadCmd.Flags().StringVarP(&uploadMessage, "message", "m", "", "Version message")
}

func runUpload(cmd *cobra.Command, args []string) error {
	projectID, localPath := args[0], args[1]

	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer func() { _ = f.Close() }()

	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	file, err := client.UploadFile(projectID, filepath.Base(localPath), f, apiclient.UploadOptions{
		Name:     uploadName,
		Path:     uploadPath,
		MimeType: uploadMimeType,
		Message:  uploadMessage,
	})
	if err != nil {
		return fmt.Errorf("failed to upload file: %w", err)
	}

	return cmdutil.PrintResourceWithSuccess(os.Stdout, file,
		fmt.Sprintf("File '%s' uploaded (id: %s, version %d)", file.Name, file.ID, file.CurrentVersion))
}
