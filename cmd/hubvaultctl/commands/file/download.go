package file

import (
	"fmt"
	"io"
	"os"

	"github.com/hubvault/hubvault/cmd/hubvaultctl/cmdutil"
	"github.com/hubvault/hubvault/internal/bytesize"
	"github.com/spf13/cobra"
)

var (
	downloadVersion int32
	downloadOutput  string
)

var downloadCmd = &cobra.Command{
	Use:   "download <file-id>",
	Short: "Download a file",
	Long: `Download a file's content to the local filesystem.

Issues a single-use download link and redeems it immediately. Use
--version for a historical version and --output for a custom target
path; "-" streams to stdout.

Examples:
  # Download the current version to the stored name
  hubvaultctl file download 9a2f...

  # Download version 3 to a custom path
  hubvaultctl file download 9a2f... --version 3 --output ./old-report.pdf

  # Stream to stdout
  hubvaultctl file download 9a2f... --output - | sha256sum`,
	Args: cobra.ExactArgs(1),
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().Int32Var(&downloadVersion, "version", 0, "Version number (default: current)")
	downloadCmd.Flags().StringVarP(&downloadOutput, "output", "O", "", "Target path (default: stored name, - for stdout)")
}

func runDownload(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	issued, err := client.CreateDownloadToken(args[0], downloadVersion)
	if err != nil {
		return fmt.Errorf("failed to issue download link: %w", err)
	}

	stream, err := client.Download(issued.Token.Token)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	defer func() { _ = stream.Body.Close() }()

	if downloadOutput == "-" {
		_, err = io.Copy(os.Stdout, stream.Body)
		return err
	}

	target := downloadOutput
	if target == "" {
		target = stream.FileName
	}
	if target == "" {
		target = args[0]
	}

	out, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", target, err)
	}

	written, err := io.Copy(out, stream.Body)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	cmdutil.PrintSuccess(fmt.Sprintf("Downloaded %s (%s)", target, bytesize.ByteSize(written).String()))
	return nil
}
