package deletion

import (
	"fmt"
	"os"

	"github.com/hubvault/hubvault/cmd/hubvaultctl/cmdutil"
	"github.com/hubvault/hubvault/internal/cli/output"
	"github.com/spf13/cobra"
)

var certificateFile string

var certificateCmd = &cobra.Command{
	Use:   "certificate <record-id>",
	Short: "Generate a deletion certificate",
	Long: `Generate the compliance certificate for a completed deletion. Admin only.

The certificate names the wipe method, the verification hash and who
requested the deletion; auditors get it as evidence the content is gone.

Examples:
  # Print the certificate
  hubvaultctl deletion certificate 4b8d...

  # Save it to a file
  hubvaultctl deletion certificate 4b8d... --file erasure-812.json`,
	Args: cobra.ExactArgs(1),
	RunE: runCertificate,
}

func init() {
	certificateCmd.Flags().StringVar(&certificateFile, "file", "", "Write the certificate JSON to a file")
}

func runCertificate(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	cert, err := client.Certificate(args[0])
	if err != nil {
		return fmt.Errorf("failed to generate certificate: %w", err)
	}

	if certificateFile != "" {
		f, err := os.OpenFile(certificateFile, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", certificateFile, err)
		}
		writeErr := output.PrintJSON(f, cert)
		if closeErr := f.Close(); writeErr == nil {
			writeErr = closeErr
		}
		if writeErr != nil {
			return fmt.Errorf("failed to write certificate: %w", writeErr)
		}
		cmdutil.PrintSuccess(fmt.Sprintf("Certificate written to %s", certificateFile))
		return nil
	}

	return output.PrintJSON(os.Stdout, cert)
}
