package project

import (
	"fmt"
	"os"

	"github.com/hubvault/hubvault/cmd/hubvaultctl/cmdutil"
	"github.com/hubvault/hubvault/internal/cli/output"
	"github.com/hubvault/hubvault/internal/cli/prompt"
	"github.com/spf13/cobra"
)

var (
	deleteReason string
	deleteForce  bool
)

var deleteCmd = &cobra.Command{
	Use:   "delete <project-id>",
	Short: "Delete a project and everything in it",
	Long: `Delete a project with all its files, versions and locks. Admin only.

Content blobs no other project references are securely wiped. This
cannot be undone; the command asks you to type the project name to
confirm.

Examples:
  # Delete a project
  hubvaultctl project delete 7c1e... --reason "contract ended"

  # Skip confirmation
  hubvaultctl project delete 7c1e... --reason "contract ended" --force`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().StringVar(&deleteReason, "reason", "", "Reason recorded in the audit trail (required)")
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "Skip confirmation")
	_ = deleteCmd.MarkFlagRequired("reason")
}

func runDelete(cmd *cobra.Command, args []string) error {
	projectID := args[0]

	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	project, err := client.GetProject(projectID)
	if err != nil {
		return fmt.Errorf("failed to get project: %w", err)
	}

	if !deleteForce {
		confirmed, err := prompt.ConfirmDanger(
			fmt.Sprintf("Delete project '%s' with all its files", project.Name), project.Name)
		if err != nil {
			return cmdutil.HandleAbort(err)
		}
		if !confirmed {
			fmt.Println("Aborted.")
			return nil
		}
	}

	report, err := client.DeleteProject(projectID, deleteReason)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	format, err := cmdutil.GetOutputFormatParsed()
	if err != nil {
		return err
	}
	if format != output.FormatTable {
		return cmdutil.PrintResource(os.Stdout, report, nil)
	}

	cmdutil.PrintSuccess(fmt.Sprintf("Project '%s' deleted", report.ProjectName))
	fmt.Printf("  Files:      %d\n", report.FilesDeleted)
	fmt.Printf("  Versions:   %d\n", report.VersionsDeleted)
	fmt.Printf("  Locks:      %d\n", report.LocksDeleted)
	fmt.Printf("  Blobs:      %d wiped, %d still referenced elsewhere\n", report.BlobsDeleted, report.BlobsSkipped)
	fmt.Printf("  Outcome:    %s\n", report.Outcome)
	return nil
}
