package project

import (
	"fmt"
	"os"
	"time"

	"github.com/hubvault/hubvault/cmd/hubvaultctl/cmdutil"
	"github.com/hubvault/hubvault/internal/cli/output"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <project-id>",
	Short: "Show project details",
	Long: `Display metadata for a project.

Examples:
  # Show a project
  hubvaultctl project get 7c1e...

  # Show as JSON
  hubvaultctl project get 7c1e... -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	project, err := client.GetProject(args[0])
	if err != nil {
		return fmt.Errorf("failed to get project: %w", err)
	}

	format, err := cmdutil.GetOutputFormatParsed()
	if err != nil {
		return err
	}
	if format != output.FormatTable {
		return cmdutil.PrintResource(os.Stdout, project, nil)
	}

	return output.SimpleTable(os.Stdout, [][2]string{
		{"ID", project.ID},
		{"Name", project.Name},
		{"Team", project.TeamID},
		{"Channel", project.ChannelID},
		{"Created by", cmdutil.EmptyOr(project.CreatedBy, "-")},
		{"Created at", project.CreatedAt.Local().Format(time.RFC3339)},
	})
}
