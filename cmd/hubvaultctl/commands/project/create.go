package project

import (
	"fmt"
	"os"

	"github.com/hubvault/hubvault/cmd/hubvaultctl/cmdutil"
	"github.com/hubvault/hubvault/pkg/apiclient"
	"github.com/spf13/cobra"
)

var (
	createTeamID    string
	createChannelID string
)

var createCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a project",
	Long: `Create a new project.

The team and channel IDs bind the project to a workspace channel. A
channel can hold at most one project.

Examples:
  # Create a project
  hubvaultctl project create designs --team T123 --channel C456`,
	Args: cobra.ExactArgs(1),
	RunE: runCreate,
}

func init() {
	createCmd.Flags().StringVar(&createTeamID, "team", "", "Workspace team ID (required)")
	createCmd.Flags().StringVar(&createChannelID, "channel", "", "Workspace channel ID (required)")
	_ = createCmd.MarkFlagRequired("team")
	_ = createCmd.MarkFlagRequired("channel")
}

func runCreate(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	project, err := client.CreateProject(apiclient.CreateProjectRequest{
		Name:      args[0],
		TeamID:    createTeamID,
		ChannelID: createChannelID,
	})
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	return cmdutil.PrintResourceWithSuccess(os.Stdout, project,
		fmt.Sprintf("Project '%s' created (id: %s)", project.Name, project.ID))
}
