// Package project implements project management subcommands.
package project

import (
	"github.com/spf13/cobra"
)

// Cmd is the project subcommand.
var Cmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
	Long: `Manage vault projects.

A project is the namespace files live in, bound to a workspace channel.
Project deletion is destructive and admin only: it removes every file,
version and lock, and securely wipes content nothing else references.`,
}

func init() {
	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(getCmd)
	Cmd.AddCommand(deleteCmd)
	Cmd.AddCommand(reportCmd)
}
