// Package cli implements the portauth-admin command tree.
package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand builds the admin CLI.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "portauth-admin",
		Short: "Administrative tooling for the port authentication service",
		Long: `portauth-admin manages the service's database schema, seed data,
and cached gateway tickets. Configuration is read the same way the server
reads it: config.yaml plus PORTAUTH_-prefixed environment variables.`,
		SilenceUsage: true,
	}

	root.AddCommand(newMigrateCommand())
	root.AddCommand(newSeedCommand())
	root.AddCommand(newSweepCommand())
	return root
}
