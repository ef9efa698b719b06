// Package cmd implements the insightsctl commands.
package cmd

import (
	"github.com/spf13/cobra"
)

// NewRootCommand builds the insightsctl command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "insightsctl",
		Short:         "Offline finance insights and alert evaluation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newEvaluateCommand())
	return root
}
