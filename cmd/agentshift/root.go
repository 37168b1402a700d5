package main

import (
	"github.com/spf13/cobra"
)

type rootFlags struct {
	verbose bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "agentshift",
		Short:         "agentshift migrates an agent to a cheaper model through iterative instruction refinement",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(newMigrateCmd(flags))
	cmd.AddCommand(newProfileCmd(flags))
	cmd.AddCommand(newScoreCmd(flags))
	cmd.AddCommand(newPoliciesCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}
