package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mpelletier/agentshift/internal/policy"
)

var policyDescriptions = map[string]string{
	"exhaustive":      "runs every budgeted iteration, reports the best attempt",
	"patience":        "stops after N iterations without improvement (patience, min_improvement)",
	"threshold_bonus": "once the threshold is met, runs bonus rounds looking for a better score (bonus_rounds)",
}

func newPoliciesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policies",
		Short: "List the registered convergence policies",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range policy.Names() {
				desc := policyDescriptions[name]
				if desc == "" {
					fmt.Fprintln(cmd.OutOrStdout(), name)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-16s %s\n", name, desc)
			}
			return nil
		},
	}

	return cmd
}
