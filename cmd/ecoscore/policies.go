package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/ecoscore/internal/config"
	"github.com/dshills/ecoscore/internal/policy"
	"github.com/dshills/ecoscore/internal/render"
)

func newPoliciesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "policies",
		Short: "List built-in scoring policies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listPolicies(cmd.OutOrStdout())
		},
	}
}

func listPolicies(w io.Writer) error {
	names, err := policy.List()
	if err != nil {
		return err
	}
	for _, name := range names {
		p, err := policy.LoadBuiltin(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%-12s %-18s %s\n", p.Name, p.Polarity, strings.Join(strings.Fields(p.Description), " "))
	}
	return nil
}

func newChallengesCmd(rf *rootFlags) *cobra.Command {
	var policyName string
	cmd := &cobra.Command{
		Use:   "challenges",
		Short: "List the challenges a policy offers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags(), rf.configFile)
			if err != nil {
				return exitError(3, "%v", err)
			}
			return listChallenges(cmd.OutOrStdout(), cfg.Policy)
		},
	}
	cmd.Flags().StringVar(&policyName, "policy", "ecogame", "Built-in policy name or path to a policy YAML file")
	return cmd
}

func listChallenges(w io.Writer, name string) error {
	p, err := policy.Load(name)
	if err != nil {
		return exitError(3, "failed to load policy: %v", err)
	}
	fmt.Fprint(w, render.Challenges(p))
	return nil
}
