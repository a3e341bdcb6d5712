package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"civitas/internal/governance/models"
	"civitas/internal/governance/rules"
)

// newRulesCommand validates a rule table and prints it, or the laws one rank
// may propose under one governance kind.
func newRulesCommand(opts *rootOptions) *cobra.Command {
	var (
		governance string
		rank       int
	)
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Validate the rule table and list proposable laws",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := rules.FromPath(opts.cfg.Governance.RulesPath)
			if err != nil {
				return fmt.Errorf("load rules: %w", err)
			}
			out := cmd.OutOrStdout()
			if governance == "" {
				return printRuleTable(out, reg)
			}
			gov, err := models.ParseGovernanceKind(governance)
			if err != nil {
				return err
			}
			if rank < 0 {
				return fmt.Errorf("rank must be non-negative")
			}
			return printProposable(out, reg, gov, models.RankTier(rank))
		},
	}
	cmd.Flags().StringVar(&governance, "governance", "", "list laws proposable under this governance kind")
	cmd.Flags().IntVar(&rank, "rank", 0, "rank tier used with --governance")
	return cmd
}

func printRuleTable(w io.Writer, reg *rules.Registry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "GOVERNANCE\tLAW\tPROPOSE\tVOTE\tWINDOW\tFAST-TRACK\tCONDITION\tREQUIRED")
	for _, gov := range reg.GovernanceKinds() {
		for _, law := range reg.Laws() {
			rule, ok := reg.Get(law, gov)
			if !ok {
				continue
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%t\t%s\t%s\n",
				gov, law, rule.ProposeRanks, rule.VoteRanks, rule.VotingWindow,
				rule.CanFastTrack, rule.PassingCondition, strings.Join(rule.RequiredMetadata, ","))
		}
	}
	fmt.Fprintf(tw, "\n%d rule(s) valid\n", reg.Len())
	return tw.Flush()
}

func printProposable(w io.Writer, reg *rules.Registry, gov models.GovernanceKind, rank models.RankTier) error {
	laws := reg.ListProposable(gov, rank)
	if len(laws) == 0 {
		_, err := fmt.Fprintf(w, "rank %d may propose nothing under %s\n", rank, gov)
		return err
	}
	for _, law := range laws {
		if _, err := fmt.Fprintln(w, law); err != nil {
			return err
		}
	}
	return nil
}
