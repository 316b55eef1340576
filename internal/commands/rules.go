package commands

import (
	"fmt"
	"io"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Danielhyunyoo/WellsFargoTransactionTracker/internal/activity"
)

func newRulesCommand() *cobra.Command {
	rulesCmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage categorization rules",
	}
	rulesCmd.AddCommand(newRulesListCommand(), newRulesAddCommand())
	return rulesCmd
}

func newRulesListCommand() *cobra.Command {
	var flags repoFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List rules in evaluation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRulesList(flags, cmd.OutOrStdout())
		},
	}
	flags.bind(cmd, false)

	return cmd
}

func runRulesList(flags repoFlags, w io.Writer) error {
	dir, err := flags.abs()
	if err != nil {
		return err
	}
	p, err := loadProject(dir)
	if err != nil {
		return err
	}
	book, err := p.ruleBook()
	if err != nil {
		return err
	}

	shadowed := book.Shadowed()
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tPATTERN\tLABEL\t")
	for i, r := range book.Rules() {
		note := ""
		if slices.Contains(shadowed, i) {
			note = "(shadowed)"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i, r.Pattern, r.Label, note)
	}
	return tw.Flush()
}

func newRulesAddCommand() *cobra.Command {
	var flags repoFlags

	cmd := &cobra.Command{
		Use:   "add <pattern> <label>",
		Short: "Add a rule ahead of all existing rules",
		Long: "Add a rule ahead of all existing rules. The pattern is a case-insensitive\n" +
			"regular expression; plain keywords match as substrings.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRulesAdd(flags, args[0], args[1])
		},
	}
	flags.bind(cmd, false)

	return cmd
}

func runRulesAdd(flags repoFlags, pattern, label string) error {
	dir, err := flags.abs()
	if err != nil {
		return err
	}
	p, err := loadProject(dir)
	if err != nil {
		return err
	}
	book, err := p.ruleBook()
	if err != nil {
		return err
	}
	if err := book.Add(pattern, label); err != nil {
		return fmt.Errorf("adding rule: %w", err)
	}

	fmt.Printf("Added rule %q -> %s\n", pattern, label)
	p.record(activity.New(activity.ActionAddRule, "%q -> %s", pattern, label))
	p.snapshot("rules: add " + label)
	return nil
}
