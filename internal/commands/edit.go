package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Danielhyunyoo/WellsFargoTransactionTracker/internal/activity"
)

func newEditCommand() *cobra.Command {
	var flags repoFlags

	cmd := &cobra.Command{
		Use:   "edit <position> <description>",
		Short: "Set the custom description of a transaction",
		Long:  "Set the custom description of the transaction shown as #<position> by `tracker list`.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid position %q", args[0])
			}
			return runEdit(cmd.Context(), flags, pos, args[1])
		},
	}
	flags.bind(cmd, false)

	return cmd
}

func runEdit(ctx context.Context, flags repoFlags, pos int, text string) error {
	s, err := openSession(ctx, flags)
	if err != nil {
		return err
	}
	defer s.close()

	p, err := s.svc.UpdateDescription(pos, text)
	if err != nil {
		return err
	}
	o, err := p.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for save: %w", err)
	}

	switch {
	case o.Failed():
		fmt.Fprintf(os.Stderr, "warning: description not saved: %v\n", o.Err)
	case o.Skipped:
		fmt.Fprintln(os.Stderr, "warning: description updated in memory only")
	default:
		fmt.Printf("Updated #%d: %s\n", pos, text)
		s.record(activity.New(activity.ActionEdit, "#%d (id %d) -> %q", pos, o.ID, text))
		s.snapshot(fmt.Sprintf("edit: transaction %d", o.ID))
	}
	return nil
}
