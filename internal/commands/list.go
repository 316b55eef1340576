package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Danielhyunyoo/WellsFargoTransactionTracker/internal/ledger"
	"github.com/Danielhyunyoo/WellsFargoTransactionTracker/internal/present"
)

func newListCommand() *cobra.Command {
	var flags repoFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions grouped by month, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.Context(), flags, cmd.OutOrStdout())
		},
	}
	flags.bind(cmd, false)

	return cmd
}

func runList(ctx context.Context, flags repoFlags, w io.Writer) error {
	s, err := openSession(ctx, flags)
	if err != nil {
		return err
	}
	defer s.close()

	txns := s.svc.Transactions()
	if err := present.NewTerminal(w).Render(present.GroupByMonth(txns)); err != nil {
		return fmt.Errorf("rendering transactions: %w", err)
	}
	if s.svc.Status() == ledger.StatusMemoryOnly {
		fmt.Fprintln(os.Stderr, "note: store unavailable, showing nothing saved")
	}
	return nil
}
