package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Danielhyunyoo/WellsFargoTransactionTracker/internal/activity"
	"github.com/Danielhyunyoo/WellsFargoTransactionTracker/internal/ledger"
)

// errClearAborted is returned when the confirmation prompt is declined.
var errClearAborted = errors.New("clear aborted")

func newClearCommand() *cobra.Command {
	var flags repoFlags
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every stored transaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				ok, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(),
					"Are you sure you want to delete all transactions? This cannot be undone. [y/N]: ")
				if err != nil {
					return err
				}
				if !ok {
					return errClearAborted
				}
			}
			return runClear(cmd.Context(), flags, cmd.OutOrStdout())
		},
	}
	flags.bind(cmd, false)
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")

	return cmd
}

func confirm(in io.Reader, out io.Writer, prompt string) (bool, error) {
	fmt.Fprint(out, prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("reading confirmation: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func runClear(ctx context.Context, flags repoFlags, w io.Writer) error {
	s, err := openSession(ctx, flags)
	if err != nil {
		return err
	}
	defer s.close()

	o, err := s.svc.ClearAll().Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for clear: %w", err)
	}

	status := ledger.ClassifyClear(o)
	switch status {
	case ledger.ClearOK:
		fmt.Fprintln(w, "All transactions cleared.")
	case ledger.ClearMemoryOnly:
		fmt.Fprintln(w, "Cleared in memory. The store was unavailable, so saved transactions were not touched.")
	case ledger.ClearBlocked:
		return fmt.Errorf("clear blocked, close other tracker sessions and try again: %w", o.Err)
	case ledger.ClearFailed:
		return fmt.Errorf("clearing store: %w", o.Err)
	}

	s.record(activity.New(activity.ActionClear, "%s", status))
	s.snapshot("clear: all transactions")
	return nil
}
