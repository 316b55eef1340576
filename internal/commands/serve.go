package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/Danielhyunyoo/WellsFargoTransactionTracker/internal/activity"
	"github.com/Danielhyunyoo/WellsFargoTransactionTracker/internal/present"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand() *cobra.Command {
	var flags repoFlags
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ledger over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), flags, addr)
		},
	}
	flags.bind(cmd, true)
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from tracker.yaml)")

	return cmd
}

func runServe(ctx context.Context, flags repoFlags, addr string) error {
	s, err := openSession(ctx, flags)
	if err != nil {
		return err
	}
	defer s.close()

	if addr == "" {
		addr = s.cfg.Server.Addr
	}

	gin.SetMode(gin.ReleaseMode)
	h := present.NewHandler(s.svc, s.book, s.logger)
	var recMu sync.Mutex
	h.SetRecorder(func(action, details string) {
		recMu.Lock()
		defer recMu.Unlock()
		s.record(activity.New(action, "%s", details))
	})
	srv := &http.Server{
		Addr:              addr,
		Handler:           present.NewRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr, "status", s.svc.Status())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
