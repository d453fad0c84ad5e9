package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mwhitaker/foia-archive/internal/api"
	"github.com/mwhitaker/foia-archive/internal/catalog"
	"github.com/mwhitaker/foia-archive/internal/metrics"
)

// newServeCmd starts the read-only browse server over the catalog.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only catalog browse API.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			metrics.Init()

			store, err := catalog.New(ctx, catalog.Config{
				DSN:      cfg.DB.DSN,
				MaxConns: cfg.DB.MaxConns,
				MinConns: cfg.DB.MinConns,
			})
			if err != nil {
				return fmt.Errorf("connect catalog: %w", err)
			}
			defer store.Close()

			srv := &http.Server{
				Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
				Handler:           api.NewServer(store, logger).Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("browse server listening", zap.String("addr", srv.Addr))
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("serve: %w", err)
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			logger.Info("browse server stopped")
			return nil
		},
	}
}
