package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mwhitaker/foia-archive/internal/engine"
)

// newDaemonCmd runs crawl cycles on a fixed interval until interrupted.
func newDaemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run crawl cycles continuously on the configured interval.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			p, err := buildPipeline(ctx, cfg, cfg.Mode(), logger)
			if err != nil {
				return err
			}
			defer p.close()

			logger.Info("daemon starting",
				zap.String("mode", cfg.Crawler.Mode),
				zap.Duration("interval", cfg.Interval()),
			)
			return engine.NewScheduler(p.engine, cfg.Interval(), logger).Run(ctx)
		},
	}
}
