package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mwhitaker/foia-archive/internal/archive"
)

// newRunCmd performs exactly one discovery-and-crawl cycle and exits.
func newRunCmd() *cobra.Command {
	var (
		modeFlag string
		maxDocs  int
		rooms    int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one full discovery-and-crawl cycle.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			mode := cfg.Mode()
			if modeFlag != "" {
				mode, err = archive.ParseMode(modeFlag)
				if err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("max-docs") {
				cfg.Crawler.MaxDocsPerSource = maxDocs
			}
			if cmd.Flags().Changed("rooms") {
				cfg.Crawler.RoomLimit = rooms
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			p, err := buildPipeline(ctx, cfg, mode, logger)
			if err != nil {
				return err
			}
			defer p.close()

			report, err := p.engine.RunOnce(ctx)
			if err != nil {
				return fmt.Errorf("run cycle: %w", err)
			}
			logger.Info("cycle finished",
				zap.String("mode", string(mode)),
				zap.Int("discovered", report.Discovered),
				zap.Int("downloaded", report.Downloaded),
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&modeFlag, "mode", "", "crawl mode: simulate or execute (default: config)")
	cmd.Flags().IntVar(&maxDocs, "max-docs", 0, "cap on new documents per reading room (simulate mode)")
	cmd.Flags().IntVar(&rooms, "rooms", 0, "crawl at most this many reading rooms (0 = all)")

	return cmd
}
