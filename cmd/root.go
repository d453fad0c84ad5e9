// Package cmd wires the foiarchive CLI: a one-shot crawl, a periodic
// daemon, and the read-only browse server.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mwhitaker/foia-archive/internal/config"
	"github.com/mwhitaker/foia-archive/internal/logging"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "foiarchive",
		Short: "Discover, catalog, and archive FOIA reading room documents.",
		Long: `foiarchive discovers agency reading rooms from the upstream directory,
reconciles them into a relational catalog, and crawls each room for
publishable documents, optionally downloading them to blob storage.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (default: environment only)")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newDaemonCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}

// setup loads configuration and builds the root logger. Every subcommand
// starts here.
func setup() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("build logger: %w", err)
	}
	return cfg, logger, nil
}

// Execute runs the root command. It is the single entry point called
// from main.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
