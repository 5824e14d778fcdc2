package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xavierca1/lead-crm/internal/config"
)

var (
	verbose bool
	logger  *zap.Logger
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "lead-crm",
		Short: "Lead CRM API with a chat assistant",
		Long: `Lead CRM API. Serves the lead endpoints, analytics, spreadsheet export and
the chat assistant that manages leads through tool calls.

Run without a subcommand to start the HTTP server.`,
		SilenceUsage: true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.AddCommand(newServeCmd(), newMigrateCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the leads table and indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(false)
			if err != nil {
				return err
			}
			return runMigrate(cmd.Context(), cfg)
		},
	}
}

// setup loads the configuration and builds the package logger from it.
func setup(requireModel bool) (*config.Config, error) {
	cfg, err := config.Load(requireModel)
	if err != nil {
		return nil, err
	}
	logger, err = newLogger(cfg.Development(), verbose)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}

func newLogger(development, debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}
