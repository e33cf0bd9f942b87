// Package cli implements the kordash command line.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"kordash/internal/config"
	"kordash/internal/engine"
)

// app holds state resolved by the root command before any subcommand runs.
type app struct {
	configPath string
	dataSource string
	logLevel   string
	output     string

	cfg    *config.Config
	logger *slog.Logger
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "kordash",
		Short:         "South Korea unemployment dashboard",
		Long:          "Serve and query the South Korea unemployment dashboard built from World Bank indicator data.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "YAML config file")
	flags.StringVar(&a.dataSource, "data", "", "dataset location: CSV path or s3://bucket/key (overrides DATA_SOURCE)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides LOG_LEVEL)")
	flags.StringVarP(&a.output, "output", "o", "table", "output format (table, json)")

	rootCmd.AddCommand(newServeCmd(a))
	rootCmd.AddCommand(newIndicatorsCmd(a))
	rootCmd.AddCommand(newSeriesCmd(a))
	rootCmd.AddCommand(newCardsCmd(a))
	rootCmd.AddCommand(newExportCmd(a))
	return rootCmd
}

// setup applies precedence: flag > env > config file > default.
func (a *app) setup(cmd *cobra.Command) error {
	if a.output != "table" && a.output != "json" {
		return fmt.Errorf("unsupported output format %q: use 'table' or 'json'", a.output)
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if cmd.Flags().Changed("data") {
		cfg.DataSource = a.dataSource
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	a.cfg = cfg
	a.logger = cfg.NewLogger()
	slog.SetDefault(a.logger)
	for _, w := range cfg.Warnings {
		a.logger.Warn(w)
	}
	return nil
}

// loadDashboard reads the configured dataset and builds the dashboard.
func (a *app) loadDashboard(ctx context.Context) (*engine.Dashboard, error) {
	src, err := engine.OpenSource(a.cfg.DataSource, a.cfg.S3Options())
	if err != nil {
		return nil, err
	}
	table, err := engine.Load(ctx, src, a.logger)
	if err != nil {
		return nil, err
	}
	return engine.NewDashboard(table, a.cfg.EngineOptions()), nil
}

func (a *app) printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
