package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"salescli/internal/config"
	"salescli/internal/infrastructure"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "salescli",
		Short: "Clean, analyze and chart retail sales spreadsheets",
		Long: `salescli ingests one spreadsheet of retail sales transactions, normalizes
and enriches the records, prints descriptive statistics and writes a fixed set
of charts, a binary snapshot of the cleaned table and CSV exports.

Configuration is read from an optional .env file, an optional YAML file and
SALES_* environment variables, in that order.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML configuration file")

	root.AddCommand(newAnalyzeCmd(&configPath))
	root.AddCommand(newInspectCmd(&configPath))
	return root
}

// app bundles the ambient services shared by every command.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	telemetry *infrastructure.Telemetry
	logCloser io.Closer
}

func newApp(configPath string, logOut io.Writer) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger, closer, err := infrastructure.NewLogger(cfg.Logging, logOut)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	telemetry, err := infrastructure.NewTelemetry(cfg.Telemetry, version, logOut, logger)
	if err != nil {
		closer.Close()
		return nil, err
	}

	return &app{
		cfg:       cfg,
		logger:    logger,
		telemetry: telemetry,
		logCloser: closer,
	}, nil
}

// Close flushes telemetry and closes the log file.
func (a *app) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return errors.Join(a.telemetry.Shutdown(ctx), a.logCloser.Close())
}
