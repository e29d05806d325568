package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/archivist/pkg/cli"
	"mercator-hq/archivist/pkg/config"
	"mercator-hq/archivist/pkg/telemetry/logging"
	"mercator-hq/archivist/pkg/telemetry/tracing"
)

var (
	// Global flags
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "archivist",
	Short: "Archivist - scheduled content archival",
	Long: `Archivist moves aging content out of a live content tree into an
archive location.

Each run walks the children of a base folder and classifies every content item
against a cutoff date. Eligible items are moved below a dated archive path
(<target>/<year>/...). A folder whose items are all eligible moves as a whole.
Conflicting names in the archive and in shadow locations are removed first.

Runs are started from the command line, by a cron schedule, or over HTTP.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults apply when empty)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
}

// loadConfig initializes the global configuration from --config and installs
// the configured logger as the slog default.
func loadConfig() (*config.Config, error) {
	if err := config.Initialize(cfgFile); err != nil {
		return nil, cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()

	if logLevel != "" {
		cfg.Telemetry.Logging.Level = logLevel
	}
	if err := setupLogging(cfg.Telemetry.Logging); err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	return cfg, nil
}

func setupLogging(cfg config.LoggingConfig) error {
	logger, err := logging.New(logging.Config{
		Level:     cfg.Level,
		Format:    cfg.Format,
		AddSource: cfg.AddSource,
		Writer:    os.Stderr,
	})
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}

// setupTracing installs the configured tracer. The returned function flushes
// pending spans.
func setupTracing(ctx context.Context, cfg config.TracingConfig) (func(), error) {
	tracer, err := tracing.New(ctx, tracing.Config{
		Enabled:        cfg.Enabled,
		Sampler:        cfg.Sampler,
		SampleRatio:    cfg.SampleRatio,
		Endpoint:       cfg.Endpoint,
		Insecure:       cfg.Insecure,
		ServiceName:    cfg.ServiceName,
		ServiceVersion: Version,
	})
	if err != nil {
		return nil, err
	}
	return func() {
		if err := tracer.Shutdown(context.Background()); err != nil {
			slog.Warn("failed to flush traces", "error", err)
		}
	}, nil
}
