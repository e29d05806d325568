package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"mercator-hq/archivist/pkg/archive"
	"mercator-hq/archivist/pkg/cli"
	"mercator-hq/archivist/pkg/config"
	"mercator-hq/archivist/pkg/schedule"
	"mercator-hq/archivist/pkg/server"
	"mercator-hq/archivist/pkg/telemetry/health"
	"mercator-hq/archivist/pkg/telemetry/metrics"
)

var serveFlags struct {
	listenAddress string
	schedule      string
	noWatch       bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduler and HTTP trigger server",
	Long: `Run the archival job on its cron schedule and serve the HTTP trigger.

The server exposes:
  /trigger   start a run (GET or POST; targetDate, months, dryRun)
  /health    liveness probe
  /ready     readiness probe (store and configuration)
  /version   build information
  /metrics   Prometheus metrics

Only one run is active at a time. A scheduled run that finds a run in
progress is skipped; an HTTP trigger answers 409 Conflict.

When a configuration file is given it is watched for changes. The next run
uses the reloaded job section and the schedule is updated in place.

Examples:
  # Start with a configuration file
  archivist serve --config /etc/archivist/archivist.yaml

  # Override listen address and schedule
  archivist serve --listen 0.0.0.0:8080 --schedule "30 2 * * *"`,
	RunE: serve,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
	serveCmd.Flags().StringVar(&serveFlags.schedule, "schedule", "", "override the cron schedule")
	serveCmd.Flags().BoolVar(&serveFlags.noWatch, "no-watch", false, "do not reload the configuration file on change")
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveFlags.listenAddress != "" {
		cfg.Server.ListenAddress = serveFlags.listenAddress
	}
	if serveFlags.schedule != "" {
		cfg.Job.Schedule = serveFlags.schedule
	}

	ctx, stop := cli.SetupSignalHandler()
	defer stop()

	shutdownTracing, err := setupTracing(ctx, cfg.Telemetry.Tracing)
	if err != nil {
		return cli.NewConfigError("telemetry.tracing", err.Error())
	}
	defer shutdownTracing()

	repo, err := openRepository(ctx, cfg.Store)
	if err != nil {
		return cli.NewCommandError("serve", err)
	}
	defer repo.Close()

	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, prometheus.NewRegistry())
	controller := archive.NewController(repo, archive.Config{Recorder: collector})

	requests := config.CurrentRequest

	checker := health.New(cfg.Telemetry.Health.CheckTimeout)
	checker.RegisterCheck("store", health.PingCheck(repo))
	checker.RegisterCheck("config", health.ConfigCheck(config.GetConfig))

	scheduler := schedule.NewScheduler(schedule.JobTrigger(controller, requests))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := scheduler.Start(gctx, cfg.Job.Schedule); err != nil {
			return fmt.Errorf("scheduler: %w", err)
		}
		if next := scheduler.NextRun(); next != nil {
			slog.Info("next scheduled run", "at", next)
		}
		<-gctx.Done()
		scheduler.Stop()
		return nil
	})

	if cfg.Server.Enabled {
		opts := server.Options{
			Runner:   controller,
			Requests: requests,
			Checker:  checker,
			Health:   cfg.Telemetry.Health,
			Version:  versionInfo(),
		}
		if cfg.Telemetry.Metrics.Enabled {
			opts.Metrics = collector.Handler()
			opts.MetricsPath = cfg.Telemetry.Metrics.Path
		}
		srv := server.New(&cfg.Server, opts)

		g.Go(func() error {
			return srv.Start(gctx)
		})
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Trigger server listening on %s\n", cfg.Server.ListenAddress)
	}

	if cfgFile != "" && !serveFlags.noWatch {
		watcher, err := config.NewWatcher(cfgFile, 0)
		if err != nil {
			return cli.NewCommandError("serve", err)
		}
		watcher.OnReload(func(c *config.Config) {
			reloadRuntime(scheduler, c)
		})
		g.Go(func() error {
			return watcher.Watch(gctx)
		})
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl+C to stop")

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return cli.NewCommandError("serve", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "✓ Stopped")
	return nil
}

// reloadRuntime applies the parts of a reloaded configuration that take
// effect without a restart: the cron schedule and the log level. Store and
// server settings require a restart.
// Command line overrides win over the reloaded file.
func reloadRuntime(scheduler *schedule.Scheduler, c *config.Config) {
	slog.Info("applying reloaded configuration", "generation", config.Current().Generation)

	sched := c.Job.Schedule
	if serveFlags.schedule != "" {
		sched = serveFlags.schedule
	}
	if scheduler.IsRunning() && sched != "" {
		if err := scheduler.Reschedule(sched); err != nil {
			slog.Error("failed to apply reloaded schedule", "error", err)
		}
	}

	logCfg := c.Telemetry.Logging
	if logLevel != "" {
		logCfg.Level = logLevel
	}
	if err := setupLogging(logCfg); err != nil {
		slog.Error("failed to apply reloaded logging configuration", "error", err)
	}
}
