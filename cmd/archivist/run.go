package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"mercator-hq/archivist/pkg/archive"
	"mercator-hq/archivist/pkg/archive/policy"
	"mercator-hq/archivist/pkg/cli"
	"mercator-hq/archivist/pkg/telemetry/logging"
)

var runFlags struct {
	base    string
	target  string
	shadows []string
	cutoff  string
	months  int
	mode    string
	dryRun  bool
	output  string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the archival job once",
	Long: `Run the archival job once against the configured content store and print
the run summary.

Flags override the job section of the configuration for this run only. The
command exits with a non-zero status when the run recorded any error.

Examples:
  # Run with the configured job
  archivist run --config archivist.yaml

  # Archive everything that went stale before 2024
  archivist run --cutoff 2024-01-01

  # Preview a 12 month cutoff as JSON
  archivist run --months 12 --dry-run --output json

  # Export the planned moves as CSV
  archivist run --dry-run --output csv > moves.csv`,
	RunE: runJob,
}

func init() {
	rootCmd.AddCommand(runCmd)
	addRunFlags(runCmd)
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&runFlags.base, "base", "", "override the base folder")
	cmd.Flags().StringVar(&runFlags.target, "target", "", "override the archive target")
	cmd.Flags().StringSliceVar(&runFlags.shadows, "shadow", nil, "override the shadow locations (repeatable)")
	cmd.Flags().StringVar(&runFlags.cutoff, "cutoff", "", "absolute cutoff date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&runFlags.months, "months", 0, "cutoff in months before now")
	cmd.Flags().StringVar(&runFlags.mode, "mode", "", "eligibility mode: publish_date, status_and_creation_date")
	cmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "plan moves without changing the store")
	cmd.Flags().StringVarP(&runFlags.output, "output", "o", "text", "output format: text, json, csv")

	cmd.MarkFlagsMutuallyExclusive("cutoff", "months")
}

func runJob(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(runFlags.output)
	if err != nil {
		return cli.NewConfigError("output", err.Error())
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	req, err := cfg.Job.Request()
	if err != nil {
		return cli.NewConfigError("job.cutoff", err.Error())
	}
	if err := applyRunFlags(cmd, &req); err != nil {
		return err
	}

	ctx, stop := cli.SetupSignalHandler()
	defer stop()
	ctx = logging.WithTrigger(ctx, "cli")

	shutdownTracing, err := setupTracing(ctx, cfg.Telemetry.Tracing)
	if err != nil {
		return cli.NewConfigError("telemetry.tracing", err.Error())
	}
	defer shutdownTracing()

	repo, err := openRepository(ctx, cfg.Store)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer repo.Close()

	controller := archive.NewController(repo, archive.Config{})
	summary := controller.Run(ctx, req)

	if err := cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), summary); err != nil {
		return cli.NewCommandError("run", err)
	}

	if summary.State == archive.StateFailed || summary.HasErrors() {
		slog.Warn("run finished with errors",
			"run_id", summary.RunID,
			"state", summary.State.String(),
			"errors", len(summary.Errors),
		)
		return cli.NewExitError(1, fmt.Sprintf("run %s recorded %d error(s)", summary.RunID, len(summary.Errors)))
	}
	return nil
}

// applyRunFlags overrides req with the flags the user set.
func applyRunFlags(cmd *cobra.Command, req *archive.Request) error {
	flags := cmd.Flags()

	if flags.Changed("base") {
		req.BasePath = runFlags.base
	}
	if flags.Changed("target") {
		req.TargetPath = runFlags.target
	}
	if flags.Changed("shadow") {
		req.ShadowPaths = runFlags.shadows
	}
	if flags.Changed("cutoff") {
		t, err := archive.ParseDate(runFlags.cutoff)
		if err != nil {
			return cli.NewConfigError("cutoff", err.Error())
		}
		req.Cutoff = archive.AbsoluteCutoff(t)
	}
	if flags.Changed("months") {
		if runFlags.months <= 0 {
			return cli.NewConfigError("months", "must be a positive integer")
		}
		req.Cutoff = archive.MonthsBefore(runFlags.months)
	}
	if flags.Changed("mode") {
		mode, err := policy.ParseMode(runFlags.mode)
		if err != nil {
			return cli.NewConfigError("mode", err.Error())
		}
		req.Mode = mode
	}
	if flags.Changed("dry-run") {
		req.DryRun = runFlags.dryRun
	}
	return nil
}
