package schedule

import (
	"context"
	"errors"
	"log/slog"

	"mercator-hq/archivist/pkg/archive"
)

// Runner executes an archival run unless one is already active.
type Runner interface {
	TryRun(ctx context.Context, req archive.Request) (*archive.RunSummary, error)
}

// JobTrigger returns a Trigger that builds the run request from requests and
// runs it. A tick that finds a run already active, for example one started
// over HTTP, is skipped.
func JobTrigger(runner Runner, requests func() (archive.Request, error)) Trigger {
	logger := slog.Default().With("component", "schedule.job")

	return TriggerFunc(func(ctx context.Context) {
		req, err := requests()
		if err != nil {
			logger.ErrorContext(ctx, "failed to build scheduled run request", "error", err)
			return
		}

		summary, err := runner.TryRun(ctx, req)
		if errors.Is(err, archive.ErrRunInProgress) {
			logger.WarnContext(ctx, "skipping scheduled run, another run is active")
			return
		}
		if err != nil {
			logger.ErrorContext(ctx, "scheduled run failed to start", "error", err)
			return
		}

		logger.InfoContext(ctx, "scheduled run finished",
			"run_id", summary.RunID,
			"state", summary.State.String(),
			"moved", summary.MovedCount,
			"errors", len(summary.Errors),
		)
	})
}
