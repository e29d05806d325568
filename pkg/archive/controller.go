package archive

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/archivist/pkg/archive/policy"
	"mercator-hq/archivist/pkg/content"
	"mercator-hq/archivist/pkg/telemetry/logging"
	"mercator-hq/archivist/pkg/telemetry/tracing"
)

// Recorder receives every finished run summary (metrics).
type Recorder interface {
	RecordRun(summary *RunSummary)
}

// Config contains configuration for the run controller.
type Config struct {
	// PolicyKeys names the metadata properties read by the policies.
	// Empty fields use policy.DefaultKeys.
	PolicyKeys policy.Keys

	// Clock resolves relative cutoffs. Defaults to the system clock.
	Clock Clock

	// Recorder is notified of every finished run. Optional.
	Recorder Recorder
}

// Controller runs the archival job against a repository.
type Controller struct {
	repo    content.Repository
	config  Config
	logger  *slog.Logger
	state   atomic.Int32
	running sync.Mutex
	lastMu  sync.RWMutex
	last    *RunSummary
}

// NewController creates a new run controller.
func NewController(repo content.Repository, config Config) *Controller {
	if config.Clock == nil {
		config.Clock = SystemClock()
	}
	return &Controller{
		repo:   repo,
		config: config,
		logger: slog.Default().With("component", "archive.controller"),
	}
}

// State returns the state of the current or most recent run.
func (c *Controller) State() State {
	return State(c.state.Load())
}

// LastSummary returns the summary of the most recent finished run, or nil.
func (c *Controller) LastSummary() *RunSummary {
	c.lastMu.RLock()
	defer c.lastMu.RUnlock()
	return c.last
}

// TryRun runs req unless another run started through TryRun is active, in
// which case it returns ErrRunInProgress.
func (c *Controller) TryRun(ctx context.Context, req Request) (*RunSummary, error) {
	if !c.running.TryLock() {
		return nil, ErrRunInProgress
	}
	defer c.running.Unlock()
	return c.Run(ctx, req), nil
}

// Run executes one archival run. It opens a single session, walks the base
// path once and commits once. It always returns a summary and never panics.
func (c *Controller) Run(ctx context.Context, req Request) (summary *RunSummary) {
	now := c.config.Clock.Now()
	summary = &RunSummary{
		RunID:      uuid.New().String(),
		BasePath:   content.Clean(req.BasePath),
		TargetPath: content.Clean(req.TargetPath),
		Mode:       string(req.Mode),
		DryRun:     req.DryRun,
		State:      StateIdle,
		StartedAt:  now,
	}
	ctx = logging.WithRunID(ctx, summary.RunID)
	ctx, span := tracing.Start(ctx, "archive.run", trace.WithAttributes(
		attribute.String("archive.run_id", summary.RunID),
		attribute.String("archive.base_path", summary.BasePath),
		attribute.String("archive.target_path", summary.TargetPath),
		attribute.String("archive.mode", summary.Mode),
		attribute.Bool("archive.dry_run", summary.DryRun),
	))
	c.setState(summary, StateIdle)

	defer func() {
		if r := recover(); r != nil {
			c.logger.ErrorContext(ctx, "run panicked", "panic", r)
			summary.Errors = append(summary.Errors, NewRunError(OpPanic, "", fmt.Errorf("%v", r)))
			c.setState(summary, StateFailed)
		}
		summary.FinishedAt = c.config.Clock.Now()
		c.finish(ctx, summary)
		endRunSpan(span, summary)
	}()

	if content.IsWithin(summary.TargetPath, summary.BasePath) || content.IsWithin(summary.BasePath, summary.TargetPath) {
		return c.fail(ctx, summary, NewRunError(OpRequest, summary.TargetPath, ErrOverlappingPaths))
	}
	for _, shadow := range req.ShadowPaths {
		if content.IsWithin(shadow, summary.BasePath) || content.IsWithin(summary.BasePath, shadow) {
			return c.fail(ctx, summary, NewRunError(OpRequest, content.Clean(shadow), ErrOverlappingPaths))
		}
	}

	cutoff, err := req.Cutoff.Resolve(c.config.Clock)
	if err != nil {
		return c.fail(ctx, summary, NewRunError(OpCutoff, "", err))
	}
	summary.Cutoff = cutoff

	p, err := policy.New(req.Mode, mergeKeys(req.Keys, c.config.PolicyKeys))
	if err != nil {
		return c.fail(ctx, summary, NewRunError(OpPolicy, "", err))
	}

	rc := &RunContext{
		RunID:       summary.RunID,
		BasePath:    summary.BasePath,
		TargetPath:  summary.TargetPath,
		ShadowPaths: req.ShadowPaths,
		Cutoff:      cutoff,
		DryRun:      req.DryRun,
		summary:     summary,
	}

	c.logger.InfoContext(ctx, "starting archival run",
		"base_path", rc.BasePath,
		"target_path", rc.TargetPath,
		"shadow_paths", rc.ShadowPaths,
		"cutoff", cutoff,
		"mode", string(p.Mode()),
		"dry_run", rc.DryRun,
	)

	session, err := c.repo.Session(ctx)
	if err != nil {
		return c.fail(ctx, summary, NewRunError(OpSession, "", err))
	}
	defer session.Close()

	if _, err := session.Resolve(ctx, rc.BasePath); err != nil {
		if content.IsNotFound(err) {
			c.logger.WarnContext(ctx, "no content found at base path", "base_path", rc.BasePath)
		}
		return c.fail(ctx, summary, NewRunError(OpResolve, rc.BasePath, err))
	}

	c.setState(summary, StateWalking)
	NewWalker(session, p, rc).Walk(ctx, rc.BasePath, rc.TargetPath)

	if rc.DryRun {
		c.setState(summary, StateDone)
		return summary
	}

	c.setState(summary, StateCommitting)
	if err := session.Commit(ctx); err != nil {
		return c.fail(ctx, summary, NewRunError(OpCommit, "", err))
	}

	c.setState(summary, StateDone)
	return summary
}

func endRunSpan(span trace.Span, summary *RunSummary) {
	span.SetAttributes(
		attribute.String("archive.state", summary.State.String()),
		attribute.Int("archive.evaluated", summary.EvaluatedCount),
		attribute.Int("archive.moved", summary.MovedCount),
		attribute.Int("archive.planned", summary.PlannedCount),
		attribute.Int("archive.failed", summary.FailedCount),
		attribute.Int("archive.errors", len(summary.Errors)),
	)
	var err error
	if summary.State == StateFailed && len(summary.Errors) > 0 {
		err = summary.Errors[len(summary.Errors)-1]
	}
	tracing.SetStatus(span, err)
	span.End()
}

func (c *Controller) setState(summary *RunSummary, s State) {
	summary.State = s
	c.state.Store(int32(s))
}

func (c *Controller) fail(ctx context.Context, summary *RunSummary, err *RunError) *RunSummary {
	c.logger.ErrorContext(ctx, "archival run failed", "op", err.Op, "error", err.Err)
	summary.Errors = append(summary.Errors, err)
	c.setState(summary, StateFailed)
	return summary
}

func (c *Controller) finish(ctx context.Context, summary *RunSummary) {
	c.logger.InfoContext(ctx, "archival run finished",
		"state", summary.State.String(),
		"evaluated", summary.EvaluatedCount,
		"moved", summary.MovedCount,
		"planned", summary.PlannedCount,
		"skipped", summary.SkippedCount,
		"indeterminate", summary.IndeterminateCount,
		"failed", summary.FailedCount,
		"errors", len(summary.Errors),
		"duration", summary.Duration(),
	)

	c.lastMu.Lock()
	c.last = summary
	c.lastMu.Unlock()

	if c.config.Recorder != nil {
		c.config.Recorder.RecordRun(summary)
	}
}

// mergeKeys fills the empty fields of keys from fallback.
func mergeKeys(keys, fallback policy.Keys) policy.Keys {
	if keys.PublishDate == "" {
		keys.PublishDate = fallback.PublishDate
	}
	if keys.Status == "" {
		keys.Status = fallback.Status
	}
	if keys.Created == "" {
		keys.Created = fallback.Created
	}
	if keys.CompletedValue == "" {
		keys.CompletedValue = fallback.CompletedValue
	}
	return keys
}
