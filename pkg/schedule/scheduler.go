package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"mercator-hq/archivist/pkg/telemetry/logging"
)

// Trigger starts one run.
type Trigger interface {
	Fire(ctx context.Context)
}

// TriggerFunc adapts a function to Trigger.
type TriggerFunc func(ctx context.Context)

// Fire calls f(ctx).
func (f TriggerFunc) Fire(ctx context.Context) {
	f(ctx)
}

// Option configures a Scheduler.
type Option func(*options)

type options struct {
	location *time.Location
}

// WithLocation evaluates cron expressions in loc instead of the local time
// zone.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		o.location = loc
	}
}

// Scheduler fires a Trigger on a cron schedule.
type Scheduler struct {
	trigger  Trigger
	cron     *cron.Cron
	mu       sync.Mutex
	logger   *slog.Logger
	running  bool
	schedule string
	entry    cron.EntryID
	ctx      context.Context
	stopped  chan struct{}
}

// NewScheduler creates a scheduler for trigger.
func NewScheduler(trigger Trigger, opts ...Option) *Scheduler {
	o := options{location: time.Local}
	for _, opt := range opts {
		opt(&o)
	}

	logger := slog.Default().With("component", "schedule")
	cl := cronLogger{logger: logger}

	return &Scheduler{
		trigger: trigger,
		cron: cron.New(
			cron.WithLocation(o.location),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger: logger,
	}
}

// Start schedules the trigger on the standard five-field cron expression
// schedule. An empty schedule leaves the scheduler idle. The scheduler stops
// when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context, schedule string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}
	if schedule == "" {
		s.logger.Info("schedule not configured, skipping scheduler")
		return nil
	}

	s.ctx = ctx
	if err := s.addLocked(schedule); err != nil {
		return err
	}

	s.cron.Start()
	s.running = true
	s.stopped = make(chan struct{})

	s.logger.Info("scheduler started", "schedule", schedule)

	stopped := s.stopped
	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-stopped:
		}
	}()

	return nil
}

func (s *Scheduler) addLocked(schedule string) error {
	sched, err := cron.ParseStandard(schedule)
	if err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}

	ctx := s.ctx
	s.entry = s.cron.Schedule(sched, cron.FuncJob(func() {
		s.fire(ctx)
	}))
	s.schedule = schedule
	return nil
}

// Reschedule replaces the schedule of a running scheduler. Runs in progress
// are not interrupted.
func (s *Scheduler) Reschedule(schedule string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return fmt.Errorf("scheduler is not running")
	}
	if schedule == s.schedule {
		return nil
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}

	s.cron.Remove(s.entry)
	previous := s.schedule
	if err := s.addLocked(schedule); err != nil {
		return err
	}

	s.logger.Info("scheduler rescheduled", "previous", previous, "schedule", schedule)
	return nil
}

func (s *Scheduler) fire(ctx context.Context) {
	s.logger.Info("scheduled run starting")
	s.trigger.Fire(logging.WithTrigger(ctx, "cron"))
}

// Stop stops the scheduler and waits for a running trigger to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	done := s.cron.Stop()
	<-done.Done()
	close(s.stopped)
	s.running = false
	s.logger.Info("scheduler stopped")
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// Schedule returns the active cron expression.
func (s *Scheduler) Schedule() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.schedule
}

// NextRun returns the next scheduled run time, or nil when nothing is
// scheduled.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	entry := s.cron.Entry(s.entry)
	if !entry.Valid() || entry.Next.IsZero() {
		return nil
	}

	next := entry.Next
	return &next
}

// cronLogger routes cron's internal logging to slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
