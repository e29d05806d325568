package schedule

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"mercator-hq/archivist/pkg/archive"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestScheduler_Start(t *testing.T) {
	tests := []struct {
		name        string
		schedule    string
		wantRunning bool
		wantError   bool
	}{
		{name: "daily schedule", schedule: "0 3 * * *", wantRunning: true},
		{name: "hourly schedule", schedule: "0 * * * *", wantRunning: true},
		{name: "descriptor", schedule: "@weekly", wantRunning: true},
		{name: "empty schedule", schedule: "", wantRunning: false},
		{name: "invalid schedule", schedule: "invalid cron", wantError: true},
		{name: "seconds field rejected", schedule: "0 0 3 * * *", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScheduler(TriggerFunc(func(ctx context.Context) {}), WithLocation(time.UTC))

			err := s.Start(context.Background(), tt.schedule)
			defer s.Stop()

			if (err != nil) != tt.wantError {
				t.Fatalf("Start() error = %v, wantError %v", err, tt.wantError)
			}
			if s.IsRunning() != tt.wantRunning {
				t.Errorf("IsRunning() = %v, want %v", s.IsRunning(), tt.wantRunning)
			}
			if tt.wantRunning && s.Schedule() != tt.schedule {
				t.Errorf("Schedule() = %q, want %q", s.Schedule(), tt.schedule)
			}
		})
	}
}

func TestScheduler_StartTwice(t *testing.T) {
	s := NewScheduler(TriggerFunc(func(ctx context.Context) {}))
	if err := s.Start(context.Background(), "0 3 * * *"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer s.Stop()

	if err := s.Start(context.Background(), "0 3 * * *"); err == nil {
		t.Error("expected error starting a running scheduler")
	}
}

func TestScheduler_NextRun(t *testing.T) {
	s := NewScheduler(TriggerFunc(func(ctx context.Context) {}), WithLocation(time.UTC))
	if next := s.NextRun(); next != nil {
		t.Errorf("expected no next run before Start, got %v", next)
	}

	if err := s.Start(context.Background(), "0 3 * * *"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer s.Stop()

	next := s.NextRun()
	if next == nil {
		t.Fatal("expected a next run")
	}
	if next.Hour() != 3 || next.Minute() != 0 {
		t.Errorf("next run = %v, want 03:00 UTC", next)
	}
	if !next.After(time.Now()) || next.After(time.Now().Add(24*time.Hour)) {
		t.Errorf("next run %v not within the next day", next)
	}
}

func TestScheduler_Reschedule(t *testing.T) {
	s := NewScheduler(TriggerFunc(func(ctx context.Context) {}), WithLocation(time.UTC))

	if err := s.Reschedule("0 4 * * *"); err == nil {
		t.Error("expected error rescheduling a stopped scheduler")
	}

	if err := s.Start(context.Background(), "0 3 * * *"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer s.Stop()

	if err := s.Reschedule("not cron"); err == nil {
		t.Error("expected error for invalid schedule")
	}
	if s.Schedule() != "0 3 * * *" {
		t.Errorf("failed reschedule changed schedule to %q", s.Schedule())
	}

	if err := s.Reschedule("30 4 * * *"); err != nil {
		t.Fatalf("Reschedule failed: %v", err)
	}
	next := s.NextRun()
	if next == nil || next.Hour() != 4 || next.Minute() != 30 {
		t.Errorf("next run = %v, want 04:30 UTC", next)
	}
}

func TestScheduler_StopsOnContextCancel(t *testing.T) {
	s := NewScheduler(TriggerFunc(func(ctx context.Context) {}))

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx, "0 3 * * *"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	cancel()

	deadline := time.Now().Add(time.Second)
	for s.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if s.IsRunning() {
		t.Error("scheduler still running after context cancel")
	}
}

func TestScheduler_FiresAndSkipsOverlap(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for cron ticks")
	}

	release := make(chan struct{})
	var fired atomic.Int32
	s := NewScheduler(TriggerFunc(func(ctx context.Context) {
		fired.Add(1)
		<-release
	}))

	if err := s.Start(context.Background(), "@every 1s"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Let several ticks pass while the first run blocks.
	time.Sleep(3500 * time.Millisecond)
	if got := fired.Load(); got != 1 {
		t.Errorf("fired %d times while blocked, want 1", got)
	}

	close(release)
	s.Stop()
}

type countingRunner struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (r *countingRunner) TryRun(ctx context.Context, req archive.Request) (*archive.RunSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return &archive.RunSummary{RunID: "run", State: archive.StateDone}, nil
}

func TestJobTrigger(t *testing.T) {
	okRequest := func() (archive.Request, error) {
		return archive.Request{BasePath: "/A", TargetPath: "/B"}, nil
	}

	tests := []struct {
		name      string
		runner    *countingRunner
		requests  func() (archive.Request, error)
		wantCalls int
	}{
		{name: "runs", runner: &countingRunner{}, requests: okRequest, wantCalls: 1},
		{name: "run in progress", runner: &countingRunner{err: archive.ErrRunInProgress}, requests: okRequest, wantCalls: 1},
		{
			name:   "request error",
			runner: &countingRunner{},
			requests: func() (archive.Request, error) {
				return archive.Request{}, errors.New("bad cutoff")
			},
			wantCalls: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			JobTrigger(tt.runner, tt.requests).Fire(context.Background())
			if tt.runner.calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", tt.runner.calls, tt.wantCalls)
			}
		})
	}
}
