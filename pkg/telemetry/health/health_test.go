package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mercator-hq/archivist/pkg/config"
	"mercator-hq/archivist/pkg/content/storage"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name            string
		timeout         time.Duration
		expectedTimeout time.Duration
	}{
		{name: "default timeout", timeout: 0, expectedTimeout: DefaultCheckTimeout},
		{name: "negative timeout", timeout: -time.Second, expectedTimeout: DefaultCheckTimeout},
		{name: "custom timeout", timeout: 10 * time.Second, expectedTimeout: 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := New(tt.timeout)
			if checker.checkTimeout != tt.expectedTimeout {
				t.Errorf("expected timeout %v, got %v", tt.expectedTimeout, checker.checkTimeout)
			}
			if len(checker.ListChecks()) != 0 {
				t.Errorf("expected no checks, got %v", checker.ListChecks())
			}
		})
	}
}

func TestRegisterAndUnregisterCheck(t *testing.T) {
	checker := New(time.Second)
	noop := func(ctx context.Context) error { return nil }

	checker.RegisterCheck("store", noop)
	checker.RegisterCheck("config", noop)
	checker.RegisterCheck("store", noop)

	names := checker.ListChecks()
	if len(names) != 2 || names[0] != "config" || names[1] != "store" {
		t.Errorf("expected [config store], got %v", names)
	}

	checker.UnregisterCheck("store")
	if names := checker.ListChecks(); len(names) != 1 || names[0] != "config" {
		t.Errorf("expected [config], got %v", names)
	}
}

func TestCheckLiveness(t *testing.T) {
	status := New(0).CheckLiveness(context.Background())
	if status.Status != StatusOK {
		t.Errorf("expected status ok, got %q", status.Status)
	}
	if status.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
}

func TestCheckReadiness(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]CheckFunc
		wantStatus string
		unhealthy  []string
	}{
		{
			name:       "no checks",
			checks:     nil,
			wantStatus: StatusReady,
		},
		{
			name: "all healthy",
			checks: map[string]CheckFunc{
				"store":  func(ctx context.Context) error { return nil },
				"config": func(ctx context.Context) error { return nil },
			},
			wantStatus: StatusReady,
		},
		{
			name: "store down",
			checks: map[string]CheckFunc{
				"store":  func(ctx context.Context) error { return errors.New("database is locked") },
				"config": func(ctx context.Context) error { return nil },
			},
			wantStatus: StatusDegraded,
			unhealthy:  []string{"store"},
		},
		{
			name: "timeout",
			checks: map[string]CheckFunc{
				"slow": func(ctx context.Context) error {
					<-ctx.Done()
					time.Sleep(10 * time.Millisecond)
					return nil
				},
			},
			wantStatus: StatusDegraded,
			unhealthy:  []string{"slow"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := New(20 * time.Millisecond)
			for name, check := range tt.checks {
				checker.RegisterCheck(name, check)
			}

			status := checker.CheckReadiness(context.Background())
			if status.Status != tt.wantStatus {
				t.Errorf("expected status %q, got %q", tt.wantStatus, status.Status)
			}
			if len(status.Checks) != len(tt.checks) {
				t.Errorf("expected %d results, got %d", len(tt.checks), len(status.Checks))
			}
			for _, name := range tt.unhealthy {
				if status.Checks[name].Status != StatusUnhealthy {
					t.Errorf("expected %s to be unhealthy, got %+v", name, status.Checks[name])
				}
			}
		})
	}
}

func TestPingCheck(t *testing.T) {
	repo := storage.NewMemoryStorage()
	if err := PingCheck(repo)(context.Background()); err != nil {
		t.Errorf("expected memory store ping to succeed, got %v", err)
	}

	failing := pingerFunc(func(ctx context.Context) error { return errors.New("connection refused") })
	if err := PingCheck(failing)(context.Background()); err == nil {
		t.Error("expected ping check to fail")
	}
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestConfigCheck(t *testing.T) {
	var cfg *config.Config
	check := ConfigCheck(func() *config.Config { return cfg })

	if err := check(context.Background()); err == nil {
		t.Error("expected error without configuration")
	}
	cfg = config.DefaultConfig()
	if err := check(context.Background()); err != nil {
		t.Errorf("expected healthy with configuration, got %v", err)
	}
}

func TestLivenessHandler(t *testing.T) {
	handler := New(0).LivenessHandler()

	tests := []struct {
		method   string
		wantCode int
		wantBody bool
	}{
		{http.MethodGet, http.StatusOK, true},
		{http.MethodHead, http.StatusOK, false},
		{http.MethodPost, http.StatusMethodNotAllowed, true},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler(rec, httptest.NewRequest(tt.method, "/health", nil))

			if rec.Code != tt.wantCode {
				t.Errorf("expected status %d, got %d", tt.wantCode, rec.Code)
			}
			if (rec.Body.Len() > 0) != tt.wantBody {
				t.Errorf("unexpected body presence: %q", rec.Body.String())
			}
		})
	}
}

func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		name     string
		check    CheckFunc
		wantCode int
		want     string
	}{
		{"ready", func(ctx context.Context) error { return nil }, http.StatusOK, StatusReady},
		{"degraded", func(ctx context.Context) error { return errors.New("down") }, http.StatusServiceUnavailable, StatusDegraded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := New(time.Second)
			checker.RegisterCheck("store", tt.check)

			rec := httptest.NewRecorder()
			checker.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

			if rec.Code != tt.wantCode {
				t.Errorf("expected status %d, got %d", tt.wantCode, rec.Code)
			}
			var status HealthStatus
			if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if status.Status != tt.want {
				t.Errorf("expected %q, got %q", tt.want, status.Status)
			}
		})
	}
}

func TestCheckResult_DurationInMilliseconds(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		want     string
	}{
		{"whole milliseconds", 350 * time.Millisecond, `{"status":"ok","duration_ms":350}`},
		{"sub millisecond", 1500 * time.Microsecond, `{"status":"ok","duration_ms":1.5}`},
		{"zero omitted", 0, `{"status":"ok"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(CheckResult{Status: StatusOK, Duration: tt.duration})
			if err != nil {
				t.Fatalf("marshal failed: %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("expected %s, got %s", tt.want, data)
			}

			var decoded CheckResult
			if err := json.Unmarshal(data, &decoded); err != nil {
				t.Fatalf("unmarshal failed: %v", err)
			}
			if decoded.Duration != tt.duration {
				t.Errorf("expected duration %v, got %v", tt.duration, decoded.Duration)
			}
		})
	}
}

func TestReadinessHandler_ReportsCheckDuration(t *testing.T) {
	checker := New(time.Second)
	checker.RegisterCheck("store", func(ctx context.Context) error {
		time.Sleep(5 * time.Millisecond)
		return nil
	})

	rec := httptest.NewRecorder()
	checker.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	var body struct {
		Checks map[string]struct {
			DurationMS float64 `json:"duration_ms"`
		} `json:"checks"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	got := body.Checks["store"].DurationMS
	if got < 5 || got > 1000 {
		t.Errorf("expected store duration in milliseconds, got %v", got)
	}
}

func TestHandlers_RejectWrites(t *testing.T) {
	handlers := map[string]http.HandlerFunc{
		"liveness":  New(0).LivenessHandler(),
		"readiness": New(0).ReadinessHandler(),
		"version":   VersionHandler("dev", "", ""),
	}

	for name, handler := range handlers {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler(rec, httptest.NewRequest(http.MethodPut, "/", nil))
			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("expected 405, got %d", rec.Code)
			}
			if allow := rec.Header().Get("Allow"); allow != "GET, HEAD" {
				t.Errorf("expected Allow header, got %q", allow)
			}
		})
	}
}

func TestVersionHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	VersionHandler("1.2.3", "abc123", "2024-12-01")(rec, httptest.NewRequest(http.MethodGet, "/version", nil))

	var info VersionInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if info.Version != "1.2.3" || info.Commit != "abc123" || info.GoVersion == "" {
		t.Errorf("unexpected version info %+v", info)
	}
}

func TestMount(t *testing.T) {
	cfg := config.HealthConfig{
		LivenessPath:  "/livez",
		ReadinessPath: "/readyz",
		VersionPath:   "/about",
	}
	mux := http.NewServeMux()
	Mount(mux, New(time.Second), cfg, VersionInfo{Version: "dev"})

	for _, path := range []string{"/livez", "/readyz", "/about"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}
