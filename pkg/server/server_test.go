package server

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/archivist/pkg/config"
	"mercator-hq/archivist/pkg/content/storage"
	"mercator-hq/archivist/pkg/telemetry/health"
	"mercator-hq/archivist/pkg/telemetry/metrics"
)

func testServerConfig() *config.ServerConfig {
	return &config.ServerConfig{
		Enabled:         true,
		ListenAddress:   "127.0.0.1:0",
		ReadTimeout:     time.Second,
		WriteTimeout:    time.Second,
		IdleTimeout:     time.Second,
		ShutdownTimeout: time.Second,
	}
}

func waitForAddr(t *testing.T, srv *Server) string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if addr := srv.Addr(); addr != nil {
			return "http://" + addr.String()
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("server did not start")
	return ""
}

func TestServer_StartAndShutdown(t *testing.T) {
	checker := health.New(time.Second)
	checker.RegisterCheck("store", health.PingCheck(storage.NewMemoryStorage()))

	mcfg := &config.MetricsConfig{Enabled: true}
	collector := metrics.NewCollector(mcfg, prometheus.NewRegistry())

	srv := New(testServerConfig(), Options{
		Runner:   &fakeRunner{},
		Requests: baseRequest,
		Checker:  checker,
		Health: config.HealthConfig{
			LivenessPath:  "/health",
			ReadinessPath: "/ready",
			VersionPath:   "/version",
		},
		Version:     health.VersionInfo{Version: "test"},
		Metrics:     collector.Handler(),
		MetricsPath: "/metrics",
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(ctx) }()

	base := waitForAddr(t, srv)
	if !srv.IsRunning() {
		t.Error("expected server to be running")
	}

	for _, path := range []string{"/health", "/ready", "/version", "/metrics", "/trigger"} {
		resp, err := http.Get(base + path)
		if err != nil {
			t.Fatalf("GET %s failed: %v", path, err)
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, resp.StatusCode)
		}
	}

	resp, err := http.Get(base + "/unknown")
	if err != nil {
		t.Fatalf("GET /unknown failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET /unknown = %d, want 404", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Start returned error: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
	if srv.IsRunning() {
		t.Error("expected server to be stopped")
	}
}

func TestServer_StartTwice(t *testing.T) {
	srv := New(testServerConfig(), Options{Runner: &fakeRunner{}, Requests: baseRequest})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = srv.Start(ctx) }()
	waitForAddr(t, srv)

	err := srv.Start(ctx)
	if err == nil || !strings.Contains(err.Error(), "already running") {
		t.Errorf("expected already running error, got %v", err)
	}
}

func TestServer_ListenError(t *testing.T) {
	cfg := testServerConfig()
	cfg.ListenAddress = "256.0.0.1:99999"
	srv := New(cfg, Options{Runner: &fakeRunner{}, Requests: baseRequest})

	if err := srv.Start(context.Background()); err == nil {
		t.Fatal("expected listen error")
	}
	if srv.IsRunning() {
		t.Error("server must not be running after a listen error")
	}
}
