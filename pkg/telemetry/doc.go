// Package telemetry groups the observability packages of the archivist.
//
// # Components
//
//   - logging: slog setup and context-carried request and run identifiers
//   - metrics: Prometheus metrics for archival runs
//   - health: liveness, readiness and version endpoints
//   - tracing: OpenTelemetry spans for runs, moves and HTTP requests
//
// # Usage
//
//	logger, err := logging.New(logging.Config{Level: cfg.Telemetry.Logging.Level})
//	slog.SetDefault(logger)
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//
//	checker := health.New(cfg.Telemetry.Health.CheckTimeout)
//	checker.RegisterCheck("store", health.PingCheck(repo))
package telemetry
