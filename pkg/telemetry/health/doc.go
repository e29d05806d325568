// Package health provides health check endpoints for the archivist server.
//
// # Endpoints
//
//   - /health: liveness, always ok while the process serves HTTP
//   - /ready: readiness, runs the registered checks (store ping, configuration)
//   - /version: build information
//
// Paths are configurable through config.HealthConfig.
//
// # Usage
//
//	checker := health.New(cfg.Telemetry.Health.CheckTimeout)
//	checker.RegisterCheck("store", health.PingCheck(repo))
//	checker.RegisterCheck("config", health.ConfigCheck(config.GetConfig))
//	health.Mount(mux, checker, cfg.Telemetry.Health, health.VersionInfo{Version: version})
//
// Readiness answers 503 Service Unavailable while any check is unhealthy.
package health
