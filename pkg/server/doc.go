// Package server provides the HTTP trigger for archival runs.
//
// The server exposes:
//
//   - /trigger: runs the configured job once (GET or POST)
//   - /health, /ready, /version: health endpoints (paths configurable)
//   - /metrics: Prometheus metrics when a metrics handler is supplied
//
// # Trigger parameters
//
//	targetDate=YYYY-MM-DD  absolute cutoff at 00:00:00 UTC
//	months=N               cutoff N calendar months before now
//	dryRun=true            plan and log moves without changing the store
//
// Without targetDate or months the configured cutoff is used. The response is
// the run summary as JSON. A trigger received while a run is active answers
// 409 Conflict; malformed parameters answer 400 Bad Request.
//
// When server.api_keys is configured the trigger requires
// "Authorization: Bearer <key>" or an X-API-Key header. Health, version and
// metrics endpoints stay open.
//
// # Basic Usage
//
//	srv := server.New(&cfg.Server, server.Options{
//	    Runner:   controller,
//	    Requests: config.CurrentRequest,
//	    Checker:  checker,
//	    Health:   cfg.Telemetry.Health,
//	})
//	if err := srv.Start(ctx); err != nil {
//	    return err
//	}
package server
