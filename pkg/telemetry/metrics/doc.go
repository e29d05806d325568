// Package metrics provides Prometheus metrics for archival runs.
//
// # Overview
//
// The Collector implements archive.Recorder. The controller hands it every
// finished RunSummary and the collector turns the summary into counters,
// a duration histogram and last-run gauges on its own registry.
//
// # Metrics
//
// With the default namespace "archivist" and subsystem "job":
//
//   - archivist_job_runs_total{status}: runs by status ("success", "partial", "failed")
//   - archivist_job_items_evaluated_total: leaf items classified
//   - archivist_job_items_moved_total{kind}: successful moves ("folder", "item")
//   - archivist_job_items_skipped_total{verdict}: items left in place
//   - archivist_job_move_failures_total: moves rejected by the store
//   - archivist_job_run_errors_total{op}: recorded run errors by operation
//   - archivist_job_run_duration_seconds: run duration histogram
//   - archivist_job_last_run_timestamp_seconds: finish time of the last run
//   - archivist_job_last_success_timestamp_seconds: finish time of the last clean run
//
// Dry runs are counted under runs_total but never increment moved or failure
// counters.
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	controller := archive.NewController(repo, archive.Config{Recorder: collector})
//	mux.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
package metrics
