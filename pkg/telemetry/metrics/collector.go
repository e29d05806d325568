package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/archivist/pkg/archive"
	"mercator-hq/archivist/pkg/config"
)

// Collector records archival run metrics on a Prometheus registry.
// It implements archive.Recorder.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	runMetrics *RunMetrics
}

var _ archive.Recorder = (*Collector)(nil)

// NewCollector creates a new metrics collector with the specified configuration
// and Prometheus registry. If registry is nil, a fresh registry is created.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(cfg.RunDurationBuckets) == 0 {
		cfg.RunDurationBuckets = append([]float64(nil), config.DefaultRunDurationBuckets...)
	}

	return &Collector{
		config:     cfg,
		registry:   registry,
		runMetrics: NewRunMetrics(cfg, registry),
	}
}

// RecordRun records the metrics of a finished run.
func (c *Collector) RecordRun(summary *archive.RunSummary) {
	if !c.config.Enabled || summary == nil {
		return
	}

	rm := c.runMetrics
	status := RunStatus(summary)
	rm.runsTotal.WithLabelValues(status).Inc()
	rm.evaluatedTotal.Add(float64(summary.EvaluatedCount))

	if ineligible := summary.SkippedCount - summary.IndeterminateCount; ineligible > 0 {
		rm.skippedTotal.WithLabelValues("ineligible").Add(float64(ineligible))
	}
	if summary.IndeterminateCount > 0 {
		rm.skippedTotal.WithLabelValues("indeterminate").Add(float64(summary.IndeterminateCount))
	}

	for _, kind := range []archive.MoveKind{archive.KindWholeFolder, archive.KindSingleItem} {
		if n := summary.MovedByKind(kind); n > 0 {
			rm.movedTotal.WithLabelValues(string(kind)).Add(float64(n))
		}
	}
	if summary.FailedCount > 0 {
		rm.moveFailures.Add(float64(summary.FailedCount))
	}
	for _, err := range summary.Errors {
		rm.errorsTotal.WithLabelValues(err.Op).Inc()
	}

	if !summary.StartedAt.IsZero() && !summary.FinishedAt.IsZero() {
		rm.runDuration.Observe(summary.Duration().Seconds())
	}

	finished := float64(summary.FinishedAt.Unix())
	rm.lastRun.Set(finished)
	if status == StatusSuccess {
		rm.lastSuccess.Set(finished)
	}
	rm.movesInLastRun.Set(float64(summary.MovedCount))
	rm.errorsInLastRun.Set(float64(len(summary.Errors)))
}

// RunStatus returns the status label for a finished run: "failed" when the
// run aborted or its commit failed, "partial" when it completed with errors,
// and "success" otherwise.
func RunStatus(summary *archive.RunSummary) string {
	switch {
	case summary.State == archive.StateFailed:
		return StatusFailed
	case summary.HasErrors():
		return StatusPartial
	default:
		return StatusSuccess
	}
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
