package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/archivist/pkg/config"
)

// Run status label values.
const (
	StatusSuccess = "success"
	StatusPartial = "partial"
	StatusFailed  = "failed"
)

// RunMetrics tracks metrics related to archival runs.
type RunMetrics struct {
	runsTotal       *prometheus.CounterVec
	evaluatedTotal  prometheus.Counter
	movedTotal      *prometheus.CounterVec
	skippedTotal    *prometheus.CounterVec
	moveFailures    prometheus.Counter
	errorsTotal     *prometheus.CounterVec
	runDuration     prometheus.Histogram
	lastRun         prometheus.Gauge
	lastSuccess     prometheus.Gauge
	movesInLastRun  prometheus.Gauge
	errorsInLastRun prometheus.Gauge
}

// NewRunMetrics creates and registers run metrics with the provided registry.
func NewRunMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RunMetrics {
	rm := &RunMetrics{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "runs_total",
				Help:      "Total number of archival runs by status",
			},
			[]string{"status"},
		),

		evaluatedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "items_evaluated_total",
				Help:      "Total number of content items classified",
			},
		),

		movedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "items_moved_total",
				Help:      "Total number of successful moves by kind",
			},
			[]string{"kind"},
		),

		skippedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "items_skipped_total",
				Help:      "Total number of content items left in place by verdict",
			},
			[]string{"verdict"},
		),

		moveFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "move_failures_total",
				Help:      "Total number of moves rejected by the content store",
			},
		),

		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "run_errors_total",
				Help:      "Total number of run errors by operation",
			},
			[]string{"op"},
		),

		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "run_duration_seconds",
				Help:      "Duration of archival runs in seconds",
				Buckets:   cfg.RunDurationBuckets,
			},
		),

		lastRun: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time the last archival run finished",
			},
		),

		lastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "last_success_timestamp_seconds",
				Help:      "Unix time the last archival run without errors finished",
			},
		),

		movesInLastRun: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "last_run_moves",
				Help:      "Number of successful moves in the last archival run",
			},
		),

		errorsInLastRun: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "last_run_errors",
				Help:      "Number of errors recorded by the last archival run",
			},
		),
	}

	registry.MustRegister(
		rm.runsTotal,
		rm.evaluatedTotal,
		rm.movedTotal,
		rm.skippedTotal,
		rm.moveFailures,
		rm.errorsTotal,
		rm.runDuration,
		rm.lastRun,
		rm.lastSuccess,
		rm.movesInLastRun,
		rm.errorsInLastRun,
	)

	return rm
}
