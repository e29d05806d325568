package config

import "time"

// Default values for configuration fields.
const (
	// Job defaults
	DefaultJobBasePath     = "/content/site/us/en"
	DefaultJobTargetPath   = "/content/projects"
	DefaultJobSchedule     = "0 3 * * *"
	DefaultJobCutoffMonths = 6
	DefaultPolicyMode      = "status_and_creation_date"
	DefaultPublishDateKey  = "publishDate"
	DefaultStatusKey       = "status"
	DefaultCreatedKey      = "created"
	DefaultCompletedValue  = "COMPLETED"

	// Store defaults
	DefaultStoreBackend       = "sqlite"
	DefaultSQLiteDriver       = "sqlite"
	DefaultSQLitePath         = "data/content.db"
	DefaultSQLiteMaxOpenConns = 4
	DefaultSQLiteMaxIdleConns = 2
	DefaultSQLiteWALMode      = true
	DefaultSQLiteBusyTimeout  = 5 * time.Second

	// Server defaults
	DefaultServerEnabled   = true
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 10 * time.Minute
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// Telemetry defaults
	DefaultLoggingLevel       = "info"
	DefaultLoggingFormat      = "json"
	DefaultMetricsEnabled     = true
	DefaultPrometheusPath     = "/metrics"
	DefaultMetricsNamespace   = "archivist"
	DefaultMetricsSubsystem   = "job"
	DefaultLivenessPath       = "/health"
	DefaultReadinessPath      = "/ready"
	DefaultVersionPath        = "/version"
	DefaultHealthCheckTimeout = 5 * time.Second
	DefaultTracingSampler     = "always"
	DefaultTracingSampleRatio = 1.0
	DefaultTracingServiceName = "archivist"
)

// DefaultRunDurationBuckets are the default run duration histogram buckets
// in seconds.
var DefaultRunDurationBuckets = []float64{1, 5, 15, 30, 60, 300, 900, 1800, 3600}

// DefaultConfig returns a configuration with every default applied,
// including the boolean defaults that ApplyDefaults cannot infer from zero
// values. Files are decoded on top of it.
func DefaultConfig() *Config {
	cfg := &Config{
		Store: StoreConfig{
			SQLite: SQLiteConfig{WALMode: DefaultSQLiteWALMode},
		},
		Server: ServerConfig{Enabled: DefaultServerEnabled},
		Telemetry: TelemetryConfig{
			Metrics: MetricsConfig{Enabled: DefaultMetricsEnabled},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Job defaults
	if cfg.Job.BasePath == "" {
		cfg.Job.BasePath = DefaultJobBasePath
	}
	if cfg.Job.TargetPath == "" {
		cfg.Job.TargetPath = DefaultJobTargetPath
	}
	if cfg.Job.Schedule == "" {
		cfg.Job.Schedule = DefaultJobSchedule
	}
	if cfg.Job.Cutoff.Date == "" && cfg.Job.Cutoff.Months == 0 {
		cfg.Job.Cutoff.Months = DefaultJobCutoffMonths
	}
	applyPolicyDefaults(&cfg.Job.Policy)

	// Store defaults
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = DefaultStoreBackend
	}
	if cfg.Store.SQLite.Driver == "" {
		cfg.Store.SQLite.Driver = DefaultSQLiteDriver
	}
	if cfg.Store.SQLite.Path == "" {
		cfg.Store.SQLite.Path = DefaultSQLitePath
	}
	if cfg.Store.SQLite.MaxOpenConns == 0 {
		cfg.Store.SQLite.MaxOpenConns = DefaultSQLiteMaxOpenConns
	}
	if cfg.Store.SQLite.MaxIdleConns == 0 {
		cfg.Store.SQLite.MaxIdleConns = DefaultSQLiteMaxIdleConns
	}
	if cfg.Store.SQLite.BusyTimeout == 0 {
		cfg.Store.SQLite.BusyTimeout = DefaultSQLiteBusyTimeout
	}

	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultPrometheusPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(cfg.Telemetry.Metrics.RunDurationBuckets) == 0 {
		cfg.Telemetry.Metrics.RunDurationBuckets = append([]float64(nil), DefaultRunDurationBuckets...)
	}
	if cfg.Telemetry.Health.LivenessPath == "" {
		cfg.Telemetry.Health.LivenessPath = DefaultLivenessPath
	}
	if cfg.Telemetry.Health.ReadinessPath == "" {
		cfg.Telemetry.Health.ReadinessPath = DefaultReadinessPath
	}
	if cfg.Telemetry.Health.VersionPath == "" {
		cfg.Telemetry.Health.VersionPath = DefaultVersionPath
	}
	if cfg.Telemetry.Health.CheckTimeout == 0 {
		cfg.Telemetry.Health.CheckTimeout = DefaultHealthCheckTimeout
	}
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
}

func applyPolicyDefaults(p *PolicyConfig) {
	if p.Mode == "" {
		p.Mode = DefaultPolicyMode
	}
	if p.PublishDateKey == "" {
		p.PublishDateKey = DefaultPublishDateKey
	}
	if p.StatusKey == "" {
		p.StatusKey = DefaultStatusKey
	}
	if p.CreatedKey == "" {
		p.CreatedKey = DefaultCreatedKey
	}
	if p.CompletedValue == "" {
		p.CompletedValue = DefaultCompletedValue
	}
}
