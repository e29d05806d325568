package config

import "time"

// Config is the root configuration structure for the archivist.
// It contains the archival job definition, the content store, the HTTP
// trigger server and telemetry settings.
type Config struct {
	// Job describes what is archived, where to, and when.
	Job JobConfig `yaml:"job"`

	// Store selects and configures the content store backend.
	Store StoreConfig `yaml:"store"`

	// Server contains configuration for the HTTP trigger server.
	Server ServerConfig `yaml:"server"`

	// Telemetry contains configuration for logging, metrics and health checks.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// JobConfig contains configuration for the archival job.
type JobConfig struct {
	// BasePath is the content folder whose children are archived.
	// Default: "/content/site/us/en"
	BasePath string `yaml:"base_path"`

	// TargetPath is the primary archive location.
	// Default: "/content/projects"
	TargetPath string `yaml:"target_path"`

	// ShadowPaths are additional locations cleared of items with the same
	// name before each move. Each mirrors the layout below TargetPath.
	ShadowPaths []string `yaml:"shadow_paths"`

	// Schedule is a standard 5-field cron expression for the cron trigger.
	// Example: "0 3 * * *" (daily at 3 AM)
	// Default: "0 3 * * *"
	Schedule string `yaml:"schedule"`

	// Cutoff determines how old content must be to be archived.
	Cutoff CutoffConfig `yaml:"cutoff"`

	// Policy selects the eligibility rule.
	Policy PolicyConfig `yaml:"policy"`

	// DryRun plans and logs moves without changing the store.
	// Default: false
	DryRun bool `yaml:"dry_run"`
}

// CutoffConfig defines the cutoff date. Set either Months or Date.
type CutoffConfig struct {
	// Months is the cutoff relative to the run start, in calendar months.
	// Default: 6 (when Date is empty)
	Months int `yaml:"months"`

	// Date is an absolute cutoff date (YYYY-MM-DD, midnight UTC).
	Date string `yaml:"date"`
}

// PolicyConfig contains configuration for the eligibility policy.
type PolicyConfig struct {
	// Mode is the eligibility rule.
	// Options: "publish_date", "status_and_creation_date"
	// Default: "status_and_creation_date"
	Mode string `yaml:"mode"`

	// PublishDateKey is the metadata property holding the publish date.
	// Default: "publishDate"
	PublishDateKey string `yaml:"publish_date_key"`

	// StatusKey is the metadata property holding the lifecycle status.
	// Default: "status"
	StatusKey string `yaml:"status_key"`

	// CreatedKey is the metadata property holding the creation date.
	// Default: "created"
	CreatedKey string `yaml:"created_key"`

	// CompletedValue is the status value that qualifies for archiving.
	// Default: "COMPLETED"
	CompletedValue string `yaml:"completed_value"`
}

// StoreConfig contains configuration for the content store.
type StoreConfig struct {
	// Backend selects the store implementation.
	// Options: "sqlite", "memory"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLite contains SQLite backend configuration.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// SeedFile is an optional YAML tree document imported at startup.
	// Mostly useful with the memory backend.
	SeedFile string `yaml:"seed_file"`
}

// SQLiteConfig contains SQLite-specific configuration.
type SQLiteConfig struct {
	// Driver is the database/sql driver.
	// Options: "sqlite" (pure Go), "sqlite3" (cgo)
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// Path is the database file path.
	// Default: "data/content.db"
	Path string `yaml:"path"`

	// MaxOpenConns is the maximum number of open connections.
	// Default: 4
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 2
	MaxIdleConns int `yaml:"max_idle_conns"`

	// WALMode enables Write-Ahead Logging.
	// Default: true
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is how long to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// ServerConfig contains configuration for the HTTP trigger server.
type ServerConfig struct {
	// Enabled controls whether `archivist serve` starts the HTTP server.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// ListenAddress is the address and port to listen on.
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. Runs triggered over HTTP must finish within it.
	// Default: 10m
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum time to wait for the next request on a
	// keep-alive connection.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// APIKeys guard the trigger endpoint. The endpoint is open when empty.
	// Health, version and metrics endpoints are never authenticated.
	APIKeys []APIKeyConfig `yaml:"api_keys"`
}

// APIKeyConfig is one key accepted by the trigger endpoint, sent as
// "Authorization: Bearer <key>" or "X-API-Key: <key>".
type APIKeyConfig struct {
	// Name identifies the caller in logs.
	Name string `yaml:"name"`

	// Key is the secret value.
	Key string `yaml:"key"`

	// Disabled rejects the key without removing it.
	Disabled bool `yaml:"disabled"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Health contains health check configuration.
	Health HealthConfig `yaml:"health"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "archivist"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "job"
	Subsystem string `yaml:"subsystem"`

	// RunDurationBuckets defines histogram buckets for run duration (seconds).
	// Default: [1, 5, 15, 30, 60, 300, 900, 1800, 3600]
	RunDurationBuckets []float64 `yaml:"run_duration_buckets"`
}

// HealthConfig contains health check endpoint configuration.
type HealthConfig struct {
	// LivenessPath is the path for the liveness probe endpoint.
	// Default: "/health"
	LivenessPath string `yaml:"liveness_path"`

	// ReadinessPath is the path for the readiness probe endpoint.
	// Default: "/ready"
	ReadinessPath string `yaml:"readiness_path"`

	// VersionPath is the path for the version information endpoint.
	// Default: "/version"
	VersionPath string `yaml:"version_path"`

	// CheckTimeout is the timeout for individual component health checks.
	// Default: 5s
	CheckTimeout time.Duration `yaml:"check_timeout"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether run spans are exported.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "always"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Only used when Sampler is "ratio".
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Example: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS for the collector connection.
	// Default: false
	Insecure bool `yaml:"insecure"`

	// ServiceName is the service name in traces.
	// Default: "archivist"
	ServiceName string `yaml:"service_name"`
}
