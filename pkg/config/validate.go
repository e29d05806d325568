package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"mercator-hq/archivist/pkg/archive/policy"
	"mercator-hq/archivist/pkg/content"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "job.base_path").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateJob(&cfg.Job)...)
	errs = append(errs, validateStore(&cfg.Store)...)
	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateJob validates the archival job definition.
func validateJob(cfg *JobConfig) []FieldError {
	var errs []FieldError

	errs = append(errs, validateContentPath("job.base_path", cfg.BasePath)...)
	errs = append(errs, validateContentPath("job.target_path", cfg.TargetPath)...)

	if cfg.BasePath != "" && cfg.TargetPath != "" {
		base, target := content.Clean(cfg.BasePath), content.Clean(cfg.TargetPath)
		if content.IsWithin(target, base) || content.IsWithin(base, target) {
			errs = append(errs, FieldError{
				Field:   "job.target_path",
				Message: fmt.Sprintf("target path %q must not overlap base path %q", target, base),
			})
		}
	}

	for i, shadow := range cfg.ShadowPaths {
		field := fmt.Sprintf("job.shadow_paths[%d]", i)
		errs = append(errs, validateContentPath(field, shadow)...)
		if shadow != "" && cfg.TargetPath != "" && content.Clean(shadow) == content.Clean(cfg.TargetPath) {
			errs = append(errs, FieldError{
				Field:   field,
				Message: "shadow path must differ from the target path",
			})
		}
		if shadow != "" && cfg.BasePath != "" {
			sh, base := content.Clean(shadow), content.Clean(cfg.BasePath)
			if content.IsWithin(sh, base) || content.IsWithin(base, sh) {
				errs = append(errs, FieldError{
					Field:   field,
					Message: fmt.Sprintf("shadow path %q must not overlap base path %q", sh, base),
				})
			}
		}
	}

	if cfg.Schedule == "" {
		errs = append(errs, FieldError{
			Field:   "job.schedule",
			Message: "schedule is required",
		})
	} else if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		errs = append(errs, FieldError{
			Field:   "job.schedule",
			Message: fmt.Sprintf("invalid cron expression %q: %v", cfg.Schedule, err),
		})
	}

	if spec, err := cfg.Cutoff.CutoffSpec(); err != nil {
		errs = append(errs, FieldError{
			Field:   "job.cutoff.date",
			Message: err.Error(),
		})
	} else if err := spec.Validate(); err != nil {
		errs = append(errs, FieldError{
			Field:   "job.cutoff",
			Message: err.Error(),
		})
	}

	if _, err := policy.ParseMode(cfg.Policy.Mode); err != nil {
		errs = append(errs, FieldError{
			Field:   "job.policy.mode",
			Message: err.Error(),
		})
	}
	if cfg.Policy.Mode == string(policy.ModeStatusAndCreationDate) && cfg.Policy.CompletedValue == "" {
		errs = append(errs, FieldError{
			Field:   "job.policy.completed_value",
			Message: "completed value is required for status_and_creation_date mode",
		})
	}

	return errs
}

func validateContentPath(field, path string) []FieldError {
	switch {
	case path == "":
		return []FieldError{{Field: field, Message: "path is required"}}
	case !strings.HasPrefix(path, "/"):
		return []FieldError{{Field: field, Message: fmt.Sprintf("path %q must be absolute", path)}}
	case content.Clean(path) == content.Root:
		return []FieldError{{Field: field, Message: "path must not be the root"}}
	}
	return nil
}

// validateStore validates content store configuration.
func validateStore(cfg *StoreConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "memory":
	case "sqlite":
		if cfg.SQLite.Driver != "sqlite" && cfg.SQLite.Driver != "sqlite3" {
			errs = append(errs, FieldError{
				Field:   "store.sqlite.driver",
				Message: fmt.Sprintf("invalid driver %q: must be 'sqlite' or 'sqlite3'", cfg.SQLite.Driver),
			})
		}
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{
				Field:   "store.sqlite.path",
				Message: "database path is required for the sqlite backend",
			})
		}
		if cfg.SQLite.MaxOpenConns < 0 {
			errs = append(errs, FieldError{
				Field:   "store.sqlite.max_open_conns",
				Message: "must not be negative",
			})
		}
		if cfg.SQLite.MaxIdleConns < 0 {
			errs = append(errs, FieldError{
				Field:   "store.sqlite.max_idle_conns",
				Message: "must not be negative",
			})
		}
		if cfg.SQLite.BusyTimeout < 0 {
			errs = append(errs, FieldError{
				Field:   "store.sqlite.busy_timeout",
				Message: "must not be negative",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "store.backend",
			Message: fmt.Sprintf("invalid backend %q: must be 'sqlite' or 'memory'", cfg.Backend),
		})
	}

	return errs
}

// validateServer validates HTTP trigger server configuration.
func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	} else if _, _, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: fmt.Sprintf("invalid listen address %q: %v", cfg.ListenAddress, err),
		})
	}

	timeouts := []struct {
		field string
		value time.Duration
	}{
		{"server.read_timeout", cfg.ReadTimeout},
		{"server.write_timeout", cfg.WriteTimeout},
		{"server.idle_timeout", cfg.IdleTimeout},
		{"server.shutdown_timeout", cfg.ShutdownTimeout},
	}
	for _, t := range timeouts {
		if t.value < 0 {
			errs = append(errs, FieldError{
				Field:   t.field,
				Message: "timeout must not be negative",
			})
		}
	}

	names := make(map[string]bool)
	keys := make(map[string]bool)
	for i, k := range cfg.APIKeys {
		field := fmt.Sprintf("server.api_keys[%d]", i)
		if k.Name == "" {
			errs = append(errs, FieldError{Field: field + ".name", Message: "key name is required"})
		} else if names[k.Name] {
			errs = append(errs, FieldError{Field: field + ".name", Message: fmt.Sprintf("duplicate key name %q", k.Name)})
		}
		if k.Key == "" {
			errs = append(errs, FieldError{Field: field + ".key", Message: "key value is required"})
		} else if keys[k.Key] {
			errs = append(errs, FieldError{Field: field + ".key", Message: "duplicate key value"})
		}
		names[k.Name] = true
		keys[k.Key] = true
	}

	return errs
}

// validateTelemetry validates telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[cfg.Logging.Format] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json' or 'text'", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path must start with '/' when metrics are enabled",
		})
	}
	for i := 1; i < len(cfg.Metrics.RunDurationBuckets); i++ {
		if cfg.Metrics.RunDurationBuckets[i] <= cfg.Metrics.RunDurationBuckets[i-1] {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.run_duration_buckets",
				Message: "buckets must be strictly increasing",
			})
			break
		}
	}

	paths := []struct {
		field string
		value string
	}{
		{"telemetry.health.liveness_path", cfg.Health.LivenessPath},
		{"telemetry.health.readiness_path", cfg.Health.ReadinessPath},
		{"telemetry.health.version_path", cfg.Health.VersionPath},
	}
	for _, p := range paths {
		if !strings.HasPrefix(p.value, "/") {
			errs = append(errs, FieldError{
				Field:   p.field,
				Message: "path must start with '/'",
			})
		}
	}
	if cfg.Health.CheckTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.health.check_timeout",
			Message: "check timeout must be positive",
		})
	}

	if cfg.Tracing.Enabled {
		if cfg.Tracing.Endpoint == "" {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.endpoint",
				Message: "endpoint is required when tracing is enabled",
			})
		}
		switch cfg.Tracing.Sampler {
		case "always", "never", "ratio":
		default:
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.sampler",
				Message: fmt.Sprintf("invalid sampler %q: must be 'always', 'never', or 'ratio'", cfg.Tracing.Sampler),
			})
		}
		if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.sample_ratio",
				Message: "sample ratio must be between 0 and 1",
			})
		}
	}

	return errs
}
