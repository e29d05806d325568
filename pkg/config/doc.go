// Package config provides configuration management for the archivist.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides. It provides a type-safe
// configuration system with validation and sensible defaults.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("archivist.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("archivist.yaml")
//
// An empty path loads the defaults.
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention ARCHIVIST_SECTION_FIELD.
// For example:
//
//   - ARCHIVIST_JOB_BASE_PATH overrides job.base_path
//   - ARCHIVIST_JOB_SHADOW_PATHS overrides job.shadow_paths (comma-separated)
//   - ARCHIVIST_STORE_SQLITE_PATH overrides store.sqlite.path
//   - ARCHIVIST_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// Environment variables always take precedence over file-based configuration.
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Singleton Pattern
//
// For application-wide configuration access, use the singleton pattern:
//
//	// At application startup
//	if err := config.Initialize("archivist.yaml"); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Anywhere in the application
//	cfg := config.GetConfig()
//	fmt.Println(cfg.Job.BasePath)
//
// In serve mode a Watcher reloads the file when it changes; the next run
// picks up the reloaded job section.
//
// # Validation
//
// All configuration is validated automatically during loading. All errors
// are collected into a single ValidationError:
//
//	cfg, err := config.LoadConfig("archivist.yaml")
//	var verr config.ValidationError
//	if errors.As(err, &verr) {
//	    for _, fe := range verr.Errors {
//	        fmt.Printf("%s: %s\n", fe.Field, fe.Message)
//	    }
//	}
package config
