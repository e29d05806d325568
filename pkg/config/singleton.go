package config

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"mercator-hq/archivist/pkg/archive"
)

// ErrNotInitialized is returned by accessors used before Initialize.
var ErrNotInitialized = errors.New("configuration not initialized")

// Snapshot is the active configuration together with where and when it was
// loaded. Generation starts at 1 and grows with every successful reload.
type Snapshot struct {
	Config     *Config
	Path       string
	Generation uint64
	LoadedAt   time.Time
}

var (
	current  Snapshot
	mu       sync.RWMutex
	initOnce sync.Once
)

func store(cfg *Config, path string) {
	mu.Lock()
	defer mu.Unlock()
	current = Snapshot{
		Config:     cfg,
		Path:       path,
		Generation: current.Generation + 1,
		LoadedAt:   time.Now(),
	}
}

// Initialize loads the configuration at path with environment overrides and
// installs it process-wide. Only the first call has any effect.
func Initialize(path string) error {
	var initErr error
	initOnce.Do(func() {
		cfg, err := LoadConfigWithEnvOverrides(path)
		if err != nil {
			initErr = err
			return
		}
		store(cfg, path)
	})
	return initErr
}

// GetConfig returns the active configuration, or nil before Initialize.
func GetConfig() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return current.Config
}

// Current returns the active configuration snapshot.
func Current() Snapshot {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// SetConfig installs cfg directly. Intended for tests.
func SetConfig(cfg *Config) {
	store(cfg, "")
}

// ReloadConfig loads the configuration at path again. On failure the active
// configuration is kept.
func ReloadConfig(path string) error {
	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return fmt.Errorf("failed to reload configuration: %w", err)
	}
	store(cfg, path)
	return nil
}

// MustGetConfig is GetConfig for code that runs after a successful
// Initialize. It panics otherwise.
func MustGetConfig() *Config {
	cfg := GetConfig()
	if cfg == nil {
		panic("configuration not initialized: call Initialize first")
	}
	return cfg
}

// CurrentRequest builds the run request from the active job section, so a
// reloaded configuration applies to the next triggered run.
func CurrentRequest() (archive.Request, error) {
	cfg := GetConfig()
	if cfg == nil {
		return archive.Request{}, ErrNotInitialized
	}
	return cfg.Job.Request()
}
