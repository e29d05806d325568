package health

import (
	"context"
	"errors"
	"fmt"

	"mercator-hq/archivist/pkg/config"
)

// Pinger is implemented by content repositories.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck reports the repository unhealthy when it cannot be reached.
func PingCheck(p Pinger) CheckFunc {
	return func(ctx context.Context) error {
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("store unreachable: %w", err)
		}
		return nil
	}
}

// ConfigCheck reports unhealthy while no configuration is loaded.
func ConfigCheck(get func() *config.Config) CheckFunc {
	return func(ctx context.Context) error {
		if get() == nil {
			return errors.New("configuration not loaded")
		}
		return nil
	}
}
