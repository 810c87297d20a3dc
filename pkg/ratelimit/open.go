package ratelimit

import (
	"fmt"
	"strings"

	"igproxy/pkg/config"
)

// Open builds the inbound limiter described by the rate limit configuration.
// It returns nil when limiting is disabled.
func Open(cfg config.RateLimitConfig) (*FixedWindow, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	var store Store
	switch strings.ToLower(cfg.Backend) {
	case config.BackendMemory, "":
		store = NewMemoryStore()
	case config.BackendBadger:
		s, err := OpenBadgerStore(cfg.Path)
		if err != nil {
			return nil, err
		}
		store = s
	default:
		return nil, fmt.Errorf("unknown rate limit backend %q", cfg.Backend)
	}
	return NewFixedWindow(store, cfg.MaxRequests, cfg.Window), nil
}
