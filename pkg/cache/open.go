package cache

import (
	"fmt"
	"strings"

	"igproxy/pkg/config"
)

// Open returns the backend selected by the cache configuration
func Open(cfg config.CacheConfig) (Cache, error) {
	switch strings.ToLower(cfg.Backend) {
	case config.BackendMemory, "":
		return NewMemoryCache(cfg.MaxEntries), nil
	case config.BackendBadger:
		return OpenBadger(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
