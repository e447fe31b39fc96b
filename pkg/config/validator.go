package config

import (
	"fmt"
	"strings"
)

// Validate checks settings that cannot be defaulted.
func Validate(s *Settings) error {
	switch s.Cache.Backend {
	case "memory":
		if s.Cache.Capacity <= 0 || s.Cache.NumShards <= 0 {
			return fmt.Errorf("cache.capacity and cache.num_shards must be positive")
		}
	case "redis":
		if s.Cache.Redis.Addr == "" {
			return fmt.Errorf("cache.redis.addr is required when cache.backend is redis")
		}
	default:
		return fmt.Errorf("cache.backend must be memory or redis, got %q", s.Cache.Backend)
	}
	if s.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive")
	}
	for typeName, ttl := range s.Cache.Expirations {
		if ttl < 0 {
			return fmt.Errorf("cache.expirations.%s cannot be negative", typeName)
		}
	}

	if s.Store.Enabled {
		if s.Store.Driver != "sqlite3" && s.Store.Driver != "postgres" {
			return fmt.Errorf("store.driver must be sqlite3 or postgres, got %q", s.Store.Driver)
		}
		if s.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required when the store is enabled")
		}
	}

	if s.Remote.BaseURL != "" && !strings.HasPrefix(s.Remote.BaseURL, "http") {
		return fmt.Errorf("remote.base_url must be an http(s) url")
	}
	if s.Remote.RateLimit < 0 {
		return fmt.Errorf("remote.rate_limit cannot be negative")
	}

	switch strings.ToLower(s.Log.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", s.Log.Format)
	}

	if s.Catalog.Platform == "" || s.Catalog.Locale == "" {
		return fmt.Errorf("catalog.platform and catalog.locale are required")
	}
	return nil
}
