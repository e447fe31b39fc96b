package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Load reads settings from configPath, when given, and from environment
// variables named after envPrefix (CATALOG -> CATALOG_REMOTE_BASE_URL).
func Load(configPath, envPrefix string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	if envPrefix != "" {
		v.SetEnvPrefix(envPrefix)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&s); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &s, nil
}

// MustLoad loads settings and panics on error.
func MustLoad(configPath, envPrefix string) *Settings {
	s, err := Load(configPath, envPrefix)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return s
}

// Defaults returns the settings used when nothing is configured.
func Defaults() Settings {
	return Settings{
		Cache: CacheConfig{
			Backend:            "memory",
			Capacity:           10000,
			NumShards:          256,
			TTL:                100 * 365 * 24 * time.Hour,
			EvictionPercentage: 10,
		},
		Store: StoreConfig{
			Driver:  "sqlite3",
			DSN:     "file:catalog.db?cache=shared",
			Migrate: true,
		},
		Remote: RemoteConfig{
			Timeout:    10 * time.Second,
			RetryCount: 2,
			RetryWait:  200 * time.Millisecond,
			RateLimit:  20,
			Burst:      20,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Metrics: MetricsConfig{
			Namespace: "catalog",
		},
		Catalog: CatalogConfig{
			Platform: "NA1",
			Locale:   "en_US",
		},
	}
}

// setDefaults registers every key so environment variables can override
// settings absent from the file.
func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("cache.backend", d.Cache.Backend)
	v.SetDefault("cache.namespace", d.Cache.Namespace)
	v.SetDefault("cache.capacity", d.Cache.Capacity)
	v.SetDefault("cache.num_shards", d.Cache.NumShards)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("cache.eviction_percentage", d.Cache.EvictionPercentage)
	v.SetDefault("cache.eviction_interval", d.Cache.EvictionInterval)
	v.SetDefault("cache.redis.addr", "")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)

	v.SetDefault("store.enabled", d.Store.Enabled)
	v.SetDefault("store.driver", d.Store.Driver)
	v.SetDefault("store.dsn", d.Store.DSN)
	v.SetDefault("store.migrate", d.Store.Migrate)

	v.SetDefault("remote.base_url", d.Remote.BaseURL)
	v.SetDefault("remote.api_key", d.Remote.APIKey)
	v.SetDefault("remote.timeout", d.Remote.Timeout)
	v.SetDefault("remote.retry_count", d.Remote.RetryCount)
	v.SetDefault("remote.retry_wait", d.Remote.RetryWait)
	v.SetDefault("remote.rate_limit", d.Remote.RateLimit)
	v.SetDefault("remote.burst", d.Remote.Burst)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.output", d.Log.Output)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.namespace", d.Metrics.Namespace)

	v.SetDefault("catalog.platform", d.Catalog.Platform)
	v.SetDefault("catalog.locale", d.Catalog.Locale)
}
