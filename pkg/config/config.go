// Package config loads process settings for the catalog cache from a file
// and environment variables.
//
// Example usage:
//
//	cfg, err := config.Load("catalog.yaml", "CATALOG")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"time"
)

// Settings is the complete configuration of a catalog process.
type Settings struct {
	Cache   CacheConfig   `mapstructure:"cache"`
	Store   StoreConfig   `mapstructure:"store"`
	Remote  RemoteConfig  `mapstructure:"remote"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Catalog CatalogConfig `mapstructure:"catalog"`
}

// CacheConfig selects and sizes the cache primitive.
type CacheConfig struct {
	Backend            string                   `mapstructure:"backend"` // memory, redis
	Namespace          string                   `mapstructure:"namespace"`
	Capacity           int                      `mapstructure:"capacity"`
	NumShards          int                      `mapstructure:"num_shards"`
	TTL                time.Duration            `mapstructure:"ttl"`
	EvictionPercentage int                      `mapstructure:"eviction_percentage"`
	EvictionInterval   time.Duration            `mapstructure:"eviction_interval"`
	Expirations        map[string]time.Duration `mapstructure:"expirations"`
	Redis              RedisConfig              `mapstructure:"redis"`
}

// RedisConfig addresses the shared Redis cache.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// StoreConfig configures the local persistent store.
type StoreConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Driver  string `mapstructure:"driver"` // sqlite3, postgres
	DSN     string `mapstructure:"dsn"`
	Migrate bool   `mapstructure:"migrate"`
}

// RemoteConfig configures the catalog API client.
type RemoteConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	APIKey     string        `mapstructure:"api_key"`
	Timeout    time.Duration `mapstructure:"timeout"`
	RetryCount int           `mapstructure:"retry_count"`
	RetryWait  time.Duration `mapstructure:"retry_wait"`
	RateLimit  float64       `mapstructure:"rate_limit"`
	Burst      int           `mapstructure:"burst"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
	Output string `mapstructure:"output"` // stdout, stderr
}

// MetricsConfig configures the Prometheus collectors.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// CatalogConfig holds the request defaults of the catalog domain.
type CatalogConfig struct {
	Platform string `mapstructure:"platform"`
	Locale   string `mapstructure:"locale"`
}
