package cacheinfra

import (
	"fmt"
	"time"

	"github.com/viccon/sturdyc"
)

// Forever is the retention used for types without a declared policy.
const Forever = 100 * 365 * 24 * time.Hour

// Config holds the configuration shared by the cache primitives.
type Config struct {
	// Capacity defines the maximum number of entries per TTL bucket.
	// Must be greater than 0.
	Capacity int

	// NumShards determines the number of shards per bucket.
	// Must be greater than 0. Default: 256
	NumShards int

	// TTL is applied to types that declare no expiration of their own.
	// Default: Forever
	TTL time.Duration

	// EvictionPercentage specifies what percentage of entries to evict
	// when a bucket reaches its capacity. Must be between 1-100.
	EvictionPercentage int

	// EvictionInterval sets how often buckets check for expired entries.
	// Zero value uses the default interval.
	EvictionInterval time.Duration

	// Expirations overrides TTL per type name. A zero duration disables
	// caching for that type.
	Expirations map[string]time.Duration
}

// DefaultConfig returns a Config with sensible defaults for most use cases.
func DefaultConfig() Config {
	return Config{
		Capacity:           10000,
		NumShards:          256,
		TTL:                Forever,
		EvictionPercentage: 10,
		Expirations:        map[string]time.Duration{},
	}
}

// TTLFor resolves the retention for a type.
func (c Config) TTLFor(typeName string) time.Duration {
	if ttl, ok := c.Expirations[typeName]; ok {
		return ttl
	}
	return c.TTL
}

// ToSturdycOptions converts the Config to sturdyc options. Capacity, shards,
// TTL and eviction percentage go to sturdyc.New directly.
func (c Config) ToSturdycOptions() []sturdyc.Option {
	var options []sturdyc.Option
	if c.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(c.EvictionInterval))
	}
	return options
}

// Validate checks if the configuration values are valid.
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return &ConfigError{Field: "Capacity", Message: "must be greater than 0"}
	}

	if c.NumShards <= 0 {
		return &ConfigError{Field: "NumShards", Message: "must be greater than 0"}
	}

	if c.TTL <= 0 {
		return &ConfigError{Field: "TTL", Message: "must be greater than 0"}
	}

	if c.EvictionPercentage < 1 || c.EvictionPercentage > 100 {
		return &ConfigError{Field: "EvictionPercentage", Message: "must be between 1 and 100"}
	}

	if c.EvictionInterval < 0 {
		return &ConfigError{Field: "EvictionInterval", Message: "must be non-negative"}
	}

	for typeName, ttl := range c.Expirations {
		if ttl < 0 {
			return &ConfigError{Field: fmt.Sprintf("Expirations[%s]", typeName), Message: "must be non-negative"}
		}
	}

	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}
