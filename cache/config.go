package cache

import (
	"maps"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/goliatone/go-catalog-cache/internal/cacheinfra"
)

// Forever is the retention for types that declare no expiration.
const Forever = cacheinfra.Forever

// Config exposes cache configuration options for consumers of the cache package.
type Config struct {
	Capacity           int
	NumShards          int
	TTL                time.Duration
	EvictionPercentage int
	EvictionInterval   time.Duration
	// Expirations overrides TTL per type. Zero disables caching for a type.
	Expirations map[string]time.Duration
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() Config {
	return convertFromInternal(cacheinfra.DefaultConfig())
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	return c.toInternal().Validate()
}

// TTLFor resolves the retention for a type.
func (c Config) TTLFor(typeName string) time.Duration {
	if ttl, ok := c.Expirations[typeName]; ok {
		return ttl
	}
	return c.TTL
}

// NewCacheService constructs the in-process cache service.
func NewCacheService(cfg Config) (CacheService, error) {
	service, err := cacheinfra.NewSturdycService(cfg.toInternal())
	if err != nil {
		return nil, err
	}
	return service, nil
}

// Codec encodes values for out-of-process cache services.
type Codec = cacheinfra.Codec

// NewRedisCacheService constructs a cache service backed by Redis. Values
// are encoded with codec, which must know every cached type.
func NewRedisCacheService(client redis.UniversalClient, codec Codec) CacheService {
	return cacheinfra.NewRedisService(client, codec)
}

func (c Config) toInternal() cacheinfra.Config {
	return cacheinfra.Config{
		Capacity:           c.Capacity,
		NumShards:          c.NumShards,
		TTL:                c.TTL,
		EvictionPercentage: c.EvictionPercentage,
		EvictionInterval:   c.EvictionInterval,
		Expirations:        maps.Clone(c.Expirations),
	}
}

func convertFromInternal(cfg cacheinfra.Config) Config {
	return Config{
		Capacity:           cfg.Capacity,
		NumShards:          cfg.NumShards,
		TTL:                cfg.TTL,
		EvictionPercentage: cfg.EvictionPercentage,
		EvictionInterval:   cfg.EvictionInterval,
		Expirations:        maps.Clone(cfg.Expirations),
	}
}
