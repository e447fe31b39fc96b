package di

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-catalog-cache/cache"
	"github.com/goliatone/go-catalog-cache/catalog"
	"github.com/goliatone/go-catalog-cache/codec"
	"github.com/goliatone/go-catalog-cache/entity"
	"github.com/goliatone/go-catalog-cache/internal/localstore"
	"github.com/goliatone/go-catalog-cache/keys"
	"github.com/goliatone/go-catalog-cache/pipeline"
	"github.com/goliatone/go-catalog-cache/pkg/config"
	"github.com/goliatone/go-catalog-cache/pkg/logging"
	"github.com/goliatone/go-catalog-cache/pkg/metrics"
	"github.com/goliatone/go-catalog-cache/remote"
)

// Stage priorities. Lower runs first.
const (
	PriorityCache   = 0
	PriorityStore   = 10
	PriorityRelease = 20
	PriorityRemote  = 30
)

// Option customizes how a Container is assembled.
type Option func(*options)

type options struct {
	logger     *zerolog.Logger
	registerer prometheus.Registerer
	redis      redis.UniversalClient
	remote     pipeline.Source
	stages     []pipeline.Stage
}

// WithLogger replaces the logger built from the log settings.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = &logger
	}
}

// WithRegisterer registers metrics on reg instead of a private registry.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithRedisClient uses client for the redis backend instead of dialing the
// configured address. The container does not close it.
func WithRedisClient(client redis.UniversalClient) Option {
	return func(o *options) {
		o.redis = client
	}
}

// WithRemote replaces the HTTP source built from the remote settings.
func WithRemote(source pipeline.Source) Option {
	return func(o *options) {
		o.remote = source
	}
}

// WithStages adds stages to the pipeline next to the configured ones.
func WithStages(stages ...pipeline.Stage) Option {
	return func(o *options) {
		o.stages = append(o.stages, stages...)
	}
}

// Container owns every component of a catalog process, assembled from
// settings: cache, optional local store, release metadata, remote source,
// pipeline, loader and the catalog itself.
type Container struct {
	settings     config.Settings
	logger       zerolog.Logger
	metrics      *metrics.Collector
	registry     *keys.Registry
	transformers *pipeline.Transformers
	codec        *codec.Codec
	cacheConfig  cache.Config
	cacheService cache.CacheService
	store        *cache.Store
	local        *localstore.Stage
	pipeline     *pipeline.Pipeline
	loader       *entity.Loader
	catalog      *catalog.Catalog
	closers      []func() error
}

// New assembles a container. Components that hold connections are released
// by Close, including when New fails partway.
func New(ctx context.Context, settings config.Settings, opts ...Option) (c *Container, err error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	c = &Container{settings: settings}
	defer func() {
		if err != nil {
			c.Close()
			c = nil
		}
	}()

	if o.logger != nil {
		c.logger = *o.logger
	} else {
		c.logger = logging.New(settings.Log)
	}

	if settings.Metrics.Enabled {
		reg := o.registerer
		if reg == nil {
			reg = prometheus.NewRegistry()
		}
		if c.metrics, err = metrics.New(reg, settings.Metrics.Namespace); err != nil {
			return c, err
		}
	}

	c.registry = keys.NewRegistry()
	c.transformers = pipeline.NewTransformers()
	defaults := catalog.Defaults{Platform: settings.Catalog.Platform, Locale: settings.Catalog.Locale}
	if err = catalog.Register(c.registry, c.transformers, defaults); err != nil {
		return c, err
	}
	c.codec = codec.New(catalog.Records()...)

	c.cacheConfig = CacheConfig(settings.Cache)
	if err = c.cacheConfig.Validate(); err != nil {
		return c, err
	}
	if c.cacheService, err = c.newCacheService(o); err != nil {
		return c, err
	}
	c.store = cache.NewStore(c.cacheService, c.registry,
		cache.WithConfig(c.cacheConfig),
		cache.WithNamespace(settings.Cache.Namespace),
		cache.WithLogger(c.logger),
		cache.WithMetrics(c.metrics),
	)

	stages := []pipeline.Stage{
		pipeline.NewStage(PriorityCache, c.store),
		pipeline.NewStage(PriorityRelease, catalog.NewReleaseSource(c.registry, catalog.DefaultReleases()...)),
	}

	if settings.Store.Enabled {
		if c.local, err = c.newLocalStore(ctx); err != nil {
			return c, err
		}
		stages = append(stages, pipeline.NewStage(PriorityStore, c.local))
	}

	src := o.remote
	if src == nil && settings.Remote.BaseURL != "" {
		httpSource, rerr := remote.New(RemoteConfig(settings.Remote), catalog.Endpoints(), remote.WithLogger(c.logger))
		if rerr != nil {
			return c, rerr
		}
		c.closers = append(c.closers, httpSource.Close)
		src = httpSource
	}
	if src != nil {
		stages = append(stages, pipeline.NewStage(PriorityRemote, src))
	} else {
		c.logger.Warn().Msg("no remote source configured, only cached data is served")
	}
	stages = append(stages, o.stages...)

	c.pipeline, err = pipeline.New(c.registry, c.transformers,
		pipeline.WithStages(stages...),
		pipeline.WithLogger(c.logger),
		pipeline.WithMetrics(c.metrics),
	)
	if err != nil {
		return c, err
	}

	c.loader = entity.NewLoader(c.pipeline, entity.WithLogger(c.logger), entity.WithMetrics(c.metrics))
	c.catalog = catalog.New(c.loader)

	c.logger.Info().
		Str("backend", settings.Cache.Backend).
		Bool("store", settings.Store.Enabled).
		Int("stages", len(c.pipeline.Stages())).
		Msg("catalog container ready")
	return c, nil
}

// NewWithDefaults assembles a container from config.Defaults.
func NewWithDefaults(ctx context.Context, opts ...Option) (*Container, error) {
	return New(ctx, config.Defaults(), opts...)
}

func (c *Container) newCacheService(o *options) (cache.CacheService, error) {
	switch c.settings.Cache.Backend {
	case "", "memory":
		return cache.NewCacheService(c.cacheConfig)
	case "redis":
		client := o.redis
		if client == nil {
			rc := redis.NewClient(&redis.Options{
				Addr:     c.settings.Cache.Redis.Addr,
				Password: c.settings.Cache.Redis.Password,
				DB:       c.settings.Cache.Redis.DB,
			})
			c.closers = append(c.closers, rc.Close)
			client = rc
		}
		return cache.NewRedisCacheService(client, c.codec), nil
	default:
		return nil, fmt.Errorf("di: unknown cache backend %q", c.settings.Cache.Backend)
	}
}

func (c *Container) newLocalStore(ctx context.Context) (*localstore.Stage, error) {
	db, err := localstore.Open(c.settings.Store.Driver, c.settings.Store.DSN)
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, db.Close)
	if c.settings.Store.Migrate {
		if err := localstore.Migrate(ctx, db); err != nil {
			return nil, err
		}
	}
	return localstore.New(db, c.registry, c.codec,
		localstore.WithConfig(c.cacheConfig),
		localstore.WithLogger(c.logger),
		localstore.WithMetrics(c.metrics),
	), nil
}

// CacheConfig converts cache settings. Configured expirations override the
// catalog's per-type retention.
func CacheConfig(s config.CacheConfig) cache.Config {
	cfg := cache.DefaultConfig()
	if s.Capacity > 0 {
		cfg.Capacity = s.Capacity
	}
	if s.NumShards > 0 {
		cfg.NumShards = s.NumShards
	}
	if s.TTL > 0 {
		cfg.TTL = s.TTL
	}
	if s.EvictionPercentage > 0 {
		cfg.EvictionPercentage = s.EvictionPercentage
	}
	if s.EvictionInterval > 0 {
		cfg.EvictionInterval = s.EvictionInterval
	}
	cfg.Expirations = catalog.DefaultExpirations()
	maps.Copy(cfg.Expirations, s.Expirations)
	return cfg
}

// RemoteConfig converts remote settings.
func RemoteConfig(s config.RemoteConfig) remote.Config {
	return remote.Config{
		BaseURL:    s.BaseURL,
		APIKey:     s.APIKey,
		Timeout:    s.Timeout,
		RetryCount: s.RetryCount,
		RetryWait:  s.RetryWait,
		RateLimit:  s.RateLimit,
		Burst:      s.Burst,
	}
}

// Catalog returns the typed entry point.
func (c *Container) Catalog() *catalog.Catalog { return c.catalog }

// Loader returns the entity loader.
func (c *Container) Loader() *entity.Loader { return c.loader }

// Pipeline returns the resolution pipeline.
func (c *Container) Pipeline() *pipeline.Pipeline { return c.pipeline }

// Store returns the multi-key cache store.
func (c *Container) Store() *cache.Store { return c.store }

// LocalStore returns the persistent stage, or nil when it is disabled.
func (c *Container) LocalStore() *localstore.Stage { return c.local }

// CacheService returns the cache primitive behind the store.
func (c *Container) CacheService() cache.CacheService { return c.cacheService }

// Registry returns the key registry.
func (c *Container) Registry() *keys.Registry { return c.registry }

// Metrics returns the collector, or nil when metrics are disabled.
func (c *Container) Metrics() *metrics.Collector { return c.metrics }

// Logger returns the process logger.
func (c *Container) Logger() zerolog.Logger { return c.logger }

// Settings returns the settings the container was built from.
func (c *Container) Settings() config.Settings { return c.settings }

// Close releases connections in reverse order of acquisition.
func (c *Container) Close() error {
	var failures []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			failures = append(failures, err)
		}
	}
	c.closers = nil
	return errors.Join(failures...)
}
