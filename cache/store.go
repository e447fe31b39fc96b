package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-catalog-cache/errs"
	"github.com/goliatone/go-catalog-cache/keys"
	"github.com/goliatone/go-catalog-cache/pkg/metrics"
	"github.com/goliatone/go-catalog-cache/query"
)

// StageName identifies the Store when it runs as a pipeline stage.
const StageName = "cache"

// Store writes each value under every alternate key it supports and reads by
// trying a request's candidate keys in order. Retention is per type.
type Store struct {
	service    CacheService
	registry   *keys.Registry
	serializer KeySerializer
	config     Config
	namespace  string
	logger     zerolog.Logger
	metrics    *metrics.Collector
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithSerializer replaces the default key serializer. Keys must start with
// the namespace passed to SerializeKey followed by KeySeparator.
func WithSerializer(serializer KeySerializer) StoreOption {
	return func(s *Store) {
		if serializer != nil {
			s.serializer = serializer
		}
	}
}

// WithConfig sets the retention policy.
func WithConfig(cfg Config) StoreOption {
	return func(s *Store) {
		s.config = cfg
	}
}

// WithNamespace prefixes every key, for caches shared between applications.
func WithNamespace(namespace string) StoreOption {
	return func(s *Store) {
		s.namespace = namespace
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(collector *metrics.Collector) StoreOption {
	return func(s *Store) {
		s.metrics = collector
	}
}

// NewStore creates a Store over service using registry to derive keys.
func NewStore(service CacheService, registry *keys.Registry, opts ...StoreOption) *Store {
	s := &Store{
		service:    service,
		registry:   registry,
		serializer: NewDefaultKeySerializer(),
		config:     DefaultConfig(),
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With().Str("component", "cache_store").Logger()
	return s
}

// Name identifies the stage.
func (s *Store) Name() string { return StageName }

// Provides lists the types the Store can answer for.
func (s *Store) Provides() []string { return s.registry.Types() }

// Accepts lists the types the Store stores.
func (s *Store) Accepts() []string { return s.registry.Types() }

// Get returns the first value found under any candidate key of q.
func (s *Store) Get(ctx context.Context, typeName string, q query.Query) (any, error) {
	if s.config.TTLFor(typeName) <= 0 {
		return nil, errs.NotFound(typeName, q)
	}
	q, err := s.registry.Validate(typeName, q)
	if err != nil {
		return nil, err
	}

	value, ok := s.lookup(ctx, typeName, s.registry.ForQuery(typeName, q))
	if !ok {
		s.metrics.CacheLookup(typeName, metrics.OutcomeMiss)
		return nil, errs.NotFound(typeName, q)
	}
	s.metrics.CacheLookup(typeName, metrics.OutcomeHit)
	return value, nil
}

// GetMany resolves a bulk request. Any missing member fails the whole
// request with NotFound so the caller falls through to a slower stage.
func (s *Store) GetMany(ctx context.Context, typeName string, q query.Query) ([]any, error) {
	if s.config.TTLFor(typeName) <= 0 {
		return nil, errs.NotFound(typeName, q)
	}
	lists, err := s.registry.ForMany(typeName, q)
	if err != nil {
		return nil, err
	}

	out := make([]any, len(lists))
	for i, candidates := range lists {
		value, ok := s.lookup(ctx, typeName, candidates)
		if !ok {
			s.metrics.CacheLookup(typeName, metrics.OutcomeMiss)
			return nil, errs.NotFound(typeName, q)
		}
		out[i] = value
	}
	s.metrics.CacheLookup(typeName, metrics.OutcomeHit)
	return out, nil
}

func (s *Store) lookup(ctx context.Context, typeName string, candidates []keys.AlternateKey) (any, bool) {
	for _, k := range candidates {
		key := s.keyString(k)
		value, ok, err := s.service.Get(ctx, key)
		if err != nil {
			s.logger.Debug().Err(err).Str("type", typeName).Str("key", key).Msg("cache read failed, treating as miss")
			continue
		}
		if ok {
			return value, true
		}
	}
	return nil, false
}

// Put writes value under every key it supports with the type's retention,
// then cascades collection members into their own types. A failed alias
// write does not stop the remaining writes.
func (s *Store) Put(ctx context.Context, typeName string, value any) error {
	var failures []error

	if ttl := s.config.TTLFor(typeName); ttl > 0 {
		candidates := s.registry.ForValue(typeName, value)
		if len(candidates) == 0 {
			s.logger.Debug().Str("type", typeName).Msg("value supports no keys, not cached")
		}
		for _, k := range candidates {
			key := s.keyString(k)
			if err := s.service.Set(ctx, key, value, ttl); err != nil {
				s.metrics.CacheWrite(typeName, metrics.OutcomeError)
				failures = append(failures, fmt.Errorf("cache write %s: %w", key, err))
				continue
			}
			s.metrics.CacheWrite(typeName, metrics.OutcomeSuccess)
		}
	}

	memberType, members := s.registry.Members(typeName, value)
	for _, member := range members {
		if err := s.Put(ctx, memberType, member); err != nil {
			failures = append(failures, err)
		}
	}

	return errors.Join(failures...)
}

// PutMany stores each value, cascading as Put does.
func (s *Store) PutMany(ctx context.Context, typeName string, values []any) error {
	var failures []error
	for _, v := range values {
		if err := s.Put(ctx, typeName, v); err != nil {
			failures = append(failures, err)
		}
	}
	return errors.Join(failures...)
}

// Invalidate removes every alias of one value.
func (s *Store) Invalidate(ctx context.Context, typeName string, value any) error {
	candidates := s.registry.ForValue(typeName, value)
	if len(candidates) == 0 {
		return nil
	}
	cacheKeys := make([]string, len(candidates))
	for i, k := range candidates {
		cacheKeys[i] = s.keyString(k)
	}
	return s.service.Delete(ctx, cacheKeys...)
}

// Expire removes every alias of every cached value of typeName.
func (s *Store) Expire(ctx context.Context, typeName string) error {
	if err := s.service.DeleteByPrefix(ctx, s.typePrefix(typeName)); err != nil {
		return fmt.Errorf("expire %s: %w", typeName, err)
	}
	s.logger.Debug().Str("type", typeName).Msg("expired")
	return nil
}

// Clear expires every registered type.
func (s *Store) Clear(ctx context.Context) error {
	var failures []error
	for _, typeName := range s.registry.Types() {
		if err := s.Expire(ctx, typeName); err != nil {
			failures = append(failures, err)
		}
	}
	return errors.Join(failures...)
}

func (s *Store) namespaceFor(typeName string) string {
	if s.namespace == "" {
		return typeName
	}
	return s.namespace + KeySeparator + typeName
}

func (s *Store) typePrefix(typeName string) string {
	return s.namespaceFor(typeName) + KeySeparator
}

func (s *Store) keyString(k keys.AlternateKey) string {
	args := make([]any, 0, len(k.Values)+1)
	args = append(args, k.Shape)
	args = append(args, k.Values...)
	return s.serializer.SerializeKey(s.namespaceFor(k.Type), args...)
}
