package localstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/rs/zerolog"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-catalog-cache/cache"
	"github.com/goliatone/go-catalog-cache/codec"
	"github.com/goliatone/go-catalog-cache/errs"
	"github.com/goliatone/go-catalog-cache/keys"
	"github.com/goliatone/go-catalog-cache/pkg/metrics"
	"github.com/goliatone/go-catalog-cache/query"
)

// StageName identifies the local store in logs and metrics.
const StageName = "store"

// Option configures a Stage.
type Option func(*Stage)

// WithConfig sets the retention policy. Types whose retention is zero are
// never persisted.
func WithConfig(cfg cache.Config) Option {
	return func(s *Stage) {
		s.config = cfg
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Stage) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(s *Stage) {
		s.metrics = collector
	}
}

// WithClock replaces the time source used for expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Stage) {
		if now != nil {
			s.now = now
		}
	}
}

// Stage serves and stores records of every type the codec knows.
type Stage struct {
	db       bun.IDB
	repo     repository.Repository[*StoredRecord]
	registry *keys.Registry
	codec    *codec.Codec
	config   cache.Config
	now      func() time.Time
	logger   zerolog.Logger
	metrics  *metrics.Collector
}

// New creates the stage. The table must exist; see Migrate.
func New(db *bun.DB, registry *keys.Registry, c *codec.Codec, opts ...Option) *Stage {
	s := &Stage{
		db:       db,
		repo:     NewRepository(db),
		registry: registry,
		codec:    c,
		config:   cache.DefaultConfig(),
		now:      time.Now,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With().Str("component", "local_store").Logger()
	return s
}

func (s *Stage) Name() string { return StageName }

// Provides lists the persisted types.
func (s *Stage) Provides() []string { return s.types() }

// Accepts lists the persisted types.
func (s *Stage) Accepts() []string { return s.types() }

func (s *Stage) types() []string {
	var out []string
	for _, t := range s.registry.Types() {
		if s.codec.Knows(t) && s.config.TTLFor(t) > 0 {
			out = append(out, t)
		}
	}
	return out
}

// Get returns the first live row stored under any candidate key of q. Read
// and decode failures count as misses.
func (s *Stage) Get(ctx context.Context, typeName string, q query.Query) (any, error) {
	q, err := s.registry.Validate(typeName, q)
	if err != nil {
		return nil, err
	}
	candidates := s.keyStrings(s.registry.ForQuery(typeName, q))
	rows, err := s.load(ctx, typeName, candidates)
	if err != nil {
		s.readFailed(typeName, err)
		return nil, errs.NotFound(typeName, q)
	}
	for _, k := range candidates {
		if value, ok := s.decode(typeName, rows[k]); ok {
			s.metrics.CacheLookup(typeName, metrics.OutcomeHit)
			return value, nil
		}
	}
	s.metrics.CacheLookup(typeName, metrics.OutcomeMiss)
	return nil, errs.NotFound(typeName, q)
}

// GetMany resolves a bulk request with one query. Any missing member fails
// the request with NotFound.
func (s *Stage) GetMany(ctx context.Context, typeName string, q query.Query) ([]any, error) {
	lists, err := s.registry.ForMany(typeName, q)
	if err != nil {
		return nil, err
	}
	members := make([][]string, len(lists))
	var all []string
	for i, l := range lists {
		members[i] = s.keyStrings(l)
		all = append(all, members[i]...)
	}
	rows, err := s.load(ctx, typeName, all)
	if err != nil {
		s.readFailed(typeName, err)
		return nil, errs.NotFound(typeName, q)
	}

	out := make([]any, len(members))
	for i, candidates := range members {
		for _, k := range candidates {
			if value, ok := s.decode(typeName, rows[k]); ok {
				out[i] = value
				break
			}
		}
		if out[i] == nil {
			s.metrics.CacheLookup(typeName, metrics.OutcomeMiss)
			return nil, errs.NotFound(typeName, q)
		}
	}
	s.metrics.CacheLookup(typeName, metrics.OutcomeHit)
	return out, nil
}

// decode unmarshals row, reporting a failure as a miss.
func (s *Stage) decode(typeName string, row *StoredRecord) (any, bool) {
	if row == nil {
		return nil, false
	}
	value, err := s.codec.Unmarshal(row.Payload)
	if err != nil {
		s.logger.Debug().Err(err).Str("type", typeName).Str("key", row.Key).Msg("stored record unreadable, treating as miss")
		s.metrics.CacheLookup(typeName, metrics.OutcomeError)
		return nil, false
	}
	return value, true
}

func (s *Stage) readFailed(typeName string, err error) {
	s.logger.Debug().Err(err).Str("type", typeName).Msg("store read failed, treating as miss")
	s.metrics.CacheLookup(typeName, metrics.OutcomeError)
}

// load fetches the live rows among candidates, indexed by key.
func (s *Stage) load(ctx context.Context, typeName string, candidates []string) (map[string]*StoredRecord, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	records, _, err := s.repo.List(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.type_name = ?", typeName).
			Where("?TableAlias.cache_key IN (?)", bun.In(candidates)).
			Limit(len(candidates))
	})
	if err != nil {
		return nil, fmt.Errorf("localstore: read %s: %w", typeName, err)
	}
	now := s.now().UnixMilli()
	out := make(map[string]*StoredRecord, len(records))
	for _, r := range records {
		if r.ExpiresAt > 0 && r.ExpiresAt <= now {
			continue
		}
		out[r.Key] = r
	}
	return out, nil
}

// Put writes one row per alternate key of value, replacing older rows, and
// cascades collection members into their own types.
func (s *Stage) Put(ctx context.Context, typeName string, value any) error {
	var failures []error

	if ttl := s.config.TTLFor(typeName); ttl > 0 && s.codec.Knows(typeName) {
		if err := s.upsert(ctx, typeName, value, ttl); err != nil {
			s.metrics.CacheWrite(typeName, metrics.OutcomeError)
			failures = append(failures, err)
		} else {
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

// PutMany stores each value as Put does.
func (s *Stage) PutMany(ctx context.Context, typeName string, values []any) error {
	var failures []error
	for _, v := range values {
		if err := s.Put(ctx, typeName, v); err != nil {
			failures = append(failures, err)
		}
	}
	return errors.Join(failures...)
}

func (s *Stage) upsert(ctx context.Context, typeName string, value any, ttl time.Duration) error {
	candidates := s.keyStrings(s.registry.ForValue(typeName, value))
	if len(candidates) == 0 {
		s.logger.Debug().Str("type", typeName).Msg("value supports no keys, not stored")
		return nil
	}
	payload, err := s.codec.Marshal(value)
	if err != nil {
		return err
	}

	now := s.now()
	var expires int64
	if ttl < cache.Forever {
		expires = now.Add(ttl).UnixMilli()
	}
	rows := make([]*StoredRecord, len(candidates))
	for i, k := range candidates {
		rows[i] = &StoredRecord{
			ID:        uuid.New(),
			Key:       k,
			TypeName:  typeName,
			Payload:   payload,
			ExpiresAt: expires,
			UpdatedAt: now.UnixMilli(),
		}
	}

	_, err = s.db.NewInsert().
		Model(&rows).
		On("CONFLICT (cache_key) DO UPDATE").
		Set("type_name = EXCLUDED.type_name").
		Set("payload = EXCLUDED.payload").
		Set("expires_at = EXCLUDED.expires_at").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("localstore: write %s: %w", typeName, err)
	}
	return nil
}

// Expire deletes every row of typeName.
func (s *Stage) Expire(ctx context.Context, typeName string) error {
	err := s.repo.DeleteWhere(ctx, func(q *bun.DeleteQuery) *bun.DeleteQuery {
		return q.Where("type_name = ?", typeName)
	})
	if err != nil {
		return fmt.Errorf("localstore: expire %s: %w", typeName, err)
	}
	s.logger.Debug().Str("type", typeName).Msg("expired")
	return nil
}

// Purge deletes rows whose retention has passed.
func (s *Stage) Purge(ctx context.Context) error {
	now := s.now().UnixMilli()
	err := s.repo.DeleteWhere(ctx, func(q *bun.DeleteQuery) *bun.DeleteQuery {
		return q.Where("expires_at > 0").Where("expires_at <= ?", now)
	})
	if err != nil {
		return fmt.Errorf("localstore: purge: %w", err)
	}
	return nil
}

// Len counts the stored rows of typeName, one per alias.
func (s *Stage) Len(ctx context.Context, typeName string) (int, error) {
	return s.repo.Count(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.type_name = ?", typeName)
	})
}

func (s *Stage) keyStrings(ks []keys.AlternateKey) []string {
	out := make([]string, len(ks))
	for i, k := range ks {
		out[i] = k.String()
	}
	return out
}
