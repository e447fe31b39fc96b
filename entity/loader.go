package entity

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/goliatone/go-catalog-cache/errs"
	"github.com/goliatone/go-catalog-cache/keys"
	"github.com/goliatone/go-catalog-cache/pkg/metrics"
	"github.com/goliatone/go-catalog-cache/query"
)

// Fetcher is the part of the resolution pipeline the loader needs.
type Fetcher interface {
	Get(ctx context.Context, typeName string, q query.Query) (any, error)
	Registry() *keys.Registry
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(collector *metrics.Collector) LoaderOption {
	return func(l *Loader) {
		l.metrics = collector
	}
}

// Loader fetches load groups through the pipeline. At most one fetch per
// kind, group and canonical query is in flight at a time.
type Loader struct {
	fetcher Fetcher
	flight  singleflight.Group
	logger  zerolog.Logger
	metrics *metrics.Collector
}

// NewLoader creates a loader over the given pipeline.
func NewLoader(fetcher Fetcher, opts ...LoaderOption) *Loader {
	l := &Loader{
		fetcher: fetcher,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With().Str("component", "entity_loader").Logger()
	return l
}

// Get fetches a record that does not belong to a load group, such as one
// page of a lazily walked collection.
func (l *Loader) Get(ctx context.Context, typeName string, q query.Query) (any, error) {
	return l.fetcher.Get(ctx, typeName, q)
}

func (l *Loader) registry() *keys.Registry {
	return l.fetcher.Registry()
}

func (l *Loader) fetch(ctx context.Context, kind kindSpec, g Group, recordType string, q query.Query) (any, error) {
	q = l.project(recordType, q)
	flightKey := kind.name + "|" + string(g) + "|" + strconv.FormatUint(q.Fingerprint(), 16)

	flightCtx := context.WithoutCancel(ctx)
	ch := l.flight.DoChan(flightKey, func() (any, error) {
		record, err := l.fetcher.Get(flightCtx, recordType, q)
		if err == nil {
			l.metrics.EntityLoad(kind.name, string(g), metrics.OutcomeSuccess)
			return record, nil
		}
		if def, ok := kind.defaults[g]; ok && errs.IsNotFound(err) {
			l.metrics.EntityLoad(kind.name, string(g), metrics.OutcomeDefault)
			l.logger.Debug().Str("kind", kind.name).Str("group", string(g)).Stringer("query", q).Msg("record not found, using default")
			return def(q), nil
		}
		if errs.IsNotFound(err) {
			l.metrics.EntityLoad(kind.name, string(g), metrics.OutcomeNotFound)
		} else {
			l.metrics.EntityLoad(kind.name, string(g), metrics.OutcomeError)
		}
		return nil, err
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	v, err := res.Val, res.Err
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, fmt.Errorf("entity: %s %s resolved to nil", kind.name, g)
	}
	return v, nil
}

// project drops parameters the record type's schema does not accept.
func (l *Loader) project(recordType string, q query.Query) query.Query {
	entry, ok := l.registry().Lookup(recordType)
	if !ok || len(entry.Schema.Fields) == 0 {
		return q
	}
	return q.Pick(entry.Schema.Names()...)
}
