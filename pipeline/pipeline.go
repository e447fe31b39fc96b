// Package pipeline resolves typed requests through an ordered chain of
// stages. Stages are tried closest first, a NotFound falls through to the
// next stage, and the winning value is written back into every earlier stage
// that accepts it. Values are converted between wire, record and domain
// shapes by the transformer registry.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"

	goerrors "github.com/goliatone/go-errors"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-catalog-cache/errs"
	"github.com/goliatone/go-catalog-cache/keys"
	"github.com/goliatone/go-catalog-cache/pkg/metrics"
	"github.com/goliatone/go-catalog-cache/query"
)

// Source answers requests for the types it provides. A miss must be
// reported with an errs.NotFound error.
type Source interface {
	Get(ctx context.Context, typeName string, q query.Query) (any, error)
	GetMany(ctx context.Context, typeName string, q query.Query) ([]any, error)
	Provides() []string
}

// Sink stores values of the types it accepts.
type Sink interface {
	Put(ctx context.Context, typeName string, value any) error
	PutMany(ctx context.Context, typeName string, values []any) error
	Accepts() []string
}

// QueryValidator is implemented by sources with their own rules or defaults
// for a type. It runs before the source is asked.
type QueryValidator interface {
	ValidateQuery(typeName string, q query.Query) (query.Query, error)
}

// Named is implemented by stage components that report their own name.
type Named interface {
	Name() string
}

// Stage is one position in the chain. Lower priorities are closer to the
// caller: tried first on read and back-filled first on write-through.
type Stage struct {
	Name     string
	Priority int
	Source   Source
	Sink     Sink
}

// NewStage builds a stage from a component implementing Source, Sink or both.
func NewStage(priority int, component any) Stage {
	s := Stage{Priority: priority}
	if src, ok := component.(Source); ok {
		s.Source = src
	}
	if sink, ok := component.(Sink); ok {
		s.Sink = sink
	}
	if n, ok := component.(Named); ok {
		s.Name = n.Name()
	}
	return s
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithStages adds stages.
func WithStages(stages ...Stage) Option {
	return func(p *Pipeline) {
		p.stages = append(p.stages, stages...)
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(p *Pipeline) {
		p.metrics = collector
	}
}

// Pipeline is the resolution runtime.
type Pipeline struct {
	stages       []Stage
	registry     *keys.Registry
	transformers *Transformers
	logger       zerolog.Logger
	metrics      *metrics.Collector
}

// New builds a pipeline. Stages are ordered by priority; a stage with
// neither a source nor a sink is rejected.
func New(registry *keys.Registry, transformers *Transformers, opts ...Option) (*Pipeline, error) {
	if registry == nil || transformers == nil {
		return nil, fmt.Errorf("pipeline: registry and transformers are required")
	}
	p := &Pipeline{
		registry:     registry,
		transformers: transformers,
		logger:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}

	for i := range p.stages {
		if p.stages[i].Source == nil && p.stages[i].Sink == nil {
			return nil, fmt.Errorf("pipeline: stage %d has neither source nor sink", i)
		}
		if p.stages[i].Name == "" {
			p.stages[i].Name = fmt.Sprintf("stage_%d", i)
		}
	}
	sort.SliceStable(p.stages, func(i, j int) bool {
		return p.stages[i].Priority < p.stages[j].Priority
	})
	p.logger = p.logger.With().Str("component", "pipeline").Logger()
	return p, nil
}

// Registry returns the key registry used to validate requests.
func (p *Pipeline) Registry() *keys.Registry { return p.registry }

// Transformers returns the transformer registry.
func (p *Pipeline) Transformers() *Transformers { return p.transformers }

// Stages returns the ordered stages.
func (p *Pipeline) Stages() []Stage {
	return append([]Stage(nil), p.stages...)
}

// Get resolves one value of the target type. The query is validated before
// any stage is consulted. NotFound is returned only when every stage misses.
func (p *Pipeline) Get(ctx context.Context, target string, q query.Query) (any, error) {
	ctx, requestID := ensureRequestID(ctx)
	q, err := p.registry.Validate(target, q)
	if err != nil {
		return nil, withRequestID(err, requestID)
	}
	ctx = WithQuery(ctx, q)

	for i, stage := range p.stages {
		provided, ok := p.route(stage, target)
		if !ok {
			continue
		}
		sq, err := p.stageQuery(stage, provided, q)
		if err != nil {
			return nil, withRequestID(err, requestID)
		}

		value, err := stage.Source.Get(ctx, provided, sq)
		if errs.IsNotFound(err) {
			p.metrics.StageFetch(stage.Name, provided, metrics.OutcomeMiss)
			continue
		}
		if err != nil {
			p.metrics.StageFetch(stage.Name, provided, metrics.OutcomeError)
			return nil, err
		}
		p.metrics.StageFetch(stage.Name, provided, metrics.OutcomeHit)
		p.logger.Debug().Str("request_id", requestID).Str("stage", stage.Name).Str("type", provided).Msg("stage hit")

		result, err := p.transformers.Transform(ctx, target, value)
		if err != nil {
			return nil, withRequestID(err, requestID)
		}
		p.backfill(ctx, i, target, result, value, false)
		return result, nil
	}

	return nil, withRequestID(errs.NotFound(target, q), requestID)
}

// GetMany resolves a bulk request, one value per member in request order.
func (p *Pipeline) GetMany(ctx context.Context, target string, q query.Query) ([]any, error) {
	ctx, requestID := ensureRequestID(ctx)
	q, _, err := p.registry.ValidateMany(target, q)
	if err != nil {
		return nil, withRequestID(err, requestID)
	}
	ctx = WithQuery(ctx, q)

	for i, stage := range p.stages {
		provided, ok := p.route(stage, target)
		if !ok {
			continue
		}

		values, err := stage.Source.GetMany(ctx, provided, q)
		if errs.IsNotFound(err) {
			p.metrics.StageFetch(stage.Name, provided, metrics.OutcomeMiss)
			continue
		}
		if err != nil {
			p.metrics.StageFetch(stage.Name, provided, metrics.OutcomeError)
			return nil, err
		}
		p.metrics.StageFetch(stage.Name, provided, metrics.OutcomeHit)
		if len(values) == 0 {
			return []any{}, nil
		}

		results := make([]any, len(values))
		for j, v := range values {
			if results[j], err = p.transformers.Transform(ctx, target, v); err != nil {
				return nil, withRequestID(err, requestID)
			}
		}
		for j := 0; j < i; j++ {
			p.putManyInto(ctx, p.stages[j], target, results, values, false)
		}
		return results, nil
	}

	return nil, withRequestID(errs.NotFound(target, q), requestID)
}

// Put writes value into every stage sink that accepts it, converting as
// needed. Unlike back-fill, failures are returned.
func (p *Pipeline) Put(ctx context.Context, value any) error {
	ctx, _ = ensureRequestID(ctx)
	return p.backfill(ctx, len(p.stages), keys.TypeOf(value), value, value, true)
}

// PutMany writes values of one type into every accepting sink.
func (p *Pipeline) PutMany(ctx context.Context, values []any) error {
	if len(values) == 0 {
		return nil
	}
	ctx, _ = ensureRequestID(ctx)
	var failures []error
	typeName := keys.TypeOf(values[0])
	for _, stage := range p.stages {
		if err := p.putManyInto(ctx, stage, typeName, values, values, true); err != nil {
			failures = append(failures, err)
		}
	}
	return errors.Join(failures...)
}

// route picks the type a stage should be asked for: the target itself when
// provided, otherwise the provided type with the shortest conversion.
func (p *Pipeline) route(stage Stage, target string) (string, bool) {
	if stage.Source == nil {
		return "", false
	}
	best, bestDistance := "", -1
	for _, provided := range stage.Source.Provides() {
		if provided == target {
			return provided, true
		}
		if d := p.transformers.Distance(provided, target); d > 0 && (bestDistance < 0 || d < bestDistance) {
			best, bestDistance = provided, d
		}
	}
	return best, bestDistance > 0
}

func (p *Pipeline) stageQuery(stage Stage, provided string, q query.Query) (query.Query, error) {
	v, ok := stage.Source.(QueryValidator)
	if !ok {
		return q, nil
	}
	return v.ValidateQuery(provided, q)
}

// accepted picks the type a sink should receive for a value of type from:
// preferred when accepted, otherwise the closest reachable accepted type.
func (p *Pipeline) accepted(stage Stage, from, preferred string) (string, bool) {
	if stage.Sink == nil {
		return "", false
	}
	best, bestDistance := "", -1
	for _, a := range stage.Sink.Accepts() {
		if a == preferred {
			return a, true
		}
		if d := p.transformers.Distance(from, a); d >= 0 && (bestDistance < 0 || d < bestDistance) {
			best, bestDistance = a, d
		}
	}
	return best, bestDistance >= 0
}

// backfill writes into every stage before limit. result is value already
// converted to target. Failures are logged and, when strict, returned.
func (p *Pipeline) backfill(ctx context.Context, limit int, target string, result, value any, strict bool) error {
	var failures []error
	for j := 0; j < limit && j < len(p.stages); j++ {
		stage := p.stages[j]
		typeName, ok := p.accepted(stage, keys.TypeOf(value), target)
		if !ok {
			continue
		}
		out := result
		if typeName != target {
			var err error
			if out, err = p.transformers.Transform(ctx, typeName, value); err != nil {
				failures = append(failures, err)
				continue
			}
		}
		if err := stage.Sink.Put(ctx, typeName, out); err != nil {
			p.logger.Warn().Err(err).Str("request_id", RequestID(ctx)).Str("stage", stage.Name).Str("type", typeName).Msg("write-through failed")
			failures = append(failures, fmt.Errorf("%s: %w", stage.Name, err))
		}
	}
	if !strict {
		return nil
	}
	return errors.Join(failures...)
}

func (p *Pipeline) putManyInto(ctx context.Context, stage Stage, target string, results, values []any, strict bool) error {
	if len(values) == 0 {
		return nil
	}
	typeName, ok := p.accepted(stage, keys.TypeOf(values[0]), target)
	if !ok {
		return nil
	}
	out := results
	if typeName != target {
		out = make([]any, len(values))
		for i, v := range values {
			converted, err := p.transformers.Transform(ctx, typeName, v)
			if err != nil {
				return err
			}
			out[i] = converted
		}
	}
	if err := stage.Sink.PutMany(ctx, typeName, out); err != nil {
		p.logger.Warn().Err(err).Str("request_id", RequestID(ctx)).Str("stage", stage.Name).Str("type", typeName).Msg("write-through failed")
		if strict {
			return fmt.Errorf("%s: %w", stage.Name, err)
		}
	}
	return nil
}

func withRequestID(err error, requestID string) error {
	var e *goerrors.Error
	if errors.As(err, &e) && e.RequestID == "" {
		e.WithRequestID(requestID)
	}
	return err
}
