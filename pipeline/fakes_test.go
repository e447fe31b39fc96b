package pipeline

import (
	"context"
	"fmt"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-catalog-cache/errs"
	"github.com/goliatone/go-catalog-cache/keys"
	"github.com/goliatone/go-catalog-cache/query"
)

type widgetWire struct {
	ID   int64
	Name string
}

type widget struct {
	ID    int64
	Label string
}

type putCall struct {
	typeName string
	value    any
}

type fakeStage struct {
	mu       sync.Mutex
	name     string
	provides []string
	accepts  []string
	values   map[string]any
	many     map[string][]any
	getErr   error
	putErr   error
	gets     []string
	queries  []query.Query
	puts     []putCall
	putManys []putCall
}

func (f *fakeStage) Name() string { return f.name }

func (f *fakeStage) Provides() []string { return f.provides }

func (f *fakeStage) Accepts() []string { return f.accepts }

func (f *fakeStage) Get(_ context.Context, typeName string, q query.Query) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets = append(f.gets, typeName)
	f.queries = append(f.queries, q)
	if f.getErr != nil {
		return nil, f.getErr
	}
	if v, ok := f.values[typeName]; ok {
		return v, nil
	}
	return nil, errs.NotFound(typeName, q)
}

func (f *fakeStage) GetMany(_ context.Context, typeName string, q query.Query) ([]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets = append(f.gets, typeName)
	f.queries = append(f.queries, q)
	if f.getErr != nil {
		return nil, f.getErr
	}
	if v, ok := f.many[typeName]; ok {
		return v, nil
	}
	return nil, errs.NotFound(typeName, q)
}

func (f *fakeStage) Put(_ context.Context, typeName string, value any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts = append(f.puts, putCall{typeName: typeName, value: value})
	return f.putErr
}

func (f *fakeStage) PutMany(_ context.Context, typeName string, values []any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.putManys = append(f.putManys, putCall{typeName: typeName, value: values})
	return f.putErr
}

func (f *fakeStage) getCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.gets)
}

type validatingStage struct {
	*fakeStage
}

func (v validatingStage) ValidateQuery(_ string, q query.Query) (query.Query, error) {
	if !q.Has("region") {
		return q.With("region", "eu"), nil
	}
	return q, nil
}

func widgetRegistry() *keys.Registry {
	r := keys.NewRegistry()
	schema := query.Schema{
		Fields: []query.Field{
			{Name: "id", Rules: []validation.Rule{query.Integer}},
			{Name: "locale", Default: "en_US", Rules: []validation.Rule{query.String}},
		},
		AnyOf: [][]string{{"id"}},
	}
	r.MustRegister(
		keys.Entry{
			Type:   "widget",
			Shapes: []keys.Shape{keys.NewShape("id", "locale")},
			Schema: schema,
			Fields: func(v any) query.Query { return query.Query{"id": v.(widget).ID, "locale": "en_US"} },
			Many:   map[string]string{"ids": "id"},
		},
		keys.Entry{
			Type:   "widget_wire",
			Shapes: []keys.Shape{keys.NewShape("id", "locale")},
			Schema: schema,
			Fields: func(v any) query.Query { return query.Query{"id": v.(widgetWire).ID, "locale": "en_US"} },
			Many:   map[string]string{"ids": "id"},
		},
	)
	return r
}

func widgetTransformers() *Transformers {
	t := NewTransformers()
	if err := Register(t, func(_ context.Context, w widgetWire) (widget, error) {
		return widget{ID: w.ID, Label: fmt.Sprintf("%s#%d", w.Name, w.ID)}, nil
	}); err != nil {
		panic(err)
	}
	return t
}
