package entity

import (
	"context"
	"fmt"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-catalog-cache/errs"
	"github.com/goliatone/go-catalog-cache/keys"
	"github.com/goliatone/go-catalog-cache/query"
)

type gadgetRecord struct {
	ID     int64
	Name   string
	Weight int
}

type gadgetExtra struct {
	Notes string
}

type Gadget struct {
	*Base
	core  gadgetRecord
	extra gadgetExtra
}

func (g *Gadget) Install(group Group, record any) error {
	switch group {
	case Core:
		r, ok := record.(gadgetRecord)
		if !ok {
			return fmt.Errorf("unexpected core record %T", record)
		}
		g.core = r
	case "extra":
		r, ok := record.(gadgetExtra)
		if !ok {
			return fmt.Errorf("unexpected extra record %T", record)
		}
		g.extra = r
	}
	return nil
}

func (g *Gadget) KeyFields() query.Query {
	q := query.Query{}
	if g.core.ID != 0 {
		q["id"] = g.core.ID
	}
	if g.core.Name != "" {
		q["name"] = g.core.Name
	}
	return q
}

func (g *Gadget) Name(ctx context.Context) (string, error) {
	if err := g.Ensure(ctx, Core); err != nil {
		return "", err
	}
	return g.core.Name, nil
}

func (g *Gadget) Weight(ctx context.Context) (int, error) {
	if err := g.Ensure(ctx, Core); err != nil {
		return 0, err
	}
	return g.core.Weight, nil
}

func (g *Gadget) Notes(ctx context.Context) (string, error) {
	if err := g.Ensure(ctx, "extra"); err != nil {
		return "", err
	}
	return g.extra.Notes, nil
}

func gadgetKind() *Kind[*Gadget] {
	return &Kind[*Gadget]{
		Name:     "gadget",
		Identity: "gadget_record",
		Groups:   map[Group]string{Core: "gadget_record", "extra": "gadget_extra"},
		Fields: map[string]Field[*Gadget]{
			"name":   {Group: Core, Get: func(g *Gadget) any { return g.core.Name }},
			"weight": {Group: Core, Get: func(g *Gadget) any { return g.core.Weight }},
			"notes":  {Group: "extra", Get: func(g *Gadget) any { return g.extra.Notes }},
		},
		New: func(b *Base) *Gadget { return &Gadget{Base: b} },
	}
}

func gadgetRegistry() *keys.Registry {
	r := keys.NewRegistry()
	r.MustRegister(
		keys.Entry{
			Type:   "gadget_record",
			Shapes: []keys.Shape{keys.NewShape("id"), keys.NewShape("name")},
			Schema: query.Schema{
				Fields: []query.Field{
					{Name: "id", Rules: []validation.Rule{query.Integer}},
					{Name: "name", Rules: []validation.Rule{query.String}},
				},
				AnyOf: [][]string{{"id", "name"}},
			},
			Fields: func(v any) query.Query {
				r := v.(gadgetRecord)
				return query.Query{"id": r.ID, "name": r.Name}
			},
		},
		keys.Entry{
			Type:   "gadget_extra",
			Shapes: []keys.Shape{keys.NewShape("id")},
			Schema: query.Schema{
				Fields: []query.Field{{Name: "id", Required: true, Rules: []validation.Rule{query.Integer}}},
			},
		},
	)
	return r
}

type fetchCall struct {
	typeName string
	q        query.Query
}

type countingFetcher struct {
	mu       sync.Mutex
	registry *keys.Registry
	gadgets  []gadgetRecord
	extras   map[int64]gadgetExtra
	err      error
	gate     chan struct{}
	calls    []fetchCall
}

func newCountingFetcher() *countingFetcher {
	return &countingFetcher{
		registry: gadgetRegistry(),
		gadgets: []gadgetRecord{
			{ID: 42, Name: "Foo", Weight: 3},
			{ID: 99, Name: "Bar", Weight: 8},
		},
		extras: map[int64]gadgetExtra{42: {Notes: "fragile"}},
	}
}

func (f *countingFetcher) Registry() *keys.Registry { return f.registry }

func (f *countingFetcher) Get(ctx context.Context, typeName string, q query.Query) (any, error) {
	f.mu.Lock()
	f.calls = append(f.calls, fetchCall{typeName: typeName, q: q})
	gate, err := f.gate, f.err
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	switch typeName {
	case "gadget_record":
		for _, g := range f.gadgets {
			if id, ok := q.Int64("id"); ok && id == g.ID {
				return g, nil
			}
			if q.Str("name") == g.Name {
				return g, nil
			}
		}
	case "gadget_extra":
		if id, ok := q.Int64("id"); ok {
			if e, ok := f.extras[id]; ok {
				return e, nil
			}
		}
	}
	return nil, errs.NotFound(typeName, q)
}

func (f *countingFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}
