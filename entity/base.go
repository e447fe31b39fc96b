package entity

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/goliatone/go-catalog-cache/errs"
	"github.com/goliatone/go-catalog-cache/keys"
	"github.com/goliatone/go-catalog-cache/query"
)

// Base carries the identity and load bookkeeping shared by every entity.
// Concrete types embed *Base and implement Installer.
type Base struct {
	kind   kindSpec
	loader *Loader

	mu     sync.Mutex
	query  query.Query
	loaded map[Group]bool
	self   Installer
}

func newBase(kind kindSpec, loader *Loader, q query.Query) *Base {
	return &Base{
		kind:   kind,
		loader: loader,
		query:  q.Clone(),
		loaded: make(map[Group]bool, len(kind.groups)),
	}
}

func (b *Base) base() *Base { return b }

func (b *Base) bind(self Installer) { b.self = self }

// Loader returns the loader the entity fetches through. Related entities
// built from this one share it.
func (b *Base) Loader() *Loader { return b.loader }

// Type returns the kind name.
func (b *Base) Type() string { return b.kind.name }

// Groups lists the declared load groups.
func (b *Base) Groups() []Group {
	out := make([]Group, 0, len(b.kind.groups))
	for g := range b.kind.groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Loaded reports whether g has been loaded.
func (b *Base) Loaded(g Group) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loaded[g]
}

// Query returns the canonical identifying query: the construction fragment
// completed with every identifying field known from loaded records.
func (b *Base) Query() query.Query {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.known()
}

// Keys returns every alternate key the entity can currently produce.
func (b *Base) Keys() []keys.AlternateKey {
	q := b.Query()
	entry, ok := b.loader.registry().Lookup(b.kind.identity)
	if !ok {
		return nil
	}
	return entry.ForQuery(q)
}

// Primary returns the key of the first declared shape, when the entity
// knows every field it needs.
func (b *Base) Primary() (keys.AlternateKey, bool) {
	entry, ok := b.loader.registry().Lookup(b.kind.identity)
	if !ok || len(entry.Shapes) == 0 {
		return keys.AlternateKey{}, false
	}
	return entry.Shapes[0].Derive(entry.Type, b.Query())
}

// Ensure loads g unless it is already loaded. Concurrent callers share one
// fetch.
func (b *Base) Ensure(ctx context.Context, g Group) error {
	if b.Loaded(g) {
		return nil
	}
	return b.load(ctx, g)
}

// Load fetches g. Loading a group twice is a bookkeeping error.
func (b *Base) Load(ctx context.Context, g Group) error {
	if b.Loaded(g) {
		return errs.AlreadyLoaded(b.kind.name, string(g))
	}
	return b.load(ctx, g)
}

func (b *Base) load(ctx context.Context, g Group) error {
	recordType, ok := b.kind.groups[g]
	if !ok {
		return fmt.Errorf("entity: %s has no load group %q", b.kind.name, g)
	}

	record, err := b.loader.fetch(ctx, b.kind, g, recordType, b.Query())
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.loaded[g] {
		return nil
	}
	if err := b.install(g, record); err != nil {
		return err
	}
	return nil
}

// install must be called with mu held.
func (b *Base) install(g Group, record any) error {
	if b.self == nil {
		return fmt.Errorf("entity: %s instance is not bound", b.kind.name)
	}
	if err := b.self.Install(g, record); err != nil {
		return err
	}
	b.loaded[g] = true
	return nil
}

// known must be called with mu held.
func (b *Base) known() query.Query {
	out := b.query.Clone()
	if b.self == nil {
		return out
	}
	for name, v := range b.self.KeyFields() {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		out[name] = query.Normalize(v)
	}
	return out
}

// Equal reports whether other names the same logical entity.
func (b *Base) Equal(other Identifiable) bool {
	return Equal(b, other)
}
