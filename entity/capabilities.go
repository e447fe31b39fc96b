package entity

import (
	"context"
	"iter"

	"github.com/goliatone/go-catalog-cache/keys"
	"github.com/goliatone/go-catalog-cache/query"
)

// Identifiable is implemented by values with a stable identity across the
// queries that can name them.
type Identifiable interface {
	Type() string
	Query() query.Query
	Keys() []keys.AlternateKey
	Primary() (keys.AlternateKey, bool)
}

// PartiallyLoadable is implemented by values whose attributes are fetched
// in load groups on first access.
type PartiallyLoadable interface {
	Groups() []Group
	Loaded(g Group) bool
	Load(ctx context.Context, g Group) error
	Ensure(ctx context.Context, g Group) error
}

// LazySequence is implemented by collections produced on demand.
type LazySequence[T any] interface {
	All(ctx context.Context) iter.Seq2[T, error]
	Collect(ctx context.Context) ([]T, error)
	Materialized() bool
}

// Installer receives fetched records for a load group and reports the
// identifying fields known from the records installed so far. Concrete
// entity types implement it; Base drives it.
type Installer interface {
	Install(g Group, record any) error
	KeyFields() query.Query
}

// Entity is the full contract of a concrete entity type.
type Entity interface {
	Identifiable
	PartiallyLoadable
	Installer
	base() *Base
}
