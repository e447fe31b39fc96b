package entity

import (
	"fmt"

	"github.com/goliatone/go-catalog-cache/query"
)

// Resolve builds an entity from a partial identifying query. The query is
// validated and completed with defaults; nothing is fetched until an
// attribute outside the loaded groups is read.
func Resolve[T Entity](loader *Loader, kind *Kind[T], q query.Query) (T, error) {
	var zero T
	if loader == nil {
		return zero, fmt.Errorf("entity: %s needs a loader", kind.Name)
	}
	q, err := loader.registry().Validate(kind.Identity, q)
	if err != nil {
		return zero, err
	}
	return construct(loader, kind, q), nil
}

// FromRecord builds an entity from an already fetched record, marking the
// given groups loaded. Collection fetches use it to hand out members
// without a fetch per member.
func FromRecord[T Entity](loader *Loader, kind *Kind[T], record any, groups ...Group) (T, error) {
	var zero T
	if loader == nil {
		return zero, fmt.Errorf("entity: %s needs a loader", kind.Name)
	}
	if len(groups) == 0 {
		groups = []Group{Core}
	}

	e := construct(loader, kind, nil)
	b := e.base()
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, g := range groups {
		if _, ok := kind.Groups[g]; !ok {
			return zero, fmt.Errorf("entity: %s has no load group %q", kind.Name, g)
		}
		if err := b.install(g, record); err != nil {
			return zero, err
		}
	}
	b.query = b.known()
	return e, nil
}

func construct[T Entity](loader *Loader, kind *Kind[T], q query.Query) T {
	b := newBase(kind.spec(), loader, q)
	e := kind.New(b)
	b.bind(e)
	return e
}
