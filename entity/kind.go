package entity

import (
	"context"
	"fmt"
	"sort"

	"github.com/goliatone/go-catalog-cache/keys"
	"github.com/goliatone/go-catalog-cache/query"
)

// Group names an atomically fetched bundle of attributes.
type Group string

// Core is the group most kinds load first.
const Core Group = "core"

// DefaultFunc builds the record substituted when every stage misses.
type DefaultFunc func(q query.Query) any

// Field maps an attribute name onto its load group and accessor.
type Field[T Entity] struct {
	Group Group
	Get   func(e T) any
}

// Kind declares an entity type: which record backs each load group, which
// attributes live in which group and which groups fall back to a declared
// default when the record does not exist.
type Kind[T Entity] struct {
	Name string
	// Identity is the registry type whose key shapes and schema identify
	// instances.
	Identity string
	Groups   map[Group]string
	Fields   map[string]Field[T]
	Defaults map[Group]DefaultFunc
	New      func(b *Base) T
}

// Validate checks the declaration against the registry. Call it once at
// start-up.
func (k *Kind[T]) Validate(registry *keys.Registry) error {
	if k.Name == "" {
		return fmt.Errorf("entity: kind without name")
	}
	if k.New == nil {
		return fmt.Errorf("entity: kind %s has no constructor", k.Name)
	}
	if len(k.Groups) == 0 {
		return fmt.Errorf("entity: kind %s declares no load groups", k.Name)
	}
	if _, ok := registry.Lookup(k.Identity); !ok {
		return fmt.Errorf("entity: kind %s identity type %q is not registered", k.Name, k.Identity)
	}
	for g, record := range k.Groups {
		if record == "" {
			return fmt.Errorf("entity: kind %s group %s has no record type", k.Name, g)
		}
	}
	for name, f := range k.Fields {
		if _, ok := k.Groups[f.Group]; !ok {
			return fmt.Errorf("entity: kind %s field %s belongs to unknown group %s", k.Name, name, f.Group)
		}
		if f.Get == nil {
			return fmt.Errorf("entity: kind %s field %s has no accessor", k.Name, name)
		}
	}
	for g := range k.Defaults {
		if _, ok := k.Groups[g]; !ok {
			return fmt.Errorf("entity: kind %s default for unknown group %s", k.Name, g)
		}
	}
	return nil
}

// GroupNames lists the declared groups, sorted.
func (k *Kind[T]) GroupNames() []Group {
	out := make([]Group, 0, len(k.Groups))
	for g := range k.Groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Read returns an attribute by name, loading its group first when needed.
func (k *Kind[T]) Read(ctx context.Context, e T, field string) (any, error) {
	f, ok := k.Fields[field]
	if !ok {
		return nil, fmt.Errorf("entity: %s has no field %q", k.Name, field)
	}
	if err := e.Ensure(ctx, f.Group); err != nil {
		return nil, err
	}
	return f.Get(e), nil
}

func (k *Kind[T]) spec() kindSpec {
	return kindSpec{
		name:     k.Name,
		identity: k.Identity,
		groups:   k.Groups,
		defaults: k.Defaults,
	}
}

// kindSpec is the untyped view of a Kind held by every instance.
type kindSpec struct {
	name     string
	identity string
	groups   map[Group]string
	defaults map[Group]DefaultFunc
}
