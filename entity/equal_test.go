package entity

import (
	"context"
	"testing"

	"github.com/goliatone/go-catalog-cache/query"
)

func TestEqual_ByNameAndByIDAfterLoad(t *testing.T) {
	f := newCountingFetcher()
	loader := NewLoader(f)
	byName, _ := Resolve(loader, gadgetKind(), query.Query{"name": "Foo"})
	byID, _ := Resolve(loader, gadgetKind(), query.Query{"id": 42})

	if Equal(byName, byID) {
		t.Fatal("entities with no shared key and different queries should differ before loading")
	}

	for _, g := range []*Gadget{byName, byID} {
		if err := g.Ensure(context.Background(), Core); err != nil {
			t.Fatalf("Ensure failed: %v", err)
		}
	}
	if !Equal(byName, byID) || !byID.Equal(byName) {
		t.Fatal("entities resolving to the same record should be equal")
	}
	if Hash(byName) != Hash(byID) {
		t.Error("equal entities should hash alike")
	}

	index := map[uint64]*Gadget{Hash(byName): byName}
	if index[Hash(byID)] != byName {
		t.Error("entities should be interchangeable as map keys")
	}
}

func TestHash_ConsistentWithEqual(t *testing.T) {
	f := newCountingFetcher()
	loader := NewLoader(f)

	byName, _ := Resolve(loader, gadgetKind(), query.Query{"name": "Foo"})
	sameName, _ := Resolve(loader, gadgetKind(), query.Query{"name": "Foo"})
	byID, _ := Resolve(loader, gadgetKind(), query.Query{"id": 42})
	loaded, _ := FromRecord(loader, gadgetKind(), gadgetRecord{ID: 42, Name: "Foo"})

	tests := []struct {
		name string
		a, b *Gadget
		want bool
	}{
		{"same unloaded name", byName, sameName, true},
		{"unloaded id and loaded record", byID, loaded, true},
		{"unloaded name and loaded record", byName, loaded, false},
		{"unloaded name and unloaded id", byName, byID, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Fatalf("Equal() = %v, want %v", got, tt.want)
			}
			if Equal(tt.b, tt.a) != tt.want {
				t.Error("Equal is not symmetric")
			}
			if tt.want && Hash(tt.a) != Hash(tt.b) {
				t.Error("equal entities should hash alike")
			}
		})
	}
	if f.callCount() != 0 {
		t.Errorf("equality must not fetch, got %d calls", f.callCount())
	}
}

func TestEqual_SharedKeyDecides(t *testing.T) {
	f := newCountingFetcher()
	loader := NewLoader(f)

	a, _ := Resolve(loader, gadgetKind(), query.Query{"id": 42})
	b, _ := Resolve(loader, gadgetKind(), query.Query{"id": 42})
	c, _ := Resolve(loader, gadgetKind(), query.Query{"id": 99})
	if !Equal(a, b) {
		t.Error("same id should be equal without loading")
	}
	if Equal(a, c) {
		t.Error("different ids should differ")
	}

	loaded, _ := FromRecord(loader, gadgetKind(), gadgetRecord{ID: 42, Name: "Foo"})
	renamed, _ := FromRecord(loader, gadgetKind(), gadgetRecord{ID: 42, Name: "Renamed"})
	if Equal(loaded, renamed) {
		t.Error("every shared key must agree")
	}
	if f.callCount() != 0 {
		t.Errorf("equality must not fetch, got %d calls", f.callCount())
	}
}

func TestEqual_DifferentKinds(t *testing.T) {
	f := newCountingFetcher()
	loader := NewLoader(f)
	kind := gadgetKind()
	other := gadgetKind()
	other.Name = "widget"

	a, _ := Resolve(loader, kind, query.Query{"id": 1})
	b, _ := Resolve(loader, other, query.Query{"id": 1})
	if Equal(a, b) {
		t.Error("different kinds must not compare equal")
	}
	if Equal(a, nil) {
		t.Error("nil never equals an entity")
	}
}
