package pipeline

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/goliatone/go-catalog-cache/errs"
	"github.com/goliatone/go-catalog-cache/keys"
)

// TransformFunc converts one value into another shape. Transformers must be
// stateless; request scoped data is read from the context.
type TransformFunc func(ctx context.Context, value any) (any, error)

// Transformer converts values of type From into type To.
type Transformer struct {
	From string
	To   string
	Fn   TransformFunc
}

// Transformers is the registry of conversions between type names. Chains
// are composed by shortest path over the registered edges.
type Transformers struct {
	mu     sync.RWMutex
	edges  map[string][]Transformer
	chains *xsync.MapOf[string, []Transformer]
}

// NewTransformers creates an empty registry.
func NewTransformers() *Transformers {
	return &Transformers{
		edges:  map[string][]Transformer{},
		chains: xsync.NewMapOf[string, []Transformer](),
	}
}

// Register adds a conversion. Registering the same pair twice fails.
func (t *Transformers) Register(from, to string, fn TransformFunc) error {
	if from == "" || to == "" || fn == nil {
		return fmt.Errorf("pipeline: transformer needs source, target and function")
	}
	if from == to {
		return fmt.Errorf("pipeline: transformer from %s to itself", from)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for _, existing := range t.edges[from] {
		if existing.To == to {
			return fmt.Errorf("pipeline: transformer %s -> %s already registered", from, to)
		}
	}
	t.edges[from] = append(t.edges[from], Transformer{From: from, To: to, Fn: fn})
	t.chains.Clear()
	return nil
}

// Register adds a typed conversion whose type names come from S and T.
func Register[S, T any](t *Transformers, fn func(ctx context.Context, value S) (T, error)) error {
	from := keys.TypeName(reflect.TypeOf((*S)(nil)).Elem())
	to := keys.TypeName(reflect.TypeOf((*T)(nil)).Elem())
	return t.Register(from, to, func(ctx context.Context, value any) (any, error) {
		typed, ok := value.(S)
		if !ok {
			return nil, errs.TransformMismatch(keys.TypeOf(value), to)
		}
		return fn(ctx, typed)
	})
}

// Chain returns the shortest sequence of transformers from one type to
// another. Identical types need no transformers.
func (t *Transformers) Chain(from, to string) ([]Transformer, error) {
	if from == to {
		return nil, nil
	}
	cacheKey := from + "->" + to
	if chain, ok := t.chains.Load(cacheKey); ok {
		if chain == nil {
			return nil, errs.TransformMismatch(from, to)
		}
		return chain, nil
	}

	chain := t.search(from, to)
	t.chains.Store(cacheKey, chain)
	if chain == nil {
		return nil, errs.TransformMismatch(from, to)
	}
	return chain, nil
}

// Reachable reports whether values of type from can be converted to to.
func (t *Transformers) Reachable(from, to string) bool {
	_, err := t.Chain(from, to)
	return err == nil
}

// Distance returns the chain length between two types, or -1.
func (t *Transformers) Distance(from, to string) int {
	chain, err := t.Chain(from, to)
	if err != nil {
		return -1
	}
	return len(chain)
}

// Transform converts value into the target type by the value's actual type.
func (t *Transformers) Transform(ctx context.Context, target string, value any) (any, error) {
	chain, err := t.Chain(keys.TypeOf(value), target)
	if err != nil {
		return nil, err
	}
	for _, step := range chain {
		value, err = step.Fn(ctx, value)
		if err != nil {
			return nil, fmt.Errorf("transform %s -> %s: %w", step.From, step.To, err)
		}
	}
	return value, nil
}

func (t *Transformers) search(from, to string) []Transformer {
	t.mu.RLock()
	defer t.mu.RUnlock()

	type node struct {
		name string
		path []Transformer
	}
	visited := map[string]bool{from: true}
	frontier := []node{{name: from}}

	for len(frontier) > 0 {
		current := frontier[0]
		frontier = frontier[1:]
		for _, edge := range t.edges[current.name] {
			if visited[edge.To] {
				continue
			}
			path := append(append([]Transformer(nil), current.path...), edge)
			if edge.To == to {
				return path
			}
			visited[edge.To] = true
			frontier = append(frontier, node{name: edge.To, path: path})
		}
	}
	return nil
}
