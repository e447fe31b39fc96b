package keys

import (
	"fmt"
	"slices"
	"sort"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/goliatone/go-catalog-cache/errs"
	"github.com/goliatone/go-catalog-cache/query"
)

// ErrConflictingRegistration is returned when a type is registered twice.
var ErrConflictingRegistration = fmt.Errorf("keys: conflicting registration")

// Registry holds the entries for every known type.
type Registry struct {
	entries *xsync.MapOf[string, *Entry]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: xsync.NewMapOf[string, *Entry]()}
}

// Register validates and adds an entry.
func (r *Registry) Register(e Entry) error {
	if e.Type == "" {
		return fmt.Errorf("keys: entry type is required")
	}
	if len(e.Shapes) == 0 {
		return fmt.Errorf("keys: %s declares no key shapes", e.Type)
	}

	declared := e.Schema.Names()
	for _, s := range e.Shapes {
		if len(s.Fields) == 0 {
			return fmt.Errorf("keys: %s shape %q has no fields", e.Type, s.Name)
		}
		if len(declared) == 0 {
			continue
		}
		for _, f := range s.Fields {
			if !slices.Contains(declared, f) {
				return fmt.Errorf("keys: %s shape %q uses undeclared field %q", e.Type, s.Name, f)
			}
		}
	}
	for plural, singular := range e.Many {
		if len(declared) > 0 && !slices.Contains(declared, singular) {
			return fmt.Errorf("keys: %s maps %q to undeclared field %q", e.Type, plural, singular)
		}
	}
	if e.Cascade != nil && (e.Cascade.Type == "" || e.Cascade.Members == nil) {
		return fmt.Errorf("keys: %s cascade needs a member type and expander", e.Type)
	}

	entry := e
	if _, loaded := r.entries.LoadOrStore(e.Type, &entry); loaded {
		return fmt.Errorf("%w: %s", ErrConflictingRegistration, e.Type)
	}
	return nil
}

// MustRegister panics when Register fails. Intended for start-up wiring.
func (r *Registry) MustRegister(entries ...Entry) {
	for _, e := range entries {
		if err := r.Register(e); err != nil {
			panic(err)
		}
	}
}

// Lookup returns the entry for typeName.
func (r *Registry) Lookup(typeName string) (*Entry, bool) {
	return r.entries.Load(typeName)
}

// Types lists the registered type names in sorted order.
func (r *Registry) Types() []string {
	var out []string
	r.entries.Range(func(k string, _ *Entry) bool {
		out = append(out, k)
		return true
	})
	sort.Strings(out)
	return out
}

// ForQuery derives the candidate keys for a request. Unknown types yield none.
func (r *Registry) ForQuery(typeName string, q query.Query) []AlternateKey {
	e, ok := r.Lookup(typeName)
	if !ok {
		return nil
	}
	return e.ForQuery(q)
}

// ForValue derives every key a value supports. Unknown types yield none.
func (r *Registry) ForValue(typeName string, v any) []AlternateKey {
	e, ok := r.Lookup(typeName)
	if !ok {
		return nil
	}
	return e.ForValue(v)
}

// Validate applies the type's schema, returning the completed query. Types
// without a schema pass through unchanged.
func (r *Registry) Validate(typeName string, q query.Query) (query.Query, error) {
	e, ok := r.Lookup(typeName)
	if !ok || len(e.Schema.Fields) == 0 {
		return q, nil
	}
	out, err := e.Schema.Apply(q)
	if err != nil {
		return nil, errs.Validation(typeName, err)
	}
	return out, nil
}

// Split expands a bulk request into one validated single-member query per
// element of its set-valued parameter, preserving element order.
func (r *Registry) Split(typeName string, q query.Query) ([]query.Query, error) {
	e, ok := r.Lookup(typeName)
	if !ok {
		return nil, errs.Validation(typeName, fmt.Errorf("type %s is not registered", typeName))
	}

	plural, singular := "", ""
	for p, s := range e.Many {
		if q.Has(p) {
			if plural != "" {
				return nil, errs.Validation(typeName, fmt.Errorf("only one of the bulk parameters may be used"))
			}
			plural, singular = p, s
		}
	}
	if plural == "" {
		return nil, errs.Validation(typeName, fmt.Errorf("no bulk parameter supplied"))
	}

	set, ok := q.Set(plural)
	if !ok {
		return nil, errs.Validation(typeName, fmt.Errorf("%s must be a set", plural))
	}

	base := q.Without(plural)
	out := make([]query.Query, 0, len(set))
	for _, member := range set {
		single, err := r.Validate(typeName, base.With(singular, member))
		if err != nil {
			return nil, err
		}
		out = append(out, single)
	}
	return out, nil
}

// ForMany yields one key list per member of a bulk request, in member order.
func (r *Registry) ForMany(typeName string, q query.Query) ([][]AlternateKey, error) {
	singles, err := r.Split(typeName, q)
	if err != nil {
		return nil, err
	}
	out := make([][]AlternateKey, len(singles))
	for i, s := range singles {
		out[i] = r.ForQuery(typeName, s)
	}
	return out, nil
}

// Members expands a collection value for cascade.
func (r *Registry) Members(typeName string, v any) (string, []any) {
	e, ok := r.Lookup(typeName)
	if !ok {
		return "", nil
	}
	return e.Members(v)
}

// ValidateMany validates a bulk request and returns it with the defaults of
// its members filled in, alongside the per-member queries.
func (r *Registry) ValidateMany(typeName string, q query.Query) (query.Query, []query.Query, error) {
	singles, err := r.Split(typeName, q)
	if err != nil {
		return nil, nil, err
	}
	e, _ := r.Lookup(typeName)
	singular := map[string]bool{}
	for _, s := range e.Many {
		singular[s] = true
	}
	out := q.Clone()
	if len(singles) > 0 {
		for name, v := range singles[0] {
			if !singular[name] && !out.Has(name) {
				out[name] = v
			}
		}
	}
	return out, singles, nil
}
