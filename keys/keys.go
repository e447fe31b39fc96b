// Package keys is the key derivation registry. For every registered type it
// knows the alternate natural keys an instance, or a request for one, can be
// indexed under, the schema a request must satisfy, and how collection values
// cascade into their members.
package keys

import (
	"strings"

	"github.com/goliatone/go-catalog-cache/query"
)

// AlternateKey is a typed, ordered tuple identifying one instance of one type.
type AlternateKey struct {
	Type   string
	Shape  string
	Values []any
}

// String renders the key. Values are normalized so 7 and int64(7) agree.
func (k AlternateKey) String() string {
	parts := make([]string, 0, len(k.Values)+2)
	parts = append(parts, k.Type, k.Shape)
	for _, v := range k.Values {
		parts = append(parts, query.FormatValue(v))
	}
	return strings.Join(parts, "|")
}

// Equal compares keys by rendered form.
func (k AlternateKey) Equal(other AlternateKey) bool {
	return k.String() == other.String()
}

// Shape is one key form: the ordered fields whose values identify an instance.
type Shape struct {
	Name   string
	Fields []string
}

// NewShape names the shape after its fields.
func NewShape(fields ...string) Shape {
	return Shape{Name: strings.Join(fields, "+"), Fields: fields}
}

// Derive builds the key from fields. It reports false when any field is
// missing, which is not an error: the instance simply lacks that key.
func (s Shape) Derive(typeName string, fields query.Query) (AlternateKey, bool) {
	values := make([]any, len(s.Fields))
	for i, f := range s.Fields {
		v, ok := fields[f]
		if !ok || v == nil || isZeroString(v) {
			return AlternateKey{}, false
		}
		values[i] = query.Normalize(v)
	}
	return AlternateKey{Type: typeName, Shape: s.Name, Values: values}, true
}

func isZeroString(v any) bool {
	s, ok := v.(string)
	return ok && s == ""
}

// Fielder is implemented by values that can report their identifying
// fields. Only currently known attributes are reported.
type Fielder interface {
	KeyFields() query.Query
}

// Cascade expands a collection value into members stored under their own type.
type Cascade struct {
	Type    string
	Members func(v any) []any
}

// Entry declares everything the registry knows about one type.
type Entry struct {
	Type   string
	Shapes []Shape
	Schema query.Schema
	// Fields extracts identifying fields from a value. When nil the value
	// must implement Fielder.
	Fields func(v any) query.Query
	// Many maps set-valued request parameters to their singular form, for
	// example "ids" to "id".
	Many    map[string]string
	Cascade *Cascade
}

func (e *Entry) fieldsOf(v any) query.Query {
	if v == nil {
		return nil
	}
	if e.Fields != nil {
		return e.Fields(v)
	}
	if f, ok := v.(Fielder); ok {
		return f.KeyFields()
	}
	return nil
}

// ForQuery derives every key the request parameters support, in shape order.
func (e *Entry) ForQuery(q query.Query) []AlternateKey {
	return e.derive(q)
}

// ForValue derives every key the value's known fields support, in shape order.
func (e *Entry) ForValue(v any) []AlternateKey {
	return e.derive(e.fieldsOf(v))
}

// ValueFields exposes the identifying fields of v.
func (e *Entry) ValueFields(v any) query.Query {
	return e.fieldsOf(v)
}

func (e *Entry) derive(fields query.Query) []AlternateKey {
	if len(fields) == 0 {
		return nil
	}
	out := make([]AlternateKey, 0, len(e.Shapes))
	for _, s := range e.Shapes {
		if k, ok := s.Derive(e.Type, fields); ok {
			out = append(out, k)
		}
	}
	return out
}

// Members returns the cascade members of v, or nil.
func (e *Entry) Members(v any) (string, []any) {
	if e.Cascade == nil || v == nil {
		return "", nil
	}
	return e.Cascade.Type, e.Cascade.Members(v)
}
