// Package query holds the caller supplied parameters that identify what to
// fetch, plus the schemas used to validate them before any I/O happens.
package query

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Query is a mapping of named parameters describing a requested value.
// Several different queries may resolve to the same logical entity.
type Query map[string]any

// Set is a set-valued parameter. Iteration keeps insertion order while the
// canonical form compares members by value.
type Set []any

// NewSet builds a Set, dropping duplicates while keeping first occurrence order.
func NewSet(values ...any) Set {
	seen := make(map[string]struct{}, len(values))
	out := make(Set, 0, len(values))
	for _, v := range values {
		v = Normalize(v)
		k := formatValue(v)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Get returns the named parameter.
func (q Query) Get(name string) (any, bool) {
	v, ok := q[name]
	return v, ok
}

// Has reports whether every name is present with a non-nil value.
func (q Query) Has(names ...string) bool {
	for _, n := range names {
		if v, ok := q[n]; !ok || v == nil {
			return false
		}
	}
	return true
}

// Str returns the named parameter formatted as a string, or "".
func (q Query) Str(name string) string {
	v, ok := q[name]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return formatValue(Normalize(v))
}

// Int64 returns the named parameter as an int64 when it holds an integral value.
func (q Query) Int64(name string) (int64, bool) {
	v, ok := q[name]
	if !ok {
		return 0, false
	}
	n, ok := Normalize(v).(int64)
	return n, ok
}

// Set returns the named parameter as a Set. Slices are converted.
func (q Query) Set(name string) (Set, bool) {
	v, ok := q[name]
	if !ok || v == nil {
		return nil, false
	}
	if s, ok := v.(Set); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	values := make([]any, rv.Len())
	for i := range values {
		values[i] = rv.Index(i).Interface()
	}
	return NewSet(values...), true
}

// Clone returns a shallow copy.
func (q Query) Clone() Query {
	out := make(Query, len(q))
	for k, v := range q {
		out[k] = v
	}
	return out
}

// With returns a copy with name set to value.
func (q Query) With(name string, value any) Query {
	out := q.Clone()
	out[name] = value
	return out
}

// Without returns a copy without the given names.
func (q Query) Without(names ...string) Query {
	out := q.Clone()
	for _, n := range names {
		delete(out, n)
	}
	return out
}

// Pick returns a copy holding only the given names that are present.
func (q Query) Pick(names ...string) Query {
	out := make(Query, len(names))
	for _, n := range names {
		if v, ok := q[n]; ok && v != nil {
			out[n] = v
		}
	}
	return out
}

// Merge returns a copy of q with other's entries laid on top.
func (q Query) Merge(other Query) Query {
	out := q.Clone()
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Names returns the parameter names in sorted order.
func (q Query) Names() []string {
	names := make([]string, 0, len(q))
	for k := range q {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Canonical returns a normalized, order independent rendering of q. Numeric
// values of any width compare equal and sets compare by their members.
func (q Query) Canonical() string {
	names := q.Names()
	parts := make([]string, 0, len(names))
	for _, n := range names {
		v := q[n]
		if v == nil {
			continue
		}
		parts = append(parts, n+"="+canonicalValue(v))
	}
	return strings.Join(parts, "&")
}

// Fingerprint hashes the canonical form.
func (q Query) Fingerprint() uint64 {
	return xxhash.Sum64String(q.Canonical())
}

// Equal compares two queries by canonical form.
func (q Query) Equal(other Query) bool {
	return q.Canonical() == other.Canonical()
}

func (q Query) String() string {
	return "{" + q.Canonical() + "}"
}

// Normalize folds integral numbers into int64 so that values decoded from
// different sources compare equal.
func Normalize(v any) any {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int8:
		return int64(n)
	case int16:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	case uint:
		return uint64ToAny(uint64(n))
	case uint8:
		return int64(n)
	case uint16:
		return int64(n)
	case uint32:
		return int64(n)
	case uint64:
		return uint64ToAny(n)
	case float32:
		return floatToAny(float64(n))
	case float64:
		return floatToAny(n)
	}
	return v
}

func uint64ToAny(n uint64) any {
	if n <= math.MaxInt64 {
		return int64(n)
	}
	return n
}

func floatToAny(f float64) any {
	if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
		return int64(f)
	}
	return f
}

func canonicalValue(v any) string {
	if s, ok := v.(Set); ok {
		return canonicalSet(s)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		values := make([]any, rv.Len())
		for i := range values {
			values[i] = rv.Index(i).Interface()
		}
		return canonicalSet(NewSet(values...))
	}
	return formatValue(Normalize(v))
}

func canonicalSet(s Set) string {
	members := make([]string, 0, len(s))
	seen := make(map[string]struct{}, len(s))
	for _, m := range s {
		f := formatValue(Normalize(m))
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		members = append(members, f)
	}
	sort.Strings(members)
	return "{" + strings.Join(members, ",") + "}"
}

func formatValue(v any) string {
	switch t := v.(type) {
	case string:
		return strconv.Quote(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case fmt.Stringer:
		return strconv.Quote(t.String())
	}
	return fmt.Sprintf("%v", v)
}

// FormatValue renders a single parameter value in canonical form.
func FormatValue(v any) string {
	if v == nil {
		return "nil"
	}
	return canonicalValue(v)
}
