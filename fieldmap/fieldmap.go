// Package fieldmap declares how wire records map onto typed records. A Table
// lists, for every populated struct field, the wire key it is read from. The
// table is checked against the target struct when it is built, so a missing
// field or a clashing source key fails at start-up instead of on first use.
package fieldmap

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// Getter computes a field value from the whole wire record. It reports false
// when the value is absent.
type Getter func(src map[string]any) (any, bool)

// Rule maps one struct field. Source is a dotted path into the wire record;
// Get replaces the path lookup for computed fields.
type Rule struct {
	Field  string
	Source string
	Get    Getter
}

// Field is shorthand for a rule reading a single wire key.
func Field(field, source string) Rule {
	return Rule{Field: field, Source: source}
}

// Computed is shorthand for a rule with a custom getter.
func Computed(field string, get Getter) Rule {
	return Rule{Field: field, Get: get}
}

// Table decodes wire records into T.
type Table[T any] struct {
	name  string
	rules []Rule
}

// New validates rules against T and returns the table.
func New[T any](rules ...Rule) (*Table[T], error) {
	target := reflect.TypeOf((*T)(nil)).Elem()
	if target.Kind() != reflect.Struct {
		return nil, fmt.Errorf("fieldmap: %s is not a struct", target)
	}

	t := &Table[T]{name: target.Name(), rules: append([]Rule(nil), rules...)}
	fields := map[string]bool{}
	sources := map[string]string{}

	for _, r := range rules {
		sf, ok := target.FieldByName(r.Field)
		if !ok || !sf.IsExported() {
			return nil, fmt.Errorf("fieldmap: %s has no exported field %q", t.name, r.Field)
		}
		if fields[r.Field] {
			return nil, fmt.Errorf("fieldmap: %s.%s mapped twice", t.name, r.Field)
		}
		fields[r.Field] = true

		if !supported(sf.Type) {
			return nil, fmt.Errorf("fieldmap: %s.%s has unsupported kind %s", t.name, r.Field, sf.Type.Kind())
		}

		switch {
		case r.Get != nil && r.Source != "":
			return nil, fmt.Errorf("fieldmap: %s.%s sets both a source and a getter", t.name, r.Field)
		case r.Get != nil:
		case r.Source == "":
			return nil, fmt.Errorf("fieldmap: %s.%s has no source", t.name, r.Field)
		default:
			if other, dup := sources[r.Source]; dup {
				return nil, fmt.Errorf("fieldmap: %s source %q feeds both %s and %s", t.name, r.Source, other, r.Field)
			}
			sources[r.Source] = r.Field
		}
	}
	return t, nil
}

// MustNew is New that panics on an invalid table.
func MustNew[T any](rules ...Rule) *Table[T] {
	t, err := New[T](rules...)
	if err != nil {
		panic(err)
	}
	return t
}

// Decode builds a T from a wire record. Keys missing from src leave the
// field at its zero value; numbers are converted between widths.
func (t *Table[T]) Decode(src map[string]any) (T, error) {
	var out T
	flat := make(map[string]any, len(t.rules))
	for _, r := range t.rules {
		var (
			v  any
			ok bool
		)
		if r.Get != nil {
			v, ok = r.Get(src)
		} else {
			v, ok = Lookup(src, r.Source)
		}
		if ok && v != nil {
			flat[r.Field] = v
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		TagName:          "fieldmap",
		WeaklyTypedInput: true,
		MatchName:        func(key, field string) bool { return key == field },
	})
	if err != nil {
		return out, err
	}
	if err := decoder.Decode(flat); err != nil {
		return out, fmt.Errorf("fieldmap: decode %s: %w", t.name, err)
	}
	return out, nil
}

// DecodeAll decodes every element of a wire list.
func (t *Table[T]) DecodeAll(src []any) ([]T, error) {
	out := make([]T, 0, len(src))
	for i, item := range src {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("fieldmap: %s element %d is %T, not an object", t.name, i, item)
		}
		v, err := t.Decode(m)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Sources lists the wire paths the table reads, sorted.
func (t *Table[T]) Sources() []string {
	var out []string
	for _, r := range t.rules {
		if r.Source != "" {
			out = append(out, r.Source)
		}
	}
	sort.Strings(out)
	return out
}

// Lookup follows a dotted path through nested maps.
func Lookup(src map[string]any, path string) (any, bool) {
	var cur any = src
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}

func supported(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Chan, reflect.Func, reflect.UnsafePointer, reflect.Complex64, reflect.Complex128:
		return false
	case reflect.Pointer, reflect.Slice, reflect.Array:
		return supported(t.Elem())
	case reflect.Map:
		return t.Key().Kind() == reflect.String && supported(t.Elem())
	}
	return true
}
