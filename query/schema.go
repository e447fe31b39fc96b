package query

import (
	"reflect"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Field declares one accepted query parameter.
type Field struct {
	Name     string
	Required bool
	// Default is applied when the parameter is absent. A nil Default leaves
	// the parameter absent.
	Default any
	Rules   []validation.Rule
}

// Schema declares which parameters a query may carry, which are required and
// which groups need at least one member present (for example "id or name").
// Parameters not declared are rejected.
type Schema struct {
	Fields []Field
	AnyOf  [][]string
}

// ErrAnyOfRequired is reported when none of an AnyOf group is present.
var ErrAnyOfRequired = validation.NewError("validation_any_of_required", "one of the alternatives is required")

// Apply fills defaults and validates q, returning the completed copy.
// Validation failures are returned as validation.Errors keyed by parameter.
func (s Schema) Apply(q Query) (Query, error) {
	out := q.Clone()
	for _, f := range s.Fields {
		if _, ok := out[f.Name]; !ok && f.Default != nil {
			out[f.Name] = f.Default
		}
	}

	if err := s.Validate(out); err != nil {
		return nil, err
	}
	return out, nil
}

// Validate checks q without applying defaults.
func (s Schema) Validate(q Query) error {
	if q == nil {
		q = Query{}
	}
	keys := make([]*validation.KeyRules, 0, len(s.Fields))
	for _, f := range s.Fields {
		k := validation.Key(f.Name, f.Rules...)
		if !f.Required {
			k = k.Optional()
		}
		keys = append(keys, k)
	}

	errs := validation.Errors{}
	if err := validation.Validate(map[string]any(q), validation.Map(keys...)); err != nil {
		verrs, ok := err.(validation.Errors)
		if !ok {
			return err
		}
		for k, v := range verrs {
			errs[k] = v
		}
	}

	for _, group := range s.AnyOf {
		if !q.hasAny(group) {
			errs[strings.Join(group, "|")] = ErrAnyOfRequired.SetMessage("one of " + strings.Join(group, ", ") + " is required")
		}
	}

	return errs.Filter()
}

// Names lists the declared parameter names.
func (s Schema) Names() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

func (q Query) hasAny(names []string) bool {
	for _, n := range names {
		if q.Has(n) {
			return true
		}
	}
	return false
}

// Integer accepts any integral number.
var Integer = validation.By(func(value any) error {
	if value == nil {
		return nil
	}
	if _, ok := Normalize(value).(int64); !ok {
		return validation.NewError("validation_is_integer", "must be an integer")
	}
	return nil
})

// String accepts a non-empty string.
var String = validation.By(func(value any) error {
	if value == nil {
		return nil
	}
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_is_string", "must be a string")
	}
	if s == "" {
		return validation.NewError("validation_not_empty", "cannot be blank")
	}
	return nil
})

// Members applies rule to every member of a set-valued parameter.
func Members(rule validation.Rule) validation.Rule {
	return validation.By(func(value any) error {
		if value == nil {
			return nil
		}
		var members []any
		switch s := value.(type) {
		case Set:
			members = s
		default:
			rv := reflect.ValueOf(value)
			if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
				return validation.NewError("validation_is_set", "must be a set")
			}
			for i := 0; i < rv.Len(); i++ {
				members = append(members, rv.Index(i).Interface())
			}
		}
		for _, m := range members {
			if err := rule.Validate(m); err != nil {
				return err
			}
		}
		return nil
	})
}
