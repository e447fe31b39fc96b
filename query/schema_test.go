package query

import (
	"errors"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

func championSchema() Schema {
	return Schema{
		Fields: []Field{
			{Name: "id", Rules: []validation.Rule{Integer}},
			{Name: "name", Rules: []validation.Rule{String}},
			{Name: "platform", Required: true, Rules: []validation.Rule{String}},
			{Name: "locale", Default: "en_US", Rules: []validation.Rule{String}},
		},
		AnyOf: [][]string{{"id", "name"}},
	}
}

func TestSchema_Apply(t *testing.T) {
	tests := []struct {
		name      string
		query     Query
		wantErr   bool
		errFields []string
	}{
		{name: "id and platform", query: Query{"id": 7, "platform": "NA1"}},
		{name: "name and platform", query: Query{"name": "Foo", "platform": "NA1"}},
		{name: "missing platform", query: Query{"id": 7}, wantErr: true, errFields: []string{"platform"}},
		{name: "neither id nor name", query: Query{"platform": "NA1"}, wantErr: true, errFields: []string{"id|name"}},
		{name: "unknown field", query: Query{"id": 7, "platform": "NA1", "color": "red"}, wantErr: true, errFields: []string{"color"}},
		{name: "wrong type", query: Query{"id": "seven", "platform": "NA1"}, wantErr: true, errFields: []string{"id"}},
		{name: "nil query", query: nil, wantErr: true, errFields: []string{"platform", "id|name"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := championSchema().Apply(tt.query)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Apply() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				var verrs validation.Errors
				if !errors.As(err, &verrs) {
					t.Fatalf("expected validation.Errors, got %T", err)
				}
				for _, f := range tt.errFields {
					if _, ok := verrs[f]; !ok {
						t.Errorf("expected error for field %q, got %v", f, verrs)
					}
				}
				return
			}
			if out.Str("locale") != "en_US" {
				t.Errorf("expected default locale, got %q", out.Str("locale"))
			}
		})
	}
}

func TestSchema_DefaultDoesNotOverride(t *testing.T) {
	out, err := championSchema().Apply(Query{"id": 1, "platform": "NA1", "locale": "ko_KR"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Str("locale") != "ko_KR" {
		t.Errorf("expected explicit locale to win, got %q", out.Str("locale"))
	}
}

func TestMembers(t *testing.T) {
	rule := Members(Integer)

	if err := rule.Validate(NewSet(1, 2, 3)); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := rule.Validate([]any{1, "two"}); err == nil {
		t.Error("expected error for non-integer member")
	}
	if err := rule.Validate(5); err == nil {
		t.Error("expected error for scalar value")
	}
}
