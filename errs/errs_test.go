package errs

import (
	"fmt"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
)

type stringer string

func (s stringer) String() string { return string(s) }

func TestPredicates(t *testing.T) {
	validationErr := validation.Errors{"platform": validation.ErrRequired}

	tests := []struct {
		name          string
		err           error
		notFound      bool
		validation    bool
		alreadyLoaded bool
		mismatch      bool
	}{
		{name: "not found", err: NotFound("champion_data", stringer("id=7")), notFound: true},
		{name: "validation", err: Validation("champion_data", validationErr), validation: true},
		{name: "already loaded", err: AlreadyLoaded("champion", "core"), alreadyLoaded: true},
		{name: "transform mismatch", err: TransformMismatch("a", "b"), mismatch: true},
		{name: "wrapped not found", err: fmt.Errorf("load: %w", NotFound("item_data", nil)), notFound: true},
		{name: "plain error", err: fmt.Errorf("boom")},
		{name: "nil", err: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFound(tt.err); got != tt.notFound {
				t.Errorf("IsNotFound() = %v, want %v", got, tt.notFound)
			}
			if got := IsValidation(tt.err); got != tt.validation {
				t.Errorf("IsValidation() = %v, want %v", got, tt.validation)
			}
			if got := IsAlreadyLoaded(tt.err); got != tt.alreadyLoaded {
				t.Errorf("IsAlreadyLoaded() = %v, want %v", got, tt.alreadyLoaded)
			}
			if got := IsTransformMismatch(tt.err); got != tt.mismatch {
				t.Errorf("IsTransformMismatch() = %v, want %v", got, tt.mismatch)
			}
		})
	}
}

func TestValidation_KeepsFieldErrors(t *testing.T) {
	err := Validation("summoner_data", validation.Errors{
		"platform": validation.ErrRequired,
		"id":       validation.ErrNil,
	})

	if len(err.ValidationErrors) != 2 {
		t.Fatalf("expected 2 field errors, got %d", len(err.ValidationErrors))
	}
	if err.TextCode != TextCodeValidation {
		t.Errorf("expected text code %s, got %s", TextCodeValidation, err.TextCode)
	}
	if err.Category != goerrors.CategoryValidation {
		t.Errorf("expected validation category, got %s", err.Category)
	}
}

func TestNotFound_Metadata(t *testing.T) {
	err := NotFound("champion_data", stringer("id=7"))

	if err.Metadata["type"] != "champion_data" {
		t.Errorf("expected type metadata, got %v", err.Metadata["type"])
	}
	if err.Metadata["query"] != "id=7" {
		t.Errorf("expected query metadata, got %v", err.Metadata["query"])
	}
	if Validation("x", nil) != nil {
		t.Error("expected nil for nil validation source")
	}
}
