package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/goliatone/go-catalog-cache/errs"
)

func appendStep(step string) TransformFunc {
	return func(_ context.Context, v any) (any, error) {
		return v.(string) + ">" + step, nil
	}
}

func TestTransformers_ShortestChain(t *testing.T) {
	tr := NewTransformers()
	for _, edge := range [][2]string{{"wire", "record"}, {"record", "view"}, {"view", "domain"}, {"record", "domain"}} {
		if err := tr.Register(edge[0], edge[1], appendStep(edge[1])); err != nil {
			t.Fatalf("Register(%s, %s) failed: %v", edge[0], edge[1], err)
		}
	}

	chain, err := tr.Chain("wire", "domain")
	if err != nil {
		t.Fatalf("Chain failed: %v", err)
	}
	var steps []string
	for _, c := range chain {
		steps = append(steps, c.From+"->"+c.To)
	}
	if got := strings.Join(steps, ","); got != "wire->record,record->domain" {
		t.Errorf("Chain() = %s", got)
	}
	if d := tr.Distance("wire", "domain"); d != 2 {
		t.Errorf("Distance() = %d, want 2", d)
	}
	if d := tr.Distance("domain", "wire"); d != -1 {
		t.Errorf("expected unreachable reverse direction, got %d", d)
	}
	if d := tr.Distance("wire", "wire"); d != 0 {
		t.Errorf("identical types should have distance 0, got %d", d)
	}
}

func TestTransformers_RegisterRejectsInvalid(t *testing.T) {
	tr := NewTransformers()
	if err := tr.Register("a", "b", appendStep("b")); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	tests := []struct {
		name     string
		from, to string
		fn       TransformFunc
	}{
		{name: "duplicate", from: "a", to: "b", fn: appendStep("b")},
		{name: "self", from: "a", to: "a", fn: appendStep("a")},
		{name: "missing function", from: "b", to: "c"},
		{name: "missing type", from: "", to: "c", fn: appendStep("c")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tr.Register(tt.from, tt.to, tt.fn); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestTransformers_RegisterInvalidatesChains(t *testing.T) {
	tr := NewTransformers()
	if tr.Reachable("a", "b") {
		t.Fatal("nothing registered yet")
	}
	if err := tr.Register("a", "b", appendStep("b")); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if !tr.Reachable("a", "b") {
		t.Error("cached miss should be dropped after registration")
	}
}

func TestTransformers_TransformMismatch(t *testing.T) {
	tr := NewTransformers()
	_, err := tr.Transform(context.Background(), "widget", 42)
	if !errs.IsTransformMismatch(err) {
		t.Fatalf("expected transform mismatch, got %v", err)
	}
}

func TestRegister_Typed(t *testing.T) {
	tr := widgetTransformers()

	got, err := tr.Transform(context.Background(), "widget", widgetWire{ID: 4, Name: "nut"})
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if got.(widget).Label != "nut#4" {
		t.Errorf("Transform() = %#v", got)
	}

	same, err := tr.Transform(context.Background(), "widget", widget{ID: 1})
	if err != nil || same.(widget).ID != 1 {
		t.Errorf("identity transform failed: %#v, %v", same, err)
	}
}

func TestTransform_ReadsRequestQuery(t *testing.T) {
	tr := NewTransformers()
	err := tr.Register("string", "stamped", func(ctx context.Context, v any) (any, error) {
		return v.(string) + "@" + QueryFrom(ctx).Str("platform"), nil
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	ctx := WithQuery(context.Background(), map[string]any{"platform": "KR"})
	got, err := tr.Transform(ctx, "stamped", "ahri")
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if got != "ahri@KR" {
		t.Errorf("Transform() = %v", got)
	}
}
