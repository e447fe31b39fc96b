package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

// FixtureDir holds fixtures, relative to the package under test.
const FixtureDir = "testdata"

// FixturePath joins name onto FixtureDir.
func FixturePath(name string) string {
	return filepath.Join(FixtureDir, name)
}

// ReadFixture returns the contents of a fixture. Absolute paths are read
// as given, anything else is looked up under FixtureDir.
func ReadFixture(t testing.TB, name string) []byte {
	t.Helper()

	path := name
	if !filepath.IsAbs(path) {
		path = FixturePath(name)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to load fixture from %s: %v", path, err)
	}
	return data
}

// DecodeFixture unmarshals a JSON fixture into dest.
func DecodeFixture(t testing.TB, name string, dest any) {
	t.Helper()

	if err := json.Unmarshal(ReadFixture(t, name), dest); err != nil {
		t.Fatalf("failed to unmarshal JSON fixture %s: %v", name, err)
	}
}

// Wire decodes a JSON object fixture into the generic body a remote source
// hands to transformers.
func Wire(t testing.TB, name string) map[string]any {
	t.Helper()

	var body map[string]any
	DecodeFixture(t, name, &body)
	return body
}

// WireList returns the array under field of a wire fixture.
func WireList(t testing.TB, name, field string) []any {
	t.Helper()

	list, ok := Wire(t, name)[field].([]any)
	if !ok {
		t.Fatalf("fixture %s has no list under %q", name, field)
	}
	return list
}

// WireMembers returns the objects of a keyed collection, such as the "data"
// map of a static data document, ordered by key.
func WireMembers(t testing.TB, name, field string) []map[string]any {
	t.Helper()

	byKey, ok := Wire(t, name)[field].(map[string]any)
	if !ok {
		t.Fatalf("fixture %s has no object under %q", name, field)
	}
	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]map[string]any, 0, len(keys))
	for _, k := range keys {
		member, ok := byKey[k].(map[string]any)
		if !ok {
			t.Fatalf("fixture %s: member %q is %T", name, k, byKey[k])
		}
		out = append(out, member)
	}
	return out
}
