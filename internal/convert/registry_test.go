package convert

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRegistryLookupKnown(t *testing.T) {
	r := NewRegistry()

	entry, ok := r.Lookup("com.gliffy.stencil.decision.flowchart_v1")
	if !ok {
		t.Fatal("expected exact match for decision stencil")
	}
	if entry.Category != CategoryDiamond {
		t.Errorf("Expected diamond, got %s", entry.Category)
	}
}

func TestRegistryLookupUnknownFallsBack(t *testing.T) {
	r := NewRegistry()

	entry, ok := r.Lookup("com.unknown.stencil")
	if ok {
		t.Error("unknown TID should not be an exact match")
	}
	if entry.Category != CategoryGeneric {
		t.Errorf("Expected generic fallback, got %s", entry.Category)
	}
	if entry.Category.ElementType() != "rectangle" {
		t.Errorf("generic category should render as rectangle, got %s", entry.Category.ElementType())
	}
}

func TestClassify(t *testing.T) {
	cases := map[string]Category{
		"com.gliffy.shape.basic.basic_v1.default.ellipse": CategoryEllipse,
		"com.gliffy.shape.flowchart.decision":             CategoryDiamond,
		"com.gliffy.shape.basic.basic_v1.default.square":  CategoryRectangle,
		"com.gliffy.shape.basic.basic_v1.default.text":    CategoryText,
		"com.gliffy.shape.basic.basic_v1.default.line":    CategoryLine,
		"com.acme.widget":                                 CategoryGeneric,
		"": CategoryGeneric,
	}
	for uid, want := range cases {
		if got := Classify(uid); got != want {
			t.Errorf("Classify(%q) = %s, want %s", uid, got, want)
		}
	}
}

func TestRegistryLoadRules(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	rules := `
"com.acme.stencil.cloud_v1":
  category: ellipse
  label: Cloud
"com.gliffy.stencil.rectangle.basic_v1":
  category: diamond
`
	if err := os.WriteFile(path, []byte(rules), 0644); err != nil {
		t.Fatal(err)
	}

	r := NewRegistry()
	if err := r.LoadRules(path); err != nil {
		t.Fatalf("LoadRules failed: %v", err)
	}

	entry, ok := r.Lookup("com.acme.stencil.cloud_v1")
	if !ok || entry.Category != CategoryEllipse {
		t.Errorf("Expected rules entry ellipse, got %s (exact=%v)", entry.Category, ok)
	}

	// Rules override the built-in table.
	entry, _ = r.Lookup("com.gliffy.stencil.rectangle.basic_v1")
	if entry.Category != CategoryDiamond {
		t.Errorf("Expected rules to override builtin, got %s", entry.Category)
	}
}

func TestRegistryLoadRulesMissingFile(t *testing.T) {
	r := NewRegistry()
	if err := r.LoadRules(filepath.Join(t.TempDir(), "nope.yaml")); err != nil {
		t.Errorf("missing rules file should not error, got %v", err)
	}
}
