package convert

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/gliffy-migrator/backend/internal/models"
)

func decodeOutput(t *testing.T, raw []byte) *models.ExcalidrawDocument {
	t.Helper()
	var doc models.ExcalidrawDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	return &doc
}

func mustConvert(t *testing.T, input string, opts Options) (*models.ExcalidrawDocument, *models.ConversionResult) {
	t.Helper()
	out, result, err := Convert([]byte(input), opts)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	return decodeOutput(t, out), result
}

func TestConvertRejectsBadInput(t *testing.T) {
	if _, _, err := Convert([]byte("{not json"), Options{}); !IsInputFormatError(err) {
		t.Errorf("Expected InputFormatError for invalid JSON, got %v", err)
	}
	if _, _, err := Convert([]byte(`{"title": "no diagram here"}`), Options{}); !IsInputFormatError(err) {
		t.Errorf("Expected InputFormatError for missing stage/pages, got %v", err)
	}
}

func TestGeometryRoundTrip(t *testing.T) {
	input := `{"stage": {"objects": [
		{"id": 1, "x": 12.5, "y": 34.25, "width": 120, "height": 80, "rotation": 0,
		 "graphic": {"type": "Shape", "Shape": {"tid": "com.gliffy.stencil.rectangle.basic_v1"}}}
	]}}`

	doc, _ := mustConvert(t, input, Options{})
	if len(doc.Elements) != 1 {
		t.Fatalf("Expected 1 element, got %d", len(doc.Elements))
	}

	e := doc.Elements[0]
	if e.X != 12.5 || e.Y != 34.25 || e.Width != 120 || e.Height != 80 || e.Angle != 0 {
		t.Errorf("geometry not preserved exactly: x=%v y=%v w=%v h=%v angle=%v",
			e.X, e.Y, e.Width, e.Height, e.Angle)
	}
}

func TestIdempotentReconversion(t *testing.T) {
	input := `{"stage": {"objects": [
		{"id": 1, "x": 0, "y": 0, "width": 100, "height": 60,
		 "graphic": {"type": "Shape", "Shape": {"tid": "com.gliffy.stencil.ellipse.basic_v1"}}},
		{"id": 2, "x": 0, "y": 0,
		 "graphic": {"type": "Line", "Line": {"endArrow": 1, "controlPath": [[120, 30], [250, 30]]}},
		 "constraints": {"startConstraint": {"StartPositionConstraint": {"nodeId": 1, "px": 1, "py": 0.5}}}}
	]}}`

	first, _, err := Convert([]byte(input), Options{Seed: 7})
	if err != nil {
		t.Fatal(err)
	}
	second, _, err := Convert([]byte(input), Options{Seed: 7})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Error("re-conversion with the same seed must be byte-identical")
	}
}

func TestOverridePrecedence(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "icon.png"), pngBytes, 0644); err != nil {
		t.Fatal(err)
	}
	mapping := `{"test.tid": {"count": 1, "image_path": "icon.png", "description": ""}}`
	mappingPath := filepath.Join(dir, "tids_mapping.json")
	if err := os.WriteFile(mappingPath, []byte(mapping), 0644); err != nil {
		t.Fatal(err)
	}
	store, err := LoadOverrides(mappingPath, dir)
	if err != nil {
		t.Fatal(err)
	}

	reg := NewRegistry()
	reg.Register("test.tid", TIDEntry{Category: CategoryRectangle})

	input := `{"stage": {"objects": [
		{"id": 1, "x": 0, "y": 0, "width": 10, "height": 10,
		 "graphic": {"type": "Shape", "Shape": {"tid": "test.tid", "fillColor": "#ff0000"}}}
	]}}`

	doc, result := mustConvert(t, input, Options{Registry: reg, Overrides: store})
	if len(doc.Elements) != 1 {
		t.Fatalf("Expected 1 element, got %d", len(doc.Elements))
	}
	if doc.Elements[0].Type != models.ElementImage {
		t.Errorf("override must win over registry shape, got %s", doc.Elements[0].Type)
	}
	if result.ImageCount != 1 {
		t.Errorf("Expected 1 embedded file, got %d", result.ImageCount)
	}
	if _, ok := doc.Files[doc.Elements[0].FileID]; !ok {
		t.Error("image element's fileId missing from files map")
	}
}

func TestUnknownTIDFallback(t *testing.T) {
	input := `{"stage": {"objects": [
		{"id": 1, "x": 5, "y": 5, "width": 40, "height": 40,
		 "graphic": {"type": "Shape", "Shape": {"tid": "com.unknown.stencil"}}}
	]}}`

	doc, result := mustConvert(t, input, Options{})
	if len(doc.Elements) != 1 {
		t.Fatalf("unknown TID must not drop the object, got %d elements", len(doc.Elements))
	}
	if doc.Elements[0].Type != models.ElementRectangle {
		t.Errorf("Expected generic rectangle, got %s", doc.Elements[0].Type)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("unknown TID is not a warning, got %v", result.Warnings)
	}
}

func TestNoDanglingBindings(t *testing.T) {
	// Arrow bound to shape 1 and to shape 99, which does not exist.
	input := `{"stage": {"objects": [
		{"id": 2, "x": 0, "y": 0,
		 "graphic": {"type": "Line", "Line": {"endArrow": 1, "controlPath": [[0, 0], [100, 0]]}},
		 "constraints": {
			"startConstraint": {"StartPositionConstraint": {"nodeId": 1, "px": 0.5, "py": 0.5}},
			"endConstraint": {"EndPositionConstraint": {"nodeId": 99, "px": 0.5, "py": 0.5}}}},
		{"id": 1, "x": 0, "y": 0, "width": 50, "height": 50,
		 "graphic": {"type": "Shape", "Shape": {"tid": "com.gliffy.stencil.rectangle.basic_v1"}}}
	]}}`

	doc, result := mustConvert(t, input, Options{})

	ids := make(map[string]bool)
	for _, e := range doc.Elements {
		ids[e.ID] = true
	}

	var arrow *models.ExcalidrawElement
	for _, e := range doc.Elements {
		if e.Type == models.ElementArrow {
			arrow = e
		}
	}
	if arrow == nil {
		t.Fatal("expected an arrow element")
	}

	// Forward reference: the shape appears after the arrow in source
	// order but the binding must still resolve.
	if arrow.StartBinding == nil {
		t.Error("forward-referenced binding was not resolved")
	} else if !ids[arrow.StartBinding.ElementID] {
		t.Errorf("startBinding references unknown element %s", arrow.StartBinding.ElementID)
	}

	// Missing target: cleared, warned, not dangling.
	if arrow.EndBinding != nil {
		t.Error("binding to a missing object must be cleared")
	}
	found := false
	for _, w := range result.Warnings {
		if w.Code == models.WarnDanglingBinding {
			found = true
		}
	}
	if !found {
		t.Error("Expected a dangling-binding warning")
	}
}

func TestGroupIntegrity(t *testing.T) {
	input := `{"stage": {"objects": [
		{"id": 10, "x": 100, "y": 100, "width": 300, "height": 200, "children": [
			{"id": 11, "x": 0, "y": 0, "width": 50, "height": 50,
			 "graphic": {"type": "Shape", "Shape": {"tid": "com.gliffy.stencil.rectangle.basic_v1"}}},
			{"id": 12, "x": 60, "y": 0, "width": 50, "height": 50,
			 "graphic": {"type": "Shape", "Shape": {"tid": "com.gliffy.stencil.ellipse.basic_v1"}}},
			{"id": 13, "x": 120, "y": 0, "width": 50, "height": 50,
			 "graphic": {"type": "Shape", "Shape": {"tid": "com.gliffy.stencil.diamond.basic_v1"}}}
		]},
		{"id": 20, "x": 500, "y": 500, "width": 40, "height": 40,
		 "graphic": {"type": "Shape", "Shape": {"tid": "com.gliffy.stencil.rectangle.basic_v1"}}}
	]}}`

	doc, _ := mustConvert(t, input, Options{})
	if len(doc.Elements) != 4 {
		t.Fatalf("Expected 4 elements (3 grouped + 1 loose), got %d", len(doc.Elements))
	}

	groupCount := make(map[string]int)
	for _, e := range doc.Elements {
		for _, g := range e.GroupIDs {
			groupCount[g]++
		}
	}
	if len(groupCount) != 1 {
		t.Fatalf("Expected exactly one groupId, got %v", groupCount)
	}
	for g, n := range groupCount {
		if n != 3 {
			t.Errorf("group %s has %d members, want 3", g, n)
		}
	}

	// Children coordinates are relative to the group frame.
	for _, e := range doc.Elements {
		if e.Type == models.ElementEllipse && e.X != 160 {
			t.Errorf("child not shifted to absolute coordinates: x=%v", e.X)
		}
	}
}

func TestMalformedObjectSkippedWithWarning(t *testing.T) {
	input := `{"stage": {"objects": [
		{"id": 1, "x": 0, "y": 0, "width": 0, "height": 0,
		 "graphic": {"type": "Shape", "Shape": {"tid": "com.gliffy.stencil.rectangle.basic_v1"}}},
		{"id": 2, "x": 0, "y": 0, "width": 10, "height": 10,
		 "graphic": {"type": "Shape", "Shape": {"tid": "com.gliffy.stencil.rectangle.basic_v1"}}}
	]}}`

	doc, result := mustConvert(t, input, Options{})
	if len(doc.Elements) != 1 {
		t.Errorf("Expected malformed object to be skipped, got %d elements", len(doc.Elements))
	}
	if len(result.Warnings) != 1 || result.Warnings[0].Code != models.WarnUnsupportedObject {
		t.Errorf("Expected one unsupported-object warning, got %v", result.Warnings)
	}
}

func TestZOrderFollowsGliffyOrder(t *testing.T) {
	// Object 2 has the lower order value and must paint first
	// (earlier in the array) even though it appears last in the source.
	input := `{"stage": {"objects": [
		{"id": 1, "order": 5, "x": 0, "y": 0, "width": 10, "height": 10,
		 "graphic": {"type": "Shape", "Shape": {"tid": "com.gliffy.stencil.rectangle.basic_v1"}}},
		{"id": 2, "order": 1, "x": 0, "y": 0, "width": 10, "height": 10,
		 "graphic": {"type": "Shape", "Shape": {"tid": "com.gliffy.stencil.ellipse.basic_v1"}}}
	]}}`

	doc, _ := mustConvert(t, input, Options{})
	if len(doc.Elements) != 2 {
		t.Fatalf("Expected 2 elements, got %d", len(doc.Elements))
	}
	if doc.Elements[0].Type != models.ElementEllipse {
		t.Errorf("lower-order element must paint first, got %s first", doc.Elements[0].Type)
	}
}

func TestShapeLabelBecomesBoundText(t *testing.T) {
	input := `{"stage": {"objects": [
		{"id": 1, "x": 0, "y": 0, "width": 200, "height": 100,
		 "graphic": {"type": "Shape", "Shape": {"tid": "com.gliffy.stencil.rectangle.basic_v1"}},
		 "children": [
			{"id": 2, "x": 10, "y": 40, "width": 180, "height": 20,
			 "graphic": {"type": "Text", "Text": {"html": "<p style='font-size: 14px;'>Node A</p>"}}}
		]}
	]}}`

	doc, _ := mustConvert(t, input, Options{})
	if len(doc.Elements) != 2 {
		t.Fatalf("Expected shape + label, got %d elements", len(doc.Elements))
	}

	var shape, label *models.ExcalidrawElement
	for _, e := range doc.Elements {
		if e.Type == models.ElementText {
			label = e
		} else {
			shape = e
		}
	}
	if label == nil || shape == nil {
		t.Fatal("missing shape or label element")
	}
	if label.Text != "Node A" {
		t.Errorf("label text = %q", label.Text)
	}
	if label.FontSize != 14 {
		t.Errorf("font size from HTML not honored: %v", label.FontSize)
	}
	if label.ContainerID == nil || *label.ContainerID != shape.ID {
		t.Error("label must reference its container shape")
	}
	if len(shape.BoundElements) != 1 || shape.BoundElements[0].ID != label.ID {
		t.Errorf("container must back-reference its label, got %+v", shape.BoundElements)
	}
}

func TestAccentedLabelSurvivesWrapping(t *testing.T) {
	input := `{"stage": {"objects": [
		{"id": 1, "x": 0, "y": 0, "width": 80, "height": 40,
		 "graphic": {"type": "Shape", "Shape": {"tid": "com.gliffy.stencil.rectangle.basic_v1"}},
		 "children": [
			{"id": 2, "x": 0, "y": 10, "width": 80, "height": 20,
			 "graphic": {"type": "Text", "Text": {"html": "<p style='font-size: 10px;'>Téléphériquesssss</p>"}}}
		]}
	]}}`

	doc, _ := mustConvert(t, input, Options{})

	var label *models.ExcalidrawElement
	for _, e := range doc.Elements {
		if e.Type == models.ElementText {
			label = e
		}
	}
	if label == nil {
		t.Fatal("missing label element")
	}
	if !utf8.ValidString(label.Text) || strings.ContainsRune(label.Text, '�') {
		t.Fatalf("wrapping corrupted multibyte text: %q", label.Text)
	}
	if got := strings.ReplaceAll(label.Text, "\n", ""); got != "Téléphériquesssss" {
		t.Errorf("wrapped label lost characters: %q", label.Text)
	}
}

func TestLineWithoutArrowheadsIsLine(t *testing.T) {
	input := `{"stage": {"objects": [
		{"id": 1, "x": 10, "y": 10,
		 "graphic": {"type": "Line", "Line": {"controlPath": [[0, 0], [90, 0]]}}}
	]}}`

	doc, _ := mustConvert(t, input, Options{})
	if len(doc.Elements) != 1 || doc.Elements[0].Type != models.ElementLine {
		t.Fatalf("Expected a plain line element, got %+v", doc.Elements)
	}
	e := doc.Elements[0]
	if e.X != 10 || e.Y != 10 {
		t.Errorf("line origin = (%v,%v), want (10,10)", e.X, e.Y)
	}
	if e.StartArrowhead != nil || e.EndArrowhead != nil {
		t.Error("plain line must carry no arrowheads")
	}
}

func TestLineWithoutIDStillRenders(t *testing.T) {
	// Gliffy ids only matter for bindings; a line missing one must
	// still have its geometry resolved and rendered.
	input := `{"stage": {"objects": [
		{"x": 5, "y": 5,
		 "graphic": {"type": "Line", "Line": {"controlPath": [[0, 0], [90, 0]]}}}
	]}}`

	doc, result := mustConvert(t, input, Options{})
	if len(doc.Elements) != 1 || doc.Elements[0].Type != models.ElementLine {
		t.Fatalf("Expected a line element for an id-less line, got %+v", doc.Elements)
	}
	if doc.Elements[0].X != 5 || doc.Elements[0].Y != 5 {
		t.Errorf("line origin = (%v,%v), want (5,5)", doc.Elements[0].X, doc.Elements[0].Y)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("id-less line must convert cleanly, got warnings %+v", result.Warnings)
	}
}

func TestConstraintWithoutAnchorDefaultsToCenter(t *testing.T) {
	// px/py omitted on both constraints: each endpoint lands on the
	// center of its target shape.
	input := `{"stage": {"objects": [
		{"id": 1, "x": 0, "y": 0, "width": 40, "height": 40,
		 "graphic": {"type": "Shape", "Shape": {"tid": "com.gliffy.stencil.rectangle.basic_v1"}}},
		{"id": 2, "x": 100, "y": 0, "width": 40, "height": 40,
		 "graphic": {"type": "Shape", "Shape": {"tid": "com.gliffy.stencil.rectangle.basic_v1"}}},
		{"id": 3, "x": 0, "y": 0,
		 "graphic": {"type": "Line", "Line": {"endArrow": 1}},
		 "constraints": {
			"startConstraint": {"StartPositionConstraint": {"nodeId": 1}},
			"endConstraint": {"EndPositionConstraint": {"nodeId": 2}}}}
	]}}`

	doc, _ := mustConvert(t, input, Options{})

	var arrow *models.ExcalidrawElement
	for _, e := range doc.Elements {
		if e.Type == models.ElementArrow {
			arrow = e
		}
	}
	if arrow == nil {
		t.Fatal("expected an arrow element")
	}
	if arrow.X != 20 || arrow.Y != 20 {
		t.Errorf("arrow start = (%v,%v), want shape 1 center (20,20)", arrow.X, arrow.Y)
	}
	end := arrow.Points[len(arrow.Points)-1]
	if arrow.X+end[0] != 120 || arrow.Y+end[1] != 20 {
		t.Errorf("arrow end = (%v,%v), want shape 2 center (120,20)",
			arrow.X+end[0], arrow.Y+end[1])
	}
}

func TestHiddenObjectsSkipped(t *testing.T) {
	input := `{"stage": {"objects": [
		{"id": 1, "hidden": true, "x": 0, "y": 0, "width": 10, "height": 10,
		 "graphic": {"type": "Shape", "Shape": {"tid": "com.gliffy.stencil.rectangle.basic_v1"}}}
	]}}`

	doc, _ := mustConvert(t, input, Options{})
	if len(doc.Elements) != 0 {
		t.Errorf("hidden objects must not be emitted, got %d elements", len(doc.Elements))
	}
}

func TestMultiPageDocument(t *testing.T) {
	input := `{"pages": [
		{"id": 1, "scene": {"objects": [
			{"id": 1, "x": 0, "y": 0, "width": 10, "height": 10,
			 "graphic": {"type": "Shape", "Shape": {"tid": "com.gliffy.stencil.rectangle.basic_v1"}}}]}},
		{"id": 2, "scene": {"objects": [
			{"id": 2, "x": 50, "y": 0, "width": 10, "height": 10,
			 "graphic": {"type": "Shape", "Shape": {"tid": "com.gliffy.stencil.ellipse.basic_v1"}}}]}}
	]}`

	doc, _ := mustConvert(t, input, Options{})
	if len(doc.Elements) != 2 {
		t.Errorf("Expected objects of all pages, got %d elements", len(doc.Elements))
	}
}
