package convert

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Category is the semantic shape family a TID resolves to. It selects
// the native Excalidraw element used when no image override applies.
type Category string

const (
	CategoryRectangle Category = "rectangle"
	CategoryEllipse   Category = "ellipse"
	CategoryDiamond   Category = "diamond"
	CategoryText      Category = "text"
	CategoryLine      Category = "line"
	// CategoryGeneric is the fallback for unrecognized stencils; it
	// renders as a rectangle so conversion never aborts on an unknown TID.
	CategoryGeneric Category = "generic"
)

// TIDEntry holds the registry's knowledge about one stencil type.
type TIDEntry struct {
	Category Category `yaml:"category"`
	Label    string   `yaml:"label,omitempty"`
}

// Registry maps Gliffy stencil type identifiers to shape categories.
// Lookups are pure and never fail: unknown TIDs resolve to a usable
// fallback category.
type Registry struct {
	entries map[string]TIDEntry
}

// Known basic stencils. The full Gliffy stencil set is open-ended; the
// substring heuristics in Classify cover the long tail.
var builtinEntries = map[string]TIDEntry{
	"com.gliffy.stencil.rectangle.basic_v1":               {Category: CategoryRectangle, Label: "Rectangle"},
	"com.gliffy.stencil.rounded_rectangle.basic_v1":       {Category: CategoryRectangle, Label: "Rounded rectangle"},
	"com.gliffy.stencil.square.basic_v1":                  {Category: CategoryRectangle, Label: "Square"},
	"com.gliffy.stencil.ellipse.basic_v1":                 {Category: CategoryEllipse, Label: "Ellipse"},
	"com.gliffy.stencil.circle.basic_v1":                  {Category: CategoryEllipse, Label: "Circle"},
	"com.gliffy.stencil.diamond.basic_v1":                 {Category: CategoryDiamond, Label: "Diamond"},
	"com.gliffy.stencil.text.basic_v1":                    {Category: CategoryText, Label: "Text"},
	"com.gliffy.stencil.line.basic_v1":                    {Category: CategoryLine, Label: "Line"},
	"com.gliffy.stencil.process.flowchart_v1":             {Category: CategoryRectangle, Label: "Process"},
	"com.gliffy.stencil.decision.flowchart_v1":            {Category: CategoryDiamond, Label: "Decision"},
	"com.gliffy.stencil.terminator.flowchart_v1":          {Category: CategoryEllipse, Label: "Terminator"},
	"com.gliffy.stencil.start_end.flowchart_v1":           {Category: CategoryEllipse, Label: "Start/End"},
	"com.gliffy.stencil.data_storage.flowchart_v1":        {Category: CategoryRectangle, Label: "Data storage"},
	"com.gliffy.stencil.entity.erd_v1":                    {Category: CategoryRectangle, Label: "Entity"},
	"com.gliffy.stencil.use_case.uml_v1":                  {Category: CategoryEllipse, Label: "Use case"},
	"com.gliffy.stencil.class.uml_v1":                     {Category: CategoryRectangle, Label: "Class"},
	"com.gliffy.stencil.swimlane.swimlanes_v1":            {Category: CategoryRectangle, Label: "Swimlane"},
	"com.gliffy.stencil.note.basic_v1":                    {Category: CategoryRectangle, Label: "Note"},
}

var defaultRegistry = NewRegistry()

// NewRegistry creates a registry seeded with the built-in stencil table.
func NewRegistry() *Registry {
	entries := make(map[string]TIDEntry, len(builtinEntries))
	for tid, e := range builtinEntries {
		entries[tid] = e
	}
	return &Registry{entries: entries}
}

// DefaultRegistry returns the shared built-in registry.
func DefaultRegistry() *Registry { return defaultRegistry }

// Register adds or replaces an entry.
func (r *Registry) Register(tid string, entry TIDEntry) {
	r.entries[tid] = entry
}

// Lookup returns the entry for a TID and whether it was an exact match.
// When the TID is unknown the returned entry is the classified fallback,
// so the first result is always usable.
func (r *Registry) Lookup(tid string) (TIDEntry, bool) {
	if e, ok := r.entries[tid]; ok {
		return e, true
	}
	return TIDEntry{Category: Classify(tid)}, false
}

// Classify guesses a category from substrings of a TID or uid. Returns
// CategoryGeneric when nothing matches.
func Classify(s string) Category {
	l := strings.ToLower(s)
	switch {
	case l == "":
		return CategoryGeneric
	case strings.Contains(l, "diamond") || strings.Contains(l, "decision"):
		return CategoryDiamond
	case strings.Contains(l, "ellipse") || strings.Contains(l, "oval") ||
		strings.Contains(l, "circle") || strings.Contains(l, "terminator"):
		return CategoryEllipse
	case strings.Contains(l, ".text"):
		return CategoryText
	case strings.Contains(l, ".line") || strings.Contains(l, ".arrow"):
		return CategoryLine
	case strings.Contains(l, "rectangle") || strings.Contains(l, "square"):
		return CategoryRectangle
	default:
		return CategoryGeneric
	}
}

// ElementType maps a category to the Excalidraw element type emitted
// for it.
func (c Category) ElementType() string {
	switch c {
	case CategoryEllipse:
		return "ellipse"
	case CategoryDiamond:
		return "diamond"
	default:
		return "rectangle"
	}
}

// LoadRules merges a YAML rules file into the registry. The file maps
// TID → {category, label} and lets deployments extend or override the
// built-in table without a rebuild. A missing file is not an error.
func (r *Registry) LoadRules(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var rules map[string]TIDEntry
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return err
	}

	for tid, e := range rules {
		if e.Category == "" {
			e.Category = CategoryGeneric
		}
		r.entries[tid] = e
	}
	return nil
}
