package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gliffy-migrator/backend/internal/confluence"
	"github.com/gliffy-migrator/backend/internal/tidscan"
)

func fixedWriter(t *testing.T) *Writer {
	t.Helper()
	w := NewWriter(t.TempDir())
	w.Now = func() time.Time {
		return time.Date(2025, 12, 24, 15, 30, 45, 0, time.UTC)
	}
	return w
}

func TestTimestampName(t *testing.T) {
	w := fixedWriter(t)
	if got := w.timestampName("inventory.txt"); got != "inventory_2025-12-24_15-30-45.txt" {
		t.Errorf("timestampName = %q", got)
	}
	if got := w.timestampName("summary"); got != "summary_2025-12-24_15-30-45" {
		t.Errorf("timestampName without extension = %q", got)
	}
}

func TestInventoryReport(t *testing.T) {
	w := fixedWriter(t)
	pages := []confluence.PageInfo{
		{ID: "1", Title: "Zoo", SpaceKey: "OPS", SpaceName: "Operations", Status: "current", Version: 2},
		{ID: "2", Title: "Arch", SpaceKey: "DEV", SpaceName: "Development", Status: "current",
			Version: 5, GliffyCount: 1, GliffyTitles: []string{"flow"}},
	}

	path, err := w.Inventory(pages)
	if err != nil {
		t.Fatalf("Inventory failed: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(raw)

	if !strings.Contains(out, "Total pages: 2") {
		t.Error("missing page total")
	}
	// Spaces sort alphabetically.
	if strings.Index(out, "SPACE: Development (DEV)") > strings.Index(out, "SPACE: Operations (OPS)") {
		t.Error("spaces not sorted")
	}
	if !strings.Contains(out, "Gliffy diagrams: 1 (flow)") {
		t.Error("missing gliffy detail line")
	}
	if filepath.Base(path) != "confluence_inventory_2025-12-24_15-30-45.txt" {
		t.Errorf("unexpected report filename %s", filepath.Base(path))
	}
}

func TestTIDMappingReport(t *testing.T) {
	w := fixedWriter(t)
	img := "icons/db.png"
	res := &tidscan.Result{TIDs: map[string]*tidscan.TIDRecord{
		"com.gliffy.stencil.rectangle.basic_v1": {Count: 9},
		"com.custom.db":                         {Count: 20, ImagePath: &img, Description: "database icon"},
	}}

	path, err := w.TIDMapping(res)
	if err != nil {
		t.Fatalf("TIDMapping failed: %v", err)
	}
	raw, _ := os.ReadFile(path)
	out := string(raw)

	if !strings.Contains(out, "Unique TIDs: 2") || !strings.Contains(out, "Total occurrences: 29") {
		t.Error("missing totals")
	}
	// Descending count order.
	if strings.Index(out, "com.custom.db") > strings.Index(out, "rectangle.basic_v1") {
		t.Error("TIDs not sorted by count")
	}
	if !strings.Contains(out, "Image: icons/db.png") || !strings.Contains(out, "Image: not set") {
		t.Error("image path rendering wrong")
	}
}

func TestMigrationReport(t *testing.T) {
	w := fixedWriter(t)
	stats := MigrationStats{PagesProcessed: 3, GliffyFound: 4, Converted: 3, Failed: 1}
	entries := []MigrationEntry{
		{PageTitle: "Arch", PageID: "2", Diagram: "flow", Status: "converted"},
		{PageTitle: "Arch", PageID: "2", Diagram: "legacy", Status: "failed", Reason: "attachment missing"},
	}

	path, err := w.Migration(stats, entries)
	if err != nil {
		t.Fatalf("Migration failed: %v", err)
	}
	raw, _ := os.ReadFile(path)
	out := string(raw)

	if !strings.Contains(out, "Converted: 3") || !strings.Contains(out, "Failed: 1") {
		t.Error("missing totals")
	}
	if !strings.Contains(out, "Status: FAILED") || !strings.Contains(out, "Reason: attachment missing") {
		t.Error("missing failure detail")
	}
}
