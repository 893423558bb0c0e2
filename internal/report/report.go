// Package report renders plain-text reports for scans, TID mappings
// and migration runs. Filenames carry a timestamp so successive runs
// never overwrite each other.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gliffy-migrator/backend/internal/confluence"
	"github.com/gliffy-migrator/backend/internal/tidscan"
)

const rule = "================================================================================"
const thinRule = "--------------------------------------------------------------------------------"

// Writer emits reports into a directory, creating it on first use.
type Writer struct {
	Dir string
	// Now is swappable for deterministic filenames in tests.
	Now func() time.Time
}

// NewWriter writes reports under dir (default "reports").
func NewWriter(dir string) *Writer {
	if dir == "" {
		dir = "reports"
	}
	return &Writer{Dir: dir, Now: time.Now}
}

// timestampName turns "inventory.txt" into
// "inventory_2025-12-24_15-30-45.txt".
func (w *Writer) timestampName(name string) string {
	stamp := w.Now().Format("2006-01-02_15-04-05")
	ext := filepath.Ext(name)
	if ext == "" {
		return name + "_" + stamp
	}
	return strings.TrimSuffix(name, ext) + "_" + stamp + ext
}

func (w *Writer) create(name string) (*os.File, string, error) {
	if err := os.MkdirAll(w.Dir, 0755); err != nil {
		return nil, "", fmt.Errorf("create reports directory: %w", err)
	}
	path := filepath.Join(w.Dir, w.timestampName(name))
	f, err := os.Create(path)
	if err != nil {
		return nil, "", fmt.Errorf("create report %s: %w", path, err)
	}
	return f, path, nil
}

func header(out io.Writer, title string, now time.Time) {
	fmt.Fprintln(out, rule)
	fmt.Fprintln(out, title)
	fmt.Fprintln(out, rule)
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Generated: %s\n", now.Format("2006-01-02 15:04:05"))
}

// Inventory writes the Confluence page inventory grouped by space and
// returns the report path.
func (w *Writer) Inventory(pages []confluence.PageInfo) (string, error) {
	f, path, err := w.create("confluence_inventory.txt")
	if err != nil {
		return "", err
	}
	defer f.Close()

	bySpace := make(map[string][]confluence.PageInfo)
	for _, p := range pages {
		bySpace[p.SpaceKey] = append(bySpace[p.SpaceKey], p)
	}
	keys := make([]string, 0, len(bySpace))
	for k := range bySpace {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	header(f, "CONFLUENCE INVENTORY", w.Now())
	fmt.Fprintf(f, "Total pages: %d\n", len(pages))
	fmt.Fprintf(f, "Spaces: %d\n\n", len(keys))
	fmt.Fprintln(f, rule)
	fmt.Fprintln(f)

	for _, key := range keys {
		group := bySpace[key]
		fmt.Fprintf(f, "SPACE: %s (%s)\n", group[0].SpaceName, key)
		fmt.Fprintln(f, thinRule)
		fmt.Fprintf(f, "Pages: %d\n\n", len(group))

		for _, p := range group {
			fmt.Fprintf(f, "  * %s\n", p.Title)
			fmt.Fprintf(f, "    ID: %s\n", p.ID)
			fmt.Fprintf(f, "    Status: %s\n", p.Status)
			fmt.Fprintf(f, "    Version: %d\n", p.Version)
			if p.URL != "" {
				fmt.Fprintf(f, "    URL: %s\n", p.URL)
			}
			fmt.Fprintf(f, "    Created: %s by %s\n", p.CreatedDate, p.CreatedBy)
			fmt.Fprintf(f, "    Updated: %s by %s\n", p.UpdatedDate, p.UpdatedBy)
			if p.ParentTitle != "" {
				fmt.Fprintf(f, "    Parent: %s (ID: %s)\n", p.ParentTitle, p.ParentID)
			}
			if p.GliffyCount > 0 {
				fmt.Fprintf(f, "    Gliffy diagrams: %d (%s)\n", p.GliffyCount, strings.Join(p.GliffyTitles, ", "))
			}
			fmt.Fprintln(f)
		}
		fmt.Fprintln(f)
	}
	return path, nil
}

// TIDMapping writes the TID frequency report, most-used first.
func (w *Writer) TIDMapping(res *tidscan.Result) (string, error) {
	f, path, err := w.create("tids_mapping.txt")
	if err != nil {
		return "", err
	}
	defer f.Close()

	total := 0
	for _, rec := range res.TIDs {
		total += rec.Count
	}

	header(f, "GLIFFY TID MAPPING", w.Now())
	fmt.Fprintf(f, "Unique TIDs: %d\n", len(res.TIDs))
	fmt.Fprintf(f, "Total occurrences: %d\n\n", total)
	fmt.Fprintln(f, rule)
	fmt.Fprintln(f)

	for _, tid := range res.SortedTIDs() {
		rec := res.TIDs[tid]
		fmt.Fprintf(f, "TID: %s\n", tid)
		fmt.Fprintln(f, thinRule)
		fmt.Fprintf(f, "  Occurrences: %d\n", rec.Count)
		if rec.ImagePath != nil && *rec.ImagePath != "" {
			fmt.Fprintf(f, "  Image: %s\n", *rec.ImagePath)
		} else {
			fmt.Fprintln(f, "  Image: not set")
		}
		if desc := strings.TrimSpace(rec.Description); desc != "" {
			fmt.Fprintf(f, "  Description: %s\n", desc)
		}
		fmt.Fprintln(f)
	}
	return path, nil
}

// MigrationStats summarizes one migration run.
type MigrationStats struct {
	PagesProcessed int
	GliffyFound    int
	Converted      int
	Failed         int
	Skipped        int
}

// MigrationEntry is the per-diagram detail of a migration report.
type MigrationEntry struct {
	PageTitle string
	PageID    string
	Diagram   string
	Status    string
	Reason    string
}

// Migration writes the migration summary report.
func (w *Writer) Migration(stats MigrationStats, entries []MigrationEntry) (string, error) {
	f, path, err := w.create("migration_report.txt")
	if err != nil {
		return "", err
	}
	defer f.Close()

	header(f, "GLIFFY MIGRATION REPORT", w.Now())
	fmt.Fprintln(f)
	fmt.Fprintln(f, "TOTALS")
	fmt.Fprintln(f, thinRule)
	fmt.Fprintf(f, "Pages processed: %d\n", stats.PagesProcessed)
	fmt.Fprintf(f, "Diagrams found: %d\n", stats.GliffyFound)
	fmt.Fprintf(f, "Converted: %d\n", stats.Converted)
	fmt.Fprintf(f, "Failed: %d\n", stats.Failed)
	fmt.Fprintf(f, "Skipped: %d\n\n", stats.Skipped)

	if len(entries) > 0 {
		fmt.Fprintln(f, rule)
		fmt.Fprintln(f, "DETAILS")
		fmt.Fprintln(f, rule)
		fmt.Fprintln(f)
		for _, e := range entries {
			fmt.Fprintf(f, "%s / %s (page %s)\n", e.PageTitle, e.Diagram, e.PageID)
			fmt.Fprintf(f, "  Status: %s\n", strings.ToUpper(e.Status))
			if e.Reason != "" {
				fmt.Fprintf(f, "  Reason: %s\n", e.Reason)
			}
			fmt.Fprintln(f)
		}
	}
	return path, nil
}
