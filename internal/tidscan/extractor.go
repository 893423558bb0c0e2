// Package tidscan walks Gliffy documents and tallies the stencil TIDs
// they use, seeding the override mapping file that drives image
// substitution during conversion.
package tidscan

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gliffy-migrator/backend/internal/models"
)

// TIDRecord is one row of the mapping side-file.
type TIDRecord struct {
	Count       int     `json:"count"`
	ImagePath   *string `json:"image_path"`
	Description string  `json:"description"`
}

// Result of a scan: TID frequencies plus file-level counters.
type Result struct {
	TIDs         map[string]*TIDRecord
	FilesScanned int
	FilesFailed  int
	Failed       []string
}

// ExtractFromDocument tallies every TID in one parsed document into
// counts, recursing through children on every page.
func ExtractFromDocument(doc *models.GliffyDocument, counts map[string]int) {
	var walk func(objs []*models.GliffyObject)
	walk = func(objs []*models.GliffyObject) {
		for _, obj := range objs {
			if obj == nil {
				continue
			}
			if tid := obj.TID(); tid != "" {
				counts[tid]++
			}
			walk(obj.Children)
		}
	}
	if doc.Stage != nil {
		walk(doc.Stage.Objects)
	}
	for _, page := range doc.Pages {
		if page.Scene != nil {
			walk(page.Scene.Objects)
		}
	}
}

// ExtractFromBytes parses raw Gliffy JSON and tallies its TIDs.
func ExtractFromBytes(raw []byte, counts map[string]int) error {
	var doc models.GliffyDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse gliffy document: %w", err)
	}
	ExtractFromDocument(&doc, counts)
	return nil
}

// ScanDir walks root recursively and tallies TIDs over every .gliffy
// file (plus .json files that parse as Gliffy documents). Unreadable or
// unparseable files are recorded on the result, not fatal.
func ScanDir(root string) (*Result, error) {
	res := &Result{TIDs: make(map[string]*TIDRecord)}
	counts := make(map[string]int)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isGliffyFile(path) {
			return nil
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			res.FilesFailed++
			res.Failed = append(res.Failed, path)
			return nil
		}
		if err := ExtractFromBytes(raw, counts); err != nil {
			res.FilesFailed++
			res.Failed = append(res.Failed, path)
			return nil
		}
		res.FilesScanned++
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	for tid, n := range counts {
		res.TIDs[tid] = &TIDRecord{Count: n}
	}
	return res, nil
}

func isGliffyFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gliffy", ".json":
		return true
	}
	return false
}

// SortedTIDs returns the scanned TIDs ordered by descending count,
// name-ascending on ties, for stable report and mapping output.
func (r *Result) SortedTIDs() []string {
	tids := make([]string, 0, len(r.TIDs))
	for tid := range r.TIDs {
		tids = append(tids, tid)
	}
	sort.Slice(tids, func(i, j int) bool {
		ci, cj := r.TIDs[tids[i]].Count, r.TIDs[tids[j]].Count
		if ci != cj {
			return ci > cj
		}
		return tids[i] < tids[j]
	})
	return tids
}

// WriteMapping writes (or merges into) the override mapping side-file.
// Existing image_path and description values survive a re-scan so
// manual curation is never lost; counts are refreshed from the scan.
func (r *Result) WriteMapping(path string) error {
	merged := make(map[string]*TIDRecord, len(r.TIDs))

	if raw, err := os.ReadFile(path); err == nil {
		var existing map[string]*TIDRecord
		if err := json.Unmarshal(raw, &existing); err != nil {
			return fmt.Errorf("existing mapping %s is not valid JSON: %w", path, err)
		}
		for tid, rec := range existing {
			merged[tid] = rec
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("read existing mapping: %w", err)
	}

	for tid, rec := range r.TIDs {
		if prev, ok := merged[tid]; ok {
			prev.Count = rec.Count
		} else {
			merged[tid] = &TIDRecord{Count: rec.Count}
		}
	}

	out, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return err
	}
	out = append(out, '\n')

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create mapping directory: %w", err)
		}
	}
	if err := os.WriteFile(path, out, 0644); err != nil {
		return fmt.Errorf("write mapping: %w", err)
	}
	return nil
}
