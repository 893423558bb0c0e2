package convert

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// OverrideEntry is one record of the TID mapping side-file. Count is
// informational (populated by the TID extractor); ImagePath, when set,
// substitutes the image for the TID's native shape rendering.
type OverrideEntry struct {
	Count       int     `json:"count"`
	ImagePath   *string `json:"image_path"`
	Description string  `json:"description"`
}

// OverrideImage is a loaded, base64-encoded override ready for embedding
// in an Excalidraw document.
type OverrideImage struct {
	MimeType string
	DataURL  string
}

// OverrideStore maps TIDs to user-supplied substitute images. Entries are
// loaded once from the side-file; image bytes are read and encoded lazily
// on first lookup per TID and cached for the remainder of the run. The
// store is read-only after load and safe to share across concurrent
// conversions.
type OverrideStore struct {
	imagesDir string
	entries   map[string]OverrideEntry

	mu    sync.RWMutex
	cache map[string]*OverrideImage // nil value = load failed, do not retry
}

// LoadOverrides reads the side-file at path. A missing file yields an
// empty store (no overrides); a malformed file is a fatal
// OverrideConfigError, since silently ignoring it would produce
// confusing partial-override behavior. Relative image paths resolve
// against imagesDir.
func LoadOverrides(path, imagesDir string) (*OverrideStore, error) {
	store := &OverrideStore{
		imagesDir: imagesDir,
		entries:   make(map[string]OverrideEntry),
		cache:     make(map[string]*OverrideImage),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return store, nil
		}
		return nil, NewOverrideConfigError(fmt.Sprintf("reading %s", path), err)
	}

	if err := json.Unmarshal(data, &store.entries); err != nil {
		return nil, NewOverrideConfigError(fmt.Sprintf("parsing %s", path), err)
	}

	return store, nil
}

// EmptyOverrides returns a store with no entries.
func EmptyOverrides() *OverrideStore {
	return &OverrideStore{
		entries: make(map[string]OverrideEntry),
		cache:   make(map[string]*OverrideImage),
	}
}

// Has reports whether an image override is declared for the TID.
func (s *OverrideStore) Has(tid string) bool {
	e, ok := s.entries[tid]
	return ok && e.ImagePath != nil && *e.ImagePath != ""
}

// Len returns the number of declared entries (with or without images).
func (s *OverrideStore) Len() int { return len(s.entries) }

// Entries returns a copy of the raw side-file records.
func (s *OverrideStore) Entries() map[string]OverrideEntry {
	out := make(map[string]OverrideEntry, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out
}

// Lookup returns the override image for a TID, reading and encoding it
// on first use. Returns false when no override is declared or the image
// file cannot be read.
func (s *OverrideStore) Lookup(tid string) (*OverrideImage, bool) {
	if !s.Has(tid) {
		return nil, false
	}

	s.mu.RLock()
	img, cached := s.cache[tid]
	s.mu.RUnlock()
	if cached {
		return img, img != nil
	}

	img = s.loadImage(*s.entries[tid].ImagePath)

	s.mu.Lock()
	s.cache[tid] = img
	s.mu.Unlock()

	return img, img != nil
}

func (s *OverrideStore) loadImage(imagePath string) *OverrideImage {
	if !filepath.IsAbs(imagePath) && s.imagesDir != "" {
		imagePath = filepath.Join(s.imagesDir, imagePath)
	}

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return nil
	}

	mime := SniffImageMime(data)
	return &OverrideImage{
		MimeType: mime,
		DataURL:  "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data),
	}
}

// SniffImageMime detects the media type of raster (PNG/JPEG) and vector
// (SVG) override images from their leading bytes. SVG is embedded as-is,
// never rasterized.
func SniffImageMime(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte("\x89PNG")):
		return "image/png"
	case bytes.HasPrefix(data, []byte("\xff\xd8\xff")):
		return "image/jpeg"
	case bytes.HasPrefix(bytes.TrimSpace(data), []byte("<svg")),
		bytes.HasPrefix(bytes.TrimSpace(data), []byte("<?xml")):
		return "image/svg+xml"
	default:
		return "image/png"
	}
}
