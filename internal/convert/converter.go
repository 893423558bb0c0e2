// Package convert translates Gliffy diagram documents into Excalidraw
// documents: geometry remapping, stencil-type (TID) resolution and the
// optional TID image substitution mechanism.
package convert

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/gliffy-migrator/backend/internal/models"
)

// Options configure one conversion run.
type Options struct {
	// Registry resolves TIDs to shape categories. Nil uses the built-in
	// default registry.
	Registry *Registry
	// Overrides substitutes images for mapped TIDs. Nil means no
	// overrides.
	Overrides *OverrideStore
	// Seed drives identifier and nonce generation. The same input, store
	// and seed always produce byte-identical output.
	Seed int64
	// UpdatedAt is the Unix-millisecond timestamp stamped on elements.
	// Zero keeps the output independent of wall-clock time.
	UpdatedAt int64
	// Pretty indents the output JSON.
	Pretty bool
}

// Converter is the bytes-in/bytes-out conversion core. It has no
// awareness of where the Gliffy document came from. A Converter is
// stateless across runs; each Convert call uses its own identifier map,
// so one Converter may serve concurrent conversions.
type Converter struct {
	opts Options
}

// NewConverter creates a Converter. Zero-value options select the
// default registry, no overrides and seed 1.
func NewConverter(opts Options) *Converter {
	if opts.Registry == nil {
		opts.Registry = DefaultRegistry()
	}
	if opts.Overrides == nil {
		opts.Overrides = EmptyOverrides()
	}
	if opts.Seed == 0 {
		opts.Seed = 1
	}
	return &Converter{opts: opts}
}

// Convert translates raw Gliffy bytes into Excalidraw bytes. Fatal
// document-level failures return a *ConversionError and no output;
// per-object failures are reported as warnings on the result and never
// abort the conversion.
func (c *Converter) Convert(raw []byte) ([]byte, *models.ConversionResult, error) {
	started := time.Now()

	doc, err := ParseGliffy(raw)
	if err != nil {
		return nil, nil, err
	}

	ids := newIDGenerator(c.opts.Seed)
	m := newMapper(c.opts.Registry, c.opts.Overrides, ids, c.opts.UpdatedAt)
	out := newAssembler(m).assemble(collectObjects(doc))

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if c.opts.Pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(out); err != nil {
		return nil, nil, NewInputFormatError("encoding output document", err)
	}

	result := &models.ConversionResult{
		ElementCount: len(out.Elements),
		ImageCount:   len(out.Files),
		Warnings:     m.warnings,
		OutputSize:   int64(buf.Len()),
		DurationMs:   time.Since(started).Milliseconds(),
	}
	return buf.Bytes(), result, nil
}

// ParseGliffy decodes and validates raw Gliffy bytes. Inputs that are
// not valid JSON or lack both stage and pages fail with an input-format
// error.
func ParseGliffy(raw []byte) (*models.GliffyDocument, error) {
	var doc models.GliffyDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, NewInputFormatError("input is not valid JSON", err)
	}
	if doc.Stage == nil && len(doc.Pages) == 0 {
		return nil, NewInputFormatError("document has neither stage nor pages", nil)
	}
	return &doc, nil
}

// Convert is a convenience wrapper over a one-shot Converter.
func Convert(raw []byte, opts Options) ([]byte, *models.ConversionResult, error) {
	return NewConverter(opts).Convert(raw)
}
