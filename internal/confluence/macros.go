package confluence

import (
	"html"
	"regexp"
	"strings"
)

// GliffyMacro is one Gliffy diagram reference found in a page's storage
// body.
type GliffyMacro struct {
	Name                string
	MacroID             string
	ImageAttachmentID   string
	DiagramAttachmentID string
}

var (
	macroRegex = regexp.MustCompile(`(?is)<ac:structured-macro[^>]*ac:name=["']gliffy["'][^>]*>.*?</ac:structured-macro>`)
	paramRegex = regexp.MustCompile(`(?is)<ac:parameter[^>]*ac:name=["']([^"']+)["'][^>]*>([^<]*)</ac:parameter>`)
)

// ExtractGliffyMacros finds every Gliffy macro in a storage-format body
// and pulls out the diagram name and attachment identifiers. Macros
// with no name are reported as "(untitled)".
func ExtractGliffyMacros(bodyStorage string) []GliffyMacro {
	if bodyStorage == "" {
		return nil
	}

	var macros []GliffyMacro
	for _, raw := range macroRegex.FindAllString(bodyStorage, -1) {
		var m GliffyMacro
		for _, kv := range paramRegex.FindAllStringSubmatch(raw, -1) {
			val := strings.TrimSpace(html.UnescapeString(kv[2]))
			switch strings.ToLower(kv[1]) {
			case "name":
				m.Name = val
			case "macroid":
				m.MacroID = val
			case "imageattachmentid":
				m.ImageAttachmentID = val
			case "diagramattachmentid":
				m.DiagramAttachmentID = val
			}
		}
		if m.Name == "" {
			m.Name = "(untitled)"
		}
		macros = append(macros, m)
	}
	return macros
}

// AttachmentID returns the attachment to download for this macro,
// preferring the rendered image over the diagram source.
func (m *GliffyMacro) AttachmentID() string {
	if m.ImageAttachmentID != "" {
		return m.ImageAttachmentID
	}
	return m.DiagramAttachmentID
}
