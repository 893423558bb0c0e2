package convert

import (
	"html"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gliffy-migrator/backend/internal/models"
)

var (
	tagRegex      = regexp.MustCompile(`<[^>]*>`)
	brRegex       = regexp.MustCompile(`(?i)<br\s*/?>|</p>|</div>|</li>`)
	fontSizeRegex = regexp.MustCompile(`(?i)font-size:\s*(\d+(?:\.\d+)?)\s*px`)
)

// textContent extracts readable text from a Gliffy object: either the
// plain text attribute or the HTML fragment under graphic.Text, with
// tags stripped and block boundaries turned into newlines.
func textContent(obj *models.GliffyObject) string {
	if obj.Text != "" {
		return obj.Text
	}
	if obj.Graphic == nil || obj.Graphic.Text == nil {
		return ""
	}
	return StripHTML(obj.Graphic.Text.HTML)
}

// StripHTML converts a Gliffy HTML text fragment to plain text,
// preserving line breaks from block-level tags.
func StripHTML(fragment string) string {
	if fragment == "" {
		return ""
	}
	s := brRegex.ReplaceAllString(fragment, "\n")
	s = tagRegex.ReplaceAllString(s, "")
	s = html.UnescapeString(s)

	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			lines = append(lines, t)
		}
	}
	return strings.Join(lines, "\n")
}

// fontSizeFromHTML extracts the first font-size declaration from an HTML
// fragment, falling back to def.
func fontSizeFromHTML(fragment string, def float64) float64 {
	m := fontSizeRegex.FindStringSubmatch(fragment)
	if m == nil {
		return def
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil || v <= 0 {
		return def
	}
	return float64(int(v))
}

// objectFontSize extracts the font size declared on an object's text
// graphic, falling back to def.
func objectFontSize(obj *models.GliffyObject, def float64) float64 {
	if obj.Graphic == nil || obj.Graphic.Text == nil {
		return def
	}
	return fontSizeFromHTML(obj.Graphic.Text.HTML, def)
}

// wrapText breaks text into lines that fit maxWidth at the given font
// size, using an average character width estimate. Words longer than a
// line are hard-split.
func wrapText(text string, maxWidth, fontSize float64) string {
	if text == "" || maxWidth <= 0 || fontSize <= 0 {
		return text
	}

	charWidth := fontSize * 0.6
	if charWidth < 3 {
		charWidth = 3
	}
	maxChars := int(maxWidth / charWidth)
	if maxChars < 1 {
		return text
	}

	var lines []string
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if utf8.RuneCountInString(line) <= maxChars {
			lines = append(lines, line)
			continue
		}

		current := ""
		for _, word := range strings.Fields(line) {
			candidate := word
			if current != "" {
				candidate = current + " " + word
			}
			if utf8.RuneCountInString(candidate) <= maxChars {
				current = candidate
				continue
			}
			if current != "" {
				lines = append(lines, current)
			}
			// Word longer than a line. Split on runes, never inside a
			// multibyte character.
			runes := []rune(word)
			for len(runes) > maxChars {
				lines = append(lines, string(runes[:maxChars]))
				runes = runes[maxChars:]
			}
			current = string(runes)
		}
		if current != "" {
			lines = append(lines, current)
		}
	}
	return strings.Join(lines, "\n")
}
