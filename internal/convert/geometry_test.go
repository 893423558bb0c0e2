package convert

import (
	"math"
	"testing"
	"unicode/utf8"
)

func TestDegreesToRadians(t *testing.T) {
	if got := DegreesToRadians(0); got != 0 {
		t.Errorf("Expected exact 0 for rotation 0, got %v", got)
	}
	if got := DegreesToRadians(90); math.Abs(got-math.Pi/2) > 1e-12 {
		t.Errorf("Expected pi/2, got %v", got)
	}
	if got := DegreesToRadians(-180); math.Abs(got+math.Pi) > 1e-12 {
		t.Errorf("Expected -pi, got %v", got)
	}
}

func TestRoundStrokeWidth(t *testing.T) {
	cases := map[float64]int{0: 1, 0.4: 1, 1.5: 2, 2: 2, 2.4: 2, 3.6: 4, -1: 1}
	for in, want := range cases {
		if got := RoundStrokeWidth(in); got != want {
			t.Errorf("RoundStrokeWidth(%v) = %d, want %d", in, got, want)
		}
	}
}

func TestRelativePoints(t *testing.T) {
	abs := [][2]float64{{100, 50}, {150, 50}, {150, 120}}
	x, y, rel, w, h := relativePoints(abs)

	if x != 100 || y != 50 {
		t.Errorf("origin = (%v,%v), want (100,50)", x, y)
	}
	if rel[0] != [2]float64{0, 0} || rel[2] != [2]float64{50, 70} {
		t.Errorf("unexpected relative points: %v", rel)
	}
	if w != 50 || h != 70 {
		t.Errorf("span = %vx%v, want 50x70", w, h)
	}
}

func TestArrowhead(t *testing.T) {
	if arrowhead(0) != nil {
		t.Error("code 0 must map to no arrowhead")
	}
	for _, code := range []int{10, 11, 12} {
		if arrowhead(code) != nil {
			t.Errorf("ERD code %d must degrade to no arrowhead", code)
		}
	}
	for _, code := range []int{1, 2, 3} {
		got := arrowhead(code)
		if got == nil || *got != "arrow" {
			t.Errorf("code %d must map to arrow, got %v", code, got)
		}
	}
}

func TestStripHTML(t *testing.T) {
	in := `<p style="font-size: 14px;">Hello &amp; <b>world</b></p><p>line two</p>`
	want := "Hello & world\nline two"
	if got := StripHTML(in); got != want {
		t.Errorf("StripHTML = %q, want %q", got, want)
	}
}

func TestFontSizeFromHTML(t *testing.T) {
	if got := fontSizeFromHTML(`<span style="font-size: 14px;">x</span>`, 20); got != 14 {
		t.Errorf("Expected 14, got %v", got)
	}
	if got := fontSizeFromHTML(`<span>x</span>`, 20); got != 20 {
		t.Errorf("Expected default 20, got %v", got)
	}
}

func TestWrapText(t *testing.T) {
	wrapped := wrapText("alpha beta gamma delta", 60, 10)
	if wrapped == "alpha beta gamma delta" {
		t.Error("Expected wrapping at 60px / 10px font")
	}
	for _, line := range splitLines(wrapped) {
		if utf8.RuneCountInString(line) > 10 {
			t.Errorf("line %q exceeds the wrap width", line)
		}
	}

	// Words longer than a line are hard-split, not dropped.
	long := wrapText("abcdefghijklmnopqrstuvwxyz", 60, 10)
	joined := ""
	for _, l := range splitLines(long) {
		joined += l
	}
	if joined != "abcdefghijklmnopqrstuvwxyz" {
		t.Errorf("hard split lost characters: %q", long)
	}
}

func TestWrapTextMultibyte(t *testing.T) {
	// 20 two-byte runes, 7 runes per line at 42px / 10px font.
	in := "éééééééééééééééééééé"
	wrapped := wrapText(in, 42, 10)

	if !utf8.ValidString(wrapped) {
		t.Fatalf("hard split broke a multibyte rune: %q", wrapped)
	}
	joined := ""
	for _, line := range splitLines(wrapped) {
		if n := utf8.RuneCountInString(line); n > 7 {
			t.Errorf("line %q has %d runes, want at most 7", line, n)
		}
		joined += line
	}
	if joined != in {
		t.Errorf("hard split lost characters: %q", wrapped)
	}

	// Accented words wrap on rune counts, same as their ASCII twins.
	accented := wrapText("télé phérique caténaire", 60, 10)
	plain := wrapText("tele pherique catenaire", 60, 10)
	if len(splitLines(accented)) != len(splitLines(plain)) {
		t.Errorf("accented text wrapped differently: %q vs %q", accented, plain)
	}
}

func splitLines(s string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == '\n' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	return out
}
