package export

import (
	"fmt"
	"html"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	strip "github.com/grokify/html-strip-tags-go"
)

// Ellipsis is appended to truncated labels.
const Ellipsis = "…"

// Glyphs are assumed to be half an em wide on average.
const avgGlyphEm = 0.5

// Truncate shortens text to what fits in width pixels at fontSize.
//
// The budget is ceil(2*width/fontSize) units. Every rune below U+00FF costs
// one unit, wider scripts cost nothing so multi-byte sequences are never cut
// mid-word. A line break ends the label once something was kept; leading
// breaks are skipped. The ellipsis is appended only when more than one rune
// was dropped, otherwise the original text is returned unchanged. The result
// never has more runes than text.
func Truncate(text string, fontSize, width float64) string {
	if fontSize <= 0 || text == "" {
		return ""
	}
	limit := int(math.Ceil(width / (fontSize * avgGlyphEm)))

	var kept strings.Builder
	units, i := 0, 0
	runes := []rune(text)
	for ; i < len(runes) && (limit == 0 || units < limit); i++ {
		r := runes[i]
		if r == '\n' || r == '\r' {
			if units > 0 {
				break
			}
			continue
		}
		kept.WriteRune(r)
		if r < 255 {
			units++
		}
	}

	if len(runes)-i > 1 {
		return strings.TrimSpace(kept.String()) + Ellipsis
	}
	return text
}

// blockBreak matches the closing or void tags that end a visual line.
var blockBreak = regexp.MustCompile(`(?i)<br\s*/?>|</(p|div|li|tr|h[1-6])\s*>`)

// PlainText converts rich label markup to plain text with line breaks.
func PlainText(markup string) (string, error) {
	if !utf8.ValidString(markup) {
		return "", fmt.Errorf("label is not valid UTF-8")
	}
	s := blockBreak.ReplaceAllString(markup, "\n")
	s = strip.StripTags(s)
	return html.UnescapeString(s), nil
}

// labelText returns the text drawn for a label that overflows its box.
// Failures are logged and yield an empty label.
func labelText(logger *log.Logger, l Label, fontSize, width float64) (out string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("label truncation failed", "label", l.Text, "err", r)
			out = ""
		}
	}()
	text := l.Text
	if l.HTML {
		plain, err := PlainText(text)
		if err != nil {
			logger.Warn("label truncation failed", "err", err)
			return ""
		}
		text = plain
	}
	return Truncate(text, fontSize, width)
}

// lineUnits measures the widest line of text in glyph units.
func lineUnits(text string) (widest, lines int) {
	for _, line := range strings.Split(text, "\n") {
		n := 0
		for _, r := range line {
			if r < 255 {
				n++
			} else {
				n += 2
			}
		}
		widest = max(widest, n)
		lines++
	}
	return widest, lines
}
