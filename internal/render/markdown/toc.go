package markdown

import (
	"strings"
)

// Heading is an outline entry collected while rendering.
type Heading struct {
	// Anchor is the heading id.
	Anchor string
	// Text is the heading's inner HTML without parenthesized groups.
	Text string
	// Level is the heading level, 1 through 6.
	Level int
}

// TableOfContents builds a nested <ul> list from an outline.
// The shallowest heading level forms the top list. A heading more than one
// level deeper than its predecessor is left out, since it has no parent
// item to nest under. Returns "" for an empty outline.
func TableOfContents(headings []Heading) string {
	if len(headings) == 0 {
		return ""
	}

	base := headings[0].Level
	for _, h := range headings[1:] {
		base = min(base, h.Level)
	}
	base--

	var b strings.Builder
	level := base
	for _, h := range headings {
		switch {
		case level == h.Level:
			b.WriteString("</li><li>")
		case level < h.Level-1:
			continue
		case level < h.Level:
			b.WriteString("<ul><li>")
			level++
		default:
			for level > h.Level {
				b.WriteString("</li></ul>")
				level--
			}
			b.WriteString("</li><li>")
		}
		b.WriteString(`<a href="#`)
		b.WriteString(h.Anchor)
		b.WriteString(`">`)
		b.WriteString(h.Text)
		b.WriteString("</a>")
	}
	for level > base {
		b.WriteString("</li></ul>")
		level--
	}

	return b.String()
}
