package markdown

import (
	"regexp"
	"strings"
)

var (
	parenGroupRe  = regexp.MustCompile(`\(.*?\)`)
	tagOrEntityRe = regexp.MustCompile(`<.*?>|&.*?;`)
	nonWordRe     = regexp.MustCompile(`[^\w]+`)
	nonLinkRe     = regexp.MustCompile(`[^a-z0-9_.\-]+`)
)

// Anchor derives a heading id from the heading's inner HTML.
// Parenthesized groups, tags and entities are dropped and every run of
// non-word characters becomes a single dash.
func Anchor(html string) string {
	s := strings.ToLower(html)
	s = parenGroupRe.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	s = tagOrEntityRe.ReplaceAllString(s, "")
	s = nonWordRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// TitleToLink converts a page title into the file name used by wiki links,
// without extension: "Code Splitting" becomes "code-splitting".
func TitleToLink(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = nonLinkRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// stripParenGroups removes "(...)" groups, as used for outline entries.
func stripParenGroups(s string) string {
	return parenGroupRe.ReplaceAllString(s, "")
}
