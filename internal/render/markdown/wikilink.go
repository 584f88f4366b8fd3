package markdown

import (
	"regexp"
)

var (
	// [[display text | target]]
	labeledLinkRe = regexp.MustCompile(`(?i)\[\[([^\]]+?)\s*\|\s*([a-z0-9 \-_.]+)\]\]`)
	// [[target]]
	plainLinkRe = regexp.MustCompile(`(?i)\[\[([a-z0-9 \-_.]+)\]\]`)
)

// RewriteWikiLinks turns wiki links into standard markdown links pointing at
// the rendered page of the target:
//
//	[[Code Splitting]]          -> [Code Splitting](code-splitting.html)
//	[[the guide | Code Splitting]] -> [the guide](code-splitting.html)
//
// Targets are limited to letters, digits, spaces, '-', '_' and '.'; other
// bracket sequences are left untouched.
func RewriteWikiLinks(md string) string {
	md = labeledLinkRe.ReplaceAllStringFunc(md, func(link string) string {
		m := labeledLinkRe.FindStringSubmatch(link)
		return "[" + m[1] + "](" + TitleToLink(m[2]) + ".html)"
	})
	return plainLinkRe.ReplaceAllStringFunc(md, func(link string) string {
		m := plainLinkRe.FindStringSubmatch(link)
		return "[" + m[1] + "](" + TitleToLink(m[1]) + ".html)"
	})
}
