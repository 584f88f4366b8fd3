// Package markdown renders wiki pages from markdown to HTML.
//
// On top of GitHub flavored markdown the renderer understands
// double-bracket wiki links, highlights code blocks and inline code with
// chroma, gives every heading a slug anchor, decorates tables with
// presentation classes and prepends a nested table of contents.
//
//	html, err := markdown.Render(src, false)
//
// Pass noRefs=true to skip heading anchors and the table of contents, for
// example when rendering a snippet that is embedded in another page.
package markdown
