package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"

	"github.com/dshills/wikisearch/internal/logging"
)

const tableOpen = `<table class="table table-bordered table-striped table-hover">` + "\n"

// inlineCodeLanguage is the language inline code spans are highlighted as.
const inlineCodeLanguage = "javascript"

// nodeRenderer overrides goldmark's HTML output for code, headings and
// tables. It carries per-document state, so use one per conversion.
type nodeRenderer struct {
	highlighter *Highlighter
	logger      *logging.Logger
	noRefs      bool
	outline     []Heading
}

// RegisterFuncs implements renderer.NodeRenderer.
func (r *nodeRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderFencedCodeBlock)
	reg.Register(ast.KindCodeBlock, r.renderCodeBlock)
	reg.Register(ast.KindCodeSpan, r.renderCodeSpan)
	reg.Register(ast.KindHeading, r.renderHeading)
	reg.Register(east.KindTable, r.renderTable)
}

func (r *nodeRenderer) renderFencedCodeBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.FencedCodeBlock) //nolint:errcheck // registered for KindFencedCodeBlock only

	var lang string
	if n.Info != nil {
		lang = string(n.Language(source))
	}
	r.writeCodeBlock(w, lang, blockText(n, source))
	return ast.WalkSkipChildren, nil
}

func (r *nodeRenderer) renderCodeBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	r.writeCodeBlock(w, "", blockText(node, source))
	return ast.WalkSkipChildren, nil
}

func (r *nodeRenderer) writeCodeBlock(w util.BufWriter, lang, code string) {
	out, err := r.highlighter.HighlightOrEscape(lang, code)
	if err != nil {
		r.logger.Debug("code block left unhighlighted: %v", err)
	}
	_, _ = w.WriteString("<pre><code>")
	_, _ = w.WriteString(out)
	_, _ = w.WriteString("</code></pre>\n")
}

func (r *nodeRenderer) renderCodeSpan(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}

	var code bytes.Buffer
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		var value []byte
		switch t := c.(type) {
		case *ast.Text:
			value = t.Segment.Value(source)
		case *ast.String:
			value = t.Value
		}
		// Line endings inside a code span render as spaces.
		if bytes.HasSuffix(value, []byte("\n")) {
			code.Write(value[:len(value)-1])
			code.WriteByte(' ')
			continue
		}
		code.Write(value)
	}

	out, err := r.highlighter.HighlightOrEscape(inlineCodeLanguage, code.String())
	if err != nil {
		r.logger.Debug("code span left unhighlighted: %v", err)
	}
	_, _ = w.WriteString("<code>")
	_, _ = w.WriteString(out)
	_, _ = w.WriteString("</code>")
	return ast.WalkSkipChildren, nil
}

func (r *nodeRenderer) renderHeading(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*ast.Heading) //nolint:errcheck // registered for KindHeading only

	if !entering {
		_, _ = fmt.Fprintf(w, "</h%d>\n", n.Level)
		return ast.WalkContinue, nil
	}

	if r.noRefs {
		_, _ = fmt.Fprintf(w, "<h%d>", n.Level)
		return ast.WalkContinue, nil
	}

	text := inlineHTML(n, source)
	anchor := Anchor(text)
	r.outline = append(r.outline, Heading{
		Anchor: anchor,
		Text:   stripParenGroups(text),
		Level:  n.Level,
	})
	_, _ = fmt.Fprintf(w, `<h%d id="%s"><a class="anchor" href="#%s">&rarr;</a>`, n.Level, anchor, anchor)
	return ast.WalkContinue, nil
}

func (r *nodeRenderer) renderTable(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		_, _ = w.WriteString(tableOpen)
	} else {
		_, _ = w.WriteString("</table>\n")
	}
	return ast.WalkContinue, nil
}

// blockText joins the raw lines of a block node.
func blockText(n ast.Node, source []byte) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(source))
	}
	return b.String()
}

// inlineHTML approximates the HTML of n's inline content: text is
// escaped, typographic substitutions and raw HTML are kept verbatim.
func inlineHTML(n ast.Node, source []byte) string {
	var b bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(util.EscapeHTML(t.Segment.Value(source)))
			if t.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			if t.IsCode() || t.IsRaw() {
				b.Write(t.Value)
			} else {
				b.Write(util.EscapeHTML(t.Value))
			}
		case *ast.RawHTML:
			for i := 0; i < t.Segments.Len(); i++ {
				seg := t.Segments.At(i)
				b.Write(seg.Value(source))
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}
