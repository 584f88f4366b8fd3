package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"

	"github.com/dshills/wikisearch/internal/logging"
)

// nodeRendererPriority places our node renderer ahead of goldmark's HTML
// renderer (1000) and the table extension (500).
const nodeRendererPriority = 100

// Options configures a Renderer.
type Options struct {
	// Style is the chroma style name used for code highlighting.
	Style string
	// Logger receives highlighter fallbacks. Defaults to logging.Null.
	Logger *logging.Logger
}

// Renderer converts wiki markdown to HTML. It is safe for concurrent use.
type Renderer struct {
	highlighter *Highlighter
	logger      *logging.Logger
}

// NewRenderer creates a renderer.
func NewRenderer(opts Options) *Renderer {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Null
	}
	return &Renderer{
		highlighter: NewHighlighter(opts.Style),
		logger:      logger.WithComponent("markdown"),
	}
}

// Render converts md to HTML. Unless noRefs is set, headings get anchors
// and a table of contents is prepended inside <div class="contents">.
func (r *Renderer) Render(md string, noRefs bool) (string, error) {
	out, _, err := r.render(md, noRefs)
	return out, err
}

// Outline renders md and returns the collected heading outline alongside
// the HTML.
func (r *Renderer) Outline(md string) (string, []Heading, error) {
	return r.render(md, false)
}

func (r *Renderer) render(md string, noRefs bool) (string, []Heading, error) {
	nodes := &nodeRenderer{
		highlighter: r.highlighter,
		logger:      r.logger,
		noRefs:      noRefs,
	}

	gm := goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Typographer),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
			renderer.WithNodeRenderers(util.Prioritized(nodes, nodeRendererPriority)),
		),
	)

	var buf bytes.Buffer
	if err := gm.Convert([]byte(RewriteWikiLinks(md)), &buf); err != nil {
		return "", nil, fmt.Errorf("converting markdown: %w", err)
	}

	out := buf.String()
	if !noRefs {
		if toc := TableOfContents(nodes.outline); toc != "" {
			out = `<div class="contents">` + toc + `</div>` + out
		}
	}

	r.logger.Debug("rendered %d bytes, %d headings", len(out), len(nodes.outline))
	return out, nodes.outline, nil
}

// Render converts md to HTML with the default style.
func Render(md string, noRefs bool) (string, error) {
	return NewRenderer(Options{}).Render(md, noRefs)
}
