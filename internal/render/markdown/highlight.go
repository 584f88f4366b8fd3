package markdown

import (
	"bytes"
	"errors"
	"fmt"
	"html"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// ErrUnknownLanguage is returned when no lexer exists for a code block language.
var ErrUnknownLanguage = errors.New("unknown language")

// DefaultStyle is the chroma style used when none is configured.
const DefaultStyle = "github"

// Highlighter turns source code into HTML spans. Output carries CSS classes
// rather than inline styles and is not wrapped in <pre>.
type Highlighter struct {
	style     *chroma.Style
	formatter *chromahtml.Formatter
}

// NewHighlighter creates a highlighter for the named chroma style.
// Unknown style names fall back to chroma's default style.
func NewHighlighter(style string) *Highlighter {
	if style == "" {
		style = DefaultStyle
	}
	return &Highlighter{
		style: styles.Get(style),
		formatter: chromahtml.New(
			chromahtml.WithClasses(true),
			chromahtml.PreventSurroundingPre(true),
		),
	}
}

// Highlight highlights code written in lang. An empty lang selects a lexer
// by analysing the code. "html" is highlighted as XML.
func (h *Highlighter) Highlight(lang, code string) (string, error) {
	if lang == "html" {
		lang = "xml"
	}

	var lexer chroma.Lexer
	if lang != "" {
		lexer = lexers.Get(lang)
		if lexer == nil {
			return "", fmt.Errorf("%w: %s", ErrUnknownLanguage, lang)
		}
	} else {
		lexer = lexers.Analyse(code)
		if lexer == nil {
			lexer = lexers.Fallback
		}
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", fmt.Errorf("tokenising %s: %w", lang, err)
	}

	var buf bytes.Buffer
	if err := h.formatter.Format(&buf, h.style, iterator); err != nil {
		return "", fmt.Errorf("formatting %s: %w", lang, err)
	}
	return buf.String(), nil
}

// HighlightOrEscape highlights code, falling back to escaped plain text when
// the highlighter fails. The error, if any, is returned for logging.
func (h *Highlighter) HighlightOrEscape(lang, code string) (string, error) {
	out, err := h.Highlight(lang, code)
	if err != nil {
		return html.EscapeString(code), err
	}
	return out, nil
}
