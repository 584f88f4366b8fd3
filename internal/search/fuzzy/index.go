package fuzzy

import (
	"context"
	"path/filepath"
	"strings"
)

// Page is a searchable documentation page.
type Page struct {
	// Title is the page title, matched before content.
	Title string
	// Path identifies the page (typically its source file).
	Path string
	// Content is the raw page text.
	Content string
}

// Field identifies which part of a page a hit came from.
type Field int

const (
	// FieldTitle is a match against the page title.
	FieldTitle Field = iota
	// FieldContent is a match against a line of page content.
	FieldContent
)

// String returns the field name.
func (f Field) String() string {
	switch f {
	case FieldTitle:
		return "title"
	case FieldContent:
		return "content"
	default:
		return "unknown"
	}
}

// Hit is a page matched by an Index search.
type Hit struct {
	Page  *Page
	Field Field
	// Line is the 1-based content line for FieldContent hits, 0 for titles.
	Line int
	// Text is the matched title or content line.
	Text  string
	Score float64
}

// lineRef locates a content line within the index.
type lineRef struct {
	page int
	line int
}

// Index searches a fixed set of pages by title and by content line.
type Index struct {
	pages  []Page
	titles []Item
	lines  []Item
	async  *AsyncMatcher
}

// NewIndex builds an index over pages. Blank content lines are skipped.
// workers sizes the content search pool (0 means runtime.NumCPU()).
func NewIndex(pages []Page, matcher *Matcher, workers int) *Index {
	ix := &Index{
		pages:  pages,
		titles: make([]Item, 0, len(pages)),
		async:  NewAsyncMatcher(matcher, workers),
	}

	for i, p := range pages {
		ix.titles = append(ix.titles, Item{Text: p.Title, Data: i})
		for n, line := range strings.Split(p.Content, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			ix.lines = append(ix.lines, Item{Text: line, Data: lineRef{page: i, line: n + 1}})
		}
	}

	return ix
}

// Len returns the number of indexed pages.
func (ix *Index) Len() int {
	return len(ix.pages)
}

// SearchTitles ranks pages by how well their title matches query.
func (ix *Index) SearchTitles(query string, limit int) ([]Hit, error) {
	results, err := ix.async.matcher.Match(query, ix.titles, limit)
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		page := r.Item.Data.(int) //nolint:errcheck // titles only carry page indexes
		hits = append(hits, Hit{
			Page:  &ix.pages[page],
			Field: FieldTitle,
			Text:  r.Item.Text,
			Score: r.Score,
		})
	}
	return hits, nil
}

// SearchContent ranks pages by their best matching content line.
func (ix *Index) SearchContent(ctx context.Context, query string, limit int) ([]Hit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	results, err := ix.async.MatchParallel(ctx, query, ix.lines, 0)
	if err != nil {
		return nil, err
	}

	// Results are sorted best first, so the first hit per page wins.
	seen := make(map[int]bool)
	var hits []Hit
	for _, r := range results {
		ref := r.Item.Data.(lineRef) //nolint:errcheck // lines only carry lineRefs
		if seen[ref.page] {
			continue
		}
		seen[ref.page] = true
		hits = append(hits, Hit{
			Page:  &ix.pages[ref.page],
			Field: FieldContent,
			Line:  ref.line,
			Text:  r.Item.Text,
			Score: r.Score,
		})
		if limit > 0 && len(hits) >= limit {
			break
		}
	}
	return hits, nil
}

// Search returns title hits followed by content hits for pages whose
// title did not match. Each page appears at most once.
func (ix *Index) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	titleHits, err := ix.SearchTitles(query, limit)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return titleHits, nil
	}

	contentHits, err := ix.SearchContent(ctx, query, 0)
	if err != nil {
		return nil, err
	}

	seen := make(map[*Page]bool, len(titleHits))
	for _, h := range titleHits {
		seen[h.Page] = true
	}

	hits := titleHits
	for _, h := range contentHits {
		if limit > 0 && len(hits) >= limit {
			break
		}
		if seen[h.Page] {
			continue
		}
		hits = append(hits, h)
	}
	return hits, nil
}

// ParsePage builds a Page from markdown source. The title is the first
// level-one ATX heading, or the file name without extension.
func ParsePage(path, content string) Page {
	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			title = strings.TrimSpace(strings.TrimPrefix(line, "# "))
			break
		}
	}
	return Page{
		Title:   title,
		Path:    path,
		Content: content,
	}
}
