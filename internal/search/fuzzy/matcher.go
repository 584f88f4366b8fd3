package fuzzy

import (
	"sort"
	"strings"

	"github.com/dshills/wikisearch/internal/search/bitap"
)

// Item represents a searchable item.
type Item struct {
	// Text is the string to match against.
	Text string

	// Data is arbitrary data associated with this item.
	Data any
}

// Result represents a match result with scoring information.
type Result struct {
	// Item is the matched item.
	Item Item

	// Score is the match score (lower is better, 0 is perfect).
	Score float64

	// Locations contains the rune indexes of accepted match starts.
	Locations []int
}

// Options configures the matcher behavior.
type Options struct {
	// Search configures every compiled query.
	Search bitap.Options

	// CacheSize is the maximum number of compiled queries kept.
	// Set to 0 to disable caching.
	CacheSize int
}

// DefaultOptions returns sensible default options.
func DefaultOptions() Options {
	return Options{
		Search:    bitap.DefaultOptions(),
		CacheSize: 256,
	}
}

// Matcher ranks items against fuzzy queries.
type Matcher struct {
	cache   *Cache
	options Options
}

// NewMatcher creates a new fuzzy matcher with the given options.
func NewMatcher(opts Options) *Matcher {
	var cache *Cache
	if opts.CacheSize > 0 {
		cache = NewCache(opts.CacheSize)
	}

	return &Matcher{
		cache:   cache,
		options: opts,
	}
}

// Options returns the matcher options.
func (m *Matcher) Options() Options {
	return m.options
}

// Compile returns the compiled pattern for query, using the cache when enabled.
// The query is expected to be trimmed already.
func (m *Matcher) Compile(query string) (*bitap.Matcher, error) {
	key := m.cacheKey(query)
	if m.cache != nil {
		if compiled := m.cache.Get(key); compiled != nil {
			return compiled, nil
		}
	}

	compiled, err := bitap.New(query, m.options.Search)
	if err != nil {
		return nil, err
	}

	if m.cache != nil {
		m.cache.Set(key, compiled)
	}
	return compiled, nil
}

// Match finds items matching the query and returns results sorted by score.
// An empty query returns the first limit items with a zero score.
// The only error is an uncompilable query (see bitap.New).
func (m *Matcher) Match(query string, items []Item, limit int) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return m.emptyQueryResults(items, limit), nil
	}

	compiled, err := m.Compile(query)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(items))
	for _, item := range items {
		if r, ok := matchItem(compiled, item); ok {
			results = append(results, r)
		}
	}

	sortResults(results)
	return applyLimit(results, limit), nil
}

// matchItem evaluates a single item against a compiled query.
func matchItem(compiled *bitap.Matcher, item Item) (Result, bool) {
	sr := compiled.Search(item.Text)
	if !sr.IsMatch {
		return Result{}, false
	}
	return Result{
		Item:      item,
		Score:     sr.Score,
		Locations: sr.Locations,
	}, true
}

// cacheKey folds case when matching is case-insensitive so "Foo" and
// "foo" share one compiled pattern.
func (m *Matcher) cacheKey(query string) string {
	if m.options.Search.CaseSensitive {
		return query
	}
	return strings.ToLower(query)
}

// emptyQueryResults returns results for an empty query.
func (m *Matcher) emptyQueryResults(items []Item, limit int) []Result {
	count := len(items)
	if limit > 0 && limit < count {
		count = limit
	}

	results := make([]Result, count)
	for i := 0; i < count; i++ {
		results[i] = Result{
			Item:  items[i],
			Score: 0,
		}
	}
	return results
}

// resultLess orders by score ascending, then by text.
func resultLess(a, b Result) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return a.Item.Text < b.Item.Text
}

// sortResults orders results by resultLess.
func sortResults(results []Result) {
	sort.Slice(results, func(i, j int) bool {
		return resultLess(results[i], results[j])
	})
}

// applyLimit returns at most limit results.
func applyLimit(results []Result, limit int) []Result {
	if limit <= 0 || limit >= len(results) {
		return results
	}
	return results[:limit]
}
