// Package fuzzy ranks collections of strings against a fuzzy query.
//
// Each query is compiled once into a bitap.Matcher and evaluated against
// every item; items that match are ranked by score (lower is better) and
// then by text for a deterministic order. Compiled queries are kept in an
// LRU cache so repeated and type-ahead queries skip recompilation.
//
// # Usage
//
//	matcher := fuzzy.NewMatcher(fuzzy.DefaultOptions())
//	items := []fuzzy.Item{
//	    {Text: "Configuration", Data: page1},
//	    {Text: "Code Splitting", Data: page2},
//	}
//	results, err := matcher.Match("config", items, 10)
//	if err != nil {
//	    return err // query longer than bitap.MaxPatternLength
//	}
//	for _, r := range results {
//	    fmt.Printf("%s (score: %.3f)\n", r.Item.Text, r.Score)
//	}
//
// For large item sets, use the worker pool:
//
//	async := fuzzy.NewAsyncMatcher(matcher, 0)
//	results, err := async.MatchParallel(ctx, query, items, 10)
//
// Index builds on both to search documentation pages by title and content.
//
// # Thread Safety
//
// Matcher, AsyncMatcher and Index are safe for concurrent use. The cache is
// internally synchronized and compiled matchers are immutable.
package fuzzy
