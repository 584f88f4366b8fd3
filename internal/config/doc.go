// Package config loads wikisearch settings.
//
// Settings come from three layers, higher layers overriding lower:
//
//	┌─────────────────────────────┐
//	│  3. Environment Variables   │  ← WIKISEARCH_*
//	├─────────────────────────────┤
//	│  2. Config File             │  ← TOML or YAML, by extension
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │
//	└─────────────────────────────┘
//
// Command line flags are applied on top by the CLI.
//
// # Basic Usage
//
//	cfg, err := config.Load(config.WithPath("wikisearch.toml"))
//	if err != nil {
//	    return err
//	}
//	matcher := fuzzy.NewMatcher(cfg.FuzzyOptions())
//
// # Keys
//
//	search.location       expected match position (runes)
//	search.distance       how far a match may stray from location
//	search.threshold      highest score still accepted
//	search.caseSensitive  disable case folding
//	search.limit          maximum number of results (0 = all)
//	search.cacheSize      compiled pattern cache entries
//	search.workers        parallel matching workers (0 = GOMAXPROCS)
//	render.noRefs         omit heading anchors and contents
//	render.style          chroma style for code blocks
//	logging.level         debug, info, warn or error
package config
