// Package bitap implements approximate substring matching with the Bitap
// (shift-or, agrep-style) algorithm.
//
// A Matcher compiles a pattern once and can then be evaluated against any
// number of candidate texts. Each evaluation runs a bounded-error,
// bit-parallel search: one bit register per tolerated error level, with
// the scan window around the expected location narrowed as better matches
// are found.
//
// # Scoring
//
// A match with e errors found at text index x scores
//
//	e/len(pattern) + |Location-x|/Distance
//
// Smaller is better; 0 is an exact match at the expected location. Scores
// are not clamped to [0, 1]. A Distance of 0 requires the match to sit at
// exactly Location.
//
// # Usage
//
//	m, err := bitap.New("config", bitap.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	r := m.Search("Configuration")
//	if r.IsMatch {
//	    fmt.Printf("score %.3f\n", r.Score)
//	}
//
// # Limits
//
// Patterns are limited to MaxPatternLength runes because the match state is
// kept in a 32-bit register. Longer (and empty) patterns are rejected by New.
//
// # Thread Safety
//
// A Matcher is immutable after New. Search allocates only call-local rows,
// so a single Matcher may be shared by any number of goroutines.
package bitap
