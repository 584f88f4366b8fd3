package bitap

import (
	"strings"
)

// MaxPatternLength is the longest pattern, in runes, that fits the match register.
const MaxPatternLength = 32

// Options configures a Matcher. Options are fixed at construction.
type Options struct {
	// Location is the text index (in runes) where the match is expected.
	Location int

	// Distance controls how quickly the score degrades as a match moves
	// away from Location. An exact match Distance runes away scores 1.0.
	// Zero accepts only matches at exactly Location.
	Distance int

	// Threshold is the highest score still reported as a match.
	// 0 requires a perfect match at Location.
	Threshold float64

	// CaseSensitive disables case folding of pattern and text.
	CaseSensitive bool
}

// DefaultOptions returns the default matching options.
func DefaultOptions() Options {
	return Options{
		Location:      0,
		Distance:      100,
		Threshold:     0.6,
		CaseSensitive: false,
	}
}

// Result is the outcome of a single Search.
type Result struct {
	// IsMatch reports whether a match scoring at or below the threshold was found.
	IsMatch bool

	// Score is the best score observed (0 is perfect, larger is worse).
	// It is 1 when the register never signalled a full pattern match.
	Score float64

	// Locations lists the text indexes of accepted matches in the order
	// they were found. Each entry scored no worse than the one before it.
	Locations []int
}

// Matcher is a compiled Bitap pattern.
type Matcher struct {
	text      string
	pattern   []rune
	alphabet  map[rune]uint32
	matchMask uint32
	options   Options
}

// New compiles pattern into a Matcher.
// Returns a *PatternError wrapping ErrEmptyPattern or ErrPatternTooLong
// when the normalized pattern has no runes or more than MaxPatternLength.
// Negative Location and Distance values are treated as zero.
func New(pattern string, opts Options) (*Matcher, error) {
	if !opts.CaseSensitive {
		pattern = strings.ToLower(pattern)
	}
	if opts.Location < 0 {
		opts.Location = 0
	}
	if opts.Distance < 0 {
		opts.Distance = 0
	}

	runes := []rune(pattern)
	switch {
	case len(runes) == 0:
		return nil, &PatternError{Pattern: pattern, Err: ErrEmptyPattern}
	case len(runes) > MaxPatternLength:
		return nil, &PatternError{Pattern: pattern, Length: len(runes), Err: ErrPatternTooLong}
	}

	return &Matcher{
		text:      pattern,
		pattern:   runes,
		alphabet:  buildAlphabet(runes),
		matchMask: 1 << uint(len(runes)-1),
		options:   opts,
	}, nil
}

// buildAlphabet maps each rune of the pattern to a mask with bit
// len-1-i set for every position i where it occurs.
func buildAlphabet(pattern []rune) map[rune]uint32 {
	alphabet := make(map[rune]uint32, len(pattern))
	for i, r := range pattern {
		alphabet[r] |= 1 << uint(len(pattern)-1-i)
	}
	return alphabet
}

// Pattern returns the normalized pattern.
func (m *Matcher) Pattern() string {
	return m.text
}

// Options returns the options the Matcher was compiled with.
func (m *Matcher) Options() Options {
	return m.options
}

// Score returns the score of a match with errs errors ending at text index loc.
func (m *Matcher) Score(errs, loc int) float64 {
	accuracy := float64(errs) / float64(len(m.pattern))
	proximity := m.options.Location - loc
	if proximity < 0 {
		proximity = -proximity
	}

	if m.options.Distance == 0 {
		if proximity != 0 {
			return accuracy + 1.0
		}
		return accuracy + accuracy
	}
	return accuracy + float64(proximity)/float64(m.options.Distance)
}

// Search evaluates text against the compiled pattern.
// It never fails; empty or unrelated text yields a non-match.
func (m *Matcher) Search(text string) Result {
	if !m.options.CaseSensitive {
		text = strings.ToLower(text)
	}
	if text == m.text {
		return Result{IsMatch: true, Score: 0}
	}

	runes := []rune(text)
	patternLen := len(m.pattern)
	textLen := len(runes)
	loc := m.options.Location
	threshold := m.options.Threshold

	// A literal occurrence near loc bounds the score we have to beat.
	if i := indexRunes(runes, m.pattern, loc); i >= 0 {
		threshold = min(threshold, m.Score(0, i))
	}
	if i := lastIndexRunes(runes, m.pattern, loc+patternLen); i >= 0 {
		threshold = min(threshold, m.Score(0, i))
	}

	var (
		best      = -1
		score     = 1.0
		observed  bool
		locations []int
		binMax    = patternLen + textLen
		prev      []uint32
	)

	for e := 0; e < patternLen; e++ {
		// Widest distance from loc that could still score under the threshold.
		binMin, binMid := 0, binMax
		for binMin < binMid {
			if m.Score(e, loc+binMid) <= threshold {
				binMin = binMid
			} else {
				binMax = binMid
			}
			binMid = (binMax-binMin)/2 + binMin
		}
		binMax = binMid

		start := max(1, loc-binMid+1)
		finish := min(loc+binMid, textLen) + patternLen

		row := make([]uint32, finish+2)
		row[finish+1] = (1 << uint(e)) - 1

		for j := finish; j >= start; j-- {
			charMask := m.charMask(runes, j-1)
			if e == 0 {
				row[j] = ((row[j+1] << 1) | 1) & charMask
			} else {
				row[j] = ((row[j+1]<<1)|1)&charMask |
					(((cell(prev, j+1) | cell(prev, j)) << 1) | 1) |
					cell(prev, j+1)
			}

			if row[j]&m.matchMask == 0 {
				continue
			}

			candidate := m.Score(e, j-1)
			if !observed || candidate < score {
				score = candidate
			}
			observed = true

			if candidate <= threshold {
				threshold = candidate
				best = j - 1
				locations = append(locations, best)

				if best <= loc {
					// Already left of loc; scores only get worse from here.
					break
				}
				// Don't stray further left of loc than best is to its right.
				start = max(1, 2*loc-best)
			}
		}

		if m.Score(e+1, loc) > threshold {
			break
		}
		prev = row
	}

	return Result{
		IsMatch:   best >= 0,
		Score:     score,
		Locations: locations,
	}
}

// charMask returns the alphabet mask for the rune at index i of text,
// or zero when i is out of range or the rune is not in the pattern.
func (m *Matcher) charMask(text []rune, i int) uint32 {
	if i < 0 || i >= len(text) {
		return 0
	}
	return m.alphabet[text[i]]
}

// cell reads row[i], treating cells outside the row as zero.
func cell(row []uint32, i int) uint32 {
	if i < 0 || i >= len(row) {
		return 0
	}
	return row[i]
}

// indexRunes returns the first index >= from at which pattern occurs in
// text, or -1.
func indexRunes(text, pattern []rune, from int) int {
	if from < 0 {
		from = 0
	}
	for i := from; i+len(pattern) <= len(text); i++ {
		if hasPrefixAt(text, pattern, i) {
			return i
		}
	}
	return -1
}

// lastIndexRunes returns the last index <= from at which pattern occurs
// in text, or -1.
func lastIndexRunes(text, pattern []rune, from int) int {
	if from > len(text)-len(pattern) {
		from = len(text) - len(pattern)
	}
	for i := from; i >= 0; i-- {
		if hasPrefixAt(text, pattern, i) {
			return i
		}
	}
	return -1
}

func hasPrefixAt(text, pattern []rune, at int) bool {
	for k, r := range pattern {
		if text[at+k] != r {
			return false
		}
	}
	return true
}
