package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dshills/wikisearch/internal/config"
	"github.com/dshills/wikisearch/internal/logging"
	"github.com/dshills/wikisearch/internal/search/fuzzy"
)

const stdinName = "-"

type searchOptions struct {
	pages         bool
	location      int
	distance      int
	threshold     float64
	caseSensitive bool
	limit         int
	json          bool
}

func newSearchCmd(root *rootOptions) *cobra.Command {
	opts := &searchOptions{}

	cmd := &cobra.Command{
		Use:   "search PATTERN [FILE...]",
		Short: "Fuzzy search lines or wiki pages",
		Long: `Search ranks input lines by how closely they approximately match PATTERN.
Lower scores are better; 0 is an exact match at the expected location.

With --pages each FILE is a markdown page: titles are matched first, then
the best matching content line of every other page.

Reads standard input when no file is named.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, root, opts, args[0], args[1:])
		},
	}

	cmd.Flags().BoolVar(&opts.pages, "pages", false, "Treat files as markdown pages and rank pages")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Output results as JSON")
	opts.addMatchFlags(cmd)

	return cmd
}

// addMatchFlags registers the flags that tune the matcher.
func (o *searchOptions) addMatchFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&o.location, "location", 0, "Expected match position in runes")
	cmd.Flags().IntVar(&o.distance, "distance", 0, "How far a match may stray from --location")
	cmd.Flags().Float64Var(&o.threshold, "threshold", 0, "Highest score still accepted")
	cmd.Flags().BoolVar(&o.caseSensitive, "case-sensitive", false, "Match case exactly")
	cmd.Flags().IntVarP(&o.limit, "limit", "n", 0, "Maximum number of results (0 = all)")
}

// applyFlags overrides config values with explicitly set flags.
func (o *searchOptions) applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("location") {
		cfg.Search.Location = o.location
	}
	if flags.Changed("distance") {
		cfg.Search.Distance = o.distance
	}
	if flags.Changed("threshold") {
		cfg.Search.Threshold = o.threshold
	}
	if flags.Changed("case-sensitive") {
		cfg.Search.CaseSensitive = o.caseSensitive
	}
	if flags.Changed("limit") {
		cfg.Search.Limit = o.limit
	}
	return cfg.Validate()
}

func runSearch(cmd *cobra.Command, root *rootOptions, opts *searchOptions, pattern string, files []string) error {
	cfg, logger, err := root.load(cmd)
	if err != nil {
		return err
	}
	if err := opts.applyFlags(cmd, cfg); err != nil {
		return err
	}

	logger = logger.WithComponent("search")
	matcher := fuzzy.NewMatcher(cfg.FuzzyOptions())

	if opts.pages {
		return searchPages(cmd, cfg, logger, matcher, opts, pattern, files)
	}
	return searchLines(cmd, cfg, logger, matcher, opts, pattern, files)
}

// lineSource locates an input line.
type lineSource struct {
	Path string
	Line int
}

// lineMatch is the JSON form of a line result.
type lineMatch struct {
	Path      string  `json:"path"`
	Line      int     `json:"line"`
	Text      string  `json:"text"`
	Score     float64 `json:"score"`
	Locations []int   `json:"locations"`
}

func searchLines(cmd *cobra.Command, cfg *config.Config, logger *logging.Logger, matcher *fuzzy.Matcher, opts *searchOptions, pattern string, files []string) error {
	items, err := readLines(cmd, files)
	if err != nil {
		return err
	}
	logger.Debug("matching %q against %d lines", pattern, len(items))

	async := fuzzy.NewAsyncMatcher(matcher, cfg.Search.Workers)
	results, err := async.MatchParallel(cmd.Context(), pattern, items, cfg.Search.Limit)
	if err != nil {
		return err
	}
	logger.Debug("%d lines matched", len(results))

	out := cmd.OutOrStdout()
	if opts.json {
		matches := make([]lineMatch, 0, len(results))
		for _, r := range results {
			src := r.Item.Data.(lineSource) //nolint:errcheck // items built by readLines
			matches = append(matches, lineMatch{
				Path:      src.Path,
				Line:      src.Line,
				Text:      r.Item.Text,
				Score:     r.Score,
				Locations: r.Locations,
			})
		}
		return writeJSON(out, matches)
	}

	s := newStyles()
	width := matchWidth(pattern)
	for _, r := range results {
		s.writeLine(out, r, width)
	}
	return nil
}

// matchWidth is the number of runes a match of pattern spans. The matcher
// trims the query, so surrounding blanks do not count.
func matchWidth(pattern string) int {
	return utf8.RuneCountInString(strings.TrimSpace(pattern))
}

// pageMatch is the JSON form of a page hit.
type pageMatch struct {
	Path  string  `json:"path"`
	Title string  `json:"title"`
	Field string  `json:"field"`
	Line  int     `json:"line,omitempty"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

func searchPages(cmd *cobra.Command, cfg *config.Config, logger *logging.Logger, matcher *fuzzy.Matcher, opts *searchOptions, pattern string, files []string) error {
	if len(files) == 0 {
		return fmt.Errorf("--pages needs at least one FILE")
	}

	pages := make([]fuzzy.Page, 0, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		pages = append(pages, fuzzy.ParsePage(path, string(data)))
	}

	index := fuzzy.NewIndex(pages, matcher, cfg.Search.Workers)
	logger.Debug("indexed %d pages", index.Len())

	hits, err := index.Search(cmd.Context(), pattern, cfg.Search.Limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.json {
		matches := make([]pageMatch, 0, len(hits))
		for _, h := range hits {
			matches = append(matches, pageMatch{
				Path:  h.Page.Path,
				Title: h.Page.Title,
				Field: h.Field.String(),
				Line:  h.Line,
				Text:  h.Text,
				Score: h.Score,
			})
		}
		return writeJSON(out, matches)
	}

	s := newStyles()
	for _, h := range hits {
		fmt.Fprintf(out, "%s %s %s\n",
			s.title.Sprint(h.Page.Title),
			s.path.Sprintf("(%s)", h.Page.Path),
			s.score.Sprintf("%.3f", h.Score),
		)
		if h.Field == fuzzy.FieldContent {
			fmt.Fprintf(out, "  %s: %s\n", s.line.Sprint(h.Line), h.Text)
		}
	}
	return nil
}

// readLines turns files, or stdin when files is empty, into match items.
// Blank lines are skipped.
func readLines(cmd *cobra.Command, files []string) ([]fuzzy.Item, error) {
	if len(files) == 0 {
		return scanLines(cmd.InOrStdin(), stdinName, nil)
	}

	var items []fuzzy.Item
	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", path, err)
		}
		items, err = scanLines(f, path, items)
		_ = f.Close()
		if err != nil {
			return nil, err
		}
	}
	return items, nil
}

func scanLines(r io.Reader, path string, items []fuzzy.Item) ([]fuzzy.Item, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	n := 0
	for scanner.Scan() {
		n++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		items = append(items, fuzzy.Item{Text: line, Data: lineSource{Path: path, Line: n}})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return items, nil
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

type styles struct {
	path  *color.Color
	line  *color.Color
	title *color.Color
	match *color.Color
	score *color.Color
}

func newStyles() styles {
	return styles{
		path:  color.New(color.FgMagenta),
		line:  color.New(color.FgGreen),
		title: color.New(color.Bold, color.FgHiWhite),
		match: color.New(color.Bold, color.FgRed),
		score: color.New(color.FgHiBlack),
	}
}

// writeLine prints a line result as path:line: text (score).
func (s styles) writeLine(w io.Writer, r fuzzy.Result, width int) {
	src := r.Item.Data.(lineSource) //nolint:errcheck // items built by readLines
	fmt.Fprintf(w, "%s:%s: %s %s\n",
		s.path.Sprint(src.Path),
		s.line.Sprint(src.Line),
		highlight(r.Item.Text, r.Locations, width, s.match),
		s.score.Sprintf("(%.3f)", r.Score),
	)
}

// highlight colors the span of patternLen runes starting at each match
// location. Overlapping spans are merged.
func highlight(text string, locations []int, patternLen int, c *color.Color) string {
	if len(locations) == 0 || patternLen == 0 {
		return text
	}

	runes := []rune(text)
	marked := make([]bool, len(runes))
	for _, loc := range locations {
		for i := loc; i < loc+patternLen && i < len(runes); i++ {
			if i >= 0 {
				marked[i] = true
			}
		}
	}

	var b strings.Builder
	for i := 0; i < len(runes); {
		j := i
		for j < len(runes) && marked[j] == marked[i] {
			j++
		}
		segment := string(runes[i:j])
		if marked[i] {
			segment = c.Sprint(segment)
		}
		b.WriteString(segment)
		i = j
	}
	return b.String()
}
