package main

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dshills/wikisearch/internal/search/fuzzy"
)

func newQueryCmd(root *rootOptions) *cobra.Command {
	opts := &searchOptions{}

	cmd := &cobra.Command{
		Use:   "query FILE...",
		Short: "Answer a stream of fuzzy queries read from standard input",
		Long: `Query loads the lines of every FILE once, then reads one query per line
from standard input. Each query prints a "> QUERY" header followed by its
matching lines, best first.

A query that arrives while the previous one is still printing cancels it,
so a picker can pipe in the query after every keystroke.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, root, opts, args)
		},
	}

	opts.addMatchFlags(cmd)

	return cmd
}

func runQuery(cmd *cobra.Command, root *rootOptions, opts *searchOptions, files []string) error {
	cfg, logger, err := root.load(cmd)
	if err != nil {
		return err
	}
	if err := opts.applyFlags(cmd, cfg); err != nil {
		return err
	}
	logger = logger.WithComponent("query")

	items, err := readLines(cmd, files)
	if err != nil {
		return err
	}
	logger.Debug("loaded %d lines", len(items))

	streaming := fuzzy.NewStreamingMatcher(fuzzy.NewMatcher(cfg.FuzzyOptions()), cfg.Search.Workers)
	defer streaming.Cancel()

	ctx := cmd.Context()
	queries := newQueryReader(ctx, cmd.InOrStdin())
	lines := queries.lines

	out := cmd.OutOrStdout()
	s := newStyles()

	var (
		results <-chan fuzzy.Result
		width   int
	)
	for lines != nil || results != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case q, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			fmt.Fprintf(out, "> %s\n", q)
			results, err = streaming.SearchWithContext(ctx, q, items, cfg.Search.Limit)
			if err != nil {
				logger.Warn("query %q: %v", q, err)
				results = nil
				continue
			}
			width = matchWidth(q)

		case r, ok := <-results:
			if !ok {
				results = nil
				continue
			}
			s.writeLine(out, r, width)
		}
	}

	if err := queries.err; err != nil {
		return fmt.Errorf("reading queries: %w", err)
	}
	logger.Debug("last query %q", streaming.LastQuery())
	return nil
}

// queryReader feeds lines from r to a channel. err is set before lines is
// closed.
type queryReader struct {
	lines chan string
	err   error
}

func newQueryReader(ctx context.Context, r io.Reader) *queryReader {
	q := &queryReader{lines: make(chan string)}

	go func() {
		defer close(q.lines)

		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case q.lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		q.err = scanner.Err()
	}()

	return q
}
