package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/wikisearch/internal/logging"
	"github.com/dshills/wikisearch/internal/render/markdown"
	"github.com/dshills/wikisearch/internal/watcher"
)

type renderOptions struct {
	noRefs bool
	style  string
	output string
	watch  bool
}

func newRenderCmd(root *rootOptions) *cobra.Command {
	opts := &renderOptions{}

	cmd := &cobra.Command{
		Use:   "render [FILE]",
		Short: "Render a markdown page to HTML",
		Long: `Render converts a markdown page to HTML. [[Wiki Links]] become page links,
headings get anchors and a table of contents is prepended unless --no-refs
is given. Reads standard input when no file is named.

With --watch the page is rendered again every time FILE changes, until
interrupted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, root, opts, args)
		},
	}

	cmd.Flags().BoolVar(&opts.noRefs, "no-refs", false, "Omit heading anchors and the table of contents")
	cmd.Flags().StringVar(&opts.style, "style", "", "Chroma style for code highlighting")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write HTML to this file instead of stdout")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Render again whenever FILE changes")

	return cmd
}

func runRender(cmd *cobra.Command, root *rootOptions, opts *renderOptions, args []string) error {
	if opts.watch && len(args) == 0 {
		return fmt.Errorf("--watch needs a FILE")
	}

	cfg, logger, err := root.load(cmd)
	if err != nil {
		return err
	}
	logger = logger.WithComponent("render")

	noRefs := cfg.Render.NoRefs
	if cmd.Flags().Changed("no-refs") {
		noRefs = opts.noRefs
	}
	style := cfg.Render.Style
	if cmd.Flags().Changed("style") {
		style = opts.style
	}

	r := markdown.NewRenderer(markdown.Options{Style: style, Logger: logger})
	job := &renderJob{
		cmd:      cmd,
		renderer: r,
		noRefs:   noRefs,
		output:   opts.output,
	}
	if len(args) == 1 {
		job.input = args[0]
	}

	if err := job.run(); err != nil {
		return err
	}
	if !opts.watch {
		return nil
	}
	return watchRender(cmd, job, logger)
}

// renderJob renders one input to one output.
type renderJob struct {
	cmd      *cobra.Command
	renderer *markdown.Renderer
	noRefs   bool
	input    string
	output   string
}

func (j *renderJob) run() error {
	var source []byte
	var err error
	if j.input != "" {
		source, err = os.ReadFile(j.input)
		if err != nil {
			return fmt.Errorf("reading %s: %w", j.input, err)
		}
	} else {
		source, err = io.ReadAll(j.cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
	}

	out, err := j.renderer.Render(string(source), j.noRefs)
	if err != nil {
		return err
	}

	if j.output != "" {
		if err := os.WriteFile(j.output, []byte(out), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", j.output, err)
		}
		return nil
	}
	_, err = io.WriteString(j.cmd.OutOrStdout(), out)
	return err
}

// watchRender re-runs job on every change to its input until the command
// context is cancelled. Render failures are logged and watching continues.
func watchRender(cmd *cobra.Command, job *renderJob, logger *logging.Logger) error {
	w, err := watcher.New()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(job.input); err != nil {
		return fmt.Errorf("watching %s: %w", job.input, err)
	}
	logger.Info("watching %s", job.input)

	ctx := cmd.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events():
			if !ok {
				return nil
			}
			if ev.Op&(watcher.OpRemove|watcher.OpRename) != 0 && ev.Op&(watcher.OpCreate|watcher.OpWrite) == 0 {
				logger.Warn("%s was removed", ev.Path)
				continue
			}
			if err := job.run(); err != nil {
				logger.Error("render failed: %v", err)
				continue
			}
			logger.Info("rendered %s (%s)", job.input, ev.Op)
		case err, ok := <-w.Errors():
			if !ok {
				return nil
			}
			logger.Warn("watch error: %v", err)
		}
	}
}
