package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dshills/wikisearch/internal/config"
	"github.com/dshills/wikisearch/internal/config/loader"
	"github.com/dshills/wikisearch/internal/logging"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	verbose    bool
	quiet      bool
	noColor    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "wikisearch",
		Short: "Fuzzy search and render markdown wikis",
		Long: `wikisearch finds text in markdown wikis with Bitap approximate matching
and renders wiki pages to HTML with heading anchors, a table of contents
and highlighted code.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.noColor {
				color.NoColor = true
			}
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file (TOML or YAML); defaults to $WIKISEARCH_CONFIG")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output")
	cmd.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "Quiet mode (errors only)")
	cmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	cmd.AddCommand(newSearchCmd(opts))
	cmd.AddCommand(newQueryCmd(opts))
	cmd.AddCommand(newRenderCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// load reads the configuration and builds a logger writing to the
// command's error stream.
func (o *rootOptions) load(cmd *cobra.Command) (*config.Config, *logging.Logger, error) {
	path := o.configPath
	if path == "" {
		path = loader.GetEnvOrDefault(loader.EnvPrefix+"CONFIG", "")
	}

	cfg, err := config.Load(config.WithPath(path))
	if err != nil {
		return nil, nil, err
	}

	level := cfg.LogLevel()
	switch {
	case o.quiet:
		level = logging.LevelError
	case o.verbose:
		level = logging.LevelDebug
	}

	logger := logging.New(logging.Config{
		Level:  level,
		Output: cmd.ErrOrStderr(),
		Prefix: "wikisearch",
	})
	if path != "" {
		logger.Debug("using config %s", path)
	}
	return cfg, logger, nil
}
