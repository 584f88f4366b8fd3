package config

import (
	"fmt"
	"math"

	"gopkg.in/yaml.v3"

	"github.com/dshills/wikisearch/internal/config/loader"
	"github.com/dshills/wikisearch/internal/logging"
	"github.com/dshills/wikisearch/internal/render/markdown"
	"github.com/dshills/wikisearch/internal/search/bitap"
	"github.com/dshills/wikisearch/internal/search/fuzzy"
)

// Config holds every wikisearch setting.
type Config struct {
	Search  SearchConfig  `yaml:"search"`
	Render  RenderConfig  `yaml:"render"`
	Logging LoggingConfig `yaml:"logging"`
}

// SearchConfig configures fuzzy matching.
type SearchConfig struct {
	Location      int     `yaml:"location"`
	Distance      int     `yaml:"distance"`
	Threshold     float64 `yaml:"threshold"`
	CaseSensitive bool    `yaml:"caseSensitive"`
	Limit         int     `yaml:"limit"`
	CacheSize     int     `yaml:"cacheSize"`
	Workers       int     `yaml:"workers"`
}

// RenderConfig configures markdown rendering.
type RenderConfig struct {
	NoRefs bool   `yaml:"noRefs"`
	Style  string `yaml:"style"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the built-in settings.
func Default() *Config {
	search := bitap.DefaultOptions()
	return &Config{
		Search: SearchConfig{
			Location:      search.Location,
			Distance:      search.Distance,
			Threshold:     search.Threshold,
			CaseSensitive: search.CaseSensitive,
			Limit:         20,
			CacheSize:     fuzzy.DefaultOptions().CacheSize,
		},
		Render: RenderConfig{
			Style: markdown.DefaultStyle,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

type options struct {
	path      string
	fs        loader.FileSystem
	envPrefix string
	skipEnv   bool
}

// Option configures Load.
type Option func(*options)

// WithPath sets the configuration file. A missing file is not an error.
func WithPath(path string) Option {
	return func(o *options) {
		o.path = path
	}
}

// WithFileSystem sets the file system the configuration file is read from.
func WithFileSystem(fs loader.FileSystem) Option {
	return func(o *options) {
		o.fs = fs
	}
}

// WithEnvPrefix overrides the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(o *options) {
		o.envPrefix = prefix
	}
}

// WithoutEnv disables the environment layer.
func WithoutEnv() Option {
	return func(o *options) {
		o.skipEnv = true
	}
}

// Load builds a Config from defaults, the optional config file and the
// environment, then validates it.
func Load(opts ...Option) (*Config, error) {
	o := options{
		fs:        loader.DefaultFS(),
		envPrefix: loader.EnvPrefix,
	}
	for _, opt := range opts {
		opt(&o)
	}

	var merged map[string]any
	if o.path != "" {
		file, err := loader.ForPath(o.fs, o.path).Load()
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", o.path, err)
		}
		merged = loader.DeepMerge(merged, file)
	}

	if !o.skipEnv {
		env, err := loader.NewEnvLoader(o.envPrefix).Load()
		if err != nil {
			return nil, fmt.Errorf("loading environment: %w", err)
		}
		merged = loader.DeepMerge(merged, env)
	}

	cfg, err := FromMap(merged)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromMap decodes a nested settings map over the defaults. Keys absent
// from m keep their default value.
func FromMap(m map[string]any) (*Config, error) {
	cfg := Default()
	if len(m) == 0 {
		return cfg, nil
	}

	data, err := yaml.Marshal(m)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &DecodeError{Err: err}
	}
	return cfg, nil
}

// Validate reports every setting outside its allowed range.
func (c *Config) Validate() error {
	var fields []FieldError
	nonNegative := func(path string, v int) {
		if v < 0 {
			fields = append(fields, FieldError{Path: path, Value: v, Message: "must not be negative"})
		}
	}

	nonNegative("search.location", c.Search.Location)
	nonNegative("search.distance", c.Search.Distance)
	nonNegative("search.limit", c.Search.Limit)
	nonNegative("search.cacheSize", c.Search.CacheSize)
	nonNegative("search.workers", c.Search.Workers)

	if c.Search.Threshold < 0 || math.IsNaN(c.Search.Threshold) {
		fields = append(fields, FieldError{Path: "search.threshold", Value: c.Search.Threshold, Message: "must be a non-negative number"})
	}
	if !logging.ValidLevel(c.Logging.Level) {
		fields = append(fields, FieldError{Path: "logging.level", Value: c.Logging.Level, Message: "must be debug, info, warn or error"})
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// BitapOptions returns the matcher options described by the search settings.
func (c *Config) BitapOptions() bitap.Options {
	return bitap.Options{
		Location:      c.Search.Location,
		Distance:      c.Search.Distance,
		Threshold:     c.Search.Threshold,
		CaseSensitive: c.Search.CaseSensitive,
	}
}

// FuzzyOptions returns the list matcher options described by the search settings.
func (c *Config) FuzzyOptions() fuzzy.Options {
	return fuzzy.Options{
		Search:    c.BitapOptions(),
		CacheSize: c.Search.CacheSize,
	}
}

// LogLevel returns the configured logging level.
func (c *Config) LogLevel() logging.Level {
	return logging.ParseLevel(c.Logging.Level)
}
