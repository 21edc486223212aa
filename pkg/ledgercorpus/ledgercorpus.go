// Package ledgercorpus provides the Go library API for ledger-corpus.
//
// ledger-corpus turns a list of discovered plain-text ledger documents into a
// local, self-contained corpus: duplicates are merged, colliding file names
// are made unique, include directives are fetched and rewritten to local
// paths, and documents whose includes cannot be completed are quarantined.
//
// # Basic Usage
//
//	client, err := ledgercorpus.New(ledgercorpus.Options{
//	    ConfigPath: "ledger-corpus.yaml",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Filter, fetch and resolve includes in one go
//	result, err := client.Run(ctx)
//
//	// Confirm every include in the corpus resolves locally
//	check, err := client.Check(ctx)
package ledgercorpus

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/bianoble/ledger-corpus/internal/cache"
	"github.com/bianoble/ledger-corpus/internal/config"
	"github.com/bianoble/ledger-corpus/internal/engine"
)

// Options configures a ledger-corpus client.
type Options struct {
	// ProjectRoot anchors relative paths in the config. If empty, defaults
	// to the directory containing ConfigPath.
	ProjectRoot string

	// ConfigPath is the path to the config file. Default: "ledger-corpus.yaml".
	// A missing file means all defaults.
	ConfigPath string

	// UserConfigPath overrides the user-level config location.
	UserConfigPath string

	// NoInherit skips the user-level config.
	NoInherit bool

	// CacheDir overrides cache_dir from the config. If both are empty the
	// default (~/.cache/ledger-corpus) is used.
	CacheDir string

	// NoCache disables the body cache.
	NoCache bool

	// Fetcher replaces the HTTP fetcher built from the config.
	Fetcher Fetcher

	// Logger receives per-file progress. Nil discards it.
	Logger *zap.Logger

	// Metrics, when set, counts what each operation did.
	Metrics *Metrics
}

// FilterOptions configures a filter operation.
type FilterOptions struct {
	Input  string // default: config discovered
	Output string // default: config sources
	DryRun bool
}

// Client is the main entry point for the ledger-corpus library.
type Client struct {
	opts        Options
	projectRoot string
}

// New creates a new ledger-corpus Client.
func New(opts Options) (*Client, error) {
	if opts.ConfigPath == "" {
		opts.ConfigPath = config.FileName
	}

	root := opts.ProjectRoot
	if root == "" {
		abs, err := filepath.Abs(opts.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("resolving config path: %w", err)
		}
		root = filepath.Dir(abs)
	}

	return &Client{opts: opts, projectRoot: root}, nil
}

// Config returns the effective configuration with paths anchored at the
// project root.
func (c *Client) Config() (config.Config, error) {
	cfg, _, err := config.Resolve(config.DiscoverOptions{
		ProjectPath:    c.opts.ConfigPath,
		UserConfigPath: c.opts.UserConfigPath,
		NoInherit:      c.opts.NoInherit,
	})
	if err != nil {
		return config.Config{}, err
	}
	return cfg.Rooted(c.projectRoot), nil
}

func (c *Client) fetcher(cfg config.Config) Fetcher {
	if c.opts.Fetcher != nil {
		return c.opts.Fetcher
	}
	return engine.NewHTTPFetcher(cfg)
}

func (c *Client) cache(cfg config.Config) (*cache.Cache, error) {
	if c.opts.NoCache {
		return nil, nil
	}
	dir := c.opts.CacheDir
	if dir == "" {
		dir = cfg.CacheDir
	}
	if dir == "" {
		dir = cache.DefaultDir()
	}
	ch, err := cache.New(dir)
	if err != nil {
		return nil, fmt.Errorf("initializing cache: %w", err)
	}
	return ch, nil
}

// Filter writes the filtered record file from the discovery output.
func (c *Client) Filter(ctx context.Context, opts FilterOptions) (*FilterResult, error) {
	cfg, err := c.Config()
	if err != nil {
		return nil, err
	}
	eng := &engine.FilterEngine{Logger: c.opts.Logger, Metrics: c.opts.Metrics}
	return eng.Filter(ctx, cfg, engine.FilterOptions{Input: opts.Input, Output: opts.Output, DryRun: opts.DryRun})
}

// Get fetches the filtered documents into the destination directory.
func (c *Client) Get(ctx context.Context) (*GetResult, error) {
	cfg, err := c.Config()
	if err != nil {
		return nil, err
	}
	ch, err := c.cache(cfg)
	if err != nil {
		return nil, err
	}
	eng := &engine.GetEngine{
		Fetcher: c.fetcher(cfg),
		Cache:   ch,
		Logger:  c.opts.Logger,
		Metrics: c.opts.Metrics,
	}
	return eng.Get(ctx, cfg)
}

// Includes fetches include files, rewrites include directives and
// quarantines documents that cannot be completed.
func (c *Client) Includes(ctx context.Context) (*IncludesResult, error) {
	cfg, err := c.Config()
	if err != nil {
		return nil, err
	}
	eng := &engine.IncludesEngine{Fetcher: c.fetcher(cfg), Logger: c.opts.Logger, Metrics: c.opts.Metrics}
	return eng.Includes(ctx, cfg)
}

// Check reports include directives in the corpus that do not resolve to a
// local file.
func (c *Client) Check(ctx context.Context) (*CheckResult, error) {
	cfg, err := c.Config()
	if err != nil {
		return nil, err
	}
	eng := &engine.CheckEngine{Logger: c.opts.Logger, Metrics: c.opts.Metrics}
	return eng.Check(ctx, cfg)
}

// Run executes filter, get and includes in order.
func (c *Client) Run(ctx context.Context) (*RunResult, error) {
	cfg, err := c.Config()
	if err != nil {
		return nil, err
	}
	ch, err := c.cache(cfg)
	if err != nil {
		return nil, err
	}
	p := &engine.Pipeline{
		Fetcher: c.fetcher(cfg),
		Cache:   ch,
		Logger:  c.opts.Logger,
		Metrics: c.opts.Metrics,
	}
	return p.Run(ctx, cfg)
}
