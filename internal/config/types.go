package config

import (
	"path/filepath"
	"time"

	"github.com/bianoble/ledger-corpus/internal/quarantine"
	"github.com/bianoble/ledger-corpus/internal/record"
)

// Defaults applied by WithDefaults.
const (
	DefaultDiscovered = "ledgers_discovered.tsv"
	DefaultSources    = "ledgers_filtered.tsv"
	DefaultDest       = "ledgers"
	DefaultMetaName   = ".ledger_meta.yaml"
	DefaultMinSize    = int64(10240)
	DefaultTimeout    = 30 * time.Second
	DefaultMaxSize    = int64(10 << 20)
)

// Config represents the ledger-corpus.yaml configuration file.
type Config struct {
	Version int `yaml:"version"`

	RawHost    string `yaml:"raw_host,omitempty"`
	Discovered string `yaml:"discovered,omitempty"`
	Sources    string `yaml:"sources,omitempty"`
	Dest       string `yaml:"dest,omitempty"`
	BrokenDir  string `yaml:"broken_dir,omitempty"`
	Meta       string `yaml:"meta,omitempty"`
	CacheDir   string `yaml:"cache_dir,omitempty"`

	Types        []string `yaml:"types,omitempty"`
	IncludeTypes []string `yaml:"include_types,omitempty"`
	MinSize      *int64   `yaml:"min_size,omitempty"`
	Exclude      []string `yaml:"exclude,omitempty"`

	Fetch Fetch `yaml:"fetch,omitempty"`

	// Token authenticates raw fetches. Only ever read from the environment.
	Token string `yaml:"-"`
}

// Fetch configures the HTTP fetcher.
type Fetch struct {
	Timeout     time.Duration `yaml:"timeout,omitempty"`
	MaxFileSize int64         `yaml:"max_file_size,omitempty"`
	UserAgent   string        `yaml:"user_agent,omitempty"`
}

// Default returns a version 1 config with every default filled in.
func Default() *Config {
	return (&Config{Version: 1}).WithDefaults()
}

// WithDefaults fills unset fields in place and returns cfg.
func (cfg *Config) WithDefaults() *Config {
	if cfg.RawHost == "" {
		cfg.RawHost = record.DefaultRawHost
	}
	if cfg.Discovered == "" {
		cfg.Discovered = DefaultDiscovered
	}
	if cfg.Sources == "" {
		cfg.Sources = DefaultSources
	}
	if cfg.Dest == "" {
		cfg.Dest = DefaultDest
	}
	if cfg.BrokenDir == "" {
		cfg.BrokenDir = quarantine.DefaultDir
	}
	if len(cfg.Types) == 0 {
		cfg.Types = []string{"main", "single"}
	}
	if len(cfg.IncludeTypes) == 0 {
		cfg.IncludeTypes = []string{"main"}
	}
	if cfg.MinSize == nil {
		n := DefaultMinSize
		cfg.MinSize = &n
	}
	if cfg.Fetch.Timeout == 0 {
		cfg.Fetch.Timeout = DefaultTimeout
	}
	if cfg.Fetch.MaxFileSize == 0 {
		cfg.Fetch.MaxFileSize = DefaultMaxSize
	}
	return cfg
}

// MetaPath returns the metadata file path, <dest>/.ledger_meta.yaml unless
// set explicitly.
func (cfg *Config) MetaPath() string {
	if cfg.Meta != "" {
		return cfg.Meta
	}
	return filepath.Join(cfg.Dest, DefaultMetaName)
}

// TypeSet returns the classifications fetched by get.
func (cfg *Config) TypeSet() record.ClassificationSet {
	return record.NewClassificationSet(cfg.Types...)
}

// IncludeTypeSet returns the classifications whose includes are resolved.
func (cfg *Config) IncludeTypeSet() record.ClassificationSet {
	return record.NewClassificationSet(cfg.IncludeTypes...)
}

// MinSizeBytes returns the configured minimum size for non-main documents.
func (cfg *Config) MinSizeBytes() int64 {
	if cfg.MinSize == nil {
		return DefaultMinSize
	}
	return *cfg.MinSize
}

// Rooted returns a copy of cfg with relative file paths joined to root.
func (cfg Config) Rooted(root string) Config {
	join := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(root, p)
	}
	cfg.Discovered = join(cfg.Discovered)
	cfg.Sources = join(cfg.Sources)
	cfg.Dest = join(cfg.Dest)
	cfg.Meta = join(cfg.Meta)
	cfg.CacheDir = join(cfg.CacheDir)
	return cfg
}
