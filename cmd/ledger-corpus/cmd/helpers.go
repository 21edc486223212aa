package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bianoble/ledger-corpus/internal/cache"
	"github.com/bianoble/ledger-corpus/internal/config"
	"github.com/bianoble/ledger-corpus/internal/engine"
	"github.com/bianoble/ledger-corpus/internal/source"
)

// loadConfig resolves the layered config, applies flag overrides and anchors
// relative paths at the directory holding the config file.
func loadConfig() (config.Config, error) {
	cfg, layers, err := config.Resolve(config.DiscoverOptions{
		ProjectPath: configPath,
		NoInherit:   noInherit,
	})
	if err != nil {
		return config.Config{}, fmt.Errorf("loading config %s: %w", configPath, err)
	}
	for _, l := range layers {
		if l.Loaded {
			detail("config: %s (%s)", l.Path, l.Level)
		}
	}

	if destFlag != "" {
		cfg.Dest = destFlag
	}
	if sourcesFlag != "" {
		cfg.Sources = sourcesFlag
	}
	if metaFlag != "" {
		cfg.Meta = metaFlag
	}
	if len(typesFlag) > 0 {
		cfg.Types = typesFlag
	}
	if len(includeTypesFlag) > 0 {
		cfg.IncludeTypes = includeTypesFlag
	}
	if minSizeFlag >= 0 {
		n := minSizeFlag
		cfg.MinSize = &n
	}
	if errs := config.Validate(cfg); len(errs) > 0 {
		return config.Config{}, &config.ValidationError{Errors: errs}
	}

	root, err := projectRoot()
	if err != nil {
		return config.Config{}, err
	}
	return cfg.Rooted(root), nil
}

// projectRoot returns the directory containing the config file.
func projectRoot() (string, error) {
	abs, err := filepath.Abs(configPath)
	if err != nil {
		return "", fmt.Errorf("resolving config path: %w", err)
	}
	return filepath.Dir(abs), nil
}

// newCache opens the body cache, or returns nil when --no-cache is set.
func newCache(cfg config.Config) (*cache.Cache, error) {
	if noCache {
		return nil, nil
	}
	dir := cfg.CacheDir
	if dir == "" {
		dir = cache.DefaultDir()
	}
	return cache.New(dir)
}

// newFetcher creates the HTTP fetcher configured by cfg.
func newFetcher(cfg config.Config) *source.HTTPFetcher {
	return engine.NewHTTPFetcher(cfg)
}

// info prints a line unless quiet mode is active.
func info(format string, args ...any) {
	if !quiet {
		fmt.Printf(format+"\n", args...)
	}
}

// detail prints a line only in verbose mode.
func detail(format string, args ...any) {
	if verbose {
		fmt.Printf("  "+format+"\n", args...)
	}
}

// errorf prints an error message to stderr.
func errorf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}

// humanSize formats a byte count in binary units.
func humanSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// reportErrors prints per-file errors and turns them into the command error.
func reportErrors(errs []engine.FileError) error {
	for i := range errs {
		errorf("%s", errs[i].Error())
	}
	if len(errs) > 0 {
		return fmt.Errorf("%d file(s) failed", len(errs))
	}
	return nil
}
