package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// Load reads a single ledger-corpus.yaml file without applying defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return &cfg, nil
}

// Resolve loads every discovered layer that exists, merges them, applies the
// environment and defaults, and validates the result. Layers that do not exist
// are skipped; if none exist the defaults are used. The returned layer info
// says what was loaded.
func Resolve(opts DiscoverOptions) (*Config, []ConfigLayerInfo, error) {
	layers := DiscoverPaths(opts)

	var loaded []*Config
	for i := range layers {
		cfg, err := Load(layers[i].Path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			layers[i].Err = err
			return nil, layers, err
		}
		layers[i].Loaded = true
		loaded = append(loaded, cfg)
	}

	cfg := &Config{Version: 1}
	if len(loaded) > 0 {
		merged, err := MergeAll(loaded)
		if err != nil {
			return nil, layers, err
		}
		cfg = merged
	}

	ApplyEnv(cfg)
	cfg.WithDefaults()

	if errs := Validate(cfg); len(errs) > 0 {
		return nil, layers, &ValidationError{Errors: errs}
	}
	return cfg, layers, nil
}

// ValidationError holds multiple validation failures.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// Validate checks a Config for semantic correctness.
// Returns a list of validation error messages (empty if valid).
func Validate(cfg *Config) []string {
	var errs []string

	if cfg.Version != 1 {
		errs = append(errs, fmt.Sprintf("unsupported version %d (only version 1 is supported)", cfg.Version))
	}

	if strings.Contains(cfg.RawHost, "/") {
		errs = append(errs, fmt.Sprintf("raw_host '%s' must be a bare host name", cfg.RawHost))
	}

	if cfg.BrokenDir != "" {
		clean := filepath.Clean(cfg.BrokenDir)
		if filepath.IsAbs(clean) || clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
			errs = append(errs, fmt.Sprintf("broken_dir '%s' must be a subdirectory of dest", cfg.BrokenDir))
		}
	}

	errs = append(errs, validateLabels("types", cfg.Types)...)
	errs = append(errs, validateLabels("include_types", cfg.IncludeTypes)...)

	if cfg.MinSize != nil && *cfg.MinSize < 0 {
		errs = append(errs, fmt.Sprintf("min_size must not be negative, got %d", *cfg.MinSize))
	}

	for i, pattern := range cfg.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			errs = append(errs, fmt.Sprintf("exclude[%d]: invalid glob pattern '%s'", i, pattern))
		}
	}

	if cfg.Fetch.Timeout < 0 {
		errs = append(errs, "fetch.timeout must not be negative")
	}
	if cfg.Fetch.MaxFileSize < 0 {
		errs = append(errs, "fetch.max_file_size must not be negative")
	}

	return errs
}

func validateLabels(field string, labels []string) []string {
	var errs []string
	for _, l := range labels {
		for _, part := range strings.Split(l, ",") {
			switch strings.ToLower(strings.TrimSpace(part)) {
			case "main", "single", "unknown", "yes", "no":
			default:
				errs = append(errs, fmt.Sprintf("%s: unknown classification '%s' (must be one of: main, single, unknown)", field, part))
			}
		}
	}
	return errs
}
