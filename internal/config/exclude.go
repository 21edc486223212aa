package config

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Excluded reports whether an origin-relative path matches any exclude
// pattern. Patterns were validated on load, so match errors are treated as
// non-matches.
func (cfg *Config) Excluded(originPath string) bool {
	p := strings.TrimLeft(originPath, "/")
	for _, pattern := range cfg.Exclude {
		if ok, err := doublestar.Match(pattern, p); err == nil && ok {
			return true
		}
	}
	return false
}
