package config

import (
	"os"
	"path/filepath"
	"strings"
)

// FileName is the default project config file name.
const FileName = "ledger-corpus.yaml"

const configDirName = "ledger-corpus"

// ConfigLevel represents the precedence level of a configuration file.
type ConfigLevel string

const (
	LevelUser    ConfigLevel = "user"
	LevelProject ConfigLevel = "project"
)

// ConfigLayerInfo describes a discovered config file and its load status.
type ConfigLayerInfo struct {
	Err    error // non-nil if the file exists but failed to load
	Path   string
	Level  ConfigLevel
	Loaded bool
}

// DiscoverOptions controls how config paths are discovered.
type DiscoverOptions struct {
	// ProjectPath is the project-level config path.
	ProjectPath string

	// UserConfigPath overrides the default user config path.
	// Empty means use the OS default. Set to a nonexistent path to skip.
	UserConfigPath string

	// NoInherit skips the user layer.
	NoInherit bool
}

// DiscoverPaths returns the ordered list of config file paths to check,
// from lowest precedence (user) to highest (project).
// Paths are deduplicated by resolved absolute path.
func DiscoverPaths(opts DiscoverOptions) []ConfigLayerInfo {
	var layers []ConfigLayerInfo
	seen := make(map[string]bool)

	addLayer := func(level ConfigLevel, path string) {
		if path == "" {
			return
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		if seen[abs] {
			return
		}
		seen[abs] = true
		layers = append(layers, ConfigLayerInfo{Path: path, Level: level})
	}

	if !opts.NoInherit && !EnvNoInherit() {
		userPath := opts.UserConfigPath
		if userPath == "" {
			userPath = defaultUserConfigPath()
		}
		addLayer(LevelUser, userPath)
	}
	addLayer(LevelProject, opts.ProjectPath)

	return layers
}

func defaultUserConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, configDirName, FileName)
}

// EnvNoInherit returns true if LEDGER_CORPUS_NO_INHERIT is "1" or "true".
func EnvNoInherit() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(EnvNoInheritKey)))
	return v == "1" || v == "true"
}
