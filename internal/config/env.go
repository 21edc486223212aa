package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables read by ApplyEnv.
const (
	EnvToken        = "GITHUB_TOKEN"
	EnvGHToken      = "GH_TOKEN"
	EnvDest         = "LEDGER_CORPUS_DEST"
	EnvNoInheritKey = "LEDGER_CORPUS_NO_INHERIT"
)

// LoadDotEnv loads variables from a .env file without overriding ones that
// are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// ApplyEnv copies environment overrides into cfg.
func ApplyEnv(cfg *Config) {
	if tok := os.Getenv(EnvToken); tok != "" {
		cfg.Token = tok
	} else if tok := os.Getenv(EnvGHToken); tok != "" {
		cfg.Token = tok
	}
	if dest := os.Getenv(EnvDest); dest != "" {
		cfg.Dest = dest
	}
}
