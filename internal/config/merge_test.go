package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64p(n int64) *int64 { return &n }

func TestMergeOverlayWins(t *testing.T) {
	base := &Config{
		Version: 1,
		Dest:    "base-dest",
		Sources: "base.tsv",
		Types:   []string{"main"},
		MinSize: int64p(100),
		Exclude: []string{"a/**"},
		Fetch:   Fetch{Timeout: time.Second, UserAgent: "base"},
	}
	overlay := &Config{
		Dest:    "overlay-dest",
		Exclude: []string{"b/**"},
		Fetch:   Fetch{MaxFileSize: 42},
	}

	got, err := Merge(base, overlay)
	require.NoError(t, err)

	assert.Equal(t, 1, got.Version)
	assert.Equal(t, "overlay-dest", got.Dest)
	assert.Equal(t, "base.tsv", got.Sources)
	assert.Equal(t, []string{"main"}, got.Types)
	assert.Equal(t, int64(100), *got.MinSize)
	assert.Equal(t, []string{"a/**", "b/**"}, got.Exclude)
	assert.Equal(t, Fetch{Timeout: time.Second, MaxFileSize: 42, UserAgent: "base"}, got.Fetch)
	assert.Equal(t, []string{"a/**"}, base.Exclude, "base is not mutated")
}

func TestMergeVersionMismatch(t *testing.T) {
	_, err := Merge(&Config{Version: 1}, &Config{Version: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "version mismatch")
}

func TestMergeNil(t *testing.T) {
	c := &Config{Version: 1}
	got, err := Merge(nil, c)
	require.NoError(t, err)
	assert.Same(t, c, got)

	got, err = Merge(c, nil)
	require.NoError(t, err)
	assert.Same(t, c, got)

	_, err = MergeAll(nil)
	assert.Error(t, err)
}

func TestResolveUserLayer(t *testing.T) {
	dir := t.TempDir()
	userPath := filepath.Join(dir, "user", FileName)
	projectPath := filepath.Join(dir, "project", FileName)
	writeFile(t, userPath, "version: 1\ndest: user-dest\nfetch:\n  user_agent: me\n")
	writeFile(t, projectPath, "version: 1\ndest: project-dest\n")

	t.Setenv(EnvNoInheritKey, "")
	t.Setenv(EnvDest, "")
	cfg, layers, err := Resolve(DiscoverOptions{ProjectPath: projectPath, UserConfigPath: userPath})
	require.NoError(t, err)

	require.Len(t, layers, 2)
	assert.Equal(t, LevelUser, layers[0].Level)
	assert.Equal(t, LevelProject, layers[1].Level)
	assert.Equal(t, "project-dest", cfg.Dest)
	assert.Equal(t, "me", cfg.Fetch.UserAgent)
}

func TestDiscoverPathsNoInherit(t *testing.T) {
	t.Setenv(EnvNoInheritKey, "true")
	layers := DiscoverPaths(DiscoverOptions{ProjectPath: "p.yaml", UserConfigPath: "u.yaml"})
	require.Len(t, layers, 1)
	assert.Equal(t, LevelProject, layers[0].Level)
}

func TestDiscoverPathsDeduplicates(t *testing.T) {
	t.Setenv(EnvNoInheritKey, "")
	layers := DiscoverPaths(DiscoverOptions{ProjectPath: "same.yaml", UserConfigPath: "./same.yaml"})
	assert.Len(t, layers, 1)
}
