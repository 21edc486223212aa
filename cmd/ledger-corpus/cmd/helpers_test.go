package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bianoble/ledger-corpus/internal/engine"
)

func TestHumanSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{1, "1 B"},
		{512, "512 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1048576, "1.0 MB"},
		{1073741824, "1.0 GB"},
		{2684354560, "2.5 GB"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, humanSize(tt.bytes), "humanSize(%d)", tt.bytes)
	}
}

// withFlags sets the global flags for one test and restores them afterwards.
func withFlags(t *testing.T, cfgPath string) {
	t.Helper()
	t.Setenv("LEDGER_CORPUS_DEST", "")
	oldCfg, oldInherit, oldQuiet := configPath, noInherit, quiet
	oldDest, oldTypes, oldMin := destFlag, typesFlag, minSizeFlag
	configPath, noInherit, quiet = cfgPath, true, true
	destFlag, typesFlag, minSizeFlag = "", nil, -1
	t.Cleanup(func() {
		configPath, noInherit, quiet = oldCfg, oldInherit, oldQuiet
		destFlag, typesFlag, minSizeFlag = oldDest, oldTypes, oldMin
	})
}

func TestLoadConfigAppliesFlagsAndRoot(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "ledger-corpus.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("version: 1\ndest: corpus\nmin_size: 2048\n"), 0644))
	withFlags(t, cfgPath)

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "corpus"), cfg.Dest)
	assert.Equal(t, int64(2048), cfg.MinSizeBytes())

	destFlag, typesFlag, minSizeFlag = "elsewhere", []string{"main"}, 0
	cfg, err = loadConfig()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "elsewhere"), cfg.Dest)
	assert.Equal(t, []string{"main"}, cfg.Types)
	assert.Zero(t, cfg.MinSizeBytes())
}

func TestLoadConfigRejectsBadFlags(t *testing.T) {
	withFlags(t, filepath.Join(t.TempDir(), "ledger-corpus.yaml"))
	typesFlag = []string{"everything"}

	_, err := loadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown classification")
}

func TestReportErrors(t *testing.T) {
	withFlags(t, "")
	assert.NoError(t, reportErrors(nil))

	err := reportErrors([]engine.FileError{
		{Path: "a.bean", Kind: engine.KindHTTP, Status: 404},
		{Path: "b.bean", Kind: engine.KindFetch, Err: errors.New("refused")},
	})
	require.Error(t, err)
	assert.Equal(t, "2 file(s) failed", err.Error())
}
