package engine

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckReportsDanglingIncludes(t *testing.T) {
	cfg := testConfig(t)
	writeFile(t, filepath.Join(cfg.Dest, "a.bean"), "include \"a/x.bean\"\n; include \"commented.bean\"\ninclude \"gone.bean\"\n")
	writeFile(t, filepath.Join(cfg.Dest, "a", "x.bean"), "x\n")
	writeFile(t, filepath.Join(cfg.Dest, "b.beancount"), "include \"a/*.bean\"\n")
	writeFile(t, filepath.Join(cfg.Dest, "notes.txt"), "include \"nowhere.bean\"\n")
	writeFile(t, filepath.Join(cfg.Dest, "broken", "c.bean"), "include \"nowhere.bean\"\n")

	res, err := (&CheckEngine{}).Check(context.Background(), cfg)
	require.NoError(t, err)
	assert.False(t, res.Clean)
	assert.Equal(t, 2, res.Checked)
	assert.Equal(t, []Dangling{{File: "a.bean", Line: 3, Target: "gone.bean"}}, res.Dangling)
}

func TestCheckReadsLatin1Documents(t *testing.T) {
	cfg := testConfig(t)
	writeFile(t, filepath.Join(cfg.Dest, "a.bean"), "; Caf\xe9\ninclude \"gone.bean\"\n")

	res, err := (&CheckEngine{}).Check(context.Background(), cfg)
	require.NoError(t, err)
	assert.False(t, res.Clean)
	assert.Equal(t, []Dangling{{File: "a.bean", Line: 2, Target: "gone.bean"}}, res.Dangling)
}

func TestCheckEmptyDestIsClean(t *testing.T) {
	cfg := testConfig(t)
	writeFile(t, filepath.Join(cfg.Dest, ".keep"), "")

	res, err := (&CheckEngine{}).Check(context.Background(), cfg)
	require.NoError(t, err)
	assert.True(t, res.Clean)
	assert.Zero(t, res.Checked)
}

func TestCheckMissingDest(t *testing.T) {
	cfg := testConfig(t)
	_, err := (&CheckEngine{}).Check(context.Background(), cfg)
	require.Error(t, err)
}
