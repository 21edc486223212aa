package ledgercorpus

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const raw = "https://raw.githubusercontent.com/o/r/c/"

type staticFetcher map[string]string

func (f staticFetcher) Fetch(_ context.Context, req FetchRequest) (*FetchResponse, error) {
	body, ok := f[req.URL]
	if !ok {
		return &FetchResponse{Status: http.StatusNotFound}, nil
	}
	return &FetchResponse{Status: http.StatusOK, Body: []byte(body)}, nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// newTestClient writes a project into a temp dir and returns a client for it.
func newTestClient(t *testing.T, fetcher Fetcher) (*Client, string) {
	t.Helper()
	t.Setenv("LEDGER_CORPUS_DEST", "")
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "ledger-corpus.yaml")
	writeFile(t, cfgPath, "version: 1\ndiscovered: discovered.tsv\nsources: filtered.tsv\ndest: corpus\n")
	writeFile(t, filepath.Join(dir, "discovered.tsv"),
		raw+"main.bean\t20000\tyes\tinc.bean\n"+
			raw+"inc.bean\t500\tno\t\n"+
			raw+"tiny.bean\t10\tno\t\n")

	client, err := New(Options{ConfigPath: cfgPath, NoInherit: true, NoCache: true, Fetcher: fetcher})
	require.NoError(t, err)
	return client, dir
}

func TestNewDefaultsProjectRootToConfigDir(t *testing.T) {
	t.Setenv("LEDGER_CORPUS_DEST", "")
	dir := t.TempDir()
	client, err := New(Options{ConfigPath: filepath.Join(dir, "ledger-corpus.yaml"), NoInherit: true})
	require.NoError(t, err)
	assert.Equal(t, dir, client.projectRoot)

	cfg, err := client.Config()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "ledgers"), cfg.Dest)
}

func TestClientRunAndCheck(t *testing.T) {
	client, dir := newTestClient(t, staticFetcher{
		raw + "main.bean": "include \"inc.bean\"\n",
		raw + "inc.bean":  "2020-01-01 open Assets:Cash\n",
	})
	ctx := context.Background()

	res, err := client.Run(ctx)
	require.NoError(t, err)
	assert.False(t, res.HasErrors())
	assert.Equal(t, 1, res.Filter.Kept())
	assert.Equal(t, 1, res.Includes.RewrittenLines)

	data, err := os.ReadFile(filepath.Join(dir, "corpus", "main.bean"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "include \"main/inc.bean\"")

	check, err := client.Check(ctx)
	require.NoError(t, err)
	assert.True(t, check.Clean)
}

func TestClientStagesSeparately(t *testing.T) {
	metrics := NewMetrics()
	client, dir := newTestClient(t, staticFetcher{raw + "main.bean": "x\n"})
	client.opts.Metrics = metrics
	ctx := context.Background()

	fr, err := client.Filter(ctx, FilterOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, fr.IncludeTargetsSkipped)
	assert.Equal(t, 1, fr.TooSmall)
	assert.FileExists(t, filepath.Join(dir, "filtered.tsv"))

	gr, err := client.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, gr.Count("added"))

	ir, err := client.Includes(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, ir.ErrorCount())
	assert.Len(t, ir.Quarantined, 1)
	assert.FileExists(t, filepath.Join(dir, "corpus", "broken", "main.bean"))
}

func TestClientInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "ledger-corpus.yaml")
	writeFile(t, cfgPath, "version: 2\n")

	client, err := New(Options{ConfigPath: cfgPath, NoInherit: true})
	require.NoError(t, err)
	_, err = client.Get(context.Background())
	require.Error(t, err)
}
