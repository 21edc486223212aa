package engine

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/bianoble/ledger-corpus/internal/config"
	"github.com/bianoble/ledger-corpus/internal/source"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const raw = "https://raw.githubusercontent.com/"

// mockFetcher serves documents from memory. A URL with an ETag answers 304
// when the request carries the same ETag.
type mockFetcher struct {
	mu     sync.Mutex
	bodies map[string]string
	status map[string]int
	etags  map[string]string
	errs   map[string]error
	calls  map[string]int
}

func newMockFetcher() *mockFetcher {
	return &mockFetcher{
		bodies: make(map[string]string),
		status: make(map[string]int),
		etags:  make(map[string]string),
		errs:   make(map[string]error),
		calls:  make(map[string]int),
	}
}

func (m *mockFetcher) serve(url, body string) *mockFetcher {
	m.bodies[url] = body
	return m
}

func (m *mockFetcher) Fetch(_ context.Context, req source.Request) (*source.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[req.URL]++

	if err, ok := m.errs[req.URL]; ok {
		return nil, &source.FetchError{URL: req.URL, Err: err}
	}
	if st, ok := m.status[req.URL]; ok {
		return &source.Response{Status: st}, nil
	}
	body, ok := m.bodies[req.URL]
	if !ok {
		return &source.Response{Status: http.StatusNotFound}, nil
	}
	etag := m.etags[req.URL]
	if etag != "" && req.ETag == etag {
		return &source.Response{Status: http.StatusNotModified, ETag: etag}, nil
	}
	return &source.Response{Status: http.StatusOK, Body: []byte(body), ETag: etag}, nil
}

func (m *mockFetcher) count(url string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[url]
}

var errRefused = errors.New("connection refused")

// testConfig returns a config rooted in a temp directory with the record
// file written from lines.
func testConfig(t *testing.T, lines ...string) config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Discovered = filepath.Join(dir, "discovered.tsv")
	cfg.Sources = filepath.Join(dir, "filtered.tsv")
	cfg.Dest = filepath.Join(dir, "ledgers")
	writeFile(t, cfg.Sources, strings.Join(lines, "\n")+"\n")
	return *cfg
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// snapshot maps every file under root to its content.
func snapshot(t *testing.T, root string) map[string]string {
	t.Helper()
	out := make(map[string]string)
	err := filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, _ := filepath.Rel(root, p)
		out[filepath.ToSlash(rel)] = readFile(t, p)
		return nil
	})
	require.NoError(t, err)
	return out
}
