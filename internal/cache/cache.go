// Package cache stores raw fetched bodies by content hash so a document the
// server reports as not modified can be restored without refetching it.
package cache

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bianoble/ledger-corpus/internal/source"
)

// Cache provides content-addressed body storage.
// Bodies are stored by their SHA256 and verified on retrieval.
type Cache struct {
	dir string
}

// New creates a Cache at the given directory.
// The directory is created if it does not exist.
func New(dir string) (*Cache, error) {
	objDir := filepath.Join(dir, "objects")
	if err := os.MkdirAll(objDir, 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory %s: %w", objDir, err)
	}
	return &Cache{dir: dir}, nil
}

// DefaultDir returns the default cache directory.
// Uses XDG_CACHE_HOME if set, otherwise the OS user cache directory.
func DefaultDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "ledger-corpus")
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "ledger-corpus-cache")
	}
	return filepath.Join(dir, "ledger-corpus")
}

// Get retrieves a body by its SHA256.
// A corrupt entry is removed and reported as a miss.
func (c *Cache) Get(hash string) ([]byte, bool, error) {
	path := c.objectPath(hash)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cache entry %s: %w", hash, err)
	}

	if source.SHA256(data) != hash {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return data, true, nil
}

// Put stores body under its SHA256 and returns the hash.
// Entries are immutable; storing an existing body is a no-op.
func (c *Cache) Put(body []byte) (string, error) {
	hash := source.SHA256(body)
	path := c.objectPath(hash)
	if _, err := os.Stat(path); err == nil {
		return hash, nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating cache subdirectory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("creating cache temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(body); err != nil {
		return "", fmt.Errorf("writing cache temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing cache temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return "", fmt.Errorf("renaming cache temp file: %w", err)
	}

	success = true
	return hash, nil
}

// Size returns the total size of stored bodies in bytes.
func (c *Cache) Size() (int64, error) {
	var total int64
	err := filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	return total, err
}

// Path returns the cache directory path.
func (c *Cache) Path() string {
	return c.dir
}

func (c *Cache) objectPath(hash string) string {
	if len(hash) < 2 {
		return filepath.Join(c.dir, "objects", hash)
	}
	return filepath.Join(c.dir, "objects", hash[:2], hash)
}
