// Package sandbox confines file operations to a destination root.
package sandbox

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// WriteResult says what WriteIfChanged did.
type WriteResult int

const (
	Unchanged WriteResult = iota
	Created
	Updated
)

func (r WriteResult) String() string {
	switch r {
	case Created:
		return "created"
	case Updated:
		return "updated"
	default:
		return "unchanged"
	}
}

// ValidatePath checks that relPath is safely within root.
// It resolves symlinks, normalizes paths, and verifies containment.
// Returns the resolved absolute path or an error.
func ValidatePath(root, relPath string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving root: %w", err)
	}
	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return "", fmt.Errorf("resolving root symlinks: %w", err)
	}

	candidate := filepath.Clean(filepath.Join(realRoot, relPath))

	// The path may not exist yet, so resolve as much as we can.
	resolved, err := resolveExistingPath(candidate)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	// Trailing separator so "dest2" does not match "dest".
	rootPrefix := realRoot + string(filepath.Separator)
	if resolved != realRoot && !strings.HasPrefix(resolved, rootPrefix) {
		return "", fmt.Errorf("path '%s' resolves to '%s' which is outside the destination root '%s'", relPath, resolved, realRoot)
	}

	return resolved, nil
}

// resolveExistingPath resolves symlinks for the longest existing prefix of the path,
// then appends the non-existing suffix.
func resolveExistingPath(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return resolved, nil
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	if dir == path {
		return path, nil
	}

	resolvedDir, err := resolveExistingPath(dir)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedDir, base), nil
}

// SafeWrite atomically writes content to a path within root.
func SafeWrite(root, relPath string, content []byte, perm os.FileMode) error {
	resolved, err := ValidatePath(root, relPath)
	if err != nil {
		return err
	}

	dir := filepath.Dir(resolved)
	if _, err := ValidatePath(root, filepath.Dir(relPath)); err != nil {
		return fmt.Errorf("parent directory escapes destination: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	// Same directory keeps the rename on one filesystem.
	tmp, err := os.CreateTemp(dir, ".ledger-corpus-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpPath, resolved); err != nil {
		return fmt.Errorf("renaming temp file to %s: %w", resolved, err)
	}

	success = true
	return nil
}

// WriteIfChanged writes content only when the file at relPath is absent or
// holds different bytes.
func WriteIfChanged(root, relPath string, content []byte) (WriteResult, error) {
	resolved, err := ValidatePath(root, relPath)
	if err != nil {
		return Unchanged, err
	}

	result := Created
	existing, err := os.ReadFile(resolved)
	switch {
	case err == nil:
		if bytes.Equal(existing, content) {
			return Unchanged, nil
		}
		result = Updated
	case !errors.Is(err, fs.ErrNotExist):
		return Unchanged, fmt.Errorf("reading %s: %w", resolved, err)
	}

	if err := SafeWrite(root, relPath, content, 0644); err != nil {
		return Unchanged, err
	}
	return result, nil
}

// SafeRename moves from to to, both relative to root, replacing a stale file
// at to. A non-empty directory at to is an error. The move is a single rename;
// parent directories of to are created.
func SafeRename(root, from, to string) error {
	src, err := ValidatePath(root, from)
	if err != nil {
		return err
	}
	dst, err := ValidatePath(root, to)
	if err != nil {
		return err
	}
	if _, err := os.Lstat(src); err != nil {
		return fmt.Errorf("source %s: %w", from, err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", filepath.Dir(dst), err)
	}
	if err := SafeRemove(root, to); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing stale %s: %w", to, err)
	}
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to %s: %w", from, to, err)
	}
	return nil
}

// SafeRemove removes a file within root.
func SafeRemove(root, relPath string) error {
	resolved, err := ValidatePath(root, relPath)
	if err != nil {
		return err
	}
	return os.Remove(resolved)
}

// PruneEmptyDirs removes the directory holding relPath and its parents while
// they are empty, stopping at root.
func PruneEmptyDirs(root, relPath string) {
	dir := filepath.Dir(filepath.Clean(relPath))
	for dir != "." && dir != string(filepath.Separator) {
		resolved, err := ValidatePath(root, dir)
		if err != nil {
			return
		}
		entries, err := os.ReadDir(resolved)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := os.Remove(resolved); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}
