// Package quarantine relocates documents whose include graph could not be
// fully materialized.
package quarantine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bianoble/ledger-corpus/internal/sandbox"
)

// DefaultDir is the quarantine directory relative to the destination root.
const DefaultDir = "broken"

// Kind tells a main document from one of its include files.
type Kind string

const (
	KindMain    Kind = "main"
	KindInclude Kind = "include"
)

// Item is one file to quarantine, relative to the destination root.
type Item struct {
	Path string
	Kind Kind
}

// Result is the outcome of moving one Item.
type Result struct {
	Item
	Dest string // relative to the destination root
	Err  error
}

// Manager moves files from Root into Root/Dir, keeping their relative layout.
type Manager struct {
	Root string
	Dir  string
}

func (m *Manager) dir() string {
	if m.Dir == "" {
		return DefaultDir
	}
	return m.Dir
}

// TopDir is the first element of the quarantine directory. Nothing else may
// live under that name in the destination root.
func (m *Manager) TopDir() string {
	return strings.SplitN(filepath.ToSlash(filepath.Clean(m.dir())), "/", 2)[0]
}

// Target returns where relPath lands in quarantine, relative to Root.
func (m *Manager) Target(relPath string) string {
	return filepath.Join(m.dir(), filepath.Clean(relPath))
}

// Contains reports whether relPath has already been quarantined.
func (m *Manager) Contains(relPath string) bool {
	p, err := sandbox.ValidatePath(m.Root, m.Target(relPath))
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}

// Move quarantines every item independently. A failure on one item is
// recorded in its Result and does not stop the others. Directories left
// empty by the moves are removed.
func (m *Manager) Move(items []Item) []Result {
	results := make([]Result, 0, len(items))
	for _, it := range items {
		dest := m.Target(it.Path)
		err := sandbox.SafeRename(m.Root, it.Path, dest)
		if err != nil {
			err = fmt.Errorf("quarantining %s %s: %w", it.Kind, it.Path, err)
		}
		results = append(results, Result{Item: it, Dest: dest, Err: err})
	}
	for _, r := range results {
		if r.Err == nil {
			sandbox.PruneEmptyDirs(m.Root, r.Path)
		}
	}
	return results
}
