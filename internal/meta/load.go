package meta

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads and validates a metadata file. A missing file yields an empty
// one: the first run has nothing to revalidate.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading metadata %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing metadata %s: %w", path, err)
	}
	if f.Version == 0 && len(f.Entries) == 0 {
		return New(), nil
	}

	if errs := Validate(&f); len(errs) > 0 {
		return nil, &ValidationError{Path: path, Errors: errs}
	}

	sort.Slice(f.Entries, func(i, j int) bool { return f.Entries[i].URL < f.Entries[j].URL })
	return &f, nil
}

// Save writes a metadata file atomically using a temp file and rename.
func Save(path string, f *File) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating metadata directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing temp metadata %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("renaming temp metadata to %s: %w", path, err)
	}

	return nil
}

// ValidationError holds multiple validation failures.
type ValidationError struct {
	Path   string
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("metadata %s is invalid:\n  - %s", e.Path, strings.Join(e.Errors, "\n  - "))
}

// Validate checks a metadata file for semantic correctness.
// Returns a list of validation error messages (empty if valid).
func Validate(f *File) []string {
	var errs []string

	if f.Version != Version {
		errs = append(errs, fmt.Sprintf("unsupported version %d (only version %d is supported)", f.Version, Version))
	}

	seen := make(map[string]bool)
	for i, e := range f.Entries {
		switch {
		case e.URL == "":
			errs = append(errs, fmt.Sprintf("entry[%d]: 'url' is required", i))
		case seen[e.URL]:
			errs = append(errs, fmt.Sprintf("entry[%d]: duplicate url '%s'", i, e.URL))
		default:
			seen[e.URL] = true
		}
	}

	return errs
}
