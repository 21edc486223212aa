// Package meta persists conditional-GET metadata for fetched documents.
package meta

import "sort"

// Version is the only supported metadata file version.
const Version = 1

// File represents the metadata file kept next to the fetched documents.
type File struct {
	Entries []Entry `yaml:"entries"`
	Version int     `yaml:"version"`
}

// Entry records what the server said about a URL the last time its body
// was written locally.
type Entry struct {
	URL          string `yaml:"url"`
	ETag         string `yaml:"etag,omitempty"`
	LastModified string `yaml:"last_modified,omitempty"`
	// SHA256 of the raw response body, before any local transform.
	SHA256 string `yaml:"sha256,omitempty"`
}

// Conditional reports whether the entry carries any validator.
func (e Entry) Conditional() bool {
	return e.ETag != "" || e.LastModified != ""
}

// New returns an empty metadata file.
func New() *File {
	return &File{Version: Version}
}

// Get returns the entry for url.
func (f *File) Get(url string) (Entry, bool) {
	for _, e := range f.Entries {
		if e.URL == url {
			return e, true
		}
	}
	return Entry{}, false
}

// Put inserts or replaces the entry for e.URL, keeping entries sorted by URL.
func (f *File) Put(e Entry) {
	i := sort.Search(len(f.Entries), func(i int) bool { return f.Entries[i].URL >= e.URL })
	if i < len(f.Entries) && f.Entries[i].URL == e.URL {
		f.Entries[i] = e
		return
	}
	f.Entries = append(f.Entries, Entry{})
	copy(f.Entries[i+1:], f.Entries[i:])
	f.Entries[i] = e
}
