package record

import (
	"path"
	"strconv"
	"strings"
)

// DefaultRawHost is the raw-content host of the public code host.
const DefaultRawHost = "raw.githubusercontent.com"

// Classification says what role a document plays in the corpus.
type Classification int

const (
	Unknown Classification = iota
	Single
	Main
)

// String returns the label written to record files.
func (c Classification) String() string {
	switch c {
	case Main:
		return "main"
	case Single:
		return "single"
	default:
		return "unknown"
	}
}

// Promote returns the stronger of two classifications (main > single > unknown).
func (c Classification) Promote(other Classification) Classification {
	if other > c {
		return other
	}
	return c
}

// ParseClassification maps a record label to a Classification.
// The discovery stage's include flag values "yes" and "no" are accepted as
// aliases for main and single.
func ParseClassification(label string) Classification {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "main", "yes":
		return Main
	case "single", "no":
		return Single
	default:
		return Unknown
	}
}

// ClassificationSet is a set of classifications selected by the caller.
type ClassificationSet map[Classification]bool

// NewClassificationSet builds a set from labels such as "main,single".
// Unknown labels are ignored.
func NewClassificationSet(labels ...string) ClassificationSet {
	set := make(ClassificationSet)
	for _, l := range labels {
		for _, part := range strings.Split(l, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			set[ParseClassification(part)] = true
		}
	}
	return set
}

// Has reports whether c is in the set.
func (s ClassificationSet) Has(c Classification) bool {
	return s[c]
}

// Origin identifies where a remote artifact came from.
type Origin struct {
	Host   string
	Owner  string
	Repo   string
	Commit string
}

func (o Origin) String() string {
	return o.Owner + "/" + o.Repo + "@" + o.Commit
}

// RawURL builds the raw-content URL of an origin-relative path.
func (o Origin) RawURL(p string) string {
	return "https://" + o.Host + "/" + o.Owner + "/" + o.Repo + "/" + o.Commit + "/" + strings.TrimLeft(p, "/")
}

// Key uniquely identifies a remote artifact: origin plus origin-relative path.
type Key struct {
	Origin Origin
	Path   string
}

func (k Key) String() string {
	return k.Origin.String() + ":" + k.Path
}

// Record is one normalized document descriptor.
type Record struct {
	URL            string
	Origin         Origin
	Path           string
	Size           *int64
	Classification Classification
	// Targets are the include targets as written in the document, unresolved.
	Targets []string
}

// Key returns the artifact identity of the record.
func (r Record) Key() Key {
	return Key{Origin: r.Origin, Path: r.Path}
}

// BaseDir returns the directory of the record's path ("." at the origin root).
func (r Record) BaseDir() string {
	return path.Dir(r.Path)
}

// Basename returns the file name of the record's path.
func (r Record) Basename() string {
	return path.Base(r.Path)
}

// SizeString renders the size column, "unknown" when absent.
func (r Record) SizeString() string {
	if r.Size == nil {
		return "unknown"
	}
	return strconv.FormatInt(*r.Size, 10)
}
