// Package naming assigns collision-free destination file names to documents.
package naming

import (
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/bianoble/ledger-corpus/internal/record"
)

var (
	unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)
	dashRuns    = regexp.MustCompile(`-+`)
)

// Candidate is a document competing for a destination name.
type Candidate struct {
	Key            record.Key
	Classification record.Classification
}

// Assign returns a destination name for every candidate whose classification
// is in consider. Unique basenames are kept verbatim; colliding ones get a
// slug derived from their origin. No two keys share a name. The mapping
// depends only on the set of candidates, not on their order.
func Assign(candidates []Candidate, consider record.ClassificationSet) map[record.Key]string {
	var pool []record.Key
	seen := make(map[record.Key]bool)
	counts := make(map[string]int)
	for _, c := range candidates {
		if !consider.Has(c.Classification) || seen[c.Key] {
			continue
		}
		seen[c.Key] = true
		pool = append(pool, c.Key)
		counts[basename(c.Key)]++
	}

	names := make(map[record.Key]string, len(pool))
	for _, k := range pool {
		base := basename(k)
		if counts[base] == 1 {
			names[k] = base
			continue
		}
		names[k] = Slug(k)
	}

	// A slug can collide with another slug (same repository and basename in
	// different directories) or with a verbatim basename. Every name held by
	// more than one key falls back to the full path form until none is shared.
	for {
		holders := countNames(names)
		changed := false
		for _, k := range pool {
			if holders[names[k]] > 1 && names[k] != PathSlug(k) {
				names[k] = PathSlug(k)
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	numberDuplicates(pool, names)
	return names
}

func countNames(names map[record.Key]string) map[string]int {
	holders := make(map[string]int, len(names))
	for _, n := range names {
		holders[n]++
	}
	return holders
}

// numberDuplicates separates keys whose path slugs are still equal (they
// differ only in case or in characters the slug drops). The first key in URL
// order keeps the name, the rest get a numeric suffix before the extension.
func numberDuplicates(pool []record.Key, names map[record.Key]string) {
	groups := make(map[string][]record.Key)
	for _, k := range pool {
		groups[names[k]] = append(groups[names[k]], k)
	}
	var shared []string
	for name, keys := range groups {
		if len(keys) > 1 {
			shared = append(shared, name)
		}
	}
	sort.Strings(shared)

	taken := countNames(names)
	for _, name := range shared {
		keys := groups[name]
		sort.Slice(keys, func(i, j int) bool {
			return keys[i].Origin.RawURL(keys[i].Path) < keys[j].Origin.RawURL(keys[j].Path)
		})
		ext := path.Ext(name)
		stem := strings.TrimSuffix(name, ext)
		n := 2
		for _, k := range keys[1:] {
			candidate := fmt.Sprintf("%s-%d%s", stem, n, ext)
			for taken[candidate] > 0 {
				n++
				candidate = fmt.Sprintf("%s-%d%s", stem, n, ext)
			}
			taken[candidate]++
			names[k] = candidate
			n++
		}
	}
}

// Slug derives a deterministic, filesystem-safe name for a colliding
// basename. Raw-host origins yield owner-repo-basename; anything else uses the
// path form.
func Slug(k record.Key) string {
	o := k.Origin
	if o.Host == record.DefaultRawHost && o.Owner != "" && o.Repo != "" {
		return sanitize(o.Owner + "-" + o.Repo + "-" + basename(k))
	}
	return PathSlug(k)
}

// PathSlug derives a name from the full location of a document (host, owner,
// repository, commit and directory) with its basename kept as the suffix.
func PathSlug(k record.Key) string {
	base := basename(k)
	dir := strings.TrimSuffix(k.Path, base)
	o := k.Origin
	loc := strings.ReplaceAll(o.Host+"/"+o.Owner+"/"+o.Repo+"/"+o.Commit+"/"+dir, "/", "-")
	prefix := sanitize(loc)
	if prefix == "" {
		return base
	}
	return prefix + "-" + base
}

func sanitize(s string) string {
	s = unsafeChars.ReplaceAllString(s, "-")
	s = strings.ToLower(s)
	s = dashRuns.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

func basename(k record.Key) string {
	i := strings.LastIndex(k.Path, "/")
	return k.Path[i+1:]
}
