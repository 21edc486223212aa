// Package dedup merges document records that denote the same physical file.
package dedup

import (
	"sort"

	"github.com/bianoble/ledger-corpus/internal/include"
	"github.com/bianoble/ledger-corpus/internal/record"
)

// Key groups records assumed to hold identical content.
//
// TODO: (basename, size) merges unrelated files that happen to share both;
// a content hash would be exact but changes which records group together.
type Key struct {
	Basename string
	Size     string
}

// KeyOf returns the dedup key of a record.
func KeyOf(r record.Record) Key {
	return Key{Basename: r.Basename(), Size: r.SizeString()}
}

// Logical is one merged record.
type Logical struct {
	// Record is the representative contributor. Its Targets are the raw
	// targets of that contributor only; use Resolved for the merged set.
	Record         record.Record
	Classification record.Classification
	// Resolved holds every contributor's targets resolved against that
	// contributor's own directory, sorted and unique.
	Resolved     []string
	Contributors int
}

// Result is the outcome of Merge.
type Result struct {
	Records []Logical
	Dropped int
}

// Merge groups records by Key in first-seen order. The merged classification,
// target set and representative do not depend on input order.
func Merge(records []record.Record) Result {
	var res Result
	index := make(map[Key]int)

	for _, r := range records {
		resolved := resolveAll(r)
		k := KeyOf(r)
		i, seen := index[k]
		if !seen {
			index[k] = len(res.Records)
			res.Records = append(res.Records, Logical{
				Record:         r,
				Classification: r.Classification,
				Resolved:       Union(nil, resolved),
				Contributors:   1,
			})
			continue
		}

		cur := res.Records[i]
		res.Records[i] = Logical{
			Record:         representative(cur.Record, r),
			Classification: cur.Classification.Promote(r.Classification),
			Resolved:       Union(cur.Resolved, resolved),
			Contributors:   cur.Contributors + 1,
		}
		res.Dropped++
	}
	return res
}

// Union returns the sorted, de-duplicated union of a and b as a new slice.
func Union(a, b []string) []string {
	set := make(map[string]struct{}, len(a)+len(b))
	for _, s := range a {
		set[s] = struct{}{}
	}
	for _, s := range b {
		set[s] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func resolveAll(r record.Record) []string {
	out := make([]string, 0, len(r.Targets))
	for _, t := range r.Targets {
		out = append(out, include.ResolvePath(r.BaseDir(), t))
	}
	return out
}

// representative picks the contributor that stands for the group: highest
// classification first, then the smallest URL.
func representative(a, b record.Record) record.Record {
	if a.Classification != b.Classification {
		if b.Classification > a.Classification {
			return b
		}
		return a
	}
	if b.URL < a.URL {
		return b
	}
	return a
}
