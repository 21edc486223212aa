package include

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/bianoble/ledger-corpus/internal/record"
)

// Outcome is the result state of an include fetch task.
type Outcome int

const (
	Pending Outcome = iota
	FetchedNew
	FetchedUpdated
	Unchanged
	Failed
)

func (o Outcome) String() string {
	switch o {
	case FetchedNew:
		return "fetched-new"
	case FetchedUpdated:
		return "fetched-updated"
	case Unchanged:
		return "unchanged"
	case Failed:
		return "failed"
	default:
		return "pending"
	}
}

// Materialized reports whether the task left a file on disk.
func (o Outcome) Materialized() bool {
	return o == FetchedNew || o == FetchedUpdated || o == Unchanged
}

// TaskKey identifies one remote include file: one fetch no matter how many
// main documents reference it.
type TaskKey struct {
	Origin record.Origin
	Path   string
}

// Task is one include file to fetch.
type Task struct {
	Key TaskKey
	URL string
	// LocalPath is relative to the destination root: <stem>/<sanitized path>.
	LocalPath string
	Outcome   Outcome
	// Referrers are the MainState keys whose target maps point at this task.
	Referrers []string
}

// Document is a main document eligible for include resolution.
type Document struct {
	Key     record.Key
	Name    string // destination file name
	Targets []string
	// Quarantined documents keep their subdirectory and the include paths
	// they own, but get no MainState and no tasks.
	Quarantined bool
}

// MainState is the per-run bookkeeping for one main document.
type MainState struct {
	Name    string
	Key     record.Key
	BaseDir string
	Subdir  string
	// Targets maps resolved origin-relative targets to local paths relative
	// to the destination root.
	Targets map[string]string
	// TaskKeys are the tasks this main depends on, in declaration order.
	TaskKeys []TaskKey
	// Materialized holds local paths of include files present for this main.
	Materialized map[string]bool
	Failed       bool
}

// Lookup maps an include target as written in the document to its local
// path.
func (m *MainState) Lookup(raw string) (string, bool) {
	local, ok := m.Targets[ResolvePath(m.BaseDir, raw)]
	return local, ok
}

// Plan owns the MainStates and IncludeTasks of one run. Everything else refers
// to entries by key.
type Plan struct {
	Mains     map[string]*MainState
	MainOrder []string
	Tasks     map[TaskKey]*Task
	TaskOrder []TaskKey
	// Declared counts include targets across all mains.
	Declared int
}

// Build resolves every document's targets into tasks and target maps.
// Targets must already be resolved against the document's directory.
// Reserved names are never used as include subdirectories.
//
// Subdirectories and include paths are derived from the whole document set
// in name order, so they do not change when documents are quarantined or
// listed in a different order.
func Build(docs []Document, reserved ...string) *Plan {
	p := &Plan{
		Mains: make(map[string]*MainState),
		Tasks: make(map[TaskKey]*Task),
	}
	stems := assignStems(docs, reserved)
	owners := taskOwners(docs, stems)

	for _, d := range docs {
		if _, dup := p.Mains[d.Name]; dup || d.Quarantined {
			continue
		}
		ms := &MainState{
			Name:         d.Name,
			Key:          d.Key,
			BaseDir:      path.Dir(d.Key.Path),
			Subdir:       stems[d.Name],
			Targets:      make(map[string]string),
			Materialized: make(map[string]bool),
		}
		p.Mains[d.Name] = ms
		p.MainOrder = append(p.MainOrder, d.Name)

		for _, resolved := range d.Targets {
			if resolved == "" {
				continue
			}
			if _, dup := ms.Targets[resolved]; dup {
				continue
			}
			p.Declared++

			tk := TaskKey{Origin: d.Key.Origin, Path: resolved}
			task, ok := p.Tasks[tk]
			if !ok {
				task = &Task{
					Key:       tk,
					URL:       d.Key.Origin.RawURL(resolved),
					LocalPath: owners[tk] + "/" + SanitizeRelPath(resolved),
				}
				p.Tasks[tk] = task
				p.TaskOrder = append(p.TaskOrder, tk)
			}
			task.Referrers = append(task.Referrers, d.Name)
			ms.Targets[resolved] = task.LocalPath
			ms.TaskKeys = append(ms.TaskKeys, tk)
		}
	}
	return p
}

// byName returns the distinct document names in sorted order.
func byName(docs []Document) ([]string, map[string]Document) {
	index := make(map[string]Document, len(docs))
	var names []string
	for _, d := range docs {
		if _, dup := index[d.Name]; dup {
			continue
		}
		index[d.Name] = d
		names = append(names, d.Name)
	}
	sort.Strings(names)
	return names, index
}

// assignStems gives every document its include subdirectory. "a.bean" and
// "a.beancount" share a stem; the later one in name order replaces its dots
// with "_" and, if that is taken too, gets a numeric suffix. Document names and
// reserved names are never handed out.
func assignStems(docs []Document, reserved []string) map[string]string {
	names, _ := byName(docs)
	taken := make(map[string]bool, len(names)+len(reserved))
	for _, r := range reserved {
		taken[r] = true
	}
	for _, n := range names {
		taken[n] = true
	}

	stems := make(map[string]string, len(names))
	for _, n := range names {
		stem := Stem(n)
		if taken[stem] {
			base := strings.ReplaceAll(n, ".", "_")
			stem = base
			for i := 2; taken[stem]; i++ {
				stem = fmt.Sprintf("%s_%d", base, i)
			}
		}
		taken[stem] = true
		stems[n] = stem
	}
	return stems
}

// taskOwners picks, for every include file, the subdirectory of the first
// document in name order that references it.
func taskOwners(docs []Document, stems map[string]string) map[TaskKey]string {
	names, index := byName(docs)
	owners := make(map[TaskKey]string)
	for _, n := range names {
		d := index[n]
		for _, resolved := range d.Targets {
			if resolved == "" {
				continue
			}
			tk := TaskKey{Origin: d.Key.Origin, Path: resolved}
			if _, ok := owners[tk]; !ok {
				owners[tk] = stems[n]
			}
		}
	}
	return owners
}

// Settle records a task outcome and propagates it to every referencing main:
// materialized files are attached, failures mark the main failed.
func (p *Plan) Settle(tk TaskKey, outcome Outcome) {
	task, ok := p.Tasks[tk]
	if !ok {
		return
	}
	task.Outcome = outcome
	for _, name := range task.Referrers {
		ms := p.Mains[name]
		if ms == nil {
			continue
		}
		if outcome.Materialized() {
			ms.Materialized[task.LocalPath] = true
		}
		if outcome == Failed {
			ms.Failed = true
		}
	}
}

// SharedWithHealthy reports whether a local include path is still referenced
// by a main that has not failed.
func (p *Plan) SharedWithHealthy(localPath string) bool {
	for _, name := range p.MainOrder {
		ms := p.Mains[name]
		if ms.Failed {
			continue
		}
		for _, local := range ms.Targets {
			if local == localPath {
				return true
			}
		}
	}
	return false
}
