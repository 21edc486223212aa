// Package engine drives the corpus pipeline stages: filter, get, includes
// and check.
package engine

import (
	"fmt"

	"github.com/bianoble/ledger-corpus/internal/quarantine"
	"github.com/bianoble/ledger-corpus/internal/record"
)

// Actions reported in FileAction.Action.
const (
	ActionAdded       = "added"
	ActionUpdated     = "updated"
	ActionUnchanged   = "unchanged"
	ActionNotModified = "not-modified"
	ActionRestored    = "restored"
	ActionRewritten   = "rewritten"
)

// FileAction represents an action taken on a single file.
type FileAction struct {
	Path   string // relative to the destination root
	URL    string
	Action string
	Lines  int // rewritten include lines, for ActionRewritten
}

// ErrorKind classifies per-file failures.
type ErrorKind string

const (
	KindFetch   ErrorKind = "fetch"   // transport failure
	KindHTTP    ErrorKind = "http"    // non-success status
	KindEmpty   ErrorKind = "empty"   // success status with an empty body
	KindWrite   ErrorKind = "write"   // local write failed
	KindRead    ErrorKind = "read"    // local read failed
	KindMove    ErrorKind = "move"    // quarantine move failed
	KindMissing ErrorKind = "missing" // main document absent at rewrite time
)

// FileError is a failure on one file. It never aborts a run.
type FileError struct {
	Path   string
	URL    string
	Kind   ErrorKind
	Status int // HTTP status for KindHTTP and KindEmpty
	Err    error
}

func (e *FileError) Error() string {
	target := e.Path
	if target == "" {
		target = e.URL
	}
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s %s: %s", e.Kind, target, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("%s %s: HTTP %d", e.Kind, target, e.Status)
	default:
		return fmt.Sprintf("%s %s", e.Kind, target)
	}
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// FilterResult holds the outcome of the filter stage.
type FilterResult struct {
	Parse                 record.Stats
	InputRows             int
	Duplicates            int
	MainRows              int
	IncludeTargetsSkipped int
	TooSmall              int
	Excluded              int
	KeptMain              int
	KeptSingle            int
	// Records are the kept records in output order.
	Records []record.Record
}

// Kept returns the number of records written.
func (r *FilterResult) Kept() int {
	return r.KeptMain + r.KeptSingle
}

// GetResult holds the outcome of the get stage.
type GetResult struct {
	Parse              record.Stats
	Processed          int
	SkippedByType      int
	AlreadyQuarantined int
	Written            []FileAction
	Skipped            []FileAction
	Errors             []FileError
}

// Count returns how many files ended with action.
func (r *GetResult) Count(action string) int {
	return countActions(action, r.Written, r.Skipped)
}

// IncludesResult holds the outcome of the includes stage.
type IncludesResult struct {
	Parse              record.Stats
	InputRows          int
	Duplicates         int
	Mains              int
	AlreadyQuarantined int
	Declared           int
	Tasks              int
	// Fetched has one entry per include task that materialized a file.
	Fetched        []FileAction
	Rewritten      []FileAction
	RewrittenLines int
	Missing        []string
	Quarantined    []Quarantined
	// Retained are shared include files of failed mains kept in place
	// because a healthy main still references them.
	Retained []string
	Errors   []FileError
}

// Quarantined is one file moved to the quarantine directory.
type Quarantined struct {
	Path string
	Dest string
	Kind quarantine.Kind
}

// Count returns how many include files ended with action.
func (r *IncludesResult) Count(action string) int {
	return countActions(action, r.Fetched)
}

// QuarantinedCount returns how many files of kind were moved to quarantine.
func (r *IncludesResult) QuarantinedCount(kind quarantine.Kind) int {
	n := 0
	for _, q := range r.Quarantined {
		if q.Kind == kind {
			n++
		}
	}
	return n
}

// ErrorCount returns the number of errors of the given kinds, or of all kinds
// when none are given.
func (r *IncludesResult) ErrorCount(kinds ...ErrorKind) int {
	return countErrors(r.Errors, kinds)
}

// Dangling is an include directive whose target file does not exist.
type Dangling struct {
	File   string
	Line   int
	Target string
}

// CheckResult holds the outcome of a check operation.
type CheckResult struct {
	Clean    bool
	Checked  int
	Dangling []Dangling
}

// RunResult holds the outcome of the full pipeline.
type RunResult struct {
	Filter   *FilterResult
	Get      *GetResult
	Includes *IncludesResult
}

// HasErrors reports whether any stage recorded a per-file error.
func (r *RunResult) HasErrors() bool {
	return (r.Get != nil && len(r.Get.Errors) > 0) || (r.Includes != nil && len(r.Includes.Errors) > 0)
}

func countActions(action string, lists ...[]FileAction) int {
	n := 0
	for _, l := range lists {
		for _, a := range l {
			if a.Action == action {
				n++
			}
		}
	}
	return n
}

func countErrors(errs []FileError, kinds []ErrorKind) int {
	if len(kinds) == 0 {
		return len(errs)
	}
	n := 0
	for _, e := range errs {
		for _, k := range kinds {
			if e.Kind == k {
				n++
				break
			}
		}
	}
	return n
}
