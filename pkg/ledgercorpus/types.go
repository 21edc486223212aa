package ledgercorpus

import (
	"github.com/bianoble/ledger-corpus/internal/engine"
	"github.com/bianoble/ledger-corpus/internal/source"
)

// Type aliases re-export engine result types as the public API.

type FileAction = engine.FileAction
type FileError = engine.FileError
type ErrorKind = engine.ErrorKind
type Quarantined = engine.Quarantined
type Dangling = engine.Dangling
type FilterResult = engine.FilterResult
type GetResult = engine.GetResult
type IncludesResult = engine.IncludesResult
type CheckResult = engine.CheckResult
type RunResult = engine.RunResult
type Metrics = engine.Metrics

// Fetcher retrieves raw documents. Supply one in Options to serve documents
// from somewhere other than the network.
type Fetcher = source.Fetcher
type FetchRequest = source.Request
type FetchResponse = source.Response

// NewMetrics returns a fresh set of engine counters.
func NewMetrics() *Metrics {
	return engine.NewMetrics()
}
