package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bianoble/ledger-corpus/internal/quarantine"
)

const metricsNamespace = "ledger_corpus"

// Stage labels.
const (
	StageFilter   = "filter"
	StageGet      = "get"
	StageIncludes = "includes"
	StageCheck    = "check"
)

// Metrics counts what the engines did during one invocation. A nil *Metrics
// records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	// FilesTotal counts per-file outcomes.
	// Labels: stage, action (added, updated, unchanged, not-modified, restored, rewritten)
	FilesTotal *prometheus.CounterVec

	// ErrorsTotal counts per-file failures.
	// Labels: stage, kind (fetch, http, empty, write, read, move, missing)
	ErrorsTotal *prometheus.CounterVec

	// RewrittenLinesTotal counts include directives pointed at local copies.
	RewrittenLinesTotal prometheus.Counter

	// QuarantinedTotal counts files moved to quarantine.
	// Labels: kind (main, include)
	QuarantinedTotal *prometheus.CounterVec

	// RecordsTotal counts input records by outcome.
	// Labels: stage, outcome (read, skipped, duplicate, kept, ...)
	RecordsTotal *prometheus.CounterVec
}

// NewMetrics registers the engine metrics on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		FilesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "files_total",
			Help:      "Files handled by stage and action",
		}, []string{"stage", "action"}),
		ErrorsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "errors_total",
			Help:      "Per-file errors by stage and kind",
		}, []string{"stage", "kind"}),
		RewrittenLinesTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rewritten_lines_total",
			Help:      "Include directives rewritten to local paths",
		}),
		QuarantinedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "quarantined_total",
			Help:      "Files moved to quarantine by kind",
		}, []string{"kind"}),
		RecordsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "records_total",
			Help:      "Input records by stage and outcome",
		}, []string{"stage", "outcome"}),
	}
}

// WriteTextfile writes all metrics in the text exposition format, for the
// node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}

func (m *Metrics) file(stage, action string) {
	if m != nil {
		m.FilesTotal.WithLabelValues(stage, action).Inc()
	}
}

func (m *Metrics) fileError(stage string, kind ErrorKind) {
	if m != nil {
		m.ErrorsTotal.WithLabelValues(stage, string(kind)).Inc()
	}
}

func (m *Metrics) rewritten(lines int) {
	if m != nil && lines > 0 {
		m.RewrittenLinesTotal.Add(float64(lines))
	}
}

func (m *Metrics) quarantined(kind quarantine.Kind) {
	if m != nil {
		m.QuarantinedTotal.WithLabelValues(string(kind)).Inc()
	}
}

func (m *Metrics) records(stage, outcome string, n int) {
	if m != nil && n > 0 {
		m.RecordsTotal.WithLabelValues(stage, outcome).Add(float64(n))
	}
}
