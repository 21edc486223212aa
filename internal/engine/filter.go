package engine

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/bianoble/ledger-corpus/internal/config"
	"github.com/bianoble/ledger-corpus/internal/include"
	"github.com/bianoble/ledger-corpus/internal/record"
	"github.com/bianoble/ledger-corpus/internal/sandbox"
)

// FilterEngine turns the discovery output into the record file consumed by
// get and includes.
type FilterEngine struct {
	Logger  *zap.Logger
	Metrics *Metrics
}

// FilterOptions configures a filter operation.
type FilterOptions struct {
	// Input defaults to cfg.Discovered, Output to cfg.Sources.
	Input  string
	Output string
	DryRun bool
}

// Filter deduplicates the discovered records, drops include targets of main
// documents and small standalone files, and writes the rest.
func (e *FilterEngine) Filter(ctx context.Context, cfg config.Config, opts FilterOptions) (*FilterResult, error) {
	log := logger(e.Logger)
	in := opts.Input
	if in == "" {
		in = cfg.Discovered
	}
	out := opts.Output
	if out == "" {
		out = cfg.Sources
	}

	c, err := loadCorpus(in, cfg)
	if err != nil {
		return nil, err
	}
	result := &FilterResult{
		Parse:      c.stats,
		InputRows:  c.stats.Lines,
		Duplicates: c.merged.Dropped,
	}
	for _, r := range c.records {
		if r.Classification == record.Main {
			result.MainRows++
		}
	}

	// Files pulled in by a main document are fetched with it, not on their own.
	targets := make(map[include.TaskKey]bool)
	for _, l := range c.merged.Records {
		if l.Classification != record.Main {
			continue
		}
		for _, t := range l.Resolved {
			targets[include.TaskKey{Origin: l.Record.Origin, Path: t}] = true
		}
	}

	minSize := cfg.MinSizeBytes()
	for _, l := range c.merged.Records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r := l.Record
		switch {
		case targets[include.TaskKey{Origin: r.Origin, Path: r.Path}]:
			result.IncludeTargetsSkipped++
			log.Debug("skipping include target", zap.String("url", r.URL))
			continue
		case cfg.Excluded(r.Path):
			result.Excluded++
			log.Debug("skipping excluded", zap.String("url", r.URL))
			continue
		case l.Classification != record.Main && r.Size != nil && *r.Size <= minSize:
			result.TooSmall++
			log.Debug("skipping small file", zap.String("url", r.URL), zap.Int64("size", *r.Size))
			continue
		}

		kept := record.Record{
			URL:            r.URL,
			Origin:         r.Origin,
			Path:           r.Path,
			Size:           r.Size,
			Classification: record.Single,
		}
		if l.Classification == record.Main {
			kept.Classification = record.Main
			result.KeptMain++
		} else {
			result.KeptSingle++
		}
		for _, t := range l.Resolved {
			kept.Targets = append(kept.Targets, record.AbsoluteTarget(t))
		}
		result.Records = append(result.Records, kept)
	}

	e.Metrics.records(StageFilter, "read", result.InputRows)
	e.Metrics.records(StageFilter, "malformed", result.Parse.Skipped)
	e.Metrics.records(StageFilter, "duplicate", result.Duplicates)
	e.Metrics.records(StageFilter, "include-target", result.IncludeTargetsSkipped)
	e.Metrics.records(StageFilter, "excluded", result.Excluded)
	e.Metrics.records(StageFilter, "too-small", result.TooSmall)
	e.Metrics.records(StageFilter, "kept", result.Kept())

	if opts.DryRun {
		return result, nil
	}
	if err := writeRecordFile(out, result.Records); err != nil {
		return nil, err
	}
	log.Info("wrote record file", zap.String("path", out), zap.Int("records", result.Kept()))
	return result, nil
}

// writeRecordFile replaces path atomically with the TSV form of records.
func writeRecordFile(path string, records []record.Record) error {
	var buf bytes.Buffer
	if err := record.Write(&buf, records); err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	if err := sandbox.SafeWrite(dir, filepath.Base(path), buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing record file %s: %w", path, err)
	}
	return nil
}
