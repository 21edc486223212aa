package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/bianoble/ledger-corpus/internal/config"
	"github.com/bianoble/ledger-corpus/internal/include"
	"github.com/bianoble/ledger-corpus/internal/quarantine"
	"github.com/bianoble/ledger-corpus/internal/sandbox"
	"github.com/bianoble/ledger-corpus/internal/source"
	"github.com/bianoble/ledger-corpus/internal/transform"
)

// IncludesEngine materializes the include files of fetched main documents,
// points their include directives at the local copies and quarantines every
// main whose include set could not be completed.
type IncludesEngine struct {
	Fetcher source.Fetcher
	Logger  *zap.Logger
	Metrics *Metrics
}

// Includes runs include resolution over the documents get placed in
// cfg.Dest. Per-file failures are collected in the result.
func (e *IncludesEngine) Includes(ctx context.Context, cfg config.Config) (*IncludesResult, error) {
	log := logger(e.Logger)
	c, err := loadCorpus(cfg.Sources, cfg)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Dest, 0755); err != nil {
		return nil, fmt.Errorf("creating destination %s: %w", cfg.Dest, err)
	}

	result := &IncludesResult{
		Parse:      c.stats,
		InputRows:  c.stats.Lines,
		Duplicates: c.merged.Dropped,
	}
	qm := &quarantine.Manager{Root: cfg.Dest, Dir: cfg.BrokenDir}

	// Names must match the ones get assigned.
	names := c.names(cfg.TypeSet())
	eligible := cfg.IncludeTypeSet()
	var docs []include.Document
	for _, l := range c.merged.Records {
		if !eligible.Has(l.Classification) {
			continue
		}
		name, ok := names[l.Record.Key()]
		if !ok {
			continue
		}
		quarantined := qm.Contains(name)
		if quarantined {
			result.AlreadyQuarantined++
			log.Debug("already quarantined", zap.String("path", name))
		}
		docs = append(docs, include.Document{
			Key:         l.Record.Key(),
			Name:        name,
			Targets:     l.Resolved,
			Quarantined: quarantined,
		})
	}

	plan := include.Build(docs, qm.TopDir())
	result.Mains = len(plan.MainOrder)
	result.Declared = plan.Declared
	result.Tasks = len(plan.TaskOrder)
	log.Debug("include plan",
		zap.Int("mains", result.Mains),
		zap.Int("declared", result.Declared),
		zap.Int("tasks", result.Tasks))

	for _, tk := range plan.TaskOrder {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		task := plan.Tasks[tk]
		plan.Settle(tk, e.fetchTask(ctx, cfg, task, result))
	}

	missing := make(map[string]bool)
	for _, name := range plan.MainOrder {
		if !e.rewriteMain(cfg, plan.Mains[name], result) {
			missing[name] = true
		}
	}

	e.quarantine(qm, plan, missing, result)

	e.Metrics.records(StageIncludes, "quarantined", result.AlreadyQuarantined)
	e.Metrics.rewritten(result.RewrittenLines)
	return result, nil
}

// fetchTask downloads one include file. Every outcome is recorded exactly
// once.
func (e *IncludesEngine) fetchTask(ctx context.Context, cfg config.Config, task *include.Task, result *IncludesResult) include.Outcome {
	log := logger(e.Logger).With(zap.String("path", task.LocalPath))
	fail := func(fe FileError) include.Outcome {
		fe.Path, fe.URL = task.LocalPath, task.URL
		result.Errors = append(result.Errors, fe)
		e.Metrics.fileError(StageIncludes, fe.Kind)
		log.Warn("include fetch failed", zap.Error(&fe))
		return include.Failed
	}

	resp, err := e.Fetcher.Fetch(ctx, source.Request{URL: task.URL})
	if err != nil {
		return fail(FileError{Kind: KindFetch, Err: err})
	}
	if !resp.Succeeded() {
		kind := KindHTTP
		if resp.Status >= 200 && resp.Status < 300 {
			kind = KindEmpty
		}
		return fail(FileError{Kind: kind, Status: resp.Status})
	}

	wr, err := sandbox.WriteIfChanged(cfg.Dest, task.LocalPath, transform.AppendSource(resp.Body, task.URL))
	if err != nil {
		return fail(FileError{Kind: KindWrite, Err: err})
	}

	var outcome include.Outcome
	var action string
	switch wr {
	case sandbox.Created:
		outcome, action = include.FetchedNew, ActionAdded
	case sandbox.Updated:
		outcome, action = include.FetchedUpdated, ActionUpdated
	default:
		outcome, action = include.Unchanged, ActionUnchanged
	}
	result.Fetched = append(result.Fetched, FileAction{Path: task.LocalPath, URL: task.URL, Action: action})
	e.Metrics.file(StageIncludes, action)
	log.Info(action, zap.String("url", task.URL))
	return outcome
}

// rewriteMain points the main's include directives at their local copies.
// It returns false when the main document is not on disk.
func (e *IncludesEngine) rewriteMain(cfg config.Config, ms *include.MainState, result *IncludesResult) bool {
	log := logger(e.Logger).With(zap.String("path", ms.Name))
	fail := func(kind ErrorKind, err error) {
		result.Errors = append(result.Errors, FileError{Path: ms.Name, Kind: kind, Err: err})
		e.Metrics.fileError(StageIncludes, kind)
	}

	resolved, err := sandbox.ValidatePath(cfg.Dest, ms.Name)
	if err != nil {
		fail(KindRead, err)
		return true
	}
	text, err := os.ReadFile(resolved)
	if errors.Is(err, fs.ErrNotExist) {
		result.Missing = append(result.Missing, ms.Name)
		fail(KindMissing, nil)
		log.Warn("main document missing")
		return false
	}
	if err != nil {
		fail(KindRead, err)
		return true
	}

	out, lines, candidates := transform.RewriteIncludes(text, ms.Lookup)
	if candidates == 0 || bytes.Equal(out, text) {
		return true
	}
	if err := sandbox.SafeWrite(cfg.Dest, ms.Name, out, 0644); err != nil {
		fail(KindWrite, err)
		return true
	}
	result.Rewritten = append(result.Rewritten, FileAction{Path: ms.Name, Action: ActionRewritten, Lines: lines})
	result.RewrittenLines += lines
	e.Metrics.file(StageIncludes, ActionRewritten)
	log.Info("rewrote includes", zap.Int("lines", lines))
	return true
}

// quarantine moves each failed main together with the include files it
// materialized. Include files a healthy main still references stay put.
func (e *IncludesEngine) quarantine(qm *quarantine.Manager, plan *include.Plan, missing map[string]bool, result *IncludesResult) {
	log := logger(e.Logger)
	moved := make(map[string]bool)
	retained := make(map[string]bool)

	for _, name := range plan.MainOrder {
		ms := plan.Mains[name]
		if !ms.Failed || missing[name] {
			continue
		}
		items := []quarantine.Item{{Path: ms.Name, Kind: quarantine.KindMain}}
		locals := make([]string, 0, len(ms.Materialized))
		for p := range ms.Materialized {
			locals = append(locals, p)
		}
		sort.Strings(locals)
		for _, p := range locals {
			switch {
			case moved[p]:
			case plan.SharedWithHealthy(p):
				if !retained[p] {
					retained[p] = true
					result.Retained = append(result.Retained, p)
				}
			default:
				moved[p] = true
				items = append(items, quarantine.Item{Path: p, Kind: quarantine.KindInclude})
			}
		}

		for _, r := range qm.Move(items) {
			if r.Err != nil {
				result.Errors = append(result.Errors, FileError{Path: r.Path, Kind: KindMove, Err: r.Err})
				e.Metrics.fileError(StageIncludes, KindMove)
				log.Warn("quarantine failed", zap.Error(r.Err))
				continue
			}
			result.Quarantined = append(result.Quarantined, Quarantined{
				Path: r.Path,
				Dest: filepath.ToSlash(r.Dest),
				Kind: r.Kind,
			})
			e.Metrics.quarantined(r.Kind)
			log.Info("quarantined", zap.String("path", r.Path), zap.String("kind", string(r.Kind)))
		}
	}
}
