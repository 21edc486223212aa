package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/bianoble/ledger-corpus/internal/cache"
	"github.com/bianoble/ledger-corpus/internal/config"
	"github.com/bianoble/ledger-corpus/internal/meta"
	"github.com/bianoble/ledger-corpus/internal/quarantine"
	"github.com/bianoble/ledger-corpus/internal/sandbox"
	"github.com/bianoble/ledger-corpus/internal/source"
	"github.com/bianoble/ledger-corpus/internal/transform"
)

// GetEngine fetches the documents named in the record file into the
// destination directory.
type GetEngine struct {
	Fetcher source.Fetcher
	// Cache is optional. When set, raw bodies are stored in it and used to
	// restore a document the server reports unmodified but that is missing
	// locally.
	Cache   *cache.Cache
	Logger  *zap.Logger
	Metrics *Metrics
}

// NewHTTPFetcher builds the fetcher described by cfg.
func NewHTTPFetcher(cfg config.Config) *source.HTTPFetcher {
	return &source.HTTPFetcher{
		UserAgent: cfg.Fetch.UserAgent,
		Token:     cfg.Token,
		MaxSize:   cfg.Fetch.MaxFileSize,
		Timeout:   cfg.Fetch.Timeout,
	}
}

// Get fetches every record whose classification is in cfg.Types. Per-file
// failures are collected in the result; only setup failures are returned as
// errors.
func (e *GetEngine) Get(ctx context.Context, cfg config.Config) (*GetResult, error) {
	log := logger(e.Logger)
	c, err := loadCorpus(cfg.Sources, cfg)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Dest, 0755); err != nil {
		return nil, fmt.Errorf("creating destination %s: %w", cfg.Dest, err)
	}
	mf, err := meta.Load(cfg.MetaPath())
	if err != nil {
		return nil, err
	}

	types := cfg.TypeSet()
	names := c.names(types)
	for _, k := range collisions(c, names) {
		log.Info("basename collision", zap.String("path", k.Path), zap.String("name", names[k]))
	}

	qm := &quarantine.Manager{Root: cfg.Dest, Dir: cfg.BrokenDir}
	result := &GetResult{Parse: c.stats}

	for _, l := range c.merged.Records {
		if !types.Has(l.Classification) {
			result.SkippedByType++
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result.Processed++
		name := names[l.Record.Key()]
		if qm.Contains(name) {
			result.AlreadyQuarantined++
			log.Debug("already quarantined", zap.String("path", name))
			continue
		}
		e.getOne(ctx, cfg, mf, name, l.Record.URL, result)
	}

	if err := meta.Save(cfg.MetaPath(), mf); err != nil {
		return result, err
	}
	e.Metrics.records(StageGet, "skipped-type", result.SkippedByType)
	e.Metrics.records(StageGet, "quarantined", result.AlreadyQuarantined)
	return result, nil
}

func (e *GetEngine) getOne(ctx context.Context, cfg config.Config, mf *meta.File, name, url string, result *GetResult) {
	log := logger(e.Logger).With(zap.String("path", name))
	local := filepath.Join(cfg.Dest, name)
	prev, known := mf.Get(url)

	fail := func(fe FileError) {
		fe.Path, fe.URL = name, url
		result.Errors = append(result.Errors, fe)
		e.Metrics.fileError(StageGet, fe.Kind)
		log.Warn("fetch failed", zap.Error(&fe))
	}
	done := func(action string, list *[]FileAction) {
		*list = append(*list, FileAction{Path: name, URL: url, Action: action})
		e.Metrics.file(StageGet, action)
		log.Info(action, zap.String("url", url))
	}

	req := source.Request{URL: url}
	if known {
		req.ETag, req.LastModified = prev.ETag, prev.LastModified
	}
	resp, err := e.Fetcher.Fetch(ctx, req)
	if err != nil {
		fail(FileError{Kind: KindFetch, Err: err})
		return
	}

	restored := false
	if resp.NotModified() {
		if fileExists(local) {
			done(ActionNotModified, &result.Skipped)
			return
		}
		if body, ok := e.cached(prev.SHA256); ok {
			resp = &source.Response{Status: 200, Body: body, ETag: resp.ETag, LastModified: resp.LastModified}
			restored = true
		} else {
			// The server will not resend a body we no longer have.
			resp, err = e.Fetcher.Fetch(ctx, source.Request{URL: url})
			if err != nil {
				fail(FileError{Kind: KindFetch, Err: err})
				return
			}
		}
	}
	if !resp.Succeeded() {
		kind := KindHTTP
		if resp.Status >= 200 && resp.Status < 300 {
			kind = KindEmpty
		}
		fail(FileError{Kind: kind, Status: resp.Status})
		return
	}

	hash := source.SHA256(resp.Body)
	entry := meta.Entry{URL: url, ETag: resp.ETag, LastModified: resp.LastModified, SHA256: hash}
	if e.Cache != nil && !restored {
		if _, err := e.Cache.Put(resp.Body); err != nil {
			log.Debug("caching body", zap.Error(err))
		}
	}

	// The local copy may carry rewritten include lines; an identical raw
	// body must not undo them.
	if known && prev.SHA256 == hash && fileExists(local) {
		mf.Put(entry)
		done(ActionUnchanged, &result.Skipped)
		return
	}

	wr, err := sandbox.WriteIfChanged(cfg.Dest, name, transform.AppendSource(resp.Body, url))
	if err != nil {
		fail(FileError{Kind: KindWrite, Err: err})
		return
	}
	mf.Put(entry)

	switch {
	case restored:
		done(ActionRestored, &result.Written)
	case wr == sandbox.Unchanged:
		done(ActionUnchanged, &result.Skipped)
	case wr == sandbox.Updated || known:
		done(ActionUpdated, &result.Written)
	default:
		done(ActionAdded, &result.Written)
	}
}

func (e *GetEngine) cached(hash string) ([]byte, bool) {
	if e.Cache == nil || hash == "" {
		return nil, false
	}
	body, ok, err := e.Cache.Get(hash)
	if err != nil {
		logger(e.Logger).Debug("reading cache", zap.Error(err))
		return nil, false
	}
	return body, ok
}
