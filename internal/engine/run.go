package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/bianoble/ledger-corpus/internal/cache"
	"github.com/bianoble/ledger-corpus/internal/config"
	"github.com/bianoble/ledger-corpus/internal/source"
)

// Pipeline runs filter, get and includes in order over one configuration.
type Pipeline struct {
	Fetcher source.Fetcher
	Cache   *cache.Cache
	Logger  *zap.Logger
	Metrics *Metrics
}

// Run executes the three stages. A stage's setup failure stops the pipeline;
// per-file failures do not.
func (p *Pipeline) Run(ctx context.Context, cfg config.Config) (*RunResult, error) {
	log := logger(p.Logger)
	result := &RunResult{}

	fe := &FilterEngine{Logger: p.Logger, Metrics: p.Metrics}
	fr, err := fe.Filter(ctx, cfg, FilterOptions{})
	if err != nil {
		return result, fmt.Errorf("filter: %w", err)
	}
	result.Filter = fr
	log.Debug("filter done", zap.Int("kept", fr.Kept()))

	ge := &GetEngine{Fetcher: p.Fetcher, Cache: p.Cache, Logger: p.Logger, Metrics: p.Metrics}
	gr, err := ge.Get(ctx, cfg)
	if err != nil {
		return result, fmt.Errorf("get: %w", err)
	}
	result.Get = gr
	log.Debug("get done", zap.Int("processed", gr.Processed), zap.Int("errors", len(gr.Errors)))

	ie := &IncludesEngine{Fetcher: p.Fetcher, Logger: p.Logger, Metrics: p.Metrics}
	ir, err := ie.Includes(ctx, cfg)
	if err != nil {
		return result, fmt.Errorf("includes: %w", err)
	}
	result.Includes = ir
	return result, nil
}
