package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/bianoble/ledger-corpus/internal/config"
	"github.com/bianoble/ledger-corpus/internal/transform"
)

// CheckEngine verifies that the destination directory is self-contained.
type CheckEngine struct {
	Logger  *zap.Logger
	Metrics *Metrics
}

// Check reads every ledger document at the top of cfg.Dest and reports
// include directives whose target does not exist locally. It never modifies
// anything.
func (e *CheckEngine) Check(ctx context.Context, cfg config.Config) (*CheckResult, error) {
	log := logger(e.Logger)
	entries, err := os.ReadDir(cfg.Dest)
	if err != nil {
		return nil, fmt.Errorf("reading destination %s: %w", cfg.Dest, err)
	}

	var files []string
	for _, ent := range entries {
		if ent.IsDir() || !isLedgerFile(ent.Name()) {
			continue
		}
		files = append(files, ent.Name())
	}
	sort.Strings(files)

	result := &CheckResult{}
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := os.ReadFile(filepath.Join(cfg.Dest, name))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		result.Checked++
		for _, d := range transform.Includes(text) {
			if targetExists(cfg.Dest, d.Target) {
				continue
			}
			result.Dangling = append(result.Dangling, Dangling{File: name, Line: d.Line, Target: d.Target})
			e.Metrics.fileError(StageCheck, KindMissing)
			log.Debug("dangling include", zap.String("file", name), zap.Int("line", d.Line), zap.String("target", d.Target))
		}
	}
	result.Clean = len(result.Dangling) == 0
	e.Metrics.records(StageCheck, "checked", result.Checked)
	return result, nil
}

func isLedgerFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".beancount" || ext == ".bean"
}

// targetExists resolves an include target relative to dir. Glob targets
// count as present when they match at least one file.
func targetExists(dir, target string) bool {
	p := filepath.FromSlash(target)
	if !filepath.IsAbs(p) {
		p = filepath.Join(dir, p)
	}
	if strings.ContainsAny(target, "*?[{") {
		matches, err := doublestar.FilepathGlob(p)
		return err == nil && len(matches) > 0
	}
	return fileExists(p)
}
