package engine

import (
	"os"

	"go.uber.org/zap"

	"github.com/bianoble/ledger-corpus/internal/config"
	"github.com/bianoble/ledger-corpus/internal/dedup"
	"github.com/bianoble/ledger-corpus/internal/naming"
	"github.com/bianoble/ledger-corpus/internal/record"
)

func logger(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// corpus is a parsed and merged record file.
type corpus struct {
	records []record.Record
	stats   record.Stats
	merged  dedup.Result
}

func loadCorpus(path string, cfg config.Config) (*corpus, error) {
	records, stats, err := record.ReadFile(path, cfg.RawHost)
	if err != nil {
		return nil, err
	}
	return &corpus{records: records, stats: stats, merged: dedup.Merge(records)}, nil
}

// names assigns destination names to every merged record whose
// classification is in consider.
func (c *corpus) names(consider record.ClassificationSet) map[record.Key]string {
	cands := make([]naming.Candidate, 0, len(c.merged.Records))
	for _, l := range c.merged.Records {
		cands = append(cands, naming.Candidate{Key: l.Record.Key(), Classification: l.Classification})
	}
	return naming.Assign(cands, consider)
}

// collisions returns the names that differ from the document's basename.
func collisions(c *corpus, names map[record.Key]string) []record.Key {
	var out []record.Key
	for _, l := range c.merged.Records {
		k := l.Record.Key()
		if n, ok := names[k]; ok && n != l.Record.Basename() {
			out = append(out, k)
		}
	}
	return out
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
