package cmd

import (
	"github.com/spf13/cobra"

	"github.com/bianoble/ledger-corpus/internal/engine"
	"github.com/bianoble/ledger-corpus/internal/quarantine"
)

var includesCmd = &cobra.Command{
	Use:   "includes",
	Short: "Fetch include files, rewrite include directives and quarantine incomplete documents",
	Long: `For every fetched main document, downloads each declared include file into a
subdirectory named after the document, rewrites the document's include
directives to point at the local copies, and moves the document together
with its include files into the quarantine directory if any include could
not be fetched. An include file shared by several documents is fetched once.

Exits non-zero if any file failed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		eng := &engine.IncludesEngine{Fetcher: newFetcher(cfg), Logger: logger, Metrics: metrics}
		result, err := eng.Includes(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		printIncludes(result)
		return reportErrors(result.Errors)
	},
}

func printIncludes(r *engine.IncludesResult) {
	for _, f := range r.Rewritten {
		detail("rewritten    %s (%d lines)", f.Path, f.Lines)
	}
	for _, q := range r.Quarantined {
		detail("quarantined  %s -> %s", q.Path, q.Dest)
	}
	for _, p := range r.Retained {
		detail("retained     %s (shared)", p)
	}
	info("Includes summary:")
	info("  input rows:          %d", r.InputRows)
	info("  duplicates merged:   %d", r.Duplicates)
	info("  main documents:      %d", r.Mains)
	info("  already quarantined: %d", r.AlreadyQuarantined)
	info("  includes declared:   %d", r.Declared)
	info("  include files:       %d", r.Tasks)
	info("  fetched:             added %d, updated %d, unchanged %d",
		r.Count(engine.ActionAdded), r.Count(engine.ActionUpdated), r.Count(engine.ActionUnchanged))
	info("  fetch errors:        %d", r.ErrorCount(engine.KindFetch, engine.KindHTTP, engine.KindEmpty))
	info("  lines rewritten:     %d", r.RewrittenLines)
	info("  mains missing:       %d", len(r.Missing))
	info("  quarantined:         %d documents, %d includes",
		r.QuarantinedCount(quarantine.KindMain), r.QuarantinedCount(quarantine.KindInclude))
}

func init() {
	rootCmd.AddCommand(includesCmd)
}
