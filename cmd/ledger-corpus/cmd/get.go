package cmd

import (
	"github.com/spf13/cobra"

	"github.com/bianoble/ledger-corpus/internal/engine"
)

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Fetch the filtered documents into the destination directory",
	Long: `Fetches every record of the selected classifications. Colliding basenames get
an owner-repo slug. Requests are conditional on the ETag and Last-Modified
seen last time; a body identical to the last fetch leaves the local copy, and
any include rewrites in it, untouched. Documents already in quarantine are
skipped.

Exits non-zero if any document failed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		c, err := newCache(cfg)
		if err != nil {
			return err
		}

		eng := &engine.GetEngine{
			Fetcher: newFetcher(cfg),
			Cache:   c,
			Logger:  logger,
			Metrics: metrics,
		}
		result, err := eng.Get(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		printGet(result)
		return reportErrors(result.Errors)
	},
}

func printGet(r *engine.GetResult) {
	for _, f := range r.Written {
		detail("%-12s %s", f.Action, f.Path)
	}
	info("Get summary:")
	info("  processed:          %d", r.Processed)
	info("  skipped by type:    %d", r.SkippedByType)
	info("  added:              %d", r.Count(engine.ActionAdded))
	info("  updated:            %d", r.Count(engine.ActionUpdated))
	info("  restored:           %d", r.Count(engine.ActionRestored))
	info("  not modified:       %d", r.Count(engine.ActionNotModified))
	info("  unchanged:          %d", r.Count(engine.ActionUnchanged))
	info("  already quarantined: %d", r.AlreadyQuarantined)
	info("  errors:             %d", len(r.Errors))
}

func init() {
	rootCmd.AddCommand(getCmd)
}
