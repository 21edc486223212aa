package cmd

import (
	"github.com/spf13/cobra"

	"github.com/bianoble/ledger-corpus/internal/engine"
)

var (
	filterInput  string
	filterOutput string
	filterDryRun bool
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Deduplicate discovered records and drop include targets and small files",
	Long: `Reads the discovery output, merges records that denote the same file, drops
files that a main document includes (they are fetched with it), drops
standalone files at or below min_size and paths matching an exclude pattern,
and writes the filtered record file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		eng := &engine.FilterEngine{Logger: logger, Metrics: metrics}
		result, err := eng.Filter(cmd.Context(), cfg, engine.FilterOptions{
			Input:  filterInput,
			Output: filterOutput,
			DryRun: filterDryRun,
		})
		if err != nil {
			return err
		}
		printFilter(result)
		if filterDryRun {
			info("Dry run, nothing written.")
		}
		return nil
	},
}

func printFilter(r *engine.FilterResult) {
	info("Filter summary:")
	info("  input rows:              %d", r.InputRows)
	if r.Parse.Skipped > 0 {
		info("  malformed rows:          %d", r.Parse.Skipped)
		for reason, n := range r.Parse.ByReason {
			detail("  %-8s %d", reason, n)
		}
	}
	info("  duplicates merged:       %d", r.Duplicates)
	info("  main rows:               %d", r.MainRows)
	info("  include targets skipped: %d", r.IncludeTargetsSkipped)
	info("  too small:               %d", r.TooSmall)
	info("  excluded:                %d", r.Excluded)
	info("  kept:                    %d (main %d, single %d)", r.Kept(), r.KeptMain, r.KeptSingle)
}

func init() {
	filterCmd.Flags().StringVarP(&filterInput, "input", "i", "", "discovery output (default: config discovered)")
	filterCmd.Flags().StringVarP(&filterOutput, "output", "o", "", "filtered record file (default: config sources)")
	filterCmd.Flags().BoolVar(&filterDryRun, "dry-run", false, "report counts without writing the output")
	rootCmd.AddCommand(filterCmd)
}
