package cmd

import (
	"github.com/spf13/cobra"

	"github.com/bianoble/ledger-corpus/internal/engine"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run filter, get and includes in order",
	Long: `Runs the whole pipeline. A stage that cannot start (missing input, bad
config) stops the run; per-file failures are reported at the end and make the
command exit non-zero.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		c, err := newCache(cfg)
		if err != nil {
			return err
		}

		p := &engine.Pipeline{
			Fetcher: newFetcher(cfg),
			Cache:   c,
			Logger:  logger,
			Metrics: metrics,
		}
		result, err := p.Run(cmd.Context(), cfg)
		if result != nil {
			if result.Filter != nil {
				printFilter(result.Filter)
			}
			if result.Get != nil {
				printGet(result.Get)
			}
			if result.Includes != nil {
				printIncludes(result.Includes)
			}
		}
		if err != nil {
			return err
		}

		var errs []engine.FileError
		errs = append(errs, result.Get.Errors...)
		errs = append(errs, result.Includes.Errors...)
		return reportErrors(errs)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
