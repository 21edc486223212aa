package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bianoble/ledger-corpus/internal/engine"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify that every include in the corpus resolves to a local file",
	Long: `Reads the ledger documents at the top of the destination directory and
reports include directives whose target does not exist locally. Exit 0 if
the corpus is self-contained; exit non-zero otherwise. Suitable for CI
pipelines.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		eng := &engine.CheckEngine{Logger: logger, Metrics: metrics}
		result, err := eng.Check(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		if result.Clean {
			info("All includes resolve (%d documents checked).", result.Checked)
			return nil
		}

		for _, d := range result.Dangling {
			info("  dangling  %s:%d  %s", d.File, d.Line, d.Target)
		}
		return fmt.Errorf("check failed: %d dangling include(s)", len(result.Dangling))
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
