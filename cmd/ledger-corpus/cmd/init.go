package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var initForce bool

// initTemplate is the default ledger-corpus.yaml scaffold. Every value shown
// is the built-in default.
const initTemplate = `# ledger-corpus configuration
version: 1

# Discovery output: url, size, include flag (yes/no), include targets.
discovered: ledgers_discovered.tsv

# Filtered record file written by 'filter' and read by 'get' and 'includes'.
sources: ledgers_filtered.tsv

# Destination directory for fetched documents.
dest: ledgers

# Quarantine directory, relative to dest.
# broken_dir: broken

# Conditional-GET metadata. Defaults to <dest>/.ledger_meta.yaml.
# meta: ledgers/.ledger_meta.yaml

# Classifications fetched by 'get' and resolved by 'includes'.
types: [main, single]
include_types: [main]

# Standalone documents at or below this size (bytes) are dropped by 'filter'.
min_size: 10240

# Origin-relative paths to drop, as doublestar globs.
# exclude:
#   - "**/examples/**"
#   - "**/test*/**"

# raw_host: raw.githubusercontent.com
# cache_dir: ~/.cache/ledger-corpus

fetch:
  timeout: 30s
  max_file_size: 10485760
  # user_agent: ledger-corpus/0.1
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter ledger-corpus.yaml configuration",
	Long: `Creates a ledger-corpus.yaml file with every setting at its default value and
a short explanation of each.

Use --force to overwrite an existing configuration file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outPath := configPath
		if !filepath.IsAbs(outPath) {
			abs, err := filepath.Abs(outPath)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			outPath = abs
		}

		if !initForce {
			if _, err := os.Stat(outPath); err == nil {
				return fmt.Errorf("%s already exists (use --force to overwrite)", outPath)
			}
		}

		if err := os.WriteFile(outPath, []byte(initTemplate), 0644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		info("Created %s", outPath)
		info("")
		info("Next steps:")
		info("  1. Point 'discovered' at your discovery output")
		info("  2. Run 'ledger-corpus run' to filter, fetch and resolve includes")
		info("  3. Run 'ledger-corpus check' to confirm the corpus is self-contained")
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite existing config file")
	rootCmd.AddCommand(initCmd)
}
