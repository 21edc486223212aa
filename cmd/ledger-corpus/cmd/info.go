package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bianoble/ledger-corpus/internal/cache"
	"github.com/bianoble/ledger-corpus/internal/config"
	"github.com/bianoble/ledger-corpus/internal/meta"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show configuration, corpus and cache information",
	Long: `Displays the version, the config layers that were loaded, the effective paths,
how many documents the corpus and its quarantine hold, and the cache size.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		layers := config.DiscoverPaths(config.DiscoverOptions{ProjectPath: configPath, NoInherit: noInherit})
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		fmt.Printf("ledger-corpus %s\n", version)
		fmt.Println("  config chain:")
		for _, l := range layers {
			status := "not found"
			if _, err := os.Stat(l.Path); err == nil {
				status = "found"
			}
			fmt.Printf("    %-10s %s (%s)\n", string(l.Level)+":", l.Path, status)
		}
		fmt.Printf("  discovered:    %s\n", cfg.Discovered)
		fmt.Printf("  sources:       %s\n", cfg.Sources)
		fmt.Printf("  dest:          %s\n", cfg.Dest)
		fmt.Printf("  meta:          %s\n", cfg.MetaPath())

		docs, size := countDocuments(cfg.Dest)
		broken, _ := countDocuments(filepath.Join(cfg.Dest, cfg.BrokenDir))
		fmt.Printf("  documents:     %d (%s)\n", docs, humanSize(size))
		fmt.Printf("  quarantined:   %d\n", broken)
		if mf, err := meta.Load(cfg.MetaPath()); err == nil {
			fmt.Printf("  meta entries:  %d\n", len(mf.Entries))
		}

		if noCache {
			fmt.Println("  cache:         disabled")
			return nil
		}
		dir := cfg.CacheDir
		if dir == "" {
			dir = cache.DefaultDir()
		}
		fmt.Printf("  cache dir:     %s\n", dir)
		if c, err := cache.New(dir); err == nil {
			if n, err := c.Size(); err == nil {
				fmt.Printf("  cache size:    %s\n", humanSize(n))
			}
		}
		return nil
	},
}

// countDocuments counts the ledger files directly inside dir.
func countDocuments(dir string) (int, int64) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0
	}
	var n int
	var size int64
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".bean", ".beancount":
		default:
			continue
		}
		n++
		if fi, err := e.Info(); err == nil {
			size += fi.Size()
		}
	}
	return n, size
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
