package cmd

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bianoble/ledger-corpus/internal/config"
	"github.com/bianoble/ledger-corpus/internal/engine"
)

// Build-time variables set via -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flags.
var (
	configPath  string
	envFile     string
	noInherit   bool
	verbose     bool
	quiet       bool
	noColor     bool
	noCache     bool
	metricsFile string
)

// Config override flags.
var (
	destFlag         string
	sourcesFlag      string
	metaFlag         string
	typesFlag        []string
	includeTypesFlag []string
	minSizeFlag      int64
)

var (
	logger  = zap.NewNop()
	metrics *engine.Metrics
)

var rootCmd = &cobra.Command{
	Use:   "ledger-corpus",
	Short: "Build a self-contained corpus of plain-text ledgers",
	Long: `ledger-corpus turns a list of discovered plain-text accounting ledgers into a
local corpus. It merges duplicate records, gives colliding file names unique
slugs, fetches every main document together with the files it includes,
rewrites include directives to the local copies, and moves documents whose
includes cannot be completed into a quarantine directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(envFile); err != nil {
			return err
		}
		l, err := newLogger()
		if err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}
		logger = l.With(zap.String("run", uuid.NewString()))
		metrics = engine.NewMetrics()
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ledger-corpus %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", config.FileName, "path to config file")
	pf.StringVar(&envFile, "env-file", ".env", "environment file to load")
	pf.BoolVar(&noInherit, "no-inherit", false, "ignore the user-level config")
	pf.BoolVar(&verbose, "verbose", false, "detailed output")
	pf.BoolVar(&quiet, "quiet", false, "minimal output (errors only)")
	pf.BoolVar(&noColor, "no-color", false, "disable colored output")
	pf.BoolVar(&noCache, "no-cache", false, "do not read or write the body cache")
	pf.StringVar(&metricsFile, "metrics-file", "", "write run metrics in Prometheus text format to this file")

	pf.StringVar(&destFlag, "dest", "", "destination directory (overrides config)")
	pf.StringVar(&sourcesFlag, "sources", "", "filtered record file (overrides config)")
	pf.StringVar(&metaFlag, "meta", "", "metadata file (overrides config)")
	pf.StringSliceVar(&typesFlag, "types", nil, "classifications to fetch, e.g. main,single (overrides config)")
	pf.StringSliceVar(&includeTypesFlag, "include-types", nil, "classifications whose includes are resolved (overrides config)")
	pf.Int64Var(&minSizeFlag, "min-size", -1, "minimum size in bytes for non-main documents (overrides config)")

	rootCmd.AddCommand(versionCmd)
}

func newLogger() (*zap.Logger, error) {
	level := zapcore.InfoLevel
	switch {
	case verbose:
		level = zapcore.DebugLevel
	case quiet:
		level = zapcore.WarnLevel
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	if !noColor && isatty.IsTerminal(os.Stderr.Fd()) {
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	return cfg.Build()
}

// finish flushes the logger and writes metrics. It runs after failed
// commands too, so partial runs still leave their counters behind.
func finish() error {
	_ = logger.Sync()
	if metricsFile == "" || metrics == nil {
		return nil
	}
	if err := metrics.WriteTextfile(metricsFile); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if ferr := finish(); ferr != nil && err == nil {
		err = ferr
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}
