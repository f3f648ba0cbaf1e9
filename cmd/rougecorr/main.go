// Package main provides the rougecorr CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/summeval/rougecorr/internal/config"
	"github.com/summeval/rougecorr/internal/ledger"
	"github.com/summeval/rougecorr/internal/logging"
	"github.com/summeval/rougecorr/internal/rouge"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

var (
	logLevel  string
	logFormat string
	ledgerDir string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// SilenceErrors hides cobra's own messages, e.g. missing required flags
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "rougecorr",
	Short: "Correlate ROUGE scores with human judgments",
	Long: `rougecorr measures how well ROUGE agrees with human judgments of
summary quality.

It extracts human scores from DUC assessment tables, runs ROUGE-1.5.5 over
summary corpora, correlates both (Pearson, Spearman, Kendall) per summary
length, and compares correlation tables against a baseline.

All commands output JSON by default; use --human for text.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json")
	rootCmd.PersistentFlags().StringVar(&ledgerDir, "ledger", "", "Results ledger directory (overrides ledger_dir)")
	rootCmd.Version = Version
}

// mustLoadGlobalConfig loads ~/.config/rougecorr/config.yml, exits on error.
func mustLoadGlobalConfig() *config.GlobalConfig {
	cfg, err := config.LoadGlobalConfig()
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// mustInitLogging installs the process logger. The first setting found wins:
// flag, environment, the given fallback (a batch file), global config.
func mustInitLogging(cfg *config.GlobalConfig, fallbackLevel, fallbackFormat string) {
	level := firstNonEmpty(logLevel, os.Getenv(config.EnvPrefix+"_LOG_LEVEL"), fallbackLevel, cfg.LogLevel)
	format := firstNonEmpty(logFormat, os.Getenv(config.EnvPrefix+"_LOG_FORMAT"), fallbackFormat, cfg.LogFormat)
	lvl, err := logging.ParseLevel(level)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	logging.Init(lvl, format, os.Stderr)
}

// mustOpenLedger opens the results ledger, or returns nil when none is configured.
// Precedence matches mustInitLogging.
func mustOpenLedger(cfg *config.GlobalConfig, fallback string) *ledger.Ledger {
	dir := firstNonEmpty(ledgerDir, os.Getenv(config.EnvPrefix+"_LEDGER_DIR"), fallback, cfg.LedgerDir)
	if dir == "" {
		return nil
	}
	l, err := ledger.Open(config.ExpandPath(dir))
	if err != nil {
		exitWithError(ExitError, "opening ledger: %v", err)
	}
	return l
}

// mustRequireLedger is mustOpenLedger for commands that cannot work without one.
func mustRequireLedger(cfg *config.GlobalConfig) *ledger.Ledger {
	l := mustOpenLedger(cfg, "")
	if l == nil {
		exitWithError(ExitConfigError, "no ledger configured\n\nSet ledger_dir in %s, %s_LEDGER_DIR, or pass --ledger.",
			config.GlobalConfigPath(), config.EnvPrefix)
	}
	return l
}

// mustNewExtractor builds a ROUGE extractor backed by the configured installation.
func mustNewExtractor(cfg *config.GlobalConfig) *rouge.Extractor {
	home, err := cfg.ValidateRougeHome()
	if err != nil {
		fmt.Fprintln(os.Stderr, config.HelpfulConfigMessage())
		exitWithError(ExitConfigError, "%v", err)
	}
	scorer := &rouge.PerlScorer{Home: home, Perl: cfg.Perl}
	return rouge.NewExtractor(scorer, rouge.WithLogger(logging.New("rouge")))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
