// FilingSense: real-time analysis of SEC EDGAR filings.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/seenimoa/filingsense/internal/analysis/filing"
	"github.com/seenimoa/filingsense/internal/analysis/sentiment"
	"github.com/seenimoa/filingsense/internal/config"
	"github.com/seenimoa/filingsense/internal/logger"
	"github.com/seenimoa/filingsense/internal/providers/sec"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config and logger, populated before any command runs.
var (
	cfg *config.Config
	log zerolog.Logger
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "filingsense",
	Short: "FilingSense — real-time analysis of SEC EDGAR filings",
	Long: `FilingSense watches the EDGAR latest-filings feed, downloads new
submissions from listed companies and scores each one: sentiment with
highlights, a verdict on Form 4 insider trades and a plain-language
summary of 8-K events.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		log, err = logger.New(logger.Config{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
			Output: cfg.Logging.Output,
		})
		if err != nil {
			return fmt.Errorf("failed to configure logging: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("FilingSense %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Wiring ---

func newSECClient() *sec.Client {
	return sec.New(sec.Options{
		UserAgent:         cfg.SEC.UserAgent,
		FeedCount:         cfg.SEC.FeedCount,
		FeedOwner:         cfg.SEC.FeedOwner,
		RequestsPerSecond: cfg.SEC.RequestsPerSecond,
		Timeout:           seconds(cfg.SEC.TimeoutSec),
		MaxRetries:        cfg.SEC.MaxRetries,
		Backoff:           seconds(cfg.SEC.BackoffSec),
		BackoffCap:        seconds(cfg.SEC.BackoffCapSec),
		DirectoryTTL:      seconds(cfg.Monitor.TickerRefreshSec),
		Logger:            log,
	})
}

func newAnalyzer() *filing.Analyzer {
	var pos, neg sentiment.Lexicon
	if len(cfg.Analysis.Positive) > 0 {
		pos = cfg.Analysis.Positive
	}
	if len(cfg.Analysis.Negative) > 0 {
		neg = cfg.Analysis.Negative
	}
	return filing.New(
		filing.WithLexicons(pos, neg),
		filing.WithLogger(log.With().Str("component", "analysis").Logger()),
	)
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
