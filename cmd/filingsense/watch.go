package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/filingsense/api"
	"github.com/seenimoa/filingsense/internal/config"
	"github.com/seenimoa/filingsense/internal/metrics"
	"github.com/seenimoa/filingsense/internal/monitor"
	"github.com/seenimoa/filingsense/internal/report"
)

// --- Watch Command ---

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll the EDGAR latest-filings feed and analyze new filings",
	Long: `Poll the EDGAR latest-filings feed, analyze every new filing from a
company listed on the configured exchanges and publish each result to
stdout and, when configured, the webhook.

Examples:
  filingsense watch
  filingsense watch --forms 4,8-K --max-results 10
  filingsense watch --exchanges NYSE --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		applyWatchFlags(cmd)
		if config.IsPlaceholderUserAgent(cfg.SEC.UserAgent) {
			log.Warn().Str("user_agent", cfg.SEC.UserAgent).Msg("SEC User-Agent has no real contact details, EDGAR may throttle requests")
		}

		maxResults, _ := cmd.Flags().GetInt("max-results")
		reporter, err := buildReporter(cmd, cfg)
		if err != nil {
			return err
		}
		m := newMonitor(reporter, maxResults, nil)

		err = m.Run(cmd.Context())
		if err != nil && cmd.Context().Err() != nil {
			log.Info().Int("published", m.Published()).Msg("monitor stopped")
			return nil
		}
		return err
	},
}

func init() {
	addMonitorFlags(watchCmd)
	watchCmd.Flags().String("format", "", "output format: console or json (default from config)")
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the HTTP API server. With --watch the feed monitor runs alongside
it and every result is streamed to WebSocket clients at /api/v1/ws.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		applyWatchFlags(cmd)
		ctx := cmd.Context()
		rec := metrics.New()
		noUI, _ := cmd.Flags().GetBool("no-ui")

		srv := api.NewServer(api.Options{
			Config:    cfg,
			Analyzer:  newAnalyzer(),
			Metrics:   rec,
			Logger:    log,
			Version:   version,
			DisableUI: noUI,
		})
		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)

		watch, _ := cmd.Flags().GetBool("watch")
		if !watch {
			return srv.ListenAndServe(ctx, addr)
		}

		reporters := report.Multi{srv.Hub()}
		if cfg.Report.WebhookURL != "" {
			reporters = append(reporters, report.NewWebhook(cfg.Report.WebhookURL, nil))
		}
		maxResults, _ := cmd.Flags().GetInt("max-results")
		m := newMonitor(reporters, maxResults, rec)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return srv.ListenAndServe(gctx, addr) })
		g.Go(func() error {
			if err := m.Run(gctx); err != nil && gctx.Err() == nil {
				return err
			}
			return nil
		})
		return g.Wait()
	},
}

func init() {
	addMonitorFlags(serveCmd)
	serveCmd.Flags().Bool("watch", false, "run the feed monitor and stream results over WebSocket")
	serveCmd.Flags().Int("port", 0, "listen port (default from config)")
	serveCmd.Flags().Bool("no-ui", false, "do not serve the embedded dashboard")
}

// --- Shared wiring ---

func addMonitorFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("forms", nil, "only analyze these form types (default from config)")
	cmd.Flags().StringSlice("exchanges", nil, "only analyze companies listed on these exchanges (default from config)")
	cmd.Flags().Int("workers", 0, "concurrent submissions per poll (default from config)")
	cmd.Flags().Int("max-results", 0, "stop after publishing this many filings (0 = run until interrupted)")
}

// applyWatchFlags lets command-line flags override the loaded config.
func applyWatchFlags(cmd *cobra.Command) {
	if cmd.Flags().Changed("forms") {
		cfg.Monitor.Forms, _ = cmd.Flags().GetStringSlice("forms")
	}
	if cmd.Flags().Changed("exchanges") {
		cfg.Monitor.Exchanges, _ = cmd.Flags().GetStringSlice("exchanges")
	}
	if n, _ := cmd.Flags().GetInt("workers"); n > 0 {
		cfg.Monitor.Workers = n
	}
	if cmd.Flags().Lookup("port") != nil {
		if port, _ := cmd.Flags().GetInt("port"); port > 0 {
			cfg.API.Port = port
		}
	}
}

func newMonitor(reporter report.Reporter, maxResults int, rec *metrics.Recorder) *monitor.Monitor {
	return monitor.New(newSECClient(), newAnalyzer(), reporter, monitor.Options{
		PollInterval: seconds(cfg.Monitor.PollIntervalSec),
		Workers:      cfg.Monitor.Workers,
		Exchanges:    cfg.Monitor.Exchanges,
		Forms:        cfg.Monitor.Forms,
		SeenTTL:      seconds(cfg.Monitor.SeenTTLSec),
		MaxResults:   maxResults,
		Logger:       log,
		Metrics:      rec,
	})
}

// buildReporter writes results to stdout in the selected format and to the
// webhook when one is configured.
func buildReporter(cmd *cobra.Command, cfg *config.Config) (report.Reporter, error) {
	format, _ := cmd.Flags().GetString("format")
	if format == "" {
		format = cfg.Report.Format
	}

	var reporters report.Multi
	switch strings.ToLower(format) {
	case "json":
		reporters = append(reporters, report.NewJSON(os.Stdout))
	case "console":
		reporters = append(reporters, report.NewConsole(os.Stdout))
	default:
		return nil, fmt.Errorf("unknown format %q (want console or json)", format)
	}
	if cfg.Report.WebhookURL != "" {
		reporters = append(reporters, report.NewWebhook(cfg.Report.WebhookURL, nil))
	}
	return reporters, nil
}

var _ report.Reporter = (*api.WSHub)(nil)
