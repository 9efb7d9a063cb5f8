package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/seenimoa/filingsense/internal/config"
	"github.com/seenimoa/filingsense/pkg/utils"
)

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show EDGAR status and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		now := utils.NowET()
		out := cmd.OutOrStdout()

		fmt.Fprintln(out, "═══════════════════════════════════════")
		fmt.Fprintln(out, "  FilingSense — System Status")
		fmt.Fprintln(out, "═══════════════════════════════════════")
		fmt.Fprintf(out, "  Version:       %s (%s)\n", version, commit)
		fmt.Fprintf(out, "  EDGAR Status:  %s\n", utils.EDGARStatus(now))
		fmt.Fprintf(out, "  Time (ET):     %s\n", utils.FormatDateTimeET(now))
		fmt.Fprintln(out)

		fmt.Fprintln(out, "  Configuration:")
		fmt.Fprintf(out, "    Feed:          %d entries, owner=%s, every %ds\n",
			cfg.SEC.FeedCount, cfg.SEC.FeedOwner, cfg.Monitor.PollIntervalSec)
		fmt.Fprintf(out, "    Exchanges:     %s\n", orAll(cfg.Monitor.Exchanges))
		fmt.Fprintf(out, "    Forms:         %s\n", orAll(cfg.Monitor.Forms))
		fmt.Fprintf(out, "    Workers:       %d\n", cfg.Monitor.Workers)
		fmt.Fprintf(out, "    Report:        %s\n", cfg.Report.Format)
		fmt.Fprintf(out, "    API Server:    %s:%d\n", cfg.API.Host, cfg.API.Port)
		fmt.Fprintln(out)

		fmt.Fprintln(out, "  Credentials:")
		for _, k := range config.CheckCredentials(cfg) {
			status := "❌ not set"
			if k.IsSet {
				status = fmt.Sprintf("✅ set (%s: %s)", k.Source, k.Display)
			}
			fmt.Fprintf(out, "    %-18s %s\n", k.Name+":", status)
			if k.Warning != "" {
				fmt.Fprintf(out, "    %-18s ⚠️  %s\n", "", k.Warning)
			}
		}

		fmt.Fprintln(out, "═══════════════════════════════════════")
		return nil
	},
}

func orAll(values []string) string {
	if len(values) == 0 {
		return "all"
	}
	return strings.Join(values, ", ")
}
