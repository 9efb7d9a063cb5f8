package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/seenimoa/filingsense/internal/providers/sec"
	"github.com/seenimoa/filingsense/internal/report"
	"github.com/seenimoa/filingsense/pkg/models"
	"github.com/seenimoa/filingsense/pkg/utils"
)

// --- Analyze Command ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file...]",
	Short: "Analyze local filing documents",
	Long: `Analyze a full EDGAR submission text file, or one or more loose
documents making up a single filing.

Examples:
  filingsense analyze 0000320193-25-000001.txt
  filingsense analyze --type 8-K --items "Other Events" press.htm
  filingsense analyze --type 4 --format json form4.xml`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		if err := checkFormat(format); err != nil {
			return err
		}

		event, err := loadEvent(cmd, args)
		if err != nil {
			return err
		}
		result := newAnalyzer().Analyze(event)
		return render(cmd.Context(), cmd.OutOrStdout(), format, event, result)
	},
}

func init() {
	analyzeCmd.Flags().String("type", "", "submission type of loose documents (4, 8-K, 10-K, ...)")
	analyzeCmd.Flags().String("accession", "", "accession number to report")
	analyzeCmd.Flags().String("cik", "", "filer CIK to report")
	analyzeCmd.Flags().StringSlice("items", nil, "8-K item labels, e.g. \"Results of Operations and Financial Condition\"")
	analyzeCmd.Flags().String("format", "", "output format: console, json or html (default from config)")
}

// loadEvent builds a FilingEvent from the command arguments. A single file
// that looks like a full submission is parsed as one; otherwise every file
// becomes a document, the first being the primary.
func loadEvent(cmd *cobra.Command, paths []string) (models.FilingEvent, error) {
	formType, _ := cmd.Flags().GetString("type")
	accession, _ := cmd.Flags().GetString("accession")
	cik, _ := cmd.Flags().GetString("cik")
	items, _ := cmd.Flags().GetStringSlice("items")

	if accession != "" {
		acc, err := utils.FormatAccession(accession)
		if err != nil {
			return models.FilingEvent{}, err
		}
		accession = acc
	}

	if len(paths) == 1 {
		raw, err := os.ReadFile(paths[0])
		if err != nil {
			return models.FilingEvent{}, err
		}
		if isSubmission(raw) {
			sub := sec.ParseSubmission(raw)
			if cik == "" {
				cik = sub.String("central-index-key")
			}
			event := sub.Event(utils.NormalizeCIK(cik), accession, nil, time.Now().UTC())
			if formType != "" {
				event.SubmissionType = formType
			}
			if len(items) > 0 {
				event.Metadata[models.MetaItemInformation] = items
			}
			log.Debug().Str("file", paths[0]).Int("documents", len(event.Documents)).Msg("parsed full submission")
			return event, nil
		}
	}

	if formType == "" {
		return models.FilingEvent{}, fmt.Errorf("--type is required when analyzing loose documents")
	}
	event := models.FilingEvent{
		Accession:      accession,
		CIK:            utils.NormalizeCIK(cik),
		SubmissionType: formType,
		ReceivedAt:     time.Now().UTC(),
	}
	for i, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return models.FilingEvent{}, err
		}
		doc := models.Document{
			Sequence: strconv.Itoa(i + 1),
			Filename: filepath.Base(path),
			Content:  content,
		}
		if i == 0 {
			doc.Type = formType
		}
		event.Documents = append(event.Documents, doc)
	}
	if len(items) > 0 {
		event.Metadata = map[string]any{models.MetaItemInformation: items}
	}
	return event, nil
}

func isSubmission(raw []byte) bool {
	head := raw
	if len(head) > 4096 {
		head = head[:4096]
	}
	return bytes.Contains(head, []byte("<SEC-DOCUMENT>")) ||
		bytes.Contains(head, []byte("<SEC-HEADER>")) ||
		bytes.Contains(head, []byte("<DOCUMENT>"))
}

// --- Fetch Command ---

var fetchCmd = &cobra.Command{
	Use:   "fetch [cik|ticker] [accession]",
	Short: "Download and analyze one submission from EDGAR",
	Long: `Download a full submission from the EDGAR archives and analyze it.

Examples:
  filingsense fetch 320193 0000320193-25-000073
  filingsense fetch AAPL 000032019325000073 --format json`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		if err := checkFormat(format); err != nil {
			return err
		}

		ctx := cmd.Context()
		client := newSECClient()

		var company *models.CompanyProfile
		cik := args[0]
		dir, err := client.Companies(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("company directory unavailable, continuing without tickers")
		} else {
			resolved, ok := dir.CIKFor(cik)
			if !ok {
				return fmt.Errorf("unknown ticker %q", cik)
			}
			cik = resolved
			if profile, ok := dir.Lookup(cik); ok {
				company = &profile
			}
		}

		event, err := client.Event(ctx, cik, args[1], company)
		if err != nil {
			return err
		}
		result := newAnalyzer().Analyze(event)
		return render(cmd.Context(), cmd.OutOrStdout(), format, event, result)
	},
}

func init() {
	fetchCmd.Flags().String("format", "", "output format: console, json or html (default from config)")
}

// --- Output ---

func checkFormat(format string) error {
	switch format {
	case "", "console", "json", "html":
		return nil
	}
	return fmt.Errorf("unknown format %q (want console, json or html)", format)
}

// render writes one result in the requested format, falling back to the
// configured report format.
func render(ctx context.Context, w io.Writer, format string, event models.FilingEvent, result models.AnalysisResult) error {
	if format == "" {
		format = cfg.Report.Format
	}
	switch strings.ToLower(format) {
	case "json":
		return report.NewJSON(w).Publish(ctx, event, result)
	case "html":
		page, err := report.RenderHTML(event, result)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, page)
		return err
	default:
		return report.NewConsole(w).Publish(ctx, event, result)
	}
}
