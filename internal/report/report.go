// Package report delivers analysis results: human-readable console text,
// newline-delimited JSON, chat webhooks and a standalone HTML page.
package report

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/seenimoa/filingsense/pkg/models"
	"github.com/seenimoa/filingsense/pkg/utils"
)

// Reporter publishes one analyzed filing. Implementations must be safe for
// concurrent use; the monitor publishes from several workers.
type Reporter interface {
	Publish(ctx context.Context, event models.FilingEvent, result models.AnalysisResult) error
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(ctx context.Context, event models.FilingEvent, result models.AnalysisResult) error

func (f ReporterFunc) Publish(ctx context.Context, event models.FilingEvent, result models.AnalysisResult) error {
	return f(ctx, event, result)
}

// Multi publishes to every reporter in order. All reporters are tried;
// their errors are joined.
type Multi []Reporter

func (m Multi) Publish(ctx context.Context, event models.FilingEvent, result models.AnalysisResult) error {
	var errs []error
	for _, r := range m {
		if r == nil {
			continue
		}
		if err := r.Publish(ctx, event, result); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ════════════════════════════════════════════════════════════════════
// View model shared by the text and HTML renderers
// ════════════════════════════════════════════════════════════════════

const (
	unknownIssuer = "Unknown issuer"
	missingValue  = "—"
	// isoSeconds matches an ISO-8601 timestamp with seconds precision.
	isoSeconds = "2006-01-02T15:04:05-07:00"
)

// View is the flattened, display-ready form of an event and its result.
type View struct {
	Timestamp      string
	Form           string
	Company        string
	Tickers        string
	Exchanges      string
	Label          string
	Score          string
	FilingDate     string
	TxtURL         string
	Rationale      string
	HasInsider     bool
	InsiderStatus  string
	InsiderSummary string
	PlainSummary   string
	Highlights     []string
}

// NewView builds the display model.
func NewView(event models.FilingEvent, result models.AnalysisResult) View {
	v := View{
		Timestamp:    timestamp(event.ReceivedAt),
		Form:         event.SubmissionType,
		Company:      unknownIssuer,
		Tickers:      missingValue,
		Exchanges:    missingValue,
		Label:        strings.ToUpper(string(result.Sentiment)),
		Score:        utils.FormatScore(result.SentimentScore),
		FilingDate:   event.FilingDate,
		TxtURL:       event.TxtURL(),
		Rationale:    result.Rationale,
		PlainSummary: result.PlainSummary,
		Highlights:   result.Highlights,
	}
	if c := event.Company; c != nil {
		if c.Name != "" {
			v.Company = c.Name
		}
		if len(c.Tickers) > 0 {
			v.Tickers = strings.Join(c.Tickers, ", ")
		}
		if len(c.Exchanges) > 0 {
			v.Exchanges = strings.Join(c.Exchanges, ", ")
		}
	}
	if result.InsiderNotable != nil {
		v.HasInsider = true
		v.InsiderStatus = "Not notable"
		if *result.InsiderNotable {
			v.InsiderStatus = "Notable"
		}
		v.InsiderSummary = result.InsiderSummary
		if v.InsiderSummary == "" {
			v.InsiderSummary = "No details"
		}
	}
	return v
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(isoSeconds)
}
