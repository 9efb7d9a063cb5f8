package models

import (
	"strings"
	"time"
)

// --- SEC Filings ---

// Submission type strings that drive the analysis branches.
const (
	FormOwnership       = "4"
	FormEventDisclosure = "8-K"
)

// SubmissionKind is the closed set of submission families the analyzer
// branches on. It is derived once from the declared submission type.
type SubmissionKind int

const (
	KindOther SubmissionKind = iota
	KindOwnership
	KindEventDisclosure
)

// ParseSubmissionKind maps a declared submission type ("4", "8-K", "10-K", ...)
// onto a SubmissionKind. Comparison is trimmed and case-insensitive.
func ParseSubmissionKind(submissionType string) SubmissionKind {
	switch strings.ToUpper(strings.TrimSpace(submissionType)) {
	case FormOwnership:
		return KindOwnership
	case FormEventDisclosure:
		return KindEventDisclosure
	default:
		return KindOther
	}
}

func (k SubmissionKind) String() string {
	switch k {
	case KindOwnership:
		return "ownership"
	case KindEventDisclosure:
		return "event-disclosure"
	default:
		return "other"
	}
}

// CompanyProfile is normalized metadata for a single filer.
type CompanyProfile struct {
	CIK       string   `json:"cik"`
	Name      string   `json:"name,omitempty"`
	Tickers   []string `json:"tickers,omitempty"`
	Exchanges []string `json:"exchanges,omitempty"`
}

// ListedOn reports whether the company trades on at least one of the given
// exchanges (case-insensitive).
func (c CompanyProfile) ListedOn(exchanges []string) bool {
	for _, have := range c.Exchanges {
		for _, want := range exchanges {
			if strings.EqualFold(strings.TrimSpace(have), strings.TrimSpace(want)) {
				return true
			}
		}
	}
	return false
}

// Document is a single document contained within an SEC submission.
type Document struct {
	Type        string `json:"type"`
	Sequence    string `json:"sequence"`
	Filename    string `json:"filename"`
	Description string `json:"description,omitempty"`
	Content     []byte `json:"content"`
}

// Text decodes the document as UTF-8, dropping invalid byte sequences.
func (d Document) Text() string {
	return strings.ToValidUTF8(string(d.Content), "")
}

// MetaItemInformation is the submission metadata key carrying 8-K item labels.
const MetaItemInformation = "item-information"

// FilingEvent is the normalized payload for one submission.
type FilingEvent struct {
	Accession      string          `json:"accession"`
	CIK            string          `json:"cik"`
	SubmissionType string          `json:"submission_type"`
	FilingDate     string          `json:"filing_date,omitempty"`
	ReceivedAt     time.Time       `json:"received_at"`
	Company        *CompanyProfile `json:"company,omitempty"`
	Documents      []Document      `json:"documents"`
	Metadata       map[string]any  `json:"metadata,omitempty"`
}

// Kind returns the submission family of the event.
func (e FilingEvent) Kind() SubmissionKind {
	return ParseSubmissionKind(e.SubmissionType)
}

// ItemInformation returns the 8-K item labels from the submission metadata.
// Both []string and JSON-decoded []any values are accepted.
func (e FilingEvent) ItemInformation() []string {
	switch v := e.Metadata[MetaItemInformation].(type) {
	case []string:
		return v
	case []any:
		items := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				items = append(items, s)
			}
		}
		return items
	case string:
		if v != "" {
			return []string{v}
		}
	}
	return nil
}

// NormalizedCIK returns the CIK with leading zeros removed.
func (e FilingEvent) NormalizedCIK() string {
	if trimmed := strings.TrimLeft(e.CIK, "0"); trimmed != "" {
		return trimmed
	}
	return e.CIK
}

// ArchiveBaseURL returns the EDGAR archive folder for the submission.
func (e FilingEvent) ArchiveBaseURL() string {
	return "https://www.sec.gov/Archives/edgar/data/" + e.NormalizedCIK() + "/" +
		strings.ReplaceAll(e.Accession, "-", "") + "/"
}

// TxtURL returns the canonical URL of the full submission text file.
func (e FilingEvent) TxtURL() string {
	return e.ArchiveBaseURL() + e.Accession + ".txt"
}

// --- Analysis output ---

// SentimentLabel is the coarse direction of a filing.
type SentimentLabel string

const (
	SentimentBullish SentimentLabel = "bullish"
	SentimentBearish SentimentLabel = "bearish"
	SentimentNeutral SentimentLabel = "neutral"
)

// AnalysisResult is the structured output produced for one FilingEvent.
// InsiderNotable is nil unless the filing is an ownership filing.
type AnalysisResult struct {
	Sentiment      SentimentLabel `json:"sentiment"`
	SentimentScore float64        `json:"sentiment_score"`
	Rationale      string         `json:"sentiment_rationale"`
	Highlights     []string       `json:"highlights"`
	InsiderNotable *bool          `json:"insider_notable,omitempty"`
	InsiderSummary string         `json:"insider_summary,omitempty"`
	PlainSummary   string         `json:"eli5_summary,omitempty"`
}
