package report

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/seenimoa/filingsense/pkg/models"
)

// Payload is the JSON document emitted per filing.
type Payload struct {
	Timestamp      string           `json:"timestamp"`
	Accession      string           `json:"accession"`
	CIK            string           `json:"cik"`
	SubmissionType string           `json:"submission_type"`
	FilingDate     *string          `json:"filing_date"`
	Company        PayloadCompany   `json:"company"`
	Sentiment      PayloadSentiment `json:"sentiment"`
	Insider        PayloadInsider   `json:"insider_activity"`
	PlainSummary   *string          `json:"eli5_summary"`
	TxtURL         string           `json:"sec_txt_url"`
}

type PayloadCompany struct {
	Name      *string  `json:"name"`
	Tickers   []string `json:"tickers"`
	Exchanges []string `json:"exchanges"`
}

type PayloadSentiment struct {
	Label      models.SentimentLabel `json:"label"`
	Score      float64               `json:"score"`
	Rationale  string                `json:"rationale"`
	Highlights []string              `json:"highlights"`
}

type PayloadInsider struct {
	IsNotable *bool   `json:"is_notable"`
	Summary   *string `json:"summary"`
}

// NewPayload builds the JSON payload. Absent optional values are emitted
// as null and absent lists as [].
func NewPayload(event models.FilingEvent, result models.AnalysisResult) Payload {
	p := Payload{
		Timestamp:      timestamp(event.ReceivedAt),
		Accession:      event.Accession,
		CIK:            event.CIK,
		SubmissionType: event.SubmissionType,
		FilingDate:     optional(event.FilingDate),
		Company:        PayloadCompany{Tickers: []string{}, Exchanges: []string{}},
		Sentiment: PayloadSentiment{
			Label:      result.Sentiment,
			Score:      result.SentimentScore,
			Rationale:  result.Rationale,
			Highlights: result.Highlights,
		},
		Insider: PayloadInsider{
			IsNotable: result.InsiderNotable,
			Summary:   optional(result.InsiderSummary),
		},
		PlainSummary: optional(result.PlainSummary),
		TxtURL:       event.TxtURL(),
	}
	if p.Sentiment.Highlights == nil {
		p.Sentiment.Highlights = []string{}
	}
	if c := event.Company; c != nil {
		p.Company.Name = optional(c.Name)
		if c.Tickers != nil {
			p.Company.Tickers = c.Tickers
		}
		if c.Exchanges != nil {
			p.Company.Exchanges = c.Exchanges
		}
	}
	return p
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// JSON writes one payload per line.
type JSON struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSON creates an NDJSON reporter writing to w.
func NewJSON(w io.Writer) *JSON {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSON{enc: enc}
}

func (j *JSON) Publish(_ context.Context, event models.FilingEvent, result models.AnalysisResult) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.enc.Encode(NewPayload(event, result))
}
