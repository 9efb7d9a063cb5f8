// Package filing assembles the full analysis of one SEC submission:
// primary document selection, text extraction, sentiment, the Form 4
// insider verdict and the 8-K plain-language summary.
package filing

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/seenimoa/filingsense/internal/analysis/insider"
	"github.com/seenimoa/filingsense/internal/analysis/sentiment"
	"github.com/seenimoa/filingsense/internal/analysis/text"
	"github.com/seenimoa/filingsense/pkg/models"
)

// Analyzer turns FilingEvents into AnalysisResults. It holds only read-only
// configuration and is safe for concurrent use.
type Analyzer struct {
	positive sentiment.Lexicon
	negative sentiment.Lexicon
	phrases  []string
	log      zerolog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLexicons replaces the default lexicons. A nil lexicon keeps the
// corresponding default.
func WithLexicons(positive, negative sentiment.Lexicon) Option {
	return func(a *Analyzer) {
		if positive != nil {
			a.positive = positive.Clone()
		}
		if negative != nil {
			a.negative = negative.Clone()
		}
	}
}

// WithLogger sets the logger used for degraded-input diagnostics.
func WithLogger(log zerolog.Logger) Option {
	return func(a *Analyzer) { a.log = log }
}

// New creates an Analyzer with the default lexicons and a no-op logger.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		positive: sentiment.DefaultPositive(),
		negative: sentiment.DefaultNegative(),
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.phrases = append(a.positive.Phrases(), a.negative.Phrases()...)
	return a
}

// Analyze runs every heuristic over the event's primary document. It never
// fails: missing or malformed documents produce a neutral result.
func (a *Analyzer) Analyze(event models.FilingEvent) models.AnalysisResult {
	kind := event.Kind()
	log := a.log.With().Str("accession", event.Accession).Str("form", event.SubmissionType).Logger()

	doc, ok := PrimaryDocument(event)
	var plain string
	if ok {
		ext := text.Extract(doc)
		if ext.Fallback {
			log.Debug().Str("file", doc.Filename).Str("reason", ext.Reason).Msg("structured parse failed, stripped markup instead")
		}
		plain = ext.Text
	}

	cls := sentiment.Classify(plain, kind, a.positive, a.negative)
	result := models.AnalysisResult{
		Sentiment:      cls.Label,
		SentimentScore: cls.Score,
		Rationale:      cls.Rationale(),
		Highlights:     sentiment.Highlights(plain, a.phrases, sentiment.HighlightLimit),
	}
	if !ok {
		return result
	}

	switch kind {
	case models.KindOwnership:
		v := insider.Interpret(doc.Content)
		if v.Err != nil {
			log.Warn().Err(v.Err).Str("file", doc.Filename).Msg("unable to parse Form 4 XML")
		}
		result.InsiderNotable = v.Notable
		result.InsiderSummary = v.Summary
	case models.KindEventDisclosure:
		result.PlainSummary = Summarize(event, plain)
	}
	return result
}

// PrimaryDocument picks the document that best represents the filing: the
// first whose type matches the submission type, else the one with
// sequence "1", else the first document.
func PrimaryDocument(event models.FilingEvent) (models.Document, bool) {
	if len(event.Documents) == 0 {
		return models.Document{}, false
	}

	want := strings.ToUpper(strings.TrimSpace(event.SubmissionType))
	for _, d := range event.Documents {
		if strings.ToUpper(strings.TrimSpace(d.Type)) == want {
			return d, true
		}
	}
	for _, d := range event.Documents {
		if d.Sequence == "1" {
			return d, true
		}
	}
	return event.Documents[0], true
}
