// Package sentiment classifies filing text as bullish, bearish or neutral
// using weighted phrase lexicons.
package sentiment

import (
	"fmt"
	"strings"

	"github.com/seenimoa/filingsense/internal/analysis/text"
	"github.com/seenimoa/filingsense/pkg/models"
)

// NoSignalRationale is reported when neither lexicon matched.
const NoSignalRationale = "No clear bullish/bearish keywords detected; treating as informational."

// HighlightLimit is the number of highlighted sentences kept per filing.
const HighlightLimit = 3

// Threshold returns the absolute score a filing must reach to leave
// neutral. Event disclosures are short and concentrated, so they use a
// lower bar.
func Threshold(kind models.SubmissionKind) float64 {
	if kind == models.KindEventDisclosure {
		return 1.5
	}
	return 2.0
}

// Classification is the outcome of scoring one text.
type Classification struct {
	Label    models.SentimentLabel
	Score    float64
	Positive []Match
	Negative []Match
}

// Classify scores text against both lexicons and labels it using the
// threshold for kind. Both bounds are inclusive.
func Classify(txt string, kind models.SubmissionKind, pos, neg Lexicon) Classification {
	posTotal, posMatches := pos.Score(txt)
	negTotal, negMatches := neg.Score(txt)
	score := posTotal - negTotal

	label := models.SentimentNeutral
	thr := Threshold(kind)
	switch {
	case score >= thr:
		label = models.SentimentBullish
	case score <= -thr:
		label = models.SentimentBearish
	}

	return Classification{Label: label, Score: score, Positive: posMatches, Negative: negMatches}
}

// Rationale explains the score, e.g.
// "Positive: share repurchase×2 (+6) | Negative: bankruptcy×1 (+4)".
func (c Classification) Rationale() string {
	var parts []string
	if len(c.Positive) > 0 {
		parts = append(parts, "Positive: "+formatMatches(c.Positive))
	}
	if len(c.Negative) > 0 {
		parts = append(parts, "Negative: "+formatMatches(c.Negative))
	}
	if len(parts) == 0 {
		return NoSignalRationale
	}
	return strings.Join(parts, " | ")
}

func formatMatches(matches []Match) string {
	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		parts = append(parts, fmt.Sprintf("%s×%d (+%s)", m.Phrase, m.Count, formatContribution(m.Contribution)))
	}
	return strings.Join(parts, "; ")
}

// formatContribution renders one decimal with trailing zeros dropped:
// 6.0 → "6", 1.5 → "1.5".
func formatContribution(v float64) string {
	s := fmt.Sprintf("%.1f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}

// Highlights returns up to limit informative sentences of txt, in order,
// that contain any of the phrases (case-insensitive).
func Highlights(txt string, phrases []string, limit int) []string {
	needles := make([]string, 0, len(phrases))
	for _, p := range phrases {
		if p = strings.ToLower(p); p != "" {
			needles = append(needles, p)
		}
	}

	var out []string
	for _, s := range text.Informative(text.Sentences(txt, 0), text.DefaultMinLetters) {
		if len(out) >= limit {
			break
		}
		lower := strings.ToLower(s)
		for _, n := range needles {
			if strings.Contains(lower, n) {
				out = append(out, s)
				break
			}
		}
	}
	return out
}
