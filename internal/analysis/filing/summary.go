package filing

import (
	"strings"

	"github.com/seenimoa/filingsense/internal/analysis/text"
	"github.com/seenimoa/filingsense/pkg/models"
)

// SummaryFallback is used when neither sections nor sentences yield text.
const SummaryFallback = "Unable to distill the 8-K content into a summary."

const (
	maxItemLabels       = 4
	maxSections         = 3
	sectionCandidates   = 5
	sentencesPerSection = 2
	fallbackCandidates  = 6
	fallbackSentences   = 3
)

// Summarize builds the plain-language summary of an 8-K from its item
// labels and the "Item N" sections of its primary document text.
func Summarize(event models.FilingEvent, plain string) string {
	var parts []string

	if items := event.ItemInformation(); len(items) > 0 {
		parts = append(parts, "This 8-K covers: "+strings.Join(items[:min(len(items), maxItemLabels)], ", ")+".")
	}

	if sections := text.Sections(plain); len(sections) > 0 {
		for _, sec := range sections[:min(len(sections), maxSections)] {
			sentences := text.Informative(text.Sentences(sec.Body, sectionCandidates), text.DefaultMinLetters)
			if len(sentences) == 0 {
				continue
			}
			parts = append(parts, sec.Header+": "+strings.Join(sentences[:min(len(sentences), sentencesPerSection)], " "))
		}
	} else {
		sentences := text.Informative(text.Sentences(plain, fallbackCandidates), text.DefaultMinLetters)
		if len(sentences) > 0 {
			parts = append(parts, strings.Join(sentences[:min(len(sentences), fallbackSentences)], " "))
		}
	}

	if len(parts) == 0 {
		return SummaryFallback
	}
	return strings.Join(parts, " ")
}
