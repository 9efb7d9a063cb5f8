package sentiment

import (
	"fmt"
	"strings"
)

// ------------------------------------------------------------------
// Weighted phrase lexicons. Scoring is a case-insensitive count of
// non-overlapping occurrences per phrase; phrases are scored
// independently, so "repurchase program" and "share repurchase" may
// both fire on the same words.
// ------------------------------------------------------------------

// Entry is one weighted lexicon phrase.
type Entry struct {
	Phrase string  `mapstructure:"phrase" json:"phrase"`
	Weight float64 `mapstructure:"weight" json:"weight"`
}

// Lexicon is an ordered list of weighted phrases. Match order follows
// declaration order.
type Lexicon []Entry

// Match is a phrase that occurred at least once in the scored text.
type Match struct {
	Phrase       string
	Contribution float64
	Count        int
}

var defaultPositive = Lexicon{
	{"share repurchase", 3.0},
	{"repurchase program", 2.5},
	{"dividend increase", 2.5},
	{"raised guidance", 2.5},
	{"higher guidance", 2.0},
	{"record revenue", 2.0},
	{"record sales", 2.0},
	{"approval", 1.5},
	{"strategic partnership", 1.5},
	{"acquisition", 1.5},
	{"contract award", 1.5},
	{"expansion", 1.0},
	{"launch", 1.0},
	{"upgraded", 1.0},
}

var defaultNegative = Lexicon{
	{"bankruptcy", 4.0},
	{"delinquent", 2.5},
	{"default", 2.5},
	{"going concern", 3.0},
	{"layoff", 2.0},
	{"restructuring", 1.5},
	{"impairment", 1.5},
	{"downgrade", 1.5},
	{"terminated", 1.5},
	{"termination", 1.5},
	{"withdraw", 1.5},
	{"restatement", 2.0},
	{"material weakness", 3.0},
	{"investigation", 2.0},
	{"loss", 1.0},
	{"decline", 1.0},
}

// DefaultPositive returns a copy of the built-in bullish lexicon.
func DefaultPositive() Lexicon { return defaultPositive.Clone() }

// DefaultNegative returns a copy of the built-in bearish lexicon.
func DefaultNegative() Lexicon { return defaultNegative.Clone() }

// Clone returns an independent copy of the lexicon.
func (l Lexicon) Clone() Lexicon {
	if l == nil {
		return nil
	}
	out := make(Lexicon, len(l))
	copy(out, l)
	return out
}

// Validate rejects empty phrases and non-positive weights.
func (l Lexicon) Validate() error {
	for i, e := range l {
		if strings.TrimSpace(e.Phrase) == "" {
			return fmt.Errorf("lexicon entry %d: empty phrase", i)
		}
		if e.Weight <= 0 {
			return fmt.Errorf("lexicon entry %d (%q): weight must be positive, got %v", i, e.Phrase, e.Weight)
		}
	}
	return nil
}

// Score returns the total weighted score of text and the phrases that
// matched, in lexicon order.
func (l Lexicon) Score(text string) (float64, []Match) {
	lower := strings.ToLower(text)
	total := 0.0
	var matches []Match
	for _, e := range l {
		phrase := strings.ToLower(e.Phrase)
		if phrase == "" {
			continue
		}
		if n := strings.Count(lower, phrase); n > 0 {
			contribution := e.Weight * float64(n)
			total += contribution
			matches = append(matches, Match{Phrase: e.Phrase, Contribution: contribution, Count: n})
		}
	}
	return total, matches
}

// Phrases returns the lexicon phrases in declaration order.
func (l Lexicon) Phrases() []string {
	out := make([]string, 0, len(l))
	for _, e := range l {
		out = append(out, e.Phrase)
	}
	return out
}
