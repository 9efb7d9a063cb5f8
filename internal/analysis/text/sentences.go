package text

import "unicode"

// DefaultMinLetters is the letter count below which a sentence is treated
// as numeric or tabular noise.
const DefaultMinLetters = 20

// Sentences splits text after '.', '!' or '?' when whitespace and an
// uppercase letter or digit follow. Fragments are normalized and empty ones
// dropped. A positive limit caps the number of sentences returned.
//
// Abbreviations such as "Inc. Board" and decimals such as "1. 5" split
// where a human would not; the heuristic accepts that.
func Sentences(text string, limit int) []string {
	var out []string
	add := func(s string) bool {
		if s = Normalize(s); s != "" {
			out = append(out, s)
		}
		return limit > 0 && len(out) >= limit
	}

	start := 0
	for _, idx := range SentenceBoundaryRule.Re.FindAllStringIndex(text, -1) {
		if add(text[start : idx[0]+1]) {
			return out
		}
		// The next sentence opens on the matched letter or digit, which is
		// always a single ASCII byte.
		start = idx[1] - 1
	}
	add(text[start:])
	return out
}

// Informative keeps sentences that have at least minLetters letters and no
// more digits than letters.
func Informative(sentences []string, minLetters int) []string {
	var out []string
	for _, s := range sentences {
		letters, digits := 0, 0
		for _, r := range s {
			switch {
			case unicode.IsLetter(r):
				letters++
			case unicode.IsDigit(r):
				digits++
			}
		}
		if letters >= minLetters && letters >= digits {
			out = append(out, s)
		}
	}
	return out
}
