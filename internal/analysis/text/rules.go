// Package text turns raw filing documents into normalized plain text and
// splits that text into sentences and "Item N" sections.
//
// Every regular expression the package relies on is exported as a named
// Rule so it can be tested on its own.
package text

import "regexp"

// Rule is a named regular expression used by the extraction heuristics.
type Rule struct {
	Name string
	Re   *regexp.Regexp
}

func newRule(name, pattern string) Rule {
	return Rule{Name: name, Re: regexp.MustCompile(pattern)}
}

// Go's RE2 has no backreferences, so script and style blocks are two
// alternatives rather than one <(script|style)>...</\1> pattern.
var (
	// ScriptStyleRule matches <script> and <style> blocks including content.
	ScriptStyleRule = newRule("script-style", `(?is)<script\b[^>]*>.*?</script\s*>|<style\b[^>]*>.*?</style\s*>`)

	// RawTextOpenerRule matches the opening tag of an element whose content
	// an HTML parser would keep as literal text, or swallow to the end of
	// the document when the element is never closed.
	RawTextOpenerRule = newRule("raw-text-opener", `(?i)<(?:script|style|textarea|title|xmp|iframe|noembed|noframes|plaintext)\b[^>]*>`)

	// TagRule matches any single markup tag.
	TagRule = newRule("tag", `<[^>]+>`)

	// SentenceBoundaryRule matches sentence punctuation, the whitespace run
	// after it, and the uppercase letter or digit opening the next sentence.
	SentenceBoundaryRule = newRule("sentence-boundary", `[.!?][\s\p{Z}]+[A-Z0-9]`)

	// ItemHeaderRule matches "Item 2" or "Item 2.02" section headers.
	ItemHeaderRule = newRule("item-header", `(?i)item[\s\p{Z}]+\d+(?:\.\d+)?`)
)
