package text

import "strings"

// Section is one "Item N[.N]" block of an event-disclosure filing.
type Section struct {
	Header string
	Body   string
}

// Sections finds every "Item N[.N]" header and pairs it with the text up to
// the next header. The header runs through the first period after the item
// number when that period comes before the next header; otherwise it is the
// item number itself. Pairs with an empty header or body are dropped.
func Sections(text string) []Section {
	matches := ItemHeaderRule.Re.FindAllStringIndex(text, -1)
	var out []Section
	for i, m := range matches {
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}

		headerEnd := m[1]
		if dot := strings.IndexByte(text[m[1]:], '.'); dot >= 0 && m[1]+dot <= end {
			headerEnd = m[1] + dot
		}
		// headerEnd is inclusive: the period, or the byte after the number.
		cut := min(headerEnd+1, end)

		header := Normalize(text[m[0]:cut])
		body := Normalize(text[cut:end])
		if header != "" && body != "" {
			out = append(out, Section{Header: header, Body: body})
		}
	}
	return out
}
