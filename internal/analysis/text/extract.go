package text

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	nethtml "golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	"github.com/seenimoa/filingsense/pkg/models"
)

// Format is the markup family a document was sniffed as.
type Format string

const (
	FormatHTML  Format = "html"
	FormatXML   Format = "xml"
	FormatPlain Format = "plain"
)

// Extraction is the plain text recovered from a document. Fallback is set
// when the structured parser failed and the text came from tag stripping;
// Reason then carries the parser error.
type Extraction struct {
	Text     string
	Format   Format
	Fallback bool
	Reason   string
}

// Normalize collapses every whitespace run to a single space and trims.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// DetectFormat sniffs a document by filename extension first and by its
// leading bytes second.
func DetectFormat(filename string, content []byte) Format {
	name := strings.ToLower(filename)
	head := bytes.TrimLeft(content, " \t\r\n\f\v")
	if len(head) > 32 {
		head = head[:32]
	}
	head = bytes.ToLower(head)

	switch {
	case strings.HasSuffix(name, ".htm"), strings.HasSuffix(name, ".html"):
		return FormatHTML
	case bytes.HasPrefix(head, []byte("<html")), bytes.HasPrefix(head, []byte("<!doctype html")):
		return FormatHTML
	case strings.HasSuffix(name, ".xml"), bytes.HasPrefix(head, []byte("<?xml")):
		return FormatXML
	default:
		return FormatPlain
	}
}

// Extract produces normalized plain text for a document. It never fails;
// a document that cannot be parsed degrades to tag stripping.
func Extract(doc models.Document) Extraction {
	raw := doc.Text()
	format := DetectFormat(doc.Filename, doc.Content)

	switch format {
	case FormatHTML:
		out, err := HTMLToText(raw)
		if err != nil {
			return Extraction{Text: StripMarkup(raw, true), Format: format, Fallback: true, Reason: err.Error()}
		}
		return Extraction{Text: out, Format: format}
	case FormatXML:
		out, err := XMLToText(doc.Content)
		if err != nil {
			return Extraction{Text: StripMarkup(raw, false), Format: format, Fallback: true, Reason: err.Error()}
		}
		return Extraction{Text: out, Format: format}
	default:
		return Extraction{Text: Normalize(raw), Format: format}
	}
}

// HTMLToText drops closed script and style blocks, parses the rest and
// joins its text nodes. Leftover raw-text openers (an unclosed <script>,
// <title>, <textarea>) are removed before parsing so the markup after them
// is still treated as markup.
func HTMLToText(raw string) (string, error) {
	raw = ScriptStyleRule.Re.ReplaceAllString(raw, " ")
	raw = RawTextOpenerRule.Re.ReplaceAllString(raw, " ")
	root, err := nethtml.ParseWithOptions(strings.NewReader(raw), nethtml.ParseOptionEnableScripting(false))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc := goquery.NewDocumentFromNode(root)
	doc.Find("script, style").Remove()

	var parts []string
	var walk func(*nethtml.Node)
	walk = func(n *nethtml.Node) {
		if n.Type == nethtml.TextNode {
			parts = append(parts, n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range doc.Nodes {
		walk(n)
	}
	return Normalize(strings.Join(parts, " ")), nil
}

// XMLToText concatenates the trimmed character data of every element.
// Declared encodings other than UTF-8 are transcoded. A document that is
// not well formed, or has no root element, is an error.
func XMLToText(content []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(content))
	dec.CharsetReader = charset.NewReaderLabel

	var (
		parts []string
		depth int
		roots int
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				roots++
				if roots > 1 {
					return "", errors.New("parse xml: junk after document element")
				}
			}
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			frag := strings.TrimSpace(string(t))
			if frag == "" {
				continue
			}
			if depth == 0 {
				return "", errors.New("parse xml: junk after document element")
			}
			parts = append(parts, frag)
		}
	}
	if roots == 0 {
		return "", errors.New("parse xml: no element found")
	}
	return Normalize(strings.Join(parts, " ")), nil
}

// StripMarkup is the pattern-based fallback: optionally drop script and
// style blocks, replace every tag with a space, unescape entities when
// dropping scripts (HTML mode) and normalize.
func StripMarkup(raw string, htmlMode bool) string {
	if htmlMode {
		raw = ScriptStyleRule.Re.ReplaceAllString(raw, " ")
	}
	raw = TagRule.Re.ReplaceAllString(raw, " ")
	if htmlMode {
		raw = html.UnescapeString(raw)
	}
	return Normalize(raw)
}
