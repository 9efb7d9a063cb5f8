package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/filingsense/pkg/models"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "a b c", Normalize("  a\t\tb\n\n c  "))
	assert.Equal(t, "a b", Normalize("a  b"))
	assert.Equal(t, "", Normalize(" \n\t "))
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  string
		want     Format
	}{
		{"htm extension", "d123.htm", "plain", FormatHTML},
		{"html extension upper", "D123.HTML", "plain", FormatHTML},
		{"html sniff", "doc.txt", "\n  <html><body>x</body></html>", FormatHTML},
		{"doctype sniff", "doc.txt", "<!DOCTYPE html><html></html>", FormatHTML},
		{"xml extension", "form4.xml", "<a/>", FormatXML},
		{"xml sniff", "", "  <?xml version=\"1.0\"?><a/>", FormatXML},
		{"html wins over xml", "x.htm", "<?xml version=\"1.0\"?>", FormatHTML},
		{"plain", "ex99.txt", "Hello <b>there</b>", FormatPlain},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectFormat(tt.filename, []byte(tt.content)))
		})
	}
}

func TestExtractHTMLDropsScripts(t *testing.T) {
	doc := models.Document{
		Filename: "ex99.htm",
		Content:  []byte(`<html><body><script>alert(1)</script><p>Record revenue achieved.</p></body></html>`),
	}
	got := Extract(doc)
	assert.Equal(t, FormatHTML, got.Format)
	assert.False(t, got.Fallback)
	assert.Contains(t, got.Text, "Record revenue achieved.")
	assert.NotContains(t, got.Text, "alert")
}

func TestHTMLToText(t *testing.T) {
	out, err := HTMLToText(`<style>.x{}</style><div>Tom &amp; Jerry</div><p>Second   line</p>`)
	require.NoError(t, err)
	assert.Equal(t, "Tom & Jerry Second line", out)
}

func TestHTMLToTextKeepsTextAfterUnclosedScript(t *testing.T) {
	got := Extract(models.Document{
		Filename: "a.htm",
		Content:  []byte(`<p>Record revenue.</p><script>var a; <p>Later text stays in original</p>`),
	})
	assert.False(t, got.Fallback)
	assert.Equal(t, "Record revenue. var a; Later text stays in original", got.Text)
}

func TestHTMLToTextStripsTagsInsideRawTextElements(t *testing.T) {
	out, err := HTMLToText(`<textarea><b>x</b></textarea>`)
	require.NoError(t, err)
	assert.Equal(t, "x", out)

	out, err = HTMLToText(`<html><head><title>Annual <i>Report</i></title></head><body><p>Body.</p></body></html>`)
	require.NoError(t, err)
	assert.Equal(t, "Annual Report Body.", out)
}

func TestExtractXML(t *testing.T) {
	doc := models.Document{
		Filename: "primary_doc.xml",
		Content: []byte(`<?xml version="1.0"?>
<ownershipDocument>
  <issuer><issuerName>  Acme Corp </issuerName></issuer>
  <remarks>Open market purchase.</remarks>
</ownershipDocument>`),
	}
	got := Extract(doc)
	assert.Equal(t, FormatXML, got.Format)
	assert.False(t, got.Fallback)
	assert.Equal(t, "Acme Corp Open market purchase.", got.Text)
}

func TestExtractXMLFallsBackOnMalformedInput(t *testing.T) {
	doc := models.Document{
		Filename: "broken.xml",
		Content:  []byte(`<root><a>first</a><b>second</root>`),
	}
	got := Extract(doc)
	assert.True(t, got.Fallback)
	assert.NotEmpty(t, got.Reason)
	assert.Equal(t, "first second", got.Text)
}

func TestXMLToTextRejectsMultipleRoots(t *testing.T) {
	_, err := XMLToText([]byte(`<a>x</a><b>y</b>`))
	assert.Error(t, err)

	_, err = XMLToText([]byte(`<?xml version="1.0"?>`))
	assert.Error(t, err)
}

func TestXMLToTextRejectsTrailingText(t *testing.T) {
	_, err := XMLToText([]byte("<a>x</a> trailing junk"))
	assert.Error(t, err)

	out, err := XMLToText([]byte("<a>x</a>\n  \n"))
	require.NoError(t, err)
	assert.Equal(t, "x", out)

	got := Extract(models.Document{Filename: "doc.xml", Content: []byte("<a><b>first</b></a> trailing junk")})
	assert.True(t, got.Fallback)
	assert.Equal(t, "first trailing junk", got.Text)
}

func TestXMLToTextLatin1(t *testing.T) {
	content := append([]byte(`<?xml version="1.0" encoding="ISO-8859-1"?><a>Caf`), 0xe9, '<', '/', 'a', '>')
	out, err := XMLToText(content)
	require.NoError(t, err)
	assert.Equal(t, "Café", out)
}

func TestExtractPlain(t *testing.T) {
	got := Extract(models.Document{Filename: "ex.txt", Content: []byte("  Some\n\nplain   text ")})
	assert.Equal(t, FormatPlain, got.Format)
	assert.Equal(t, "Some plain text", got.Text)
}

func TestExtractEmpty(t *testing.T) {
	got := Extract(models.Document{})
	assert.Equal(t, "", got.Text)
}

func TestStripMarkup(t *testing.T) {
	assert.Equal(t, "a & b", StripMarkup(`<script>x</script><i>a</i> &amp; b`, true))
	assert.Equal(t, "x a &amp; b", StripMarkup(`<script>x</script><i>a</i> &amp; b`, false))
}
