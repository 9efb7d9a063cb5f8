package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/seenimoa/filingsense/pkg/models"
)

// HTMLTemplate is a self-contained single-filing page.
const HTMLTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Form}} · {{.Company}}</title>
<style>
  :root {
    --text: #1a1a2e;
    --muted: #6b7280;
    --border: #e5e7eb;
    --accent: #2563eb;
    --green: #16a34a;
    --red: #dc2626;
    --section-bg: #f8fafc;
  }
  body {
    font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
    color: var(--text);
    line-height: 1.6;
    max-width: 900px;
    margin: 0 auto;
    padding: 20px;
  }
  h1 { font-size: 1.4rem; margin-bottom: 4px; }
  h2 { font-size: 1.1rem; margin: 20px 0 8px; padding-bottom: 4px; border-bottom: 2px solid var(--accent); }
  .muted { color: var(--muted); font-size: 0.85rem; }
  .form-badge {
    display: inline-block;
    background: var(--accent);
    color: white;
    padding: 2px 10px;
    border-radius: 4px;
    font-weight: 700;
    margin-right: 8px;
  }
  .label-box { padding: 12px 16px; border-radius: 8px; margin: 12px 0; background: var(--section-bg); }
  .label-box.bullish { border-left: 5px solid var(--green); }
  .label-box.bearish { border-left: 5px solid var(--red); }
  .label-box.neutral { border-left: 5px solid var(--muted); }
  .label-box .label { font-size: 1.3rem; font-weight: 700; }
  li { margin: 4px 0; }
</style>
</head>
<body>
<h1><span class="form-badge">{{.Form}}</span>{{.Company}}</h1>
<p class="muted">{{.Tickers}} · {{.Exchanges}}{{if .FilingDate}} · filed {{.FilingDate}}{{end}}</p>
<p class="muted"><a href="{{.TxtURL}}">{{.TxtURL}}</a></p>

<div class="label-box {{.LabelClass}}">
  <div class="label">{{.Label}} ({{.Score}})</div>
  {{if .Rationale}}<div class="muted">{{.Rationale}}</div>{{end}}
</div>

{{if .HasInsider}}
<h2>Insider activity</h2>
<p><strong>{{.InsiderStatus}}.</strong> {{.InsiderSummary}}</p>
{{end}}

{{if .PlainSummary}}
<h2>Summary</h2>
<p>{{.PlainSummary}}</p>
{{end}}

{{if .Highlights}}
<h2>Highlights</h2>
<ul>
{{range .Highlights}}  <li>{{.}}</li>
{{end}}</ul>
{{end}}
<p class="muted">Received {{.Timestamp}}</p>
</body>
</html>
`

var htmlTmpl = template.Must(template.New("filing").Parse(HTMLTemplate))

type htmlView struct {
	View
	LabelClass string
}

// RenderHTML renders a standalone HTML page for one filing.
func RenderHTML(event models.FilingEvent, result models.AnalysisResult) (string, error) {
	v := NewView(event, result)
	var buf bytes.Buffer
	if err := htmlTmpl.Execute(&buf, htmlView{View: v, LabelClass: strings.ToLower(v.Label)}); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}
	return buf.String(), nil
}
