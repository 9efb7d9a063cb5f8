package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"text/template"

	"github.com/seenimoa/filingsense/pkg/models"
)

// ConsoleTemplate renders one filing as indented plain text followed by a
// blank line.
const ConsoleTemplate = `[{{.Timestamp}}] {{.Form}} filing from {{.Company}} ({{.Tickers}}) on {{.Exchanges}} -> {{.Label}} ({{.Score}})
{{- if .FilingDate}}
  Filing date: {{.FilingDate}}
{{- end}}
  SEC text: {{.TxtURL}}
{{- if .Rationale}}
  Sentiment basis: {{.Rationale}}
{{- end}}
{{- if .HasInsider}}
  Insider activity ({{.InsiderStatus}}): {{.InsiderSummary}}
{{- end}}
{{- if .PlainSummary}}
  ELI5 summary: {{.PlainSummary}}
{{- end}}
{{- if .Highlights}}
  Highlights:
{{- range .Highlights}}
    - {{.}}
{{- end}}
{{- end}}

`

var consoleTmpl = template.Must(template.New("console").Parse(ConsoleTemplate))

// RenderText renders the console form of one filing.
func RenderText(event models.FilingEvent, result models.AnalysisResult) (string, error) {
	var buf bytes.Buffer
	if err := consoleTmpl.Execute(&buf, NewView(event, result)); err != nil {
		return "", fmt.Errorf("render console report: %w", err)
	}
	return buf.String(), nil
}

// Console writes human-readable reports to a stream.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsole creates a console reporter writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) Publish(_ context.Context, event models.FilingEvent, result models.AnalysisResult) error {
	out, err := RenderText(event, result)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err = io.WriteString(c.w, out)
	return err
}
