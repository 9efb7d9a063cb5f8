package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/seenimoa/filingsense/pkg/models"
)

// WebhookContentLimit is the longest message body chat webhooks accept.
const WebhookContentLimit = 2000

// Webhook posts each report as a chat message ({"content": "..."}).
type Webhook struct {
	url    string
	client *http.Client
}

// NewWebhook creates a webhook reporter. A nil client uses a 20s timeout.
func NewWebhook(url string, client *http.Client) *Webhook {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Webhook{url: url, client: client}
}

func (w *Webhook) Publish(ctx context.Context, event models.FilingEvent, result models.AnalysisResult) error {
	text, err := RenderText(event, result)
	if err != nil {
		return err
	}
	body, err := json.Marshal(map[string]string{"content": Truncate(strings.TrimSpace(text), WebhookContentLimit)})
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("post webhook: unexpected status %s", resp.Status)
	}
	return nil
}

// Truncate shortens s to at most limit runes, ending with an ellipsis when
// anything was cut.
func Truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	if limit <= 1 {
		return string(runes[:max(limit, 0)])
	}
	return string(runes[:limit-1]) + "…"
}
