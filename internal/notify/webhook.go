package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// WebhookBackend posts notifications as JSON to a configured URL.
type WebhookBackend struct {
	url     string
	enabled bool
	client  *http.Client
}

// NewWebhookBackend creates a webhook backend. It is unavailable when
// disabled or unconfigured.
func NewWebhookBackend(enabled bool, url string) *WebhookBackend {
	return &WebhookBackend{
		url:     url,
		enabled: enabled && url != "",
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (w *WebhookBackend) Name() string { return "webhook" }

func (w *WebhookBackend) Available() bool { return w.enabled }

func (w *WebhookBackend) Attempt(ctx context.Context, title, message string, d time.Duration) error {
	payload := map[string]interface{}{
		"title":     title,
		"message":   message,
		"timestamp": time.Now().Format(time.RFC3339),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "CryptoPulse/1.0")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
