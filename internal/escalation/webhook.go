package escalation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	defaultTimeout = 5 * time.Second
	maxRetries     = 3
)

// WebhookConfig defines the crisis webhook destination.
type WebhookConfig struct {
	URL            string            `yaml:"url"`
	Headers        map[string]string `yaml:"headers"`
	TimeoutSeconds int               `yaml:"timeout_seconds"`
}

// Webhook is a Sentinel that forwards the crisis payload to an external
// endpoint, typically the UI host responsible for the pause overlay and
// emergency resources.
type Webhook struct {
	cfg    WebhookConfig
	client *http.Client
}

// NewWebhook creates a webhook Sentinel. Returns nil when no URL is
// configured (callers should nil-check and fall back).
func NewWebhook(cfg WebhookConfig) *Webhook {
	if cfg.URL == "" {
		return nil
	}
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &Webhook{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

// TriggerCrisisPipeline posts the payload with retry on 5xx. A 4xx
// response stops immediately: the endpoint saw the request and rejected it.
func (w *Webhook) TriggerCrisisPipeline(payload CrisisPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("escalation: marshal crisis payload: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * time.Second)
		}

		req, err := http.NewRequest(http.MethodPost, w.cfg.URL, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("escalation: create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range w.cfg.Headers {
			req.Header.Set(k, v)
		}

		resp, err := w.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return fmt.Errorf("escalation: webhook rejected: HTTP %d", resp.StatusCode)
		}
		lastErr = fmt.Errorf("webhook server error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("escalation: webhook failed after %d attempts: %w", maxRetries, lastErr)
}
