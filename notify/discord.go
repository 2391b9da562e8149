package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/time/rate"
)

// webhookPayload is the Discord incoming-webhook body.
type webhookPayload struct {
	Content string `json:"content"`
}

// Webhook posts messages to a Discord incoming webhook
// (https://discord.com/api/webhooks/{id}/{token}).
type Webhook struct {
	url        string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewWebhook creates a webhook notifier. ratePerSec caps outbound posts so
// watch mode cannot trip Discord's rate limits; zero disables the cap.
func NewWebhook(url string, ratePerSec float64) *Webhook {
	w := &Webhook{
		url:        url,
		httpClient: &http.Client{},
	}
	if ratePerSec > 0 {
		w.limiter = rate.NewLimiter(rate.Limit(ratePerSec), 1)
	}
	return w
}

// Send posts content to the webhook. Any non-2xx response is an error; the
// message is not retried.
func (w *Webhook) Send(ctx context.Context, content string) error {
	if w.limiter != nil {
		if err := w.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	body, err := json.Marshal(webhookPayload{Content: content})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post to webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("discord webhook rate limited (HTTP 429)")
		}
		return fmt.Errorf("HTTP %d from discord webhook", resp.StatusCode)
	}
	return nil
}
