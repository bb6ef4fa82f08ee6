package alerts

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// SignatureHeader carries the HMAC-SHA256 of the webhook body
const SignatureHeader = "X-Netpulse-Signature"

// WebhookChannel posts a JSON payload to a generic webhook URL with optional HMAC signing
type WebhookChannel struct {
	url    string
	secret string
	client *http.Client
}

// NewWebhookChannel creates a webhook channel.
func NewWebhookChannel(url, secret string) *WebhookChannel {
	return &WebhookChannel{
		url:    url,
		secret: secret,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Name implements Channel.
func (c *WebhookChannel) Name() string {
	return "webhook"
}

// Send implements Channel.
func (c *WebhookChannel) Send(ctx context.Context, n Notification) error {
	payload := map[string]interface{}{
		"event":      n.Kind,
		"identifier": n.Identifier,
		"subject":    n.Subject,
		"message":    n.Message,
		"latency_ms": n.LatencyMs,
		"timestamp":  n.At.UTC().Format(time.RFC3339),
	}
	if n.Duration > 0 {
		payload["duration_seconds"] = int(n.Duration.Seconds())
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "netpulse/1.0")

	if c.secret != "" {
		req.Header.Set(SignatureHeader, "sha256="+Sign(body, c.secret))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func normalizeDashboardURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return "http://" + raw
	}
	return raw
}
