package alerts

import (
	"context"
	"fmt"
	"html"
	"time"

	brevo "github.com/getbrevo/brevo-go/lib"
)

// BrevoChannel sends alert emails through the Brevo transactional API
type BrevoChannel struct {
	client       *brevo.APIClient
	from         string
	to           string
	dashboardURL string
}

// NewBrevoChannel creates an email channel authenticated with apiKey.
func NewBrevoChannel(apiKey, from, to, dashboardURL string) *BrevoChannel {
	cfg := brevo.NewConfiguration()
	cfg.AddDefaultHeader("api-key", apiKey)
	return &BrevoChannel{
		client:       brevo.NewAPIClient(cfg),
		from:         from,
		to:           to,
		dashboardURL: normalizeDashboardURL(dashboardURL),
	}
}

// Name implements Channel.
func (c *BrevoChannel) Name() string {
	return "email"
}

// Send implements Channel.
func (c *BrevoChannel) Send(ctx context.Context, n Notification) error {
	email := brevo.SendSmtpEmail{
		Sender: &brevo.SendSmtpEmailSender{
			Name:  "netpulse",
			Email: c.from,
		},
		To: []brevo.SendSmtpEmailTo{
			{Email: c.to},
		},
		Subject:     n.Subject,
		HtmlContent: CreateHTMLEmail(n, c.dashboardURL),
		TextContent: plainBody(n),
	}

	if _, _, err := c.client.TransactionalEmailsApi.SendTransacEmail(ctx, email); err != nil {
		return fmt.Errorf("send via brevo: %w", err)
	}
	return nil
}

func plainBody(n Notification) string {
	body := fmt.Sprintf("%s\n\nServer: %s\nLatency: %.2f ms\nTime: %s\n",
		n.Message, n.Identifier, n.LatencyMs, n.At.Format("2006-01-02 15:04:05"))
	if n.Duration > 0 {
		body += fmt.Sprintf("Alert duration: %s\n", n.Duration.Round(time.Second))
	}
	return body
}

// CreateHTMLEmail renders the alert email body
func CreateHTMLEmail(n Notification, dashboardURL string) string {
	color := "#eab308"
	status := "HIGH LATENCY"
	if n.Kind == KindLatencyNormal {
		color = "#22c55e"
		status = "LATENCY NORMAL"
	}
	if dashboardURL == "" {
		dashboardURL = "#"
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>%s</title></head>
<body style="margin:0; padding:24px; background-color:#0c121c; color:#e5e7eb; font-family:'Segoe UI', Arial, sans-serif;">
  <div style="max-width:620px; margin:0 auto; background-color:#111827; border:1px solid #1f2937; border-radius:16px; padding:28px;">
    <div style="font-size:18px; font-weight:700;">netpulse</div>
    <div style="color:#9ca3af; font-size:12px; margin-bottom:18px;">Network Latency Monitor</div>
    <div style="font-size:22px; font-weight:700; margin-bottom:10px;">%s</div>
    <div style="color:#9ca3af; font-size:13px; margin-bottom:18px;">%s</div>
    <table role="presentation" width="100%%" cellpadding="0" cellspacing="0" style="font-size:13px;">
      <tr><td style="color:#9ca3af;">Server</td><td style="text-align:right;">%s</td></tr>
      <tr><td style="color:#9ca3af;">Status</td><td style="text-align:right; color:%s; font-weight:700;">%s</td></tr>
      <tr><td style="color:#9ca3af;">Latency</td><td style="text-align:right;">%.2f ms</td></tr>
      <tr><td style="color:#9ca3af;">Time</td><td style="text-align:right;">%s</td></tr>
    </table>
    <div style="text-align:center; margin-top:22px;">
      <a href="%s" style="background-color:#22c55e; color:#0c121c; text-decoration:none; padding:12px 22px; border-radius:10px; font-weight:700;">View Dashboard</a>
    </div>
  </div>
</body>
</html>`,
		html.EscapeString(n.Subject),
		html.EscapeString(n.Subject),
		html.EscapeString(n.Message),
		html.EscapeString(n.Identifier),
		color, status,
		n.LatencyMs,
		n.At.Format("Monday, January 2, 2006 at 3:04 PM MST"),
		html.EscapeString(dashboardURL))
}
