package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const channelTimeout = 10 * time.Second

// httpChannel posts JSON documents to one endpoint.
type httpChannel struct {
	name   string
	url    string
	client *http.Client
}

func newHTTPChannel(name, url string) httpChannel {
	return httpChannel{name: name, url: url, client: &http.Client{Timeout: channelTimeout}}
}

func (c httpChannel) Name() string { return c.name }

func (c httpChannel) postJSON(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", c.name, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", c.name, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send %s alert: %w", c.name, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s returned status %d", c.name, resp.StatusCode)
	}
	return nil
}

// SlackAlerter posts a mrkdwn message to a Slack incoming webhook.
type SlackAlerter struct {
	httpChannel
}

func NewSlackAlerter(webhookURL string) *SlackAlerter {
	return &SlackAlerter{httpChannel: newHTTPChannel("slack", webhookURL)}
}

var slackEmoji = map[AlertType]string{
	AlertTypeIntegrityFault: ":rotating_light:",
	AlertTypeRecovery:       ":white_check_mark:",
	AlertTypeDBPool:         ":large_orange_diamond:",
}

type slackMessage struct {
	Text string `json:"text"`
}

func (s *SlackAlerter) Send(ctx context.Context, alert Alert) error {
	return s.postJSON(ctx, slackMessage{Text: slackText(alert)})
}

func slackText(alert Alert) string {
	emoji, ok := slackEmoji[alert.Type]
	if !ok {
		emoji = ":warning:"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s *[%s]* %s: %s\n%s", emoji, alert.Type, alert.Stream, alert.Title, alert.Message)
	if len(alert.Fields) > 0 {
		b.WriteString("\n")
		for _, k := range alert.sortedFieldKeys() {
			fmt.Fprintf(&b, "- *%s*: %s\n", k, alert.Fields[k])
		}
	}
	return b.String()
}

// WebhookAlerter posts the alert as a JSON document to a generic endpoint.
type WebhookAlerter struct {
	httpChannel
	now func() time.Time
}

func NewWebhookAlerter(url string) *WebhookAlerter {
	return &WebhookAlerter{httpChannel: newHTTPChannel("webhook", url), now: time.Now}
}

type webhookPayload struct {
	ID       string            `json:"id"`
	Type     AlertType         `json:"type"`
	Severity Severity          `json:"severity"`
	Stream   string            `json:"stream"`
	Subject  string            `json:"subject,omitempty"`
	Title    string            `json:"title"`
	Message  string            `json:"message"`
	Fields   map[string]string `json:"fields,omitempty"`
	Time     time.Time         `json:"time"`
}

func (w *WebhookAlerter) Send(ctx context.Context, alert Alert) error {
	return w.postJSON(ctx, webhookPayload{
		ID:       alert.ID,
		Type:     alert.Type,
		Severity: alert.Type.Severity(),
		Stream:   alert.Stream,
		Subject:  alert.Subject,
		Title:    alert.Title,
		Message:  alert.Message,
		Fields:   alert.Fields,
		Time:     w.now().UTC().Truncate(time.Second),
	})
}
