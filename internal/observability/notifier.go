package observability

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
	"unicode/utf8"

	"github.com/agentwf/pulse/pkg/models"
)

// maxFieldLen caps the rendered length of a notification field value.
const maxFieldLen = 100

// sendTimeout bounds the single outbound webhook call.
const sendTimeout = 10 * time.Second

// Notifier delivers a single human-readable message to an external
// channel, best effort: Send never returns an error and never retries.
type Notifier interface {
	Send(message string, level models.Level, title string, fields map[string]string, footer string) bool
	Configured() bool
}

// slackNotifier posts legacy attachment payloads to a Slack webhook.
type slackNotifier struct {
	webhookURL string
	channel    string
	username   string
	iconEmoji  string
	enabled    bool
	client     *http.Client
	out        io.Writer // local fallback / failure reporting
}

// NewSlackNotifier creates a Notifier from the notification config.
// Local fallback lines are written to out (os.Stderr if nil).
func NewSlackNotifier(cfg models.NotificationConfig, out io.Writer) Notifier {
	if out == nil {
		out = os.Stderr
	}
	username := cfg.Slack.Username
	if username == "" {
		username = "Agent Workflow"
	}
	icon := cfg.Slack.IconEmoji
	if icon == "" {
		icon = ":robot_face:"
	}
	return &slackNotifier{
		webhookURL: cfg.Slack.WebhookURL,
		channel:    cfg.Slack.Channel,
		username:   username,
		iconEmoji:  icon,
		enabled:    cfg.Enabled,
		client:     &http.Client{Timeout: sendTimeout},
		out:        out,
	}
}

// Configured reports whether the notifier has a destination and is enabled.
func (s *slackNotifier) Configured() bool {
	return s.webhookURL != "" && s.enabled
}

// Send posts one message to the webhook. Missing configuration is not an
// error: the message is echoed locally and false is returned. Delivery
// failures (network, non-2xx) are reported locally and return false.
func (s *slackNotifier) Send(message string, level models.Level, title string, fields map[string]string, footer string) bool {
	if !s.Configured() {
		fmt.Fprintf(s.out, "[notify] not configured - would send: %s\n", message)
		return false
	}

	payload := s.buildPayload(message, level, title, fields, footer)
	body, err := json.Marshal(payload)
	if err != nil {
		fmt.Fprintf(s.out, "[notify] building payload: %v\n", err)
		return false
	}

	resp, err := s.client.Post(s.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Fprintf(s.out, "[notify] delivery failed: %v\n", err)
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		fmt.Fprintf(s.out, "[notify] webhook returned status %d\n", resp.StatusCode)
		return false
	}
	return true
}

type slackPayload struct {
	Username    string            `json:"username"`
	IconEmoji   string            `json:"icon_emoji"`
	Channel     string            `json:"channel,omitempty"`
	Attachments []slackAttachment `json:"attachments"`
}

type slackAttachment struct {
	Color  string       `json:"color"`
	Title  string       `json:"title,omitempty"`
	Text   string       `json:"text"`
	Fields []slackField `json:"fields,omitempty"`
	Footer string       `json:"footer"`
	TS     int64        `json:"ts"`
}

type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// buildPayload assembles the attachment with the severity color, the
// truncated field table, and the footer context.
func (s *slackNotifier) buildPayload(message string, level models.Level, title string, fields map[string]string, footer string) slackPayload {
	if footer == "" {
		footer = "Agent Workflow Observability"
	}

	attachment := slackAttachment{
		Color:  level.Color(),
		Title:  title,
		Text:   message,
		Footer: footer,
		TS:     time.Now().Unix(),
	}

	for name, value := range fields {
		attachment.Fields = append(attachment.Fields, slackField{
			Title: name,
			Value: truncateField(value),
			Short: utf8.RuneCountInString(value) < 40,
		})
	}

	return slackPayload{
		Username:    s.username,
		IconEmoji:   s.iconEmoji,
		Channel:     s.channel,
		Attachments: []slackAttachment{attachment},
	}
}

// truncateField caps a field value at maxFieldLen characters. The cut
// is rune-based so multibyte values are never split mid-character.
func truncateField(value string) string {
	if utf8.RuneCountInString(value) <= maxFieldLen {
		return value
	}
	return string([]rune(value)[:maxFieldLen])
}
