package mailer

import "context"

// EmailJob is the JSON payload put on the RabbitMQ lifecycle queue.
// Template "lifecycle" renders from Data; Text/HTML are used verbatim otherwise.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

// Sender delivers one rendered message.
type Sender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}
