package mailer

import (
	"context"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"
)

// Mailgun is the Sender used by the email worker.
type Mailgun struct {
	client mg.Mailgun
	sender string
}

func NewMailgun(domain, apiKey, sender string) *Mailgun {
	return &Mailgun{client: mg.NewMailgun(domain, apiKey), sender: sender}
}

// NewMailgunWithBase points the client at another API base, e.g. the EU region.
func NewMailgunWithBase(domain, apiKey, sender, apiBase string) *Mailgun {
	m := NewMailgun(domain, apiKey, sender)
	if apiBase != "" {
		m.client.SetAPIBase(apiBase)
	}
	return m
}

func (m *Mailgun) Send(ctx context.Context, to, subject, text, html string) error {
	msg := m.client.NewMessage(m.sender, subject, text, to)
	if html != "" {
		msg.SetHtml(html)
	}
	c, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, _, err := m.client.Send(c, msg)
	return err
}
