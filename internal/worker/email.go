package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/codex/pkg/helpers"
	"github.com/oksasatya/codex/pkg/mailer"
	mailtpl "github.com/oksasatya/codex/pkg/mailer/templates"
)

// Outcome tells the consumer what to do with a delivery.
type Outcome int

const (
	Ack Outcome = iota
	Drop
	Retry
)

// EmailProcessor renders lifecycle jobs and hands them to a Sender.
type EmailProcessor struct {
	Sender   mailer.Sender
	Resolver mailtpl.GeoResolver
	Logger   *logrus.Logger
	Timeout  time.Duration
}

// Handle processes one queue message. Malformed or unrenderable jobs are
// dropped; send failures are retried.
func (p *EmailProcessor) Handle(ctx context.Context, body []byte) Outcome {
	var job mailer.EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		helpers.LogError(p.Logger, "bad email job", err, nil)
		return Drop
	}
	if strings.TrimSpace(job.To) == "" {
		helpers.LogError(p.Logger, "email job without recipient", fmt.Errorf("empty to"), nil)
		return Drop
	}

	helpers.EnsureRecipientAndEmail(&job)
	subject, text, html := job.Subject, job.Text, job.HTML

	if job.Template != "" {
		helpers.LocalizeTimesIfPossible(ctx, p.Resolver, job.Data)
		p.fillLocation(ctx, job.Data)

		t, h, err := mailtpl.Render(job.Template, job.Data)
		if err != nil {
			helpers.LogError(p.Logger, "render email failed", err, logrus.Fields{"template": job.Template})
			return Drop
		}
		text, html = t, h
		if subject == "" && strings.EqualFold(job.Template, mailtpl.Lifecycle) {
			subject = helpers.SubjectForLifecycle(job.Data)
		}
	}

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	c, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := p.Sender.Send(c, job.To, subject, text, html); err != nil {
		helpers.LogError(p.Logger, "send email failed", err, logrus.Fields{"template": job.Template})
		return Retry
	}
	return Ack
}

func (p *EmailProcessor) fillLocation(ctx context.Context, data map[string]any) {
	if p.Resolver == nil {
		return
	}
	if loc, ok := data["Location"]; ok && fmt.Sprintf("%v", loc) != "" {
		return
	}
	ip, ok := data["IP"]
	if !ok || fmt.Sprintf("%v", ip) == "" {
		return
	}
	if loc := mailtpl.GeoLocation(ctx, p.Resolver, fmt.Sprintf("%v", ip)); loc != "" {
		data["Location"] = loc
	}
}

// Run consumes deliveries until ctx is done or the channel closes.
func (p *EmailProcessor) Run(ctx context.Context, msgs <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			switch p.Handle(ctx, msg.Body) {
			case Ack:
				_ = msg.Ack(false)
			case Drop:
				_ = msg.Nack(false, false)
			case Retry:
				_ = msg.Nack(false, true)
			}
		}
	}
}
