package application

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/codex/internal/domain/entity"
	"github.com/oksasatya/codex/internal/domain/lifecycle"
	"github.com/oksasatya/codex/pkg/mailer"
	mailtpl "github.com/oksasatya/codex/pkg/mailer/templates"
)

// Notifier turns lifecycle transitions into email jobs. A nil Notifier or
// one without a Publisher is silent; publish failures are only logged.
type Notifier struct {
	Pub       Publisher
	Branding  mailtpl.Branding
	Retention time.Duration
	Logger    *logrus.Logger
}

func (n *Notifier) DeletionScheduled(ctx context.Context, u *entity.User, name string, meta RequestMeta) {
	if n == nil || u.DeletedAt == nil {
		return
	}
	at := *u.DeletedAt
	n.send(ctx, u.Email, mailtpl.NewLifecycleData(n.Branding, mailtpl.DeletionScheduled, name, u.Email,
		mailtpl.WithPurgeAt(lifecycle.PurgeAt(at, n.Retention)),
		mailtpl.WithRetention(n.Retention),
		mailtpl.WithTime(at),
		mailtpl.WithIP(meta.IP),
		mailtpl.WithUserAgent(meta.UserAgent),
	))
}

func (n *Notifier) Restored(ctx context.Context, u *entity.User, at time.Time, meta RequestMeta) {
	if n == nil {
		return
	}
	n.send(ctx, u.Email, mailtpl.NewLifecycleData(n.Branding, mailtpl.AccountRestored, u.DisplayName, u.Email,
		mailtpl.WithTime(at),
		mailtpl.WithIP(meta.IP),
		mailtpl.WithUserAgent(meta.UserAgent),
	))
}

func (n *Notifier) Purged(ctx context.Context, u *entity.User, at time.Time) {
	if n == nil {
		return
	}
	n.send(ctx, u.Email, mailtpl.NewLifecycleData(n.Branding, mailtpl.AccountPurged, u.Username, u.Email,
		mailtpl.WithTime(at),
	))
}

func (n *Notifier) send(ctx context.Context, to string, data map[string]any) {
	if n.Pub == nil || to == "" {
		return
	}
	job := mailer.EmailJob{To: to, Template: mailtpl.Lifecycle, Data: data}
	if err := n.Pub.PublishJSON(ctx, job); err != nil && n.Logger != nil {
		n.Logger.WithError(err).WithField("type", data["Type"]).Warn("publish lifecycle email failed")
	}
}
