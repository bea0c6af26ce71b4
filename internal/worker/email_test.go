package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/codex/pkg/helpers"
	"github.com/oksasatya/codex/pkg/mailer"
	mailtpl "github.com/oksasatya/codex/pkg/mailer/templates"
)

type sent struct{ to, subject, text, html string }

type fakeSender struct {
	got []sent
	err error
}

func (f *fakeSender) Send(_ context.Context, to, subject, text, html string) error {
	if f.err != nil {
		return f.err
	}
	f.got = append(f.got, sent{to, subject, text, html})
	return nil
}

type fixedGeo struct{ g mailtpl.Geo }

func (f fixedGeo) Lookup(context.Context, string) (mailtpl.Geo, error) { return f.g, nil }

func lifecycleJob(t *testing.T, typ string) []byte {
	t.Helper()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	data := mailtpl.NewLifecycleData(mailtpl.Branding{AppName: "Codex", RestoreURL: "https://app/restore"}, typ, "Ana", "ana@example.com",
		mailtpl.WithTime(at),
		mailtpl.WithPurgeAt(at.Add(7*24*time.Hour)),
		mailtpl.WithRetention(7*24*time.Hour),
		mailtpl.WithIP("203.0.113.7"),
	)
	b, err := json.Marshal(mailer.EmailJob{To: "ana@example.com", Template: mailtpl.Lifecycle, Data: data})
	require.NoError(t, err)
	return b
}

func TestEmailProcessor_RendersLifecycleJob(t *testing.T) {
	s := &fakeSender{}
	p := &EmailProcessor{
		Sender:   s,
		Resolver: fixedGeo{mailtpl.Geo{City: "Jakarta", Country: "Indonesia", Timezone: "Asia/Jakarta"}},
		Logger:   helpers.NewDiscardLogger(),
	}

	assert.Equal(t, Ack, p.Handle(t.Context(), lifecycleJob(t, mailtpl.DeletionScheduled)))
	require.Len(t, s.got, 1)
	m := s.got[0]
	assert.Equal(t, "ana@example.com", m.to)
	assert.Equal(t, "Your account is scheduled for deletion", m.subject)
	assert.Contains(t, m.text, "08 March 2026, 19:00 WIB")
	assert.Contains(t, m.text, "Location: Jakarta, Indonesia")
	assert.Contains(t, m.html, "https://app/restore")
}

func TestEmailProcessor_Outcomes(t *testing.T) {
	p := &EmailProcessor{Sender: &fakeSender{}, Logger: helpers.NewDiscardLogger()}
	assert.Equal(t, Drop, p.Handle(t.Context(), []byte("{not json")))
	assert.Equal(t, Drop, p.Handle(t.Context(), []byte(`{"to":"","template":"lifecycle"}`)))
	assert.Equal(t, Drop, p.Handle(t.Context(), []byte(`{"to":"a@b.c","template":"missing"}`)))

	p.Sender = &fakeSender{err: errors.New("mailgun down")}
	assert.Equal(t, Retry, p.Handle(t.Context(), lifecycleJob(t, mailtpl.AccountPurged)))
}

func TestEmailProcessor_PlainJobKeepsSubject(t *testing.T) {
	s := &fakeSender{}
	p := &EmailProcessor{Sender: s, Logger: helpers.NewDiscardLogger()}
	body := []byte(`{"to":"a@b.c","subject":"hello","text":"plain"}`)
	assert.Equal(t, Ack, p.Handle(t.Context(), body))
	require.Len(t, s.got, 1)
	assert.Equal(t, sent{"a@b.c", "hello", "plain", ""}, s.got[0])
}
