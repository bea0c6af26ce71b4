package templates

import (
	"context"
	"strings"
	"time"
)

const humanTime = "02 January 2006, 15:04 MST"

// Branding carries the company fields copied into every email.
type Branding struct {
	CompanyName    string
	CompanyAddress string
	AppName        string
	LogoURL        string
	SupportURL     string
	PrivacyURL     string
	RestoreURL     string
}

type Option func(*EmailData)

func WithIP(ip string) Option        { return func(d *EmailData) { d.IP = ip } }
func WithUserAgent(ua string) Option { return func(d *EmailData) { d.UserAgent = ua } }
func WithTime(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.TimeAt = utc
		d.Time = utc.Format(humanTime)
	}
}

func WithPurgeAt(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.PurgeAt = utc
		d.PurgeAtText = utc.Format(humanTime)
	}
}

func WithRetention(r time.Duration) Option {
	return func(d *EmailData) { d.RetentionDays = int(r / (24 * time.Hour)) }
}

// GeoLocation resolves ip to a display location, or "" when the resolver
// is missing or the lookup fails.
func GeoLocation(ctx context.Context, r GeoResolver, ip string) string {
	ip = strings.TrimSpace(ip)
	if r == nil || ip == "" {
		return ""
	}
	g, err := r.Lookup(ctx, ip)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(FormatGeo(g))
}

// NewLifecycleData builds the job payload for one lifecycle email type.
func NewLifecycleData(b Branding, typ, name, email string, opts ...Option) map[string]any {
	d := EmailData{
		Name:           name,
		Email:          email,
		RecipientEmail: email,
		Type:           typ,

		CompanyName:    b.CompanyName,
		CompanyAddress: b.CompanyAddress,
		AppName:        b.AppName,
		LogoURL:        b.LogoURL,
		SupportURL:     b.SupportURL,
		PrivacyURL:     b.PrivacyURL,
		RestoreURL:     b.RestoreURL,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return ToMap(d)
}
