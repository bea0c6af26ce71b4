package container

import (
	"github.com/oksasatya/codex/internal/application"
	"github.com/oksasatya/codex/internal/infrastructure/objectstore"
	"github.com/oksasatya/codex/internal/infrastructure/search"
	mailtpl "github.com/oksasatya/codex/pkg/mailer/templates"
)

// PromptIndex returns the Elasticsearch prompt index, or nil when search is off.
func PromptIndex() application.PromptIndexer {
	if esClient == nil || cfg == nil || !cfg.SearchEnabled {
		return nil
	}
	return search.NewPromptIndex(esClient, cfg.ESPromptsIndex)
}

// BuildUserService wires the account service from the registered singletons.
func BuildUserService() *application.UserService {
	svc := application.NewUserService(userRepo, promptRepo, GetJWT(), redisClient, logger)
	svc.Retention = cfg.AccountRetention
	svc.SessionTTL = cfg.SessionTTL
	if idx := PromptIndex(); idx != nil {
		svc.Index = idx
	}
	if gcsClient != nil && cfg.GCSExportBucket != "" {
		svc.Exports = objectstore.NewGCSExports(gcsClient, cfg.GCSExportBucket)
	}
	if rabbitPub != nil {
		svc.Notifier = &application.Notifier{
			Pub:       rabbitPub,
			Branding:  Branding(),
			Retention: cfg.AccountRetention,
			Logger:    logger,
		}
	}
	return svc
}

func BuildPromptService() *application.PromptService {
	svc := application.NewPromptService(promptRepo, nil, logger)
	if idx := PromptIndex(); idx != nil {
		svc.Index = idx
	}
	return svc
}

func Branding() mailtpl.Branding {
	return mailtpl.Branding{
		CompanyName:    cfg.CompanyName,
		CompanyAddress: cfg.CompanyAddress,
		AppName:        cfg.AppName,
		LogoURL:        cfg.LogoURL,
		SupportURL:     cfg.SupportURL,
		PrivacyURL:     cfg.PrivacyURL,
		RestoreURL:     cfg.RestoreURL,
	}
}
