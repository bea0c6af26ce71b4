package application

import (
	"context"
	"time"

	"github.com/oksasatya/codex/internal/domain/entity"
)

// Publisher puts a JSON job on the lifecycle queue. *helpers.RabbitPublisher satisfies it.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// PromptIndexer is the search index kept next to the prompt store.
// *search.PromptIndex satisfies it.
type PromptIndexer interface {
	Index(ctx context.Context, p *entity.Prompt) error
	Delete(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID string) error
	Search(ctx context.Context, userID, q string, limit int) ([]string, error)
}

// ExportStore keeps account exports. *objectstore.GCSExports satisfies it.
type ExportStore interface {
	Upload(ctx context.Context, userID string, at time.Time, body []byte) (string, error)
	DeleteUser(ctx context.Context, userID string) error
}

// RequestMeta describes who triggered an action; it ends up in notification emails.
type RequestMeta struct {
	IP        string
	UserAgent string
}
