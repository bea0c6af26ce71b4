package repository

import (
	"context"

	"github.com/oksasatya/codex/internal/domain/entity"
)

// PromptRepository defines storage operations for prompts. Every lookup is
// scoped by owner so one user can never address another user's prompt.
type PromptRepository interface {
	Create(ctx context.Context, p *entity.Prompt) error
	GetByID(ctx context.Context, userID, id string) (*entity.Prompt, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*entity.Prompt, int, error)
	Search(ctx context.Context, userID, query string, limit int) ([]*entity.Prompt, error)
	Update(ctx context.Context, p *entity.Prompt) error
	Delete(ctx context.Context, userID, id string) error
	DeleteByUser(ctx context.Context, userID string) (int, error)
}
