package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/codex/internal/domain/entity"
	"github.com/oksasatya/codex/internal/domain/repository"
)

type PromptRepository struct {
	mu      sync.RWMutex
	prompts map[string]*entity.Prompt
}

func NewPromptRepository() *PromptRepository {
	return &PromptRepository{prompts: make(map[string]*entity.Prompt)}
}

func clonePrompt(p *entity.Prompt) *entity.Prompt {
	c := *p
	c.Tags = append([]string(nil), p.Tags...)
	return &c
}

func (r *PromptRepository) Create(_ context.Context, p *entity.Prompt) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	r.prompts[p.ID] = clonePrompt(p)
	return nil
}

func (r *PromptRepository) GetByID(_ context.Context, userID, id string) (*entity.Prompt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.prompts[id]
	if !ok || p.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return clonePrompt(p), nil
}

// owned returns the user's prompts newest first. mu must be held.
func (r *PromptRepository) owned(userID string) []*entity.Prompt {
	out := make([]*entity.Prompt, 0)
	for _, p := range r.prompts {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r *PromptRepository) ListByUser(_ context.Context, userID string, limit, offset int) ([]*entity.Prompt, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.owned(userID)
	total := len(all)
	if offset >= total {
		return []*entity.Prompt{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	page := make([]*entity.Prompt, 0, end-offset)
	for _, p := range all[offset:end] {
		page = append(page, clonePrompt(p))
	}
	return page, total, nil
}

func (r *PromptRepository) Search(_ context.Context, userID, query string, limit int) ([]*entity.Prompt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q := strings.ToLower(query)
	out := make([]*entity.Prompt, 0)
	for _, p := range r.owned(userID) {
		if strings.Contains(strings.ToLower(p.Title), q) ||
			strings.Contains(strings.ToLower(p.Prompt), q) ||
			strings.Contains(strings.ToLower(p.Response), q) {
			out = append(out, clonePrompt(p))
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *PromptRepository) Update(_ context.Context, p *entity.Prompt) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.prompts[p.ID]
	if !ok || cur.UserID != p.UserID {
		return repository.ErrNotFound
	}
	p.CreatedAt = cur.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	r.prompts[p.ID] = clonePrompt(p)
	return nil
}

func (r *PromptRepository) Delete(_ context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.prompts[id]
	if !ok || p.UserID != userID {
		return repository.ErrNotFound
	}
	delete(r.prompts, id)
	return nil
}

func (r *PromptRepository) DeleteByUser(_ context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, p := range r.prompts {
		if p.UserID == userID {
			delete(r.prompts, id)
			n++
		}
	}
	return n, nil
}

var _ repository.PromptRepository = (*PromptRepository)(nil)
