package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/codex/internal/domain/entity"
	repo "github.com/oksasatya/codex/internal/domain/repository"
	"github.com/oksasatya/codex/pkg/helpers"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PromptService manages a user's prompts. The search index, when set, is
// updated after every write; its failures are logged and never surface.
type PromptService struct {
	Repo   repo.PromptRepository
	Index  PromptIndexer
	Logger *logrus.Logger
}

func NewPromptService(r repo.PromptRepository, index PromptIndexer, logger *logrus.Logger) *PromptService {
	return &PromptService{Repo: r, Index: index, Logger: logger}
}

// PromptView is the JSON shape of a prompt in responses and exports.
type PromptView struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Prompt    string    `json:"prompt"`
	Response  string    `json:"response"`
	Model     string    `json:"model"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewPromptView(p *entity.Prompt) PromptView {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return PromptView{
		ID:        p.ID,
		Title:     p.Title,
		Prompt:    p.Prompt,
		Response:  p.Response,
		Model:     p.Model,
		Tags:      tags,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

type PromptInput struct {
	Title    string
	Prompt   string
	Response string
	Model    string
	Tags     []string
}

func (in PromptInput) apply(p *entity.Prompt) error {
	p.Title = strings.TrimSpace(in.Title)
	p.Prompt = in.Prompt
	p.Response = in.Response
	p.Model = strings.TrimSpace(in.Model)
	p.Tags = normalizeTags(in.Tags)
	if p.Title == "" || strings.TrimSpace(p.Prompt) == "" {
		return ErrInvalidInput
	}
	return nil
}

// normalizeTags lowercases, trims and de-duplicates, keeping first-seen order.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func notFound(err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return ErrPromptNotFound
	}
	return err
}

func (s *PromptService) Create(ctx context.Context, userID string, in PromptInput) (*entity.Prompt, error) {
	p := &entity.Prompt{UserID: userID}
	if err := in.apply(p); err != nil {
		return nil, err
	}
	if err := s.Repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.index(ctx, p)
	return p, nil
}

func (s *PromptService) Get(ctx context.Context, userID, id string) (*entity.Prompt, error) {
	p, err := s.Repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

type PromptPage struct {
	Items  []PromptView `json:"items"`
	Total  int          `json:"total"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

// ClampPage applies the default page size and the 1..MaxPageSize bounds.
func ClampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (s *PromptService) List(ctx context.Context, userID string, limit, offset int) (*PromptPage, error) {
	limit, offset = ClampPage(limit, offset)
	items, total, err := s.Repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return &PromptPage{Items: views(items), Total: total, Limit: limit, Offset: offset}, nil
}

func views(items []*entity.Prompt) []PromptView {
	out := make([]PromptView, 0, len(items))
	for _, p := range items {
		out = append(out, NewPromptView(p))
	}
	return out
}

// Search asks the index first and falls back to the store's substring
// match when there is no index or it fails.
func (s *PromptService) Search(ctx context.Context, userID, q string, limit int) ([]PromptView, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, ErrInvalidInput
	}
	limit, _ = ClampPage(limit, 0)

	if s.Index != nil {
		ids, err := s.Index.Search(ctx, userID, q, limit)
		if err == nil {
			out := make([]*entity.Prompt, 0, len(ids))
			for _, id := range ids {
				p, gErr := s.Repo.GetByID(ctx, userID, id)
				if errors.Is(gErr, repo.ErrNotFound) {
					// index lags behind a delete
					continue
				}
				if gErr != nil {
					return nil, gErr
				}
				out = append(out, p)
			}
			return views(out), nil
		}
		helpers.LogError(s.Logger, "prompt search index failed, using store", err, logrus.Fields{"user_id": userID})
	}

	items, err := s.Repo.Search(ctx, userID, q, limit)
	if err != nil {
		return nil, err
	}
	return views(items), nil
}

func (s *PromptService) Update(ctx context.Context, userID, id string, in PromptInput) (*entity.Prompt, error) {
	p, err := s.Repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, notFound(err)
	}
	if err := in.apply(p); err != nil {
		return nil, err
	}
	if err := s.Repo.Update(ctx, p); err != nil {
		return nil, notFound(err)
	}
	s.index(ctx, p)
	return p, nil
}

func (s *PromptService) Delete(ctx context.Context, userID, id string) error {
	if err := s.Repo.Delete(ctx, userID, id); err != nil {
		return notFound(err)
	}
	if s.Index != nil {
		if err := s.Index.Delete(ctx, id); err != nil {
			helpers.LogError(s.Logger, "prompt index delete failed", err, logrus.Fields{"prompt_id": id})
		}
	}
	return nil
}

func (s *PromptService) index(ctx context.Context, p *entity.Prompt) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Index(ctx, p); err != nil {
		helpers.LogError(s.Logger, "prompt index failed", err, logrus.Fields{"prompt_id": p.ID})
	}
}
