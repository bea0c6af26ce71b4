package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/codex/internal/domain/entity"
	"github.com/oksasatya/codex/internal/domain/repository"
)

const promptColumns = `id, user_id, title, prompt, response, model, tags, created_at, updated_at`

type PromptRepository struct {
	pool *pgxpool.Pool
}

func NewPromptRepository(pool *pgxpool.Pool) *PromptRepository {
	return &PromptRepository{pool: pool}
}

func scanPrompt(row pgx.Row) (*entity.Prompt, error) {
	p := &entity.Prompt{}
	if err := row.Scan(&p.ID, &p.UserID, &p.Title, &p.Prompt, &p.Response, &p.Model, &p.Tags,
		&p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func collectPrompts(rows pgx.Rows) ([]*entity.Prompt, error) {
	defer rows.Close()
	out := make([]*entity.Prompt, 0)
	for rows.Next() {
		p, err := scanPrompt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func (r *PromptRepository) Create(ctx context.Context, p *entity.Prompt) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO prompts (user_id, title, prompt, response, model, tags)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, p.UserID, p.Title, p.Prompt, p.Response, p.Model, tagsOrEmpty(p.Tags))
	if err := row.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return fmt.Errorf("insert prompt: %w", err)
	}
	return nil
}

func (r *PromptRepository) GetByID(ctx context.Context, userID, id string) (*entity.Prompt, error) {
	if !validID(id) || !validID(userID) {
		return nil, repository.ErrNotFound
	}
	return scanPrompt(r.pool.QueryRow(ctx,
		`SELECT `+promptColumns+` FROM prompts WHERE id = $1 AND user_id = $2`, id, userID))
}

func (r *PromptRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*entity.Prompt, int, error) {
	if !validID(userID) {
		return []*entity.Prompt{}, 0, nil
	}
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM prompts WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count prompts: %w", err)
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+promptColumns+`
		FROM prompts
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list prompts: %w", err)
	}
	out, err := collectPrompts(rows)
	return out, total, err
}

func (r *PromptRepository) Search(ctx context.Context, userID, query string, limit int) ([]*entity.Prompt, error) {
	if !validID(userID) {
		return []*entity.Prompt{}, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+promptColumns+`
		FROM prompts
		WHERE user_id = $1 AND (title ILIKE $2 OR prompt ILIKE $2 OR response ILIKE $2)
		ORDER BY created_at DESC
		LIMIT $3
	`, userID, "%"+query+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("search prompts: %w", err)
	}
	return collectPrompts(rows)
}

func (r *PromptRepository) Update(ctx context.Context, p *entity.Prompt) error {
	if !validID(p.ID) || !validID(p.UserID) {
		return repository.ErrNotFound
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE prompts
		SET title = $1, prompt = $2, response = $3, model = $4, tags = $5, updated_at = now()
		WHERE id = $6 AND user_id = $7
		RETURNING created_at, updated_at
	`, p.Title, p.Prompt, p.Response, p.Model, tagsOrEmpty(p.Tags), p.ID, p.UserID)
	if err := row.Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("update prompt: %w", err)
	}
	return nil
}

func (r *PromptRepository) Delete(ctx context.Context, userID, id string) error {
	if !validID(id) || !validID(userID) {
		return repository.ErrNotFound
	}
	res, err := r.pool.Exec(ctx, `DELETE FROM prompts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete prompt: %w", err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteByUser is usually a no-op after a purge because of ON DELETE CASCADE.
func (r *PromptRepository) DeleteByUser(ctx context.Context, userID string) (int, error) {
	if !validID(userID) {
		return 0, nil
	}
	res, err := r.pool.Exec(ctx, `DELETE FROM prompts WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete prompts of %s: %w", userID, err)
	}
	return int(res.RowsAffected()), nil
}

var _ repository.PromptRepository = (*PromptRepository)(nil)
