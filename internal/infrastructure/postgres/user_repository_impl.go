package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/codex/internal/domain/entity"
	"github.com/oksasatya/codex/internal/domain/lifecycle"
	"github.com/oksasatya/codex/internal/domain/repository"
)

const userColumns = `id, email, username, password_hash, display_name, avatar_url,
		marked_for_deletion, deleted_at, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	if err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.DisplayName, &u.AvatarURL,
		&u.MarkedForDeletion, &u.DeletedAt, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, username, password_hash, display_name, avatar_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, u.Email, u.Username, u.PasswordHash, u.DisplayName, u.AvatarURL)

	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return mapWriteErr(err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	if !validID(id) {
		return nil, repository.ErrNotFound
	}
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(username) = lower($1)`, username))
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	if !validID(u.ID) {
		return repository.ErrNotFound
	}
	u.UpdatedAt = time.Now().UTC()

	// the deletion columns are only written by MarkForDeletion and Restore
	res, err := r.pool.Exec(ctx, `
		UPDATE users
		SET email = $1, username = $2, password_hash = $3, display_name = $4, avatar_url = $5, updated_at = $6
		WHERE id = $7 AND NOT marked_for_deletion
	`, u.Email, u.Username, u.PasswordHash, u.DisplayName, u.AvatarURL, u.UpdatedAt, u.ID)
	if err != nil {
		return mapWriteErr(err)
	}

	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *UserRepository) MarkForDeletion(ctx context.Context, id string, now time.Time) (*entity.User, bool, error) {
	if !validID(id) {
		return nil, false, repository.ErrNotFound
	}
	u, err := scanUser(r.pool.QueryRow(ctx, `
		UPDATE users
		SET marked_for_deletion = true, deleted_at = $2, display_name = $3, avatar_url = '', updated_at = now()
		WHERE id = $1 AND NOT marked_for_deletion
		RETURNING `+userColumns, id, now, lifecycle.AnonymizedDisplayName))
	if err == nil {
		return u, true, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, fmt.Errorf("mark user %s: %w", id, err)
	}
	// already marked, or no such row
	u, err = r.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return u, false, nil
}

func (r *UserRepository) Restore(ctx context.Context, id string, cutoff time.Time) (*entity.User, bool, error) {
	if !validID(id) {
		return nil, false, repository.ErrNotFound
	}
	u, err := scanUser(r.pool.QueryRow(ctx, `
		UPDATE users
		SET marked_for_deletion = false, deleted_at = NULL, display_name = username, updated_at = now()
		WHERE id = $1 AND marked_for_deletion AND deleted_at > $2
		RETURNING `+userColumns, id, cutoff))
	if err == nil {
		return u, true, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, fmt.Errorf("restore user %s: %w", id, err)
	}
	u, err = r.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return u, false, nil
}

func (r *UserRepository) DeleteMarked(ctx context.Context, id string, cutoff time.Time) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	res, err := r.pool.Exec(ctx, `
		DELETE FROM users
		WHERE id = $1 AND marked_for_deletion AND deleted_at <= $2
	`, id, cutoff)
	if err != nil {
		return false, fmt.Errorf("delete user %s: %w", id, err)
	}
	return res.RowsAffected() == 1, nil
}

func (r *UserRepository) ListMarkedForDeletion(ctx context.Context, cutoff time.Time) ([]*entity.User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE marked_for_deletion AND deleted_at <= $1
		ORDER BY deleted_at
	`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list marked users: %w", err)
	}
	defer rows.Close()

	out := make([]*entity.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

var _ repository.UserRepository = (*UserRepository)(nil)
