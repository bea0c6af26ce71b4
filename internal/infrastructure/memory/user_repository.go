// Package memory implements the domain repositories on mutex-guarded maps.
// It backs STORE_DRIVER=memory and the service and handler tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/codex/internal/domain/entity"
	"github.com/oksasatya/codex/internal/domain/lifecycle"
	"github.com/oksasatya/codex/internal/domain/repository"
)

type UserRepository struct {
	mu    sync.RWMutex
	users map[string]*entity.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]*entity.User)}
}

func cloneUser(u *entity.User) *entity.User {
	c := *u
	if u.DeletedAt != nil {
		at := *u.DeletedAt
		c.DeletedAt = &at
	}
	return &c
}

// conflicts must be called with mu held.
func (r *UserRepository) conflicts(u *entity.User) bool {
	for id, other := range r.users {
		if id == u.ID {
			continue
		}
		if strings.EqualFold(other.Email, u.Email) || strings.EqualFold(other.Username, u.Username) {
			return true
		}
	}
	return false
}

func (r *UserRepository) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conflicts(u) {
		return repository.ErrDuplicate
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	r.users[u.ID] = cloneUser(u)
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *UserRepository) find(match func(*entity.User) bool) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if match(u) {
			return cloneUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r *UserRepository) GetByUsername(_ context.Context, username string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return strings.EqualFold(u.Username, username) })
}

func (r *UserRepository) Update(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.users[u.ID]
	if !ok || cur.MarkedForDeletion {
		return repository.ErrNotFound
	}
	if r.conflicts(u) {
		return repository.ErrDuplicate
	}
	next := cloneUser(cur)
	next.Email, next.Username, next.PasswordHash = u.Email, u.Username, u.PasswordHash
	next.DisplayName, next.AvatarURL = u.DisplayName, u.AvatarURL
	next.UpdatedAt = time.Now().UTC()
	r.users[u.ID] = next
	u.UpdatedAt = next.UpdatedAt
	return nil
}

func (r *UserRepository) MarkForDeletion(_ context.Context, id string, now time.Time) (*entity.User, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, false, repository.ErrNotFound
	}
	marked := lifecycle.Mark(u, now)
	if marked {
		u.UpdatedAt = time.Now().UTC()
	}
	return cloneUser(u), marked, nil
}

func (r *UserRepository) Restore(_ context.Context, id string, cutoff time.Time) (*entity.User, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, false, repository.ErrNotFound
	}
	if !u.MarkedForDeletion || u.DeletedAt == nil || !u.DeletedAt.After(cutoff) {
		return cloneUser(u), false, nil
	}
	lifecycle.Restore(u)
	u.UpdatedAt = time.Now().UTC()
	return cloneUser(u), true, nil
}

func (r *UserRepository) DeleteMarked(_ context.Context, id string, cutoff time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok || !u.MarkedForDeletion || u.DeletedAt == nil || u.DeletedAt.After(cutoff) {
		return false, nil
	}
	delete(r.users, id)
	return true, nil
}

func (r *UserRepository) ListMarkedForDeletion(_ context.Context, cutoff time.Time) ([]*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entity.User, 0)
	for _, u := range r.users {
		if u.MarkedForDeletion && u.DeletedAt != nil && !u.DeletedAt.After(cutoff) {
			out = append(out, cloneUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DeletedAt.Before(*out[j].DeletedAt) })
	return out, nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
