package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/codex/internal/domain/entity"
	"github.com/oksasatya/codex/internal/domain/lifecycle"
	repo "github.com/oksasatya/codex/internal/domain/repository"
	"github.com/oksasatya/codex/pkg/helpers"
)

// MarkForDeletion hides the account and starts the retention window.
// The mark is a single conditional write, so concurrent calls keep the
// first DeletedAt and only one of them notifies. The session is revoked
// either way so existing tokens stop working immediately.
func (s *UserService) MarkForDeletion(ctx context.Context, userID string, meta RequestMeta) (*entity.User, error) {
	prev, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	u, marked, err := s.Users.MarkForDeletion(ctx, userID, s.now())
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("mark %s: %w", userID, err)
	}
	if marked {
		accountsMarked.Add(1)
		helpers.LogInfo(s.Logger, "account marked for deletion", logrus.Fields{
			"user_id":  u.ID,
			"purge_at": s.PurgeAt(u).Format(time.RFC3339),
		})
		s.Notifier.DeletionScheduled(ctx, u, prev.DisplayName, meta)
	}

	if err := s.revokeSession(ctx, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

// RestoreAccount reactivates a marked account while it is inside the
// retention window. An active account is returned unchanged.
func (s *UserService) RestoreAccount(ctx context.Context, userID string, meta RequestMeta) (*entity.User, error) {
	now := s.now()
	u, restored, err := s.Users.Restore(ctx, userID, lifecycle.PurgeCutoff(now, s.retention()))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("restore %s: %w", userID, err)
	}
	if !restored {
		if lifecycle.StateOf(u, now, s.retention()) == lifecycle.StateActive {
			return u, nil
		}
		return nil, ErrNotEligible
	}
	accountsRestored.Add(1)
	helpers.LogInfo(s.Logger, "account restored", logrus.Fields{"user_id": u.ID})
	s.Notifier.Restored(ctx, u, now, meta)
	return u, nil
}

// State classifies u at the service clock.
func (s *UserService) State(u *entity.User) lifecycle.State {
	return lifecycle.StateOf(u, s.now(), s.retention())
}

// RestoreWithCredentials is the public restore flow: the caller proves
// ownership with the account password, then gets a fresh session.
func (s *UserService) RestoreWithCredentials(ctx context.Context, identifier, password string, meta RequestMeta) (*entity.User, TokenPair, error) {
	u, err := s.verifyPassword(ctx, identifier, password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	u, err = s.RestoreAccount(ctx, u.ID, meta)
	if err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// SweepExpiredDeletions permanently removes accounts whose retention
// window has elapsed at now and returns how many this call removed.
//
// Each candidate is re-read before anything is removed, so an account
// restored after the scan keeps its prompts. Prompts go before the user
// row: if that fails the account stays marked and the next sweep picks
// it up again. The final delete is conditional on the row still being
// marked and past the cutoff, so a row taken by a concurrent sweep is
// not counted twice. Storage errors stop the sweep; index, export and
// notification cleanup is best-effort.
func (s *UserService) SweepExpiredDeletions(ctx context.Context, now time.Time) (int, error) {
	now = now.UTC()
	cutoff := lifecycle.PurgeCutoff(now, s.retention())
	candidates, err := s.Users.ListMarkedForDeletion(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("list marked accounts: %w", err)
	}

	purged := 0
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return purged, err
		}
		u, err := s.Users.GetByID(ctx, c.ID)
		if errors.Is(err, repo.ErrNotFound) {
			continue
		}
		if err != nil {
			return purged, fmt.Errorf("reload %s: %w", c.ID, err)
		}
		if lifecycle.StateOf(u, now, s.retention()) != lifecycle.StatePurgeEligible {
			continue
		}

		n, err := s.Prompts.DeleteByUser(ctx, u.ID)
		if err != nil {
			return purged, fmt.Errorf("purge prompts of %s: %w", u.ID, err)
		}
		removed, err := s.Users.DeleteMarked(ctx, u.ID, cutoff)
		if err != nil {
			return purged, fmt.Errorf("purge %s: %w", u.ID, err)
		}
		if !removed {
			continue
		}
		purged++
		accountsPurged.Add(1)

		s.cleanupPurged(ctx, u, now)
		helpers.LogInfo(s.Logger, "account purged", logrus.Fields{"user_id": u.ID, "prompts": n})
	}
	return purged, nil
}

func (s *UserService) cleanupPurged(ctx context.Context, u *entity.User, now time.Time) {
	fields := logrus.Fields{"user_id": u.ID}
	if s.Index != nil {
		if err := s.Index.DeleteByUser(ctx, u.ID); err != nil {
			helpers.LogError(s.Logger, "purge search documents failed", err, fields)
		}
	}
	if s.Exports != nil {
		if err := s.Exports.DeleteUser(ctx, u.ID); err != nil {
			helpers.LogError(s.Logger, "purge exports failed", err, fields)
		}
	}
	if err := s.revokeSession(ctx, u.ID); err != nil {
		helpers.LogError(s.Logger, "purge session failed", err, fields)
	}
	s.Notifier.Purged(ctx, u, now)
}

// Export is a snapshot of the user's prompts. With an export store the
// document is uploaded and only URL is returned; otherwise Prompts is inline.
type Export struct {
	UserID     string       `json:"user_id"`
	ExportedAt time.Time    `json:"exported_at"`
	Count      int          `json:"count"`
	URL        string       `json:"url,omitempty"`
	Prompts    []PromptView `json:"prompts,omitempty"`
}

const exportPageSize = 100

// ExportPrompts collects every prompt of the user and either uploads the
// JSON document or returns it inline.
func (s *UserService) ExportPrompts(ctx context.Context, userID string) (*Export, error) {
	if _, err := s.GetProfile(ctx, userID); err != nil {
		return nil, err
	}

	all := make([]PromptView, 0)
	for offset := 0; ; offset += exportPageSize {
		page, total, err := s.Prompts.ListByUser(ctx, userID, exportPageSize, offset)
		if err != nil {
			return nil, err
		}
		for _, p := range page {
			all = append(all, NewPromptView(p))
		}
		if len(page) == 0 || offset+len(page) >= total {
			break
		}
	}

	exp := &Export{UserID: userID, ExportedAt: s.now(), Count: len(all), Prompts: all}
	if s.Exports == nil {
		return exp, nil
	}

	body, err := json.Marshal(exp)
	if err != nil {
		return nil, err
	}
	url, err := s.Exports.Upload(ctx, userID, exp.ExportedAt, body)
	if err != nil {
		return nil, fmt.Errorf("upload export: %w", err)
	}
	return &Export{UserID: userID, ExportedAt: exp.ExportedAt, Count: exp.Count, URL: url}, nil
}

// PurgeAt reports when a marked account becomes eligible for the sweep.
func (s *UserService) PurgeAt(u *entity.User) time.Time {
	if u.DeletedAt == nil {
		return time.Time{}
	}
	return lifecycle.PurgeAt(*u.DeletedAt, s.retention())
}
