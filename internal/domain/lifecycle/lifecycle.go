// Package lifecycle holds the account soft-delete policy as pure functions
// of (now, deletedAt, retention window).
package lifecycle

import (
	"time"

	"github.com/oksasatya/codex/internal/domain/entity"
)

// DefaultRetention is the grace period during which a marked account can be restored.
const DefaultRetention = 7 * 24 * time.Hour

// AnonymizedDisplayName replaces the display name of a marked account.
const AnonymizedDisplayName = "Deleted user"

type State string

const (
	StateActive            State = "active"
	StateMarkedForDeletion State = "marked_for_deletion"
	StatePurgeEligible     State = "purge_eligible"
)

// Restorable reports whether an account marked at deletedAt can still be
// restored at now. The window is half-open: exactly at the boundary it is not.
func Restorable(now, deletedAt time.Time, window time.Duration) bool {
	return now.Sub(deletedAt) < window
}

// PurgeEligible is the complement of Restorable.
func PurgeEligible(now, deletedAt time.Time, window time.Duration) bool {
	return !Restorable(now, deletedAt, window)
}

// PurgeCutoff returns the latest DeletedAt that is eligible for purge at now.
func PurgeCutoff(now time.Time, window time.Duration) time.Time {
	return now.Add(-window)
}

// PurgeAt returns when an account marked at deletedAt becomes eligible for purge.
func PurgeAt(deletedAt time.Time, window time.Duration) time.Time {
	return deletedAt.Add(window)
}

// StateOf classifies u at now.
func StateOf(u *entity.User, now time.Time, window time.Duration) State {
	if !u.MarkedForDeletion || u.DeletedAt == nil {
		return StateActive
	}
	if PurgeEligible(now, *u.DeletedAt, window) {
		return StatePurgeEligible
	}
	return StateMarkedForDeletion
}

// Mark flags u for deletion at now and anonymizes its display fields.
// It reports false without touching u when u is already marked.
func Mark(u *entity.User, now time.Time) bool {
	if u.MarkedForDeletion && u.DeletedAt != nil {
		return false
	}
	at := now
	u.MarkedForDeletion = true
	u.DeletedAt = &at
	u.DisplayName = AnonymizedDisplayName
	u.AvatarURL = ""
	return true
}

// Restore clears the deletion mark. Display fields were anonymized at mark
// time and are reset to the username.
func Restore(u *entity.User) {
	u.MarkedForDeletion = false
	u.DeletedAt = nil
	u.DisplayName = u.Username
}
