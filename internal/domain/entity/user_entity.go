package entity

import (
	"time"
)

// User is the aggregate root for the account domain
// Passwords are stored as bcrypt hashes in PasswordHash.
//
// DeletedAt is set iff MarkedForDeletion is true.
type User struct {
	ID                string
	Email             string
	Username          string
	PasswordHash      string
	DisplayName       string
	AvatarURL         string
	MarkedForDeletion bool
	DeletedAt         *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
