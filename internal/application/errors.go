package application

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrNotEligible        = errors.New("account is no longer eligible for restore")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrDuplicateUsername  = errors.New("username already taken")
	ErrPromptNotFound     = errors.New("prompt not found")
	ErrInvalidInput       = errors.New("invalid input")
)
