package entity

import "time"

// Prompt is a stored prompt together with the LLM response it produced.
type Prompt struct {
	ID        string
	UserID    string
	Title     string
	Prompt    string
	Response  string
	Model     string
	Tags      []string
	CreatedAt time.Time
	UpdatedAt time.Time
}
