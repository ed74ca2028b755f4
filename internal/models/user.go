package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a minimal account: a nickname and a password hash. No email or
// phone; discovery is physical, so accounts carry as little as possible.
type User struct {
	ID           uuid.UUID `json:"id"`
	Nickname     string    `json:"nickname"`
	PasswordHash string    `json:"-"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	IsActive     bool      `json:"is_active"`
}
