package models

import (
	"time"

	"github.com/google/uuid"
)

// Bonfire is a time-boxed, location-bound chat session. The rotating secret
// code is not a column here: it is rederived from (id, window) on demand so a
// stale stored copy can never disagree with validation.
type Bonfire struct {
	ID                    uuid.UUID `json:"id"`
	CreatorID             uuid.UUID `json:"creator_id"`
	Name                  string    `json:"name"`
	Description           string    `json:"description,omitempty"`
	Latitude              float64   `json:"latitude"`
	Longitude             float64   `json:"longitude"`
	ProximityRadiusMeters float64   `json:"proximity_radius_meters"`
	HasPin                bool      `json:"has_pin"`
	PinHash               string    `json:"-"`
	ExpiresAt             time.Time `json:"expires_at"`
	IsActive              bool      `json:"is_active"`
	CreatedAt             time.Time `json:"created_at"`
}

// Joinable reports whether the bonfire accepts joins at the given instant.
func (b *Bonfire) Joinable(now time.Time) bool {
	return b.IsActive && now.Before(b.ExpiresAt)
}

// Participant is one authorized member of a bonfire. The (bonfire, user) pair
// is the primary key; LastSeenAt is refreshed by the presence heartbeat.
type Participant struct {
	BonfireID  uuid.UUID `json:"bonfire_id"`
	UserID     uuid.UUID `json:"user_id"`
	Nickname   string    `json:"nickname,omitempty"`
	AvatarURL  string    `json:"avatar_url,omitempty"`
	JoinedAt   time.Time `json:"joined_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

// NearbyBonfire is one row of the ranked discovery result. The secret code is
// intentionally absent; it must be fetched through the proximity-gated
// endpoint at the moment of joining.
type NearbyBonfire struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description,omitempty"`
	CreatorID        uuid.UUID `json:"creator_id"`
	DistanceMeters   float64   `json:"distance_meters"`
	ParticipantCount int       `json:"participant_count"`
	HasPin           bool      `json:"has_pin"`
	ExpiresAt        time.Time `json:"expires_at"`
	RadiusMeters     float64   `json:"proximity_radius_meters"`
}

// LocationSample is a transient position report from one device. It is never
// stored; it only feeds the discovery check and, for bonfire owners, the
// bonfire's current coordinates.
type LocationSample struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
