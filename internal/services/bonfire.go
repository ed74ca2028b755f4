package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/bonfireapp/bonfire-backend/internal/database"
	"github.com/bonfireapp/bonfire-backend/internal/models"
	"github.com/bonfireapp/bonfire-backend/pkg/geo"
	"github.com/bonfireapp/bonfire-backend/pkg/utils"
	"github.com/google/uuid"
)

// CreateBonfireParams carries owner-supplied creation fields.
type CreateBonfireParams struct {
	Name                  string
	Description           string
	Latitude              float64
	Longitude             float64
	ProximityRadiusMeters float64
	ExpiryHours           int
	Pin                   string // optional 4-6 digits
}

// CreateBonfire inserts the bonfire, adds the creator as the first
// participant, and returns the bonfire plus the current join code for the
// owner to display.
func CreateBonfire(ctx context.Context, creatorID uuid.UUID, p CreateBonfireParams) (*models.Bonfire, string, error) {
	if p.Name == "" {
		return nil, "", errors.New("name is required")
	}
	if p.ExpiryHours < 1 {
		p.ExpiryHours = 1
	}
	if p.ExpiryHours > 24 {
		p.ExpiryHours = 24
	}
	if p.ProximityRadiusMeters <= 0 {
		p.ProximityRadiusMeters = 50
	}

	var pinHash sql.NullString
	hasPin := false
	if p.Pin != "" {
		h, err := utils.HashPin(p.Pin)
		if err != nil {
			return nil, "", err
		}
		pinHash = sql.NullString{String: h, Valid: true}
		hasPin = true
	}

	expiresAt := time.Now().UTC().Add(time.Duration(p.ExpiryHours) * time.Hour)

	b := &models.Bonfire{
		CreatorID:             creatorID,
		Name:                  p.Name,
		Description:           p.Description,
		Latitude:              p.Latitude,
		Longitude:             p.Longitude,
		ProximityRadiusMeters: p.ProximityRadiusMeters,
		HasPin:                hasPin,
		ExpiresAt:             expiresAt,
		IsActive:              true,
	}

	err := database.PostgresDB.QueryRowContext(ctx, `
		INSERT INTO bonfires (creator_id, name, description, latitude, longitude, proximity_radius_meters, has_pin, pin_hash, expires_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`, creatorID, p.Name, p.Description, p.Latitude, p.Longitude, p.ProximityRadiusMeters, hasPin, pinHash, expiresAt).
		Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return nil, "", err
	}

	if err := UpsertParticipant(ctx, b.ID, creatorID); err != nil {
		return nil, "", err
	}

	secret, _ := CurrentSecret(b.ID.String(), time.Now())
	return b, secret, nil
}

// GetBonfire loads one bonfire row. Missing rows map to ErrBonfireNotFound.
func GetBonfire(ctx context.Context, id uuid.UUID) (*models.Bonfire, error) {
	b := &models.Bonfire{}
	var description, pinHash sql.NullString
	err := database.PostgresDB.QueryRowContext(ctx, `
		SELECT id, creator_id, name, description, latitude, longitude, proximity_radius_meters,
		       has_pin, pin_hash, expires_at, is_active, created_at
		FROM bonfires WHERE id = $1
	`, id).Scan(&b.ID, &b.CreatorID, &b.Name, &description, &b.Latitude, &b.Longitude,
		&b.ProximityRadiusMeters, &b.HasPin, &pinHash, &b.ExpiresAt, &b.IsActive, &b.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrBonfireNotFound
		}
		return nil, err
	}
	b.Description = description.String
	b.PinHash = pinHash.String
	return b, nil
}

// GetParticipants returns the member list with profile fields joined in.
func GetParticipants(ctx context.Context, bonfireID uuid.UUID) ([]models.Participant, error) {
	rows, err := database.PostgresDB.QueryContext(ctx, `
		SELECT p.bonfire_id, p.user_id, u.nickname, COALESCE(u.avatar_url, ''), p.joined_at, p.last_seen_at
		FROM bonfire_participants p
		JOIN users u ON u.id = p.user_id
		WHERE p.bonfire_id = $1
		ORDER BY p.joined_at ASC
	`, bonfireID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []models.Participant
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.BonfireID, &p.UserID, &p.Nickname, &p.AvatarURL, &p.JoinedAt, &p.LastSeenAt); err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

// UpsertParticipant adds a user to a bonfire, idempotently.
func UpsertParticipant(ctx context.Context, bonfireID, userID uuid.UUID) error {
	_, err := database.PostgresDB.ExecContext(ctx, `
		INSERT INTO bonfire_participants (bonfire_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (bonfire_id, user_id) DO NOTHING
	`, bonfireID, userID)
	return err
}

// IsParticipant checks membership.
func IsParticipant(ctx context.Context, bonfireID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := database.PostgresDB.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM bonfire_participants WHERE bonfire_id = $1 AND user_id = $2)
	`, bonfireID, userID).Scan(&exists)
	return exists, err
}

// EndBonfire soft-deletes a bonfire. Creator only.
func EndBonfire(ctx context.Context, bonfireID, creatorID uuid.UUID) error {
	res, err := database.PostgresDB.ExecContext(ctx, `
		UPDATE bonfires SET is_active = FALSE WHERE id = $1 AND creator_id = $2 AND is_active = TRUE
	`, bonfireID, creatorID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrBonfireNotFound
	}
	return nil
}

// LeaveBonfire removes a non-creator participant.
func LeaveBonfire(ctx context.Context, bonfireID, userID uuid.UUID) error {
	b, err := GetBonfire(ctx, bonfireID)
	if err != nil {
		return err
	}
	if b.CreatorID == userID && b.IsActive {
		return ErrCreatorCannotLeave
	}
	_, err = database.PostgresDB.ExecContext(ctx, `
		DELETE FROM bonfire_participants WHERE bonfire_id = $1 AND user_id = $2
	`, bonfireID, userID)
	return err
}

// UpdateCreatorBonfireLocation moves the active bonfire owned by userID to
// the given coordinates. No-op when the user owns no active bonfire.
func UpdateCreatorBonfireLocation(ctx context.Context, userID uuid.UUID, lat, lon float64) error {
	_, err := database.PostgresDB.ExecContext(ctx, `
		UPDATE bonfires SET latitude = $1, longitude = $2
		WHERE creator_id = $3 AND is_active = TRUE AND expires_at > NOW()
	`, lat, lon, userID)
	return err
}

// FindNearby returns active, unexpired bonfires within radiusMeters of the
// coordinate, closest first. The haversine runs in SQL so ranking and
// filtering stay in one round trip.
func FindNearby(ctx context.Context, lat, lon, radiusMeters float64) ([]models.NearbyBonfire, error) {
	rows, err := database.PostgresDB.QueryContext(ctx, `
		SELECT id, name, description, creator_id, distance_meters, participant_count,
		       has_pin, expires_at, proximity_radius_meters
		FROM (
			SELECT b.id, b.name, COALESCE(b.description, '') AS description, b.creator_id,
			       b.has_pin, b.expires_at, b.proximity_radius_meters,
			       (SELECT COUNT(*) FROM bonfire_participants p WHERE p.bonfire_id = b.id) AS participant_count,
			       2 * 6371000 * asin(sqrt(
			           power(sin(radians(($1 - b.latitude) / 2)), 2) +
			           cos(radians($1)) * cos(radians(b.latitude)) *
			           power(sin(radians(($2 - b.longitude) / 2)), 2)
			       )) AS distance_meters
			FROM bonfires b
			WHERE b.is_active = TRUE AND b.expires_at > NOW()
		) nearby
		WHERE distance_meters <= $3
		ORDER BY distance_meters ASC
	`, lat, lon, radiusMeters)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []models.NearbyBonfire
	for rows.Next() {
		var nb models.NearbyBonfire
		if err := rows.Scan(&nb.ID, &nb.Name, &nb.Description, &nb.CreatorID, &nb.DistanceMeters,
			&nb.ParticipantCount, &nb.HasPin, &nb.ExpiresAt, &nb.RadiusMeters); err != nil {
			return nil, err
		}
		results = append(results, nb)
	}
	return results, rows.Err()
}

// FetchCurrentSecret is the proximity gate: the caller's reported position
// must be inside the bonfire's radius right now, otherwise the code is never
// revealed. This keeps the rotating code off any distance-independent channel.
func FetchCurrentSecret(ctx context.Context, bonfireID uuid.UUID, lat, lon float64, now time.Time) (string, error) {
	b, err := GetBonfire(ctx, bonfireID)
	if err != nil {
		return "", err
	}
	if !b.Joinable(now) {
		return "", ErrBonfireNotFound
	}
	if geo.DistanceMeters(lat, lon, b.Latitude, b.Longitude) > b.ProximityRadiusMeters {
		return "", ErrProximityDenied
	}
	secret, _ := CurrentSecret(b.ID.String(), now)
	return secret, nil
}

// PostgresJoinStore adapts the package-level queries to the JoinStore
// interface consumed by JoinValidator.
type PostgresJoinStore struct{}

func (PostgresJoinStore) GetBonfire(ctx context.Context, id uuid.UUID) (*models.Bonfire, error) {
	return GetBonfire(ctx, id)
}

func (PostgresJoinStore) UpsertParticipant(ctx context.Context, bonfireID, userID uuid.UUID) error {
	return UpsertParticipant(ctx, bonfireID, userID)
}
