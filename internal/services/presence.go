package services

import (
	"context"
	"log"
	"time"

	"github.com/bonfireapp/bonfire-backend/internal/database"
	"github.com/google/uuid"
)

const (
	presenceKeyPrefix = "bonfire:presence:"
	presenceTTL       = 90 * time.Second
)

func presenceKey(bonfireID, userID uuid.UUID) string {
	return presenceKeyPrefix + bonfireID.String() + ":" + userID.String()
}

// TouchPresence refreshes last_seen_at for a participant and the Redis TTL
// key backing the online indicator. Best-effort liveness: failures are logged
// and swallowed, never returned, and callers must not block the UI on this.
func TouchPresence(ctx context.Context, bonfireID, userID uuid.UUID) {
	_, err := database.PostgresDB.ExecContext(ctx, `
		UPDATE bonfire_participants SET last_seen_at = NOW()
		WHERE bonfire_id = $1 AND user_id = $2
	`, bonfireID, userID)
	if err != nil {
		log.Printf("presence: failed to touch %s/%s: %v", bonfireID, userID, err)
	}

	if database.RedisClient != nil {
		if err := database.RedisClient.Set(ctx, presenceKey(bonfireID, userID), "online", presenceTTL).Err(); err != nil {
			log.Printf("presence: redis set failed: %v", err)
		}
	}
}

// IsOnline reports whether a participant's presence key is still live.
func IsOnline(ctx context.Context, bonfireID, userID uuid.UUID) bool {
	if database.RedisClient == nil {
		return false
	}
	n, err := database.RedisClient.Exists(ctx, presenceKey(bonfireID, userID)).Result()
	return err == nil && n > 0
}
