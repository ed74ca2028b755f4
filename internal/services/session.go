package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/bonfireapp/bonfire-backend/internal/database"
	"github.com/google/uuid"
)

const (
	// SessionDuration is 7 days
	SessionDuration = 7 * 24 * time.Hour
	// SessionKeyPrefix is the Redis key prefix for sessions
	SessionKeyPrefix = "session:"
)

// CreateSession creates a new session token for a user and stores it in
// Redis with a 7-day expiration. Multiple devices may hold sessions at once.
func CreateSession(ctx context.Context, userID uuid.UUID) (string, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	sessionToken := base64.URLEncoding.EncodeToString(tokenBytes)

	sessionKey := SessionKeyPrefix + sessionToken
	if err := database.RedisClient.Set(ctx, sessionKey, userID.String(), SessionDuration).Err(); err != nil {
		return "", err
	}

	return sessionToken, nil
}

// ValidateSession checks if a session token is valid and returns the user ID
func ValidateSession(ctx context.Context, sessionToken string) (uuid.UUID, bool, error) {
	if sessionToken == "" {
		return uuid.Nil, false, nil
	}

	sessionKey := SessionKeyPrefix + sessionToken
	userIDStr, err := database.RedisClient.Get(ctx, sessionKey).Result()
	if err != nil {
		return uuid.Nil, false, nil
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, false, err
	}

	return userID, true, nil
}

// InvalidateSession removes a session from Redis
func InvalidateSession(ctx context.Context, sessionToken string) error {
	if sessionToken == "" {
		return nil
	}
	return database.RedisClient.Del(ctx, SessionKeyPrefix+sessionToken).Err()
}
