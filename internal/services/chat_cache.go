package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/bonfireapp/bonfire-backend/internal/database"
	"github.com/bonfireapp/bonfire-backend/internal/models"
)

const (
	chatRecentKeyPrefix = "bonfire:recent:"
	chatRecentMaxLen    = 50
	chatRecentTTL       = 1 * time.Hour
)

func chatRecentKey(bonfireID string) string {
	return chatRecentKeyPrefix + bonfireID
}

// PushMessageToRecentCache adds a message to the Redis recent cache (newest
// at head). Called after saving to Mongo. LPUSH + LTRIM keeps the last 50.
func PushMessageToRecentCache(msg models.BonfireMessage) {
	if database.RedisClient == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	key := chatRecentKey(msg.BonfireID)
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	pipe := database.RedisClient.Pipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, chatRecentMaxLen-1)
	pipe.Expire(ctx, key, chatRecentTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("chat_cache: push failed for bonfire %s: %v", msg.BonfireID, err)
	}
}

// GetRecentMessagesFromCache returns the most recent messages for a bonfire
// (oldest-first). Returns (messages, true) on hit, (nil, false) on miss.
func GetRecentMessagesFromCache(ctx context.Context, bonfireID string) ([]models.BonfireMessage, bool) {
	if database.RedisClient == nil {
		return nil, false
	}

	key := chatRecentKey(bonfireID)
	raw, err := database.RedisClient.LRange(ctx, key, 0, -1).Result()
	if err != nil || len(raw) == 0 {
		return nil, false
	}

	var msgs []models.BonfireMessage
	for i := len(raw) - 1; i >= 0; i-- {
		var m models.BonfireMessage
		if json.Unmarshal([]byte(raw[i]), &m) != nil {
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs, true
}

// LoadRecentMessages serves the history endpoint: Redis first, Mongo on miss
// (warming the cache with the tail of the result).
func LoadRecentMessages(ctx context.Context, bonfireID string) ([]models.BonfireMessage, error) {
	if cached, ok := GetRecentMessagesFromCache(ctx, bonfireID); ok {
		return cached, nil
	}

	msgs, err := LoadBonfireMessages(ctx, bonfireID)
	if err != nil {
		return nil, err
	}
	if len(msgs) > 0 {
		tail := msgs
		if len(tail) > chatRecentMaxLen {
			tail = tail[len(tail)-chatRecentMaxLen:]
		}
		WarmRecentCache(ctx, bonfireID, tail)
	}
	return msgs, nil
}

// WarmRecentCache stores messages in Redis (oldest at tail).
func WarmRecentCache(ctx context.Context, bonfireID string, msgs []models.BonfireMessage) {
	if database.RedisClient == nil || len(msgs) == 0 {
		return
	}

	key := chatRecentKey(bonfireID)
	pipe := database.RedisClient.Pipeline()
	for i := len(msgs) - 1; i >= 0; i-- {
		data, err := json.Marshal(msgs[i])
		if err != nil {
			continue
		}
		pipe.RPush(ctx, key, data)
	}
	pipe.LTrim(ctx, key, 0, chatRecentMaxLen-1)
	pipe.Expire(ctx, key, chatRecentTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("chat_cache: warm failed for bonfire %s: %v", bonfireID, err)
	}
}
