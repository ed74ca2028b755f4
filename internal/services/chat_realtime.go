package services

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/bonfireapp/bonfire-backend/internal/database"
	"github.com/bonfireapp/bonfire-backend/internal/models"
)

// Event types delivered over WebSocket.
const (
	EventTypeMessage    = "message"
	EventTypeMessageAck = "message_ack"
	EventTypeDiscovery  = "discovery"
	EventTypePresence   = "presence"
	EventTypeError      = "error"
)

// Redis channel prefixes. Per-bonfire events fan out to every subscribed
// participant; per-user events carry discovery notifications.
const (
	bonfireChannelPrefix = "bonfire:events:"
	userChannelPrefix    = "bonfire:user:"
)

// ChatEvent is the payload broadcast over Redis and WebSocket.
type ChatEvent struct {
	Type      string                 `json:"type"`
	BonfireID string                 `json:"bonfire_id,omitempty"`
	UserID    string                 `json:"user_id,omitempty"`
	Nickname  string                 `json:"nickname,omitempty"`
	Message   *models.BonfireMessage `json:"message,omitempty"`
	Bonfire   *models.NearbyBonfire  `json:"bonfire,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Timestamp time.Time              `json:"timestamp,omitempty"`
}

// ChatHub is the in-process registry of event subscriptions, fed by the
// shared Redis subscriber and consumed by WebSocket writer goroutines.
type ChatHub struct {
	mu   sync.RWMutex
	subs map[string]map[chan ChatEvent]struct{}
}

var (
	chatHub      = &ChatHub{subs: make(map[string]map[chan ChatEvent]struct{})}
	redisStarted sync.Once
)

// Subscribe registers a buffered channel for a hub key and returns it with
// its teardown function. Events are dropped, not blocked on, when a consumer
// falls behind.
func (h *ChatHub) Subscribe(key string) (<-chan ChatEvent, func()) {
	ch := make(chan ChatEvent, 16)

	h.mu.Lock()
	set, ok := h.subs[key]
	if !ok {
		set = make(map[chan ChatEvent]struct{})
		h.subs[key] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	unsubscribe := func() {
		h.mu.Lock()
		if set, ok := h.subs[key]; ok {
			if _, present := set[ch]; present {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(h.subs, key)
			}
		}
		h.mu.Unlock()
	}
	return ch, unsubscribe
}

func (h *ChatHub) publish(key string, evt ChatEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[key] {
		select {
		case ch <- evt:
		default:
			log.Printf("chat hub: dropping event for slow subscriber on %s", key)
		}
	}
}

// SubscribeBonfire delivers all events for one bonfire.
func SubscribeBonfire(bonfireID string) (<-chan ChatEvent, func()) {
	return chatHub.Subscribe(bonfireChannelPrefix + bonfireID)
}

// SubscribeUser delivers per-user events (discovery notifications).
func SubscribeUser(userID string) (<-chan ChatEvent, func()) {
	return chatHub.Subscribe(userChannelPrefix + userID)
}

// PublishBonfireEvent publishes an event to the bonfire's Redis channel so
// every instance fans it out to its local subscribers.
func PublishBonfireEvent(ctx context.Context, evt ChatEvent) error {
	if evt.BonfireID == "" {
		return nil
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return database.RedisClient.Publish(ctx, bonfireChannelPrefix+evt.BonfireID, data).Err()
}

// PublishUserEvent publishes an event on a user's personal channel.
func PublishUserEvent(ctx context.Context, userID string, evt ChatEvent) error {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return database.RedisClient.Publish(ctx, userChannelPrefix+userID, data).Err()
}

// StartRedisChatSubscriber ensures a single shared Redis listener per instance.
func StartRedisChatSubscriber(ctx context.Context) {
	redisStarted.Do(func() {
		go runRedisSubscriber(ctx)
	})
}

func runRedisSubscriber(ctx context.Context) {
	client := database.RedisClient
	if client == nil {
		log.Println("Redis client not initialized; chat subscriber not started")
		return
	}

	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		func() {
			pubsub := client.PSubscribe(ctx, bonfireChannelPrefix+"*", userChannelPrefix+"*")
			defer pubsub.Close()

			log.Println("✅ Bonfire Redis subscriber started (patterns: bonfire:events:*, bonfire:user:*)")

			for {
				msg, err := pubsub.ReceiveMessage(ctx)
				if err != nil {
					log.Printf("Redis subscriber error: %v", err)
					time.Sleep(backoff)
					backoff *= 2
					if backoff > 30*time.Second {
						backoff = 30 * time.Second
					}
					return
				}

				backoff = time.Second

				var event ChatEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					log.Printf("failed to unmarshal chat event: %v", err)
					continue
				}

				// The Redis channel name is the hub key.
				if strings.HasPrefix(msg.Channel, bonfireChannelPrefix) || strings.HasPrefix(msg.Channel, userChannelPrefix) {
					chatHub.publish(msg.Channel, event)
				}
			}
		}()
	}
}
