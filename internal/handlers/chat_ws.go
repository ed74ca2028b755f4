package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/bonfireapp/bonfire-backend/internal/models"
	"github.com/bonfireapp/bonfire-backend/internal/services"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var chatUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS for WebSocket is handled at the HTTP layer already.
		return true
	},
}

// ChatClientMessage represents messages coming from the client over WebSocket.
type ChatClientMessage struct {
	Type           string `json:"type"` // "message", "ping"
	Content        string `json:"content,omitempty"`
	ImageURL       string `json:"image_url,omitempty"`
	ImageWidth     int    `json:"image_width,omitempty"`
	ImageHeight    int    `json:"image_height,omitempty"`
	ImageSizeBytes int64  `json:"image_size_bytes,omitempty"`
}

type wsHistoryPayload struct {
	Type      string                  `json:"type"`
	BonfireID string                  `json:"bonfire_id"`
	Messages  []models.BonfireMessage `json:"messages"`
}

// ChatWebSocket is the realtime gateway for one bonfire session view.
// Authentication via session token (Authorization: Bearer <token> or ?token=).
// The event forwarder and presence heartbeat goroutines share the connection
// context and are torn down together when the socket drops.
func ChatWebSocket(w http.ResponseWriter, r *http.Request) {
	token := extractBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		token = r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "missing session token", http.StatusUnauthorized)
			return
		}
	}

	userID, ok, err := services.ValidateSession(r.Context(), token)
	if err != nil || !ok {
		http.Error(w, "invalid session token", http.StatusUnauthorized)
		return
	}

	bonfireID, err := uuid.Parse(r.URL.Query().Get("bonfire_id"))
	if err != nil {
		http.Error(w, "bonfire_id is required", http.StatusBadRequest)
		return
	}

	// Only participants get the stream; joining happens over HTTP first.
	member, err := services.IsParticipant(r.Context(), bonfireID, userID)
	if err != nil || !member {
		http.Error(w, "you must join this bonfire first", http.StatusForbidden)
		return
	}

	nickname, _ := services.GetNicknameByID(r.Context(), userID)

	conn, err := chatUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Subscribe before the bulk fetch so the race between the two resolves
	// as a duplicate (dropped by the stream), never as a gap.
	bonfireEvents, unsubscribeBonfire := services.SubscribeBonfire(bonfireID.String())
	defer unsubscribeBonfire()
	userEvents, unsubscribeUser := services.SubscribeUser(userID.String())
	defer unsubscribeUser()

	stream := services.NewMessageStream()
	defer stream.Reset()

	history, err := services.LoadBonfireMessages(ctx, bonfireID.String())
	if err == nil {
		stream.SetBulk(history)
	}
	_ = conn.WriteJSON(wsHistoryPayload{
		Type:      "history",
		BonfireID: bonfireID.String(),
		Messages:  stream.Snapshot(),
	})

	services.TouchPresence(ctx, bonfireID, userID)

	// Forward hub events to this connection. Message events pass through the
	// stream first so redeliveries (subscribe race, reconnect) are dropped.
	go func() {
		for {
			var evt services.ChatEvent
			var open bool
			select {
			case evt, open = <-bonfireEvents:
			case evt, open = <-userEvents:
			case <-ctx.Done():
				return
			}
			if !open {
				return
			}
			if evt.Type == services.EventTypeMessage && evt.Message != nil {
				if !stream.Insert(*evt.Message) {
					continue
				}
			}
			if err := conn.WriteJSON(evt); err != nil {
				return
			}
		}
	}()

	// Presence heartbeat: fire-and-forget every 30 seconds while the session
	// view is open.
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				services.TouchPresence(ctx, bonfireID, userID)
			case <-ctx.Done():
				return
			}
		}
	}()

	// Reader loop: handle client messages
	conn.SetReadLimit(64 * 1024)
	_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	conn.SetPongHandler(func(appData string) error {
		_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			// On disconnect, presence expires via the Redis TTL.
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))

		var msg ChatClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case "message":
			handleIncomingMessage(ctx, conn, bonfireID, userID, nickname, msg)
		case "ping":
			services.TouchPresence(ctx, bonfireID, userID)
		default:
			// Ignore unknown types
		}
	}
}

// handleIncomingMessage validates, persists to MongoDB, warms the recent
// cache, publishes via Redis, and acknowledges to the sender.
func handleIncomingMessage(
	ctx context.Context,
	conn *websocket.Conn,
	bonfireID, userID uuid.UUID,
	nickname string,
	msg ChatClientMessage,
) {
	content := strings.TrimSpace(msg.Content)
	msgType := models.MessageTypeText
	if msg.ImageURL != "" {
		msgType = models.MessageTypeImage
	} else if content == "" {
		return
	}

	chatMsg := &models.BonfireMessage{
		BonfireID:      bonfireID.String(),
		SenderID:       userID.String(),
		SenderNickname: nickname,
		Type:           msgType,
		Content:        content,
		ImageURL:       msg.ImageURL,
		ImageWidth:     msg.ImageWidth,
		ImageHeight:    msg.ImageHeight,
		ImageSizeBytes: msg.ImageSizeBytes,
		CreatedAt:      time.Now().UTC(),
	}

	saved, err := services.SaveBonfireMessage(ctx, chatMsg)
	if err != nil {
		_ = conn.WriteJSON(services.ChatEvent{
			Type:      services.EventTypeError,
			BonfireID: bonfireID.String(),
			Error:     "failed to persist message",
			Timestamp: time.Now().UTC(),
		})
		return
	}

	services.PushMessageToRecentCache(*saved)

	evt := services.ChatEvent{
		Type:      services.EventTypeMessage,
		BonfireID: bonfireID.String(),
		Message:   saved,
	}
	_ = services.PublishBonfireEvent(ctx, evt)

	// Acknowledge specifically to the sender.
	_ = conn.WriteJSON(services.ChatEvent{
		Type:      services.EventTypeMessageAck,
		BonfireID: bonfireID.String(),
		Message:   saved,
	})
}
