package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/bonfireapp/bonfire-backend/internal/models"
	"github.com/bonfireapp/bonfire-backend/internal/services"
	"github.com/google/uuid"
)

// LoadChatHistoryResponse is returned when loading messages for a bonfire.
type LoadChatHistoryResponse struct {
	Success  bool                    `json:"success"`
	Messages []models.BonfireMessage `json:"messages"`
}

// LoadChatHistory returns recent messages for a bonfire, ascending by
// creation time. Participants only. Served from the Redis recent cache when
// warm, Mongo otherwise.
// Query params: bonfire_id (required).
func LoadChatHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	bonfireID, err := uuid.Parse(r.URL.Query().Get("bonfire_id"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, false, "bonfire_id is required")
		return
	}

	member, err := services.IsParticipant(r.Context(), bonfireID, userID)
	if err != nil || !member {
		writeMessage(w, http.StatusForbidden, false, "you must join this bonfire first")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	msgs, err := services.LoadRecentMessages(ctx, bonfireID.String())
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, false, "failed to load messages")
		return
	}

	writeJSON(w, http.StatusOK, LoadChatHistoryResponse{
		Success:  true,
		Messages: msgs,
	})
}
