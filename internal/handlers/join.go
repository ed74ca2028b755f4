package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/bonfireapp/bonfire-backend/internal/services"
	"github.com/google/uuid"
)

// The validator is process-wide: its lockout state must be shared by every
// request for the same (bonfire, user) pair.
var joinValidator = services.NewJoinValidator(services.PostgresJoinStore{})

type joinRequest struct {
	BonfireID  string `json:"bonfire_id"`
	SecretCode string `json:"secret_code"`
	Pin        string `json:"pin,omitempty"`
}

// JoinBonfire authorizes a join attempt. Errors come back typed so clients
// can distinguish "wrong code" from "wrong PIN" from "wait 15 minutes".
// This endpoint is never retried automatically: an ambiguous network failure
// must not inflate the PIN failure counter, so the caller resubmits.
func JoinBonfire(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, false, "invalid request body")
		return
	}

	bonfireID, err := uuid.Parse(req.BonfireID)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, false, "bonfire_id is required")
		return
	}

	err = joinValidator.ValidateJoin(r.Context(), bonfireID, userID, req.SecretCode, req.Pin, time.Now())
	if err != nil {
		var rateLimited *services.RateLimitedError
		switch {
		case errors.As(err, &rateLimited):
			writeJSON(w, http.StatusTooManyRequests, map[string]interface{}{
				"success":             false,
				"code":                "rate_limited",
				"message":             "too many incorrect PIN attempts, please wait before trying again",
				"retry_after_seconds": int(rateLimited.RetryAfter.Seconds()),
			})
		case errors.Is(err, services.ErrInvalidSecret):
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
				"success": false,
				"code":    "invalid_secret",
				"message": "invalid or expired secret code",
			})
		case errors.Is(err, services.ErrInvalidPin):
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
				"success": false,
				"code":    "invalid_pin",
				"message": "incorrect PIN",
			})
		case errors.Is(err, services.ErrBonfireNotFound):
			writeJSON(w, http.StatusNotFound, map[string]interface{}{
				"success": false,
				"code":    "not_found",
				"message": "bonfire not found or no longer active",
			})
		default:
			writeMessage(w, http.StatusInternalServerError, false, "join failed")
		}
		return
	}

	writeMessage(w, http.StatusOK, true, "joined")
}
