package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/bonfireapp/bonfire-backend/internal/services"
	"github.com/google/uuid"
)

type createBonfireRequest struct {
	Name                  string  `json:"name"`
	Description           string  `json:"description,omitempty"`
	Latitude              float64 `json:"latitude"`
	Longitude             float64 `json:"longitude"`
	ProximityRadiusMeters float64 `json:"proximity_radius_meters"`
	ExpiryHours           int     `json:"expiry_hours"`
	Pin                   string  `json:"pin,omitempty"`
}

// CreateBonfire creates a bonfire at the owner's position and returns it
// together with the current join code for the owner to display.
func CreateBonfire(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req createBonfireRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, false, "invalid request body")
		return
	}

	bonfire, secret, err := services.CreateBonfire(r.Context(), userID, services.CreateBonfireParams{
		Name:                  req.Name,
		Description:           req.Description,
		Latitude:              req.Latitude,
		Longitude:             req.Longitude,
		ProximityRadiusMeters: req.ProximityRadiusMeters,
		ExpiryHours:           req.ExpiryHours,
		Pin:                   req.Pin,
	})
	if err != nil {
		writeMessage(w, http.StatusBadRequest, false, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success":     true,
		"bonfire":     bonfire,
		"secret_code": secret,
	})
}

// GetBonfire returns a bonfire with its participants.
// Query params: bonfire_id (required).
func GetBonfire(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(w, r); !ok {
		return
	}

	bonfireID, err := uuid.Parse(r.URL.Query().Get("bonfire_id"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, false, "bonfire_id is required")
		return
	}

	bonfire, err := services.GetBonfire(r.Context(), bonfireID)
	if err != nil {
		if errors.Is(err, services.ErrBonfireNotFound) {
			writeMessage(w, http.StatusNotFound, false, "bonfire not found")
			return
		}
		writeMessage(w, http.StatusInternalServerError, false, "failed to load bonfire")
		return
	}

	participants, err := services.GetParticipants(r.Context(), bonfireID)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, false, "failed to load participants")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"bonfire":      bonfire,
		"participants": participants,
	})
}

// EndBonfire soft-deletes a bonfire. Creator only.
// Query params: bonfire_id (required).
func EndBonfire(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	bonfireID, err := uuid.Parse(r.URL.Query().Get("bonfire_id"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, false, "bonfire_id is required")
		return
	}

	if err := services.EndBonfire(r.Context(), bonfireID, userID); err != nil {
		if errors.Is(err, services.ErrBonfireNotFound) {
			writeMessage(w, http.StatusNotFound, false, "bonfire not found")
			return
		}
		writeMessage(w, http.StatusInternalServerError, false, "failed to end bonfire")
		return
	}

	writeMessage(w, http.StatusOK, true, "bonfire ended")
}

// LeaveBonfire removes the caller from a bonfire's participant list.
// Query params: bonfire_id (required).
func LeaveBonfire(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	bonfireID, err := uuid.Parse(r.URL.Query().Get("bonfire_id"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, false, "bonfire_id is required")
		return
	}

	if err := services.LeaveBonfire(r.Context(), bonfireID, userID); err != nil {
		switch {
		case errors.Is(err, services.ErrBonfireNotFound):
			writeMessage(w, http.StatusNotFound, false, "bonfire not found")
		case errors.Is(err, services.ErrCreatorCannotLeave):
			writeMessage(w, http.StatusForbidden, false, "creator must end the bonfire instead of leaving")
		default:
			writeMessage(w, http.StatusInternalServerError, false, "failed to leave bonfire")
		}
		return
	}

	writeMessage(w, http.StatusOK, true, "left bonfire")
}

// FindNearby runs the discovery query around the caller's position.
// Query params: lat, lng (required), radius (optional metres).
func FindNearby(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(w, r); !ok {
		return
	}

	lat, errLat := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if errLat != nil || errLng != nil {
		writeMessage(w, http.StatusBadRequest, false, "lat and lng are required")
		return
	}

	radius := 50.0
	if rStr := r.URL.Query().Get("radius"); rStr != "" {
		if parsed, err := strconv.ParseFloat(rStr, 64); err == nil && parsed > 0 && parsed <= 500 {
			radius = parsed
		}
	}

	nearby, err := services.FindNearby(r.Context(), lat, lng, radius)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, false, "failed to search nearby bonfires")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"bonfires": nearby,
	})
}

// FetchSecret is the proximity-gated secret fetch: callers inside the
// bonfire's radius get the current rotating code, everyone else gets 403.
// Query params: bonfire_id, lat, lng (all required).
func FetchSecret(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(w, r); !ok {
		return
	}

	bonfireID, err := uuid.Parse(r.URL.Query().Get("bonfire_id"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, false, "bonfire_id is required")
		return
	}
	lat, errLat := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if errLat != nil || errLng != nil {
		writeMessage(w, http.StatusBadRequest, false, "lat and lng are required")
		return
	}

	secret, err := services.FetchCurrentSecret(r.Context(), bonfireID, lat, lng, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBonfireNotFound):
			writeMessage(w, http.StatusNotFound, false, "bonfire not found")
		case errors.Is(err, services.ErrProximityDenied):
			writeJSON(w, http.StatusForbidden, map[string]interface{}{
				"success": false,
				"code":    "proximity_denied",
				"message": "you are outside this bonfire's radius",
			})
		default:
			writeMessage(w, http.StatusInternalServerError, false, "failed to fetch secret")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"secret_code": secret,
	})
}

// Presence is the heartbeat endpoint for non-WebSocket clients.
// Query params: bonfire_id (required).
func Presence(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	bonfireID, err := uuid.Parse(r.URL.Query().Get("bonfire_id"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, false, "bonfire_id is required")
		return
	}

	// Fire-and-forget: presence never fails the request.
	services.TouchPresence(r.Context(), bonfireID, userID)
	writeMessage(w, http.StatusOK, true, "ok")
}
