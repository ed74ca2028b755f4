package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/bonfireapp/bonfire-backend/internal/models"
	"github.com/bonfireapp/bonfire-backend/internal/services"
)

type locationRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy,omitempty"`
}

// ReportLocation feeds one device position report into the discovery
// pipeline. Samples are debounced server-side (20 m / 30 s); rejected
// samples still return 200 so clients never treat throttling as an error.
func ReportLocation(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req locationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, false, "invalid request body")
		return
	}
	if req.Latitude < -90 || req.Latitude > 90 || req.Longitude < -180 || req.Longitude > 180 {
		writeMessage(w, http.StatusBadRequest, false, "invalid coordinates")
		return
	}

	discovery := services.DefaultDiscovery()
	if discovery == nil {
		writeMessage(w, http.StatusInternalServerError, false, "discovery not initialized")
		return
	}

	accepted := discovery.HandleSample(userID, models.LocationSample{
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Accuracy:  req.Accuracy,
		Timestamp: time.Now().UTC(),
	})

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"accepted": accepted,
	})
}
