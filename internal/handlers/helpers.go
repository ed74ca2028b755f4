package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/bonfireapp/bonfire-backend/internal/services"
	"github.com/google/uuid"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, success bool, message string) {
	writeJSON(w, status, map[string]interface{}{
		"success": success,
		"message": message,
	})
}

func extractBearerToken(header string) string {
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

// currentUser resolves the session token on the request. Writes the 401
// itself and returns ok=false when the request is unauthenticated.
func currentUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	token := extractBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		writeMessage(w, http.StatusUnauthorized, false, "missing session token")
		return uuid.Nil, false
	}

	userID, ok, err := services.ValidateSession(r.Context(), token)
	if err != nil || !ok {
		writeMessage(w, http.StatusUnauthorized, false, "invalid session token")
		return uuid.Nil, false
	}
	return userID, true
}
