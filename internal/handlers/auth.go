package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bonfireapp/bonfire-backend/internal/services"
)

type authRequest struct {
	Nickname string `json:"nickname"`
	Password string `json:"password"`
}

type authResponse struct {
	Success  bool   `json:"success"`
	Token    string `json:"token,omitempty"`
	UserID   string `json:"user_id,omitempty"`
	Nickname string `json:"nickname,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Signup registers a nickname + password account and issues a session token.
func Signup(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, false, "invalid request body")
		return
	}

	user, err := services.CreateUser(r.Context(), req.Nickname, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrNicknameTaken) {
			writeMessage(w, http.StatusConflict, false, "nickname already taken")
			return
		}
		writeMessage(w, http.StatusBadRequest, false, err.Error())
		return
	}

	token, err := services.CreateSession(r.Context(), user.ID)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, false, "failed to create session")
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{
		Success:  true,
		Token:    token,
		UserID:   user.ID.String(),
		Nickname: user.Nickname,
	})
}

// Signin verifies credentials and issues a session token.
func Signin(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, false, "invalid request body")
		return
	}

	user, err := services.AuthenticateUser(r.Context(), req.Nickname, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			writeMessage(w, http.StatusUnauthorized, false, "invalid nickname or password")
			return
		}
		writeMessage(w, http.StatusInternalServerError, false, "sign in failed")
		return
	}

	token, err := services.CreateSession(r.Context(), user.ID)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, false, "failed to create session")
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		Success:  true,
		Token:    token,
		UserID:   user.ID.String(),
		Nickname: user.Nickname,
	})
}

// Signout invalidates the presented session token.
func Signout(w http.ResponseWriter, r *http.Request) {
	token := extractBearerToken(r.Header.Get("Authorization"))
	if token != "" {
		_ = services.InvalidateSession(r.Context(), token)
	}
	writeMessage(w, http.StatusOK, true, "signed out")
}
