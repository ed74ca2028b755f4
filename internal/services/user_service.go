package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/bonfireapp/bonfire-backend/internal/database"
	"github.com/bonfireapp/bonfire-backend/internal/models"
	"github.com/bonfireapp/bonfire-backend/pkg/utils"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

var ErrInvalidCredentials = errors.New("invalid nickname or password")

// CreateUser registers a new account with an Argon2id password hash.
func CreateUser(ctx context.Context, nickname, password string) (*models.User, error) {
	nickname = strings.TrimSpace(nickname)
	if len(nickname) < 2 || len(nickname) > 30 {
		return nil, errors.New("nickname must be 2-30 characters")
	}
	if len(password) < 8 {
		return nil, errors.New("password must be at least 8 characters")
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &models.User{Nickname: nickname, IsActive: true}
	err = database.PostgresDB.QueryRowContext(ctx, `
		INSERT INTO users (nickname, password_hash)
		VALUES ($1, $2)
		RETURNING id, created_at
	`, nickname, hash).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrNicknameTaken
		}
		return nil, err
	}
	return u, nil
}

// AuthenticateUser verifies credentials and returns the account.
func AuthenticateUser(ctx context.Context, nickname, password string) (*models.User, error) {
	u := &models.User{}
	var avatar sql.NullString
	err := database.PostgresDB.QueryRowContext(ctx, `
		SELECT id, nickname, password_hash, avatar_url, created_at, is_active
		FROM users WHERE LOWER(nickname) = LOWER($1) AND is_active = TRUE
	`, strings.TrimSpace(nickname)).Scan(&u.ID, &u.Nickname, &u.PasswordHash, &avatar, &u.CreatedAt, &u.IsActive)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	u.AvatarURL = avatar.String

	ok, err := utils.VerifyPassword(password, u.PasswordHash)
	if err != nil || !ok {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// GetNicknameByID retrieves a nickname for display. Returns "" when the user
// is missing or inactive.
func GetNicknameByID(ctx context.Context, userID uuid.UUID) (string, error) {
	var nickname string
	err := database.PostgresDB.QueryRowContext(ctx, `
		SELECT nickname FROM users WHERE id = $1 AND is_active = TRUE
	`, userID).Scan(&nickname)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	return nickname, nil
}
