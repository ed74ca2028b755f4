package database

import (
	"database/sql"
	"log"
	"time"

	_ "github.com/lib/pq"
)

var PostgresDB *sql.DB

// ConnectPostgres connects to PostgreSQL database
func ConnectPostgres(postgresURI string) error {
	var err error

	PostgresDB, err = sql.Open("postgres", postgresURI)
	if err != nil {
		return err
	}

	// Set connection pool settings
	PostgresDB.SetMaxOpenConns(25)
	PostgresDB.SetMaxIdleConns(5)
	PostgresDB.SetConnMaxLifetime(5 * time.Minute)

	// Test connection
	if err = PostgresDB.Ping(); err != nil {
		return err
	}

	log.Println("✅ Connected to PostgreSQL")

	// Initialize tables
	if err = InitPostgresTables(); err != nil {
		return err
	}

	return nil
}

// InitPostgresTables creates all necessary tables if they don't exist
func InitPostgresTables() error {
	queries := []string{
		// Users table (public profile data only)
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			nickname VARCHAR(30) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			avatar_url TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			is_active BOOLEAN NOT NULL DEFAULT TRUE
		)`,

		// Bonfires table. The rotating secret code is deliberately NOT stored:
		// it is rederived per window from the bonfire ID and the master key.
		`CREATE TABLE IF NOT EXISTS bonfires (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			creator_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name VARCHAR(100) NOT NULL,
			description TEXT,
			latitude DOUBLE PRECISION NOT NULL,
			longitude DOUBLE PRECISION NOT NULL,
			proximity_radius_meters DOUBLE PRECISION NOT NULL DEFAULT 50,
			has_pin BOOLEAN NOT NULL DEFAULT FALSE,
			pin_hash VARCHAR(255),
			expires_at TIMESTAMPTZ NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		// Participants. Composite primary key makes the join step a plain
		// ON CONFLICT DO NOTHING upsert, so concurrent joins cannot race.
		`CREATE TABLE IF NOT EXISTS bonfire_participants (
			bonfire_id UUID NOT NULL REFERENCES bonfires(id) ON DELETE CASCADE,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			last_seen_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (bonfire_id, user_id)
		)`,

		// Indexes for better performance
		`CREATE INDEX IF NOT EXISTS idx_users_nickname ON users(nickname)`,
		`CREATE INDEX IF NOT EXISTS idx_bonfires_creator_id ON bonfires(creator_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bonfires_is_active ON bonfires(is_active)`,
		`CREATE INDEX IF NOT EXISTS idx_bonfires_expires_at ON bonfires(expires_at)`,
		`CREATE INDEX IF NOT EXISTS idx_bonfire_participants_user_id ON bonfire_participants(user_id)`,
	}

	for _, query := range queries {
		if _, err := PostgresDB.Exec(query); err != nil {
			return err
		}
	}

	log.Println("✅ PostgreSQL tables initialized")
	return nil
}

// DisconnectPostgres closes the PostgreSQL connection
func DisconnectPostgres() error {
	if PostgresDB != nil {
		return PostgresDB.Close()
	}
	return nil
}
