package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"ctfbot/internal/platform/config"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
)

var DB *sql.DB

func Connect() {
	var err error
	DB, err = sql.Open("pgx", config.AppConfig.DBConnStr)
	if err != nil {
		log.Fatalf("Error opening database: %v", err)
	}

	DB.SetMaxOpenConns(25)
	DB.SetMaxIdleConns(25)
	DB.SetConnMaxLifetime(5 * time.Minute)

	// Verify connection
	if err = DB.Ping(); err != nil {
		log.Fatalf("Error connecting to database: %v", err)
	}

	fmt.Println("Successfully connected to PostgreSQL database!")
}

// EnsureSchema creates the tables and constraints the bot relies on. The
// uniqueness constraints are the last line of defense against racing
// duplicate joins and duplicate flag submissions, so they must live here
// and not only in handler logic.
func EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ctf_events (
			id              BIGSERIAL PRIMARY KEY,
			name            TEXT NOT NULL,
			url             TEXT NOT NULL DEFAULT 'N/A',
			format          TEXT NOT NULL DEFAULT 'Jeopardy',
			start_at        TIMESTAMPTZ NOT NULL,
			end_at          TIMESTAMPTZ NOT NULL,
			status          TEXT NOT NULL DEFAULT 'scheduled',
			role_id         TEXT,
			room_channel_id TEXT,
			log_channel_id  TEXT,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ctf_events_lower_name ON ctf_events (LOWER(name), id DESC)`,
		`CREATE TABLE IF NOT EXISTS memberships (
			event_id  BIGINT NOT NULL REFERENCES ctf_events(id),
			user_id   TEXT NOT NULL,
			joined_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (event_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS flag_submissions (
			id           UUID PRIMARY KEY,
			event_id     BIGINT NOT NULL REFERENCES ctf_events(id),
			user_id      TEXT NOT NULL,
			challenge    TEXT NOT NULL,
			category     TEXT NOT NULL,
			flag_value   TEXT NOT NULL,
			submitted_at TIMESTAMPTZ NOT NULL,
			UNIQUE (event_id, flag_value)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_flag_submissions_event_user ON flag_submissions (event_id, user_id)`,
	}

	for _, stmt := range stmts {
		if _, err := DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("database.EnsureSchema: %w", err)
		}
	}
	return nil
}

func Close() {
	if DB != nil {
		DB.Close()
		fmt.Println("Database connection closed.")
	}
}
