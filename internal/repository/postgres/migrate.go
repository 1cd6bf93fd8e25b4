package postgres

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

var migrations = []struct {
	name string
	sql  string
}{
	{"accounts", `
		CREATE TABLE IF NOT EXISTS accounts (
			account_id BIGSERIAL PRIMARY KEY,
			user_id BIGSERIAL NOT NULL UNIQUE,
			email VARCHAR(255) NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			salt TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`},
	{"user_game_data", `
		CREATE TABLE IF NOT EXISTS user_game_data (
			user_id BIGINT PRIMARY KEY REFERENCES accounts(user_id) ON DELETE CASCADE,
			gold BIGINT NOT NULL,
			gem BIGINT NOT NULL,
			exp BIGINT NOT NULL DEFAULT 0,
			level INT NOT NULL DEFAULT 1,
			kill_count BIGINT NOT NULL DEFAULT 0,
			clear_count BIGINT NOT NULL DEFAULT 0
		);
	`},
	{"owned units", `
		CREATE TABLE IF NOT EXISTS user_characters (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			code INT NOT NULL,
			level INT NOT NULL DEFAULT 1,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_user_characters_user ON user_characters(user_id, id);

		CREATE TABLE IF NOT EXISTS user_items (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			code INT NOT NULL,
			level INT NOT NULL DEFAULT 1,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_user_items_user ON user_items(user_id, id);

		CREATE TABLE IF NOT EXISTS user_runes (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			code INT NOT NULL,
			level INT NOT NULL DEFAULT 1,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_user_runes_user ON user_runes(user_id, id);
	`},
	{"equipment", `
		CREATE TABLE IF NOT EXISTS character_equipment (
			kind SMALLINT NOT NULL,
			instance_id BIGINT NOT NULL,
			user_id BIGINT NOT NULL,
			character_id BIGINT NOT NULL,
			equipped_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (kind, instance_id)
		);
		CREATE INDEX IF NOT EXISTS idx_character_equipment_character ON character_equipment(user_id, character_id);
	`},
	{"quests", `
		CREATE TABLE IF NOT EXISTS quest_progress (
			user_id BIGINT NOT NULL,
			quest_code INT NOT NULL,
			progress BIGINT NOT NULL DEFAULT 0,
			expire_at TIMESTAMPTZ,
			PRIMARY KEY (user_id, quest_code)
		);

		CREATE TABLE IF NOT EXISTS quest_complete (
			user_id BIGINT NOT NULL,
			quest_code INT NOT NULL,
			complete_at TIMESTAMPTZ NOT NULL,
			earned BOOLEAN NOT NULL DEFAULT FALSE,
			PRIMARY KEY (user_id, quest_code)
		);
	`},
	{"mail", `
		CREATE TABLE IF NOT EXISTS mail (
			mail_id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			title VARCHAR(255) NOT NULL,
			reward_kind VARCHAR(16) NOT NULL,
			reward_code INT NOT NULL DEFAULT 0,
			reward_count BIGINT NOT NULL,
			send_at TIMESTAMPTZ NOT NULL,
			expire_at TIMESTAMPTZ NOT NULL,
			receive_at TIMESTAMPTZ
		);
		CREATE INDEX IF NOT EXISTS idx_mail_user_time ON mail(user_id, send_at DESC);
	`},
	{"clear_stage", `
		CREATE TABLE IF NOT EXISTS clear_stage (
			user_id BIGINT NOT NULL,
			stage_code INT NOT NULL,
			clear_count INT NOT NULL DEFAULT 1,
			first_clear_at TIMESTAMPTZ NOT NULL,
			last_clear_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (user_id, stage_code)
		);
	`},
	{"attendance", `
		CREATE TABLE IF NOT EXISTS attendance (
			user_id BIGINT PRIMARY KEY,
			attendance_day INT NOT NULL,
			last_attend_at TIMESTAMPTZ NOT NULL
		);
	`},
}

// Migrate creates every table the repository needs. It is idempotent.
func Migrate(ctx context.Context, db DBTX) error {
	log.Info().Msg("Running database migrations...")

	for i, m := range migrations {
		if _, err := db.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("migration %d (%s): %w", i+1, m.name, err)
		}
		log.Info().Int("step", i+1).Str("name", m.name).Msg("Migration applied")
	}

	log.Info().Msg("All migrations completed successfully")
	return nil
}
