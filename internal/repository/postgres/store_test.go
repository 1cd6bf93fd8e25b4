package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"game-api-server/internal/repository"
	"game-api-server/internal/repository/postgres"
	"game-api-server/internal/repository/repotest"
	"game-api-server/internal/testutil"
)

// TestContract runs the shared repository contract against a real
// PostgreSQL container. Each subtest starts on freshly truncated tables.
func TestContract(t *testing.T) {
	pool := testutil.StartPostgres(t)
	ctx := context.Background()

	require.NoError(t, postgres.Migrate(ctx, pool))
	require.NoError(t, postgres.Migrate(ctx, pool), "migrations are idempotent")

	store := postgres.NewStore(pool)

	repotest.Run(t, func(t *testing.T) repository.Store {
		_, err := pool.Exec(ctx, `
			TRUNCATE accounts, user_game_data, user_characters, user_items, user_runes,
				character_equipment, quest_progress, quest_complete, mail, clear_stage, attendance
			RESTART IDENTITY CASCADE
		`)
		require.NoError(t, err)
		return store
	})
}
