package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"game-api-server/internal/model"
	"game-api-server/internal/repository"
)

const gameDataColumns = `user_id, gold, gem, exp, level, kill_count, clear_count`

func scanGameData(row pgx.Row) (*model.UserGameData, error) {
	var d model.UserGameData
	err := row.Scan(
		&d.UserID,
		&d.Gold,
		&d.Gem,
		&d.Exp,
		&d.Level,
		&d.KillCount,
		&d.ClearCount,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// CreateGameData inserts the starting ledger of a new user.
func (q *Queries) CreateGameData(ctx context.Context, data *model.UserGameData) error {
	const query = `
		INSERT INTO user_game_data (user_id, gold, gem, exp, level, kill_count, clear_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	tag, err := q.db.Exec(ctx, query,
		data.UserID, data.Gold, data.Gem, data.Exp, data.Level, data.KillCount, data.ClearCount)
	return expectOne(tag, err, "create game data")
}

// GetGameData retrieves a user's ledger.
func (q *Queries) GetGameData(ctx context.Context, userID int64) (*model.UserGameData, error) {
	query := `SELECT ` + gameDataColumns + ` FROM user_game_data WHERE user_id = $1`

	d, err := scanGameData(q.db.QueryRow(ctx, query, userID))
	if err != nil {
		return nil, translate(err, "get game data")
	}
	return d, nil
}

// AddCurrency adds the deltas, refusing any that would leave a negative
// balance.
func (q *Queries) AddCurrency(ctx context.Context, userID int64, gold, gem int64) (*model.UserGameData, error) {
	query := `
		UPDATE user_game_data
		SET gold = gold + $2, gem = gem + $3
		WHERE user_id = $1 AND gold + $2 >= 0 AND gem + $3 >= 0
		RETURNING ` + gameDataColumns

	d, err := scanGameData(q.db.QueryRow(ctx, query, userID, gold, gem))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("add currency: %w", repository.ErrNoRowsAffected)
		}
		return nil, translate(err, "add currency")
	}
	return d, nil
}

// UpdateProgress writes exp, level and counters.
func (q *Queries) UpdateProgress(ctx context.Context, data *model.UserGameData) error {
	const query = `
		UPDATE user_game_data
		SET exp = $2, level = $3, kill_count = $4, clear_count = $5
		WHERE user_id = $1
	`
	tag, err := q.db.Exec(ctx, query, data.UserID, data.Exp, data.Level, data.KillCount, data.ClearCount)
	return expectOne(tag, err, "update progress")
}
