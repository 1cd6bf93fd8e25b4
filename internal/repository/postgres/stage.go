package postgres

import (
	"context"
	"time"

	"game-api-server/internal/model"
)

// GetClearStage retrieves the clear record of one stage.
func (q *Queries) GetClearStage(ctx context.Context, userID int64, stageCode int) (*model.ClearStage, error) {
	const query = `
		SELECT user_id, stage_code, clear_count, first_clear_at, last_clear_at
		FROM clear_stage
		WHERE user_id = $1 AND stage_code = $2
	`

	var c model.ClearStage
	err := q.db.QueryRow(ctx, query, userID, stageCode).Scan(
		&c.UserID, &c.StageCode, &c.ClearCount, &c.FirstClearAt, &c.LastClearAt,
	)
	if err != nil {
		return nil, translate(err, "get clear stage")
	}
	return &c, nil
}

// UpsertClearStage records one more clear of the stage.
func (q *Queries) UpsertClearStage(ctx context.Context, userID int64, stageCode int, now time.Time) (*model.ClearStage, error) {
	const query = `
		INSERT INTO clear_stage (user_id, stage_code, clear_count, first_clear_at, last_clear_at)
		VALUES ($1, $2, 1, $3, $3)
		ON CONFLICT (user_id, stage_code)
		DO UPDATE SET clear_count = clear_stage.clear_count + 1, last_clear_at = $3
		RETURNING user_id, stage_code, clear_count, first_clear_at, last_clear_at
	`

	var c model.ClearStage
	err := q.db.QueryRow(ctx, query, userID, stageCode, now).Scan(
		&c.UserID, &c.StageCode, &c.ClearCount, &c.FirstClearAt, &c.LastClearAt,
	)
	if err != nil {
		return nil, translate(err, "upsert clear stage")
	}
	return &c, nil
}
