package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"game-api-server/internal/model"
	"game-api-server/internal/repository"
)

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// InsertQuestProgress starts the given quests in one batch.
func (q *Queries) InsertQuestProgress(ctx context.Context, quests []model.QuestProgress) error {
	if len(quests) == 0 {
		return nil
	}

	const query = `
		INSERT INTO quest_progress (user_id, quest_code, progress, expire_at)
		VALUES ($1, $2, $3, $4)
	`
	batch := &pgx.Batch{}
	for _, p := range quests {
		batch.Queue(query, p.UserID, p.QuestCode, p.Progress, nullableTime(p.ExpireAt))
	}

	results := q.db.SendBatch(ctx, batch)
	defer results.Close()

	for range quests {
		if _, err := results.Exec(); err != nil {
			return translate(err, "insert quest progress")
		}
	}
	return results.Close()
}

// ListQuestProgress returns the user's in-progress quests ordered by code.
func (q *Queries) ListQuestProgress(ctx context.Context, userID int64, page model.Page) ([]model.QuestProgress, error) {
	const query = `
		SELECT user_id, quest_code, progress, expire_at
		FROM quest_progress
		WHERE user_id = $1
		ORDER BY quest_code
		LIMIT $2 OFFSET $3
	`
	limit, offset := limitOffset(page)

	rows, err := q.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, translate(err, "list quest progress")
	}
	defer rows.Close()

	list := []model.QuestProgress{}
	for rows.Next() {
		var p model.QuestProgress
		var expireAt *time.Time
		if err := rows.Scan(&p.UserID, &p.QuestCode, &p.Progress, &expireAt); err != nil {
			return nil, fmt.Errorf("failed to scan quest progress: %w", err)
		}
		if expireAt != nil {
			p.ExpireAt = *expireAt
		}
		list = append(list, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating quest progress: %w", err)
	}

	return list, nil
}

// UpdateQuestProgress writes a quest's progress counter.
func (q *Queries) UpdateQuestProgress(ctx context.Context, userID int64, questCode int, progress int64) error {
	const query = `UPDATE quest_progress SET progress = $3 WHERE user_id = $1 AND quest_code = $2`
	tag, err := q.db.Exec(ctx, query, userID, questCode, progress)
	return expectOne(tag, err, "update quest progress")
}

// CompleteQuests moves quests from progress to complete. Every listed quest
// must be in progress.
func (q *Queries) CompleteQuests(ctx context.Context, userID int64, questCodes []int, now time.Time) error {
	if len(questCodes) == 0 {
		return nil
	}

	const remove = `DELETE FROM quest_progress WHERE user_id = $1 AND quest_code = ANY($2)`
	tag, err := q.db.Exec(ctx, remove, userID, questCodes)
	if err != nil {
		return translate(err, "complete quests")
	}
	if tag.RowsAffected() != int64(len(questCodes)) {
		return fmt.Errorf("complete quests: %w", repository.ErrNoRowsAffected)
	}

	const insert = `
		INSERT INTO quest_complete (user_id, quest_code, complete_at, earned)
		SELECT $1, code, $3, FALSE FROM UNNEST($2::int[]) AS code
	`
	tag, err = q.db.Exec(ctx, insert, userID, questCodes, now)
	if err != nil {
		return translate(err, "complete quests")
	}
	if tag.RowsAffected() != int64(len(questCodes)) {
		return fmt.Errorf("complete quests: %w", repository.ErrNoRowsAffected)
	}
	return nil
}

// GetQuestComplete retrieves one completion record.
func (q *Queries) GetQuestComplete(ctx context.Context, userID int64, questCode int) (*model.QuestComplete, error) {
	const query = `
		SELECT user_id, quest_code, complete_at, earned
		FROM quest_complete
		WHERE user_id = $1 AND quest_code = $2
	`

	var c model.QuestComplete
	err := q.db.QueryRow(ctx, query, userID, questCode).Scan(&c.UserID, &c.QuestCode, &c.CompleteAt, &c.Earned)
	if err != nil {
		return nil, translate(err, "get quest complete")
	}
	return &c, nil
}

// MarkQuestEarned sets the earned flag if it is not yet set.
func (q *Queries) MarkQuestEarned(ctx context.Context, userID int64, questCode int) error {
	const query = `
		UPDATE quest_complete SET earned = TRUE
		WHERE user_id = $1 AND quest_code = $2 AND earned = FALSE
	`
	tag, err := q.db.Exec(ctx, query, userID, questCode)
	return expectOne(tag, err, "mark quest earned")
}

// ListQuestComplete returns completed quests, most recent first.
func (q *Queries) ListQuestComplete(ctx context.Context, userID int64, page model.Page) ([]model.QuestComplete, error) {
	const query = `
		SELECT user_id, quest_code, complete_at, earned
		FROM quest_complete
		WHERE user_id = $1
		ORDER BY complete_at DESC, quest_code
		LIMIT $2 OFFSET $3
	`
	limit, offset := limitOffset(page)

	rows, err := q.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, translate(err, "list quest complete")
	}
	defer rows.Close()

	list := []model.QuestComplete{}
	for rows.Next() {
		var c model.QuestComplete
		if err := rows.Scan(&c.UserID, &c.QuestCode, &c.CompleteAt, &c.Earned); err != nil {
			return nil, fmt.Errorf("failed to scan quest complete: %w", err)
		}
		list = append(list, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating quest complete: %w", err)
	}

	return list, nil
}
