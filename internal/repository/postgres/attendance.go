package postgres

import (
	"context"

	"game-api-server/internal/model"
)

// GetAttendance retrieves the user's check-in state.
func (q *Queries) GetAttendance(ctx context.Context, userID int64) (*model.Attendance, error) {
	const query = `SELECT user_id, attendance_day, last_attend_at FROM attendance WHERE user_id = $1`

	var a model.Attendance
	if err := q.db.QueryRow(ctx, query, userID).Scan(&a.UserID, &a.Day, &a.LastAttendAt); err != nil {
		return nil, translate(err, "get attendance")
	}
	return &a, nil
}

// UpsertAttendance writes the user's check-in state.
func (q *Queries) UpsertAttendance(ctx context.Context, a *model.Attendance) error {
	const query = `
		INSERT INTO attendance (user_id, attendance_day, last_attend_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id)
		DO UPDATE SET attendance_day = $2, last_attend_at = $3
	`
	tag, err := q.db.Exec(ctx, query, a.UserID, a.Day, a.LastAttendAt)
	return expectOne(tag, err, "upsert attendance")
}
