package postgres

import (
	"context"
	"fmt"
	"time"

	"game-api-server/internal/model"
)

// unitTable maps an inventory kind onto its table. The kind is never taken
// from user input directly, so the name is safe to interpolate.
func unitTable(kind model.InventoryKind) (string, error) {
	switch kind {
	case model.KindCharacter:
		return "user_characters", nil
	case model.KindItem:
		return "user_items", nil
	case model.KindRune:
		return "user_runes", nil
	}
	return "", fmt.Errorf("unknown inventory kind %d", int(kind))
}

// InsertUnit creates an owned unit.
func (q *Queries) InsertUnit(ctx context.Context, kind model.InventoryKind, userID int64, code, level int, now time.Time) (*model.Unit, error) {
	table, err := unitTable(kind)
	if err != nil {
		return nil, err
	}
	query := `
		INSERT INTO ` + table + ` (user_id, code, level, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, user_id, code, level, created_at
	`

	u := model.Unit{Kind: kind}
	err = q.db.QueryRow(ctx, query, userID, code, level, now).Scan(
		&u.ID, &u.UserID, &u.Code, &u.Level, &u.CreatedAt,
	)
	if err != nil {
		return nil, translate(err, "insert "+kind.String())
	}
	return &u, nil
}

// GetUnit retrieves one unit owned by userID.
func (q *Queries) GetUnit(ctx context.Context, kind model.InventoryKind, userID, id int64) (*model.Unit, error) {
	table, err := unitTable(kind)
	if err != nil {
		return nil, err
	}
	query := `SELECT id, user_id, code, level, created_at FROM ` + table + ` WHERE id = $1 AND user_id = $2`

	u := model.Unit{Kind: kind}
	err = q.db.QueryRow(ctx, query, id, userID).Scan(
		&u.ID, &u.UserID, &u.Code, &u.Level, &u.CreatedAt,
	)
	if err != nil {
		return nil, translate(err, "get "+kind.String())
	}
	return &u, nil
}

// ListUnits returns a page of units ordered by id.
func (q *Queries) ListUnits(ctx context.Context, kind model.InventoryKind, userID int64, page model.Page) ([]model.Unit, error) {
	table, err := unitTable(kind)
	if err != nil {
		return nil, err
	}
	query := `
		SELECT id, user_id, code, level, created_at
		FROM ` + table + `
		WHERE user_id = $1
		ORDER BY id
		LIMIT $2 OFFSET $3
	`
	limit, offset := limitOffset(page)

	rows, err := q.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, translate(err, "list "+kind.String())
	}
	defer rows.Close()

	units := []model.Unit{}
	for rows.Next() {
		u := model.Unit{Kind: kind}
		if err := rows.Scan(&u.ID, &u.UserID, &u.Code, &u.Level, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", kind, err)
		}
		units = append(units, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", kind, err)
	}

	return units, nil
}

// DeleteUnit removes a unit owned by userID.
func (q *Queries) DeleteUnit(ctx context.Context, kind model.InventoryKind, userID, id int64) error {
	table, err := unitTable(kind)
	if err != nil {
		return err
	}
	tag, err := q.db.Exec(ctx, `DELETE FROM `+table+` WHERE id = $1 AND user_id = $2`, id, userID)
	return expectOne(tag, err, "delete "+kind.String())
}

// SetUnitLevel writes a unit's level.
func (q *Queries) SetUnitLevel(ctx context.Context, kind model.InventoryKind, userID, id int64, level int) error {
	table, err := unitTable(kind)
	if err != nil {
		return err
	}
	tag, err := q.db.Exec(ctx, `UPDATE `+table+` SET level = $3 WHERE id = $1 AND user_id = $2`, id, userID, level)
	return expectOne(tag, err, "set "+kind.String()+" level")
}

// HasUnitCode reports whether the user owns any unit of code.
func (q *Queries) HasUnitCode(ctx context.Context, kind model.InventoryKind, userID int64, code int) (bool, error) {
	table, err := unitTable(kind)
	if err != nil {
		return false, err
	}
	query := `SELECT EXISTS(SELECT 1 FROM ` + table + ` WHERE user_id = $1 AND code = $2)`

	var exists bool
	if err := q.db.QueryRow(ctx, query, userID, code).Scan(&exists); err != nil {
		return false, translate(err, "check "+kind.String()+" ownership")
	}
	return exists, nil
}
