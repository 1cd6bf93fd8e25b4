package postgres

import (
	"context"
	"fmt"

	"game-api-server/internal/model"
)

// IsEquipped reports whether any character holds the instance.
func (q *Queries) IsEquipped(ctx context.Context, kind model.InventoryKind, instanceID int64) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM character_equipment WHERE kind = $1 AND instance_id = $2)`

	var exists bool
	if err := q.db.QueryRow(ctx, query, int(kind), instanceID).Scan(&exists); err != nil {
		return false, translate(err, "check equipment")
	}
	return exists, nil
}

// InsertEquipment links an instance to a character. The primary key on
// (kind, instance_id) rejects a second holder with ErrDuplicate.
func (q *Queries) InsertEquipment(ctx context.Context, e model.Equipment) error {
	const query = `
		INSERT INTO character_equipment (kind, instance_id, user_id, character_id)
		VALUES ($1, $2, $3, $4)
	`
	tag, err := q.db.Exec(ctx, query, int(e.Kind), e.InstanceID, e.UserID, e.CharacterID)
	return expectOne(tag, err, "insert equipment")
}

// DeleteEquipment unlinks an instance from the given character.
func (q *Queries) DeleteEquipment(ctx context.Context, e model.Equipment) error {
	const query = `
		DELETE FROM character_equipment
		WHERE kind = $1 AND instance_id = $2 AND user_id = $3 AND character_id = $4
	`
	tag, err := q.db.Exec(ctx, query, int(e.Kind), e.InstanceID, e.UserID, e.CharacterID)
	return expectOne(tag, err, "delete equipment")
}

// ListEquipment returns everything equipped by one character.
func (q *Queries) ListEquipment(ctx context.Context, userID, characterID int64) ([]model.Equipment, error) {
	const query = `
		SELECT user_id, character_id, instance_id, kind
		FROM character_equipment
		WHERE user_id = $1 AND character_id = $2
		ORDER BY kind, instance_id
	`

	rows, err := q.db.Query(ctx, query, userID, characterID)
	if err != nil {
		return nil, translate(err, "list equipment")
	}
	defer rows.Close()

	list := []model.Equipment{}
	for rows.Next() {
		var e model.Equipment
		var kind int
		if err := rows.Scan(&e.UserID, &e.CharacterID, &e.InstanceID, &kind); err != nil {
			return nil, fmt.Errorf("failed to scan equipment: %w", err)
		}
		e.Kind = model.InventoryKind(kind)
		list = append(list, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating equipment: %w", err)
	}

	return list, nil
}
