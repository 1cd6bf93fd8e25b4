package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"game-api-server/internal/model"
)

const mailColumns = `mail_id, user_id, title, reward_kind, reward_code, reward_count, send_at, expire_at, receive_at`

func scanMail(row pgx.Row) (*model.Mail, error) {
	var m model.Mail
	var kind string
	err := row.Scan(
		&m.MailID,
		&m.UserID,
		&m.Title,
		&kind,
		&m.Reward.Code,
		&m.Reward.Count,
		&m.SendAt,
		&m.ExpireAt,
		&m.ReceiveAt,
	)
	if err != nil {
		return nil, err
	}
	if m.Reward.Kind, err = model.ParseRewardKind(kind); err != nil {
		return nil, fmt.Errorf("mail %d: %w", m.MailID, err)
	}
	return &m, nil
}

// InsertMail delivers a mail and returns its id.
func (q *Queries) InsertMail(ctx context.Context, m *model.Mail) (int64, error) {
	const query = `
		INSERT INTO mail (user_id, title, reward_kind, reward_code, reward_count, send_at, expire_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING mail_id
	`

	var id int64
	err := q.db.QueryRow(ctx, query,
		m.UserID, m.Title, m.Reward.Kind.String(), m.Reward.Code, m.Reward.Count, m.SendAt, m.ExpireAt,
	).Scan(&id)
	if err != nil {
		return 0, translate(err, "insert mail")
	}
	return id, nil
}

// ListMail returns a page of the user's mail, newest first.
func (q *Queries) ListMail(ctx context.Context, userID int64, page model.Page) ([]model.Mail, error) {
	query := `
		SELECT ` + mailColumns + `
		FROM mail
		WHERE user_id = $1
		ORDER BY send_at DESC, mail_id DESC
		LIMIT $2 OFFSET $3
	`
	limit, offset := limitOffset(page)

	rows, err := q.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, translate(err, "list mail")
	}
	defer rows.Close()

	list := []model.Mail{}
	for rows.Next() {
		m, err := scanMail(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mail: %w", err)
		}
		list = append(list, *m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating mail: %w", err)
	}

	return list, nil
}

// GetMail retrieves one mail of the user.
func (q *Queries) GetMail(ctx context.Context, userID, mailID int64) (*model.Mail, error) {
	query := `SELECT ` + mailColumns + ` FROM mail WHERE mail_id = $1 AND user_id = $2`

	m, err := scanMail(q.db.QueryRow(ctx, query, mailID, userID))
	if err != nil {
		return nil, translate(err, "get mail")
	}
	return m, nil
}

// MarkMailReceived stamps the receive time on an unclaimed mail.
func (q *Queries) MarkMailReceived(ctx context.Context, userID, mailID int64, now time.Time) error {
	const query = `
		UPDATE mail SET receive_at = $3
		WHERE mail_id = $1 AND user_id = $2 AND receive_at IS NULL
	`
	tag, err := q.db.Exec(ctx, query, mailID, userID, now)
	return expectOne(tag, err, "mark mail received")
}
