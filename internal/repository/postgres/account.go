package postgres

import (
	"context"
	"time"

	"game-api-server/internal/model"
)

// CreateAccount inserts a login identity.
func (q *Queries) CreateAccount(ctx context.Context, email, passwordHash, salt string, now time.Time) (*model.Account, error) {
	const query = `
		INSERT INTO accounts (email, password_hash, salt, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING account_id, user_id, email, password_hash, salt, created_at
	`

	var a model.Account
	err := q.db.QueryRow(ctx, query, email, passwordHash, salt, now).Scan(
		&a.AccountID,
		&a.UserID,
		&a.Email,
		&a.PasswordHash,
		&a.Salt,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, translate(err, "create account")
	}

	return &a, nil
}

// GetAccountByEmail retrieves an account by its email.
// Returns repository.ErrNotFound if the account does not exist.
func (q *Queries) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	const query = `
		SELECT account_id, user_id, email, password_hash, salt, created_at
		FROM accounts
		WHERE email = $1
	`

	var a model.Account
	err := q.db.QueryRow(ctx, query, email).Scan(
		&a.AccountID,
		&a.UserID,
		&a.Email,
		&a.PasswordHash,
		&a.Salt,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, translate(err, "get account")
	}

	return &a, nil
}
